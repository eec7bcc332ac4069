// # internal/output/report.go
package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// EntryResult is one row of the run report: what was extracted for a single
// entry point and how large its context came out.
type EntryResult struct {
	Entry        string
	File         string
	Modules      int
	DirectSize   int
	IndirectSize int
	Skipped      bool
	Err          string
}

// Report collects per-entry results across workers and renders a TSV summary.
type Report struct {
	mu   sync.Mutex
	rows []EntryResult
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Add(row EntryResult) {
	r.mu.Lock()
	r.rows = append(r.rows, row)
	r.mu.Unlock()
}

func (r *Report) Rows() []EntryResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EntryResult, len(r.rows))
	copy(out, r.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Entry < out[j].Entry })
	return out
}

// GenerateTSV renders the report sorted by entry name.
func (r *Report) GenerateTSV() string {
	var buf strings.Builder
	buf.WriteString("Entry\tFile\tModules\tDirect\tIndirect\tStatus\n")
	for _, row := range r.Rows() {
		status := "ok"
		if row.Skipped {
			status = "skipped: " + row.Err
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%d\t%s\n",
			row.Entry, row.File, row.Modules, row.DirectSize, row.IndirectSize, status))
	}
	return buf.String()
}
