// # internal/output/namemap.go
package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"focal/internal/util"
)

// NameMap accumulates the qualified-name to file-name mapping for one run
// and flushes it to name_map.json in the output directory. Workers record
// entries concurrently; Flush is called once after they join.
type NameMap struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewNameMap() *NameMap {
	return &NameMap{entries: make(map[string]string)}
}

func (n *NameMap) Add(qualified, fileName string) {
	n.mu.Lock()
	n.entries[qualified] = fileName
	n.mu.Unlock()
}

func (n *NameMap) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Flush serializes the mapping with sorted keys and writes it atomically.
func (n *NameMap) Flush(dir string) error {
	n.mu.Lock()
	snapshot := make(map[string]string, len(n.entries))
	for k, v := range n.entries {
		snapshot[k] = v
	}
	n.mu.Unlock()

	// encoding/json emits map keys in sorted order, which keeps the file
	// diffable between runs.
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal name map: %w", err)
	}
	data = append(data, '\n')
	if err := util.WriteFileAtomic(filepath.Join(dir, "name_map.json"), data, 0o644); err != nil {
		return fmt.Errorf("write name map: %w", err)
	}
	return nil
}
