// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"focal/internal/closure"
	"focal/internal/symgraph"
)

// DOTGenerator renders the reference graph of one entry point's closure in
// Graphviz DOT form. Names in the direct set are highlighted; names that
// resolve to nothing in the index are drawn dashed.
type DOTGenerator struct {
	ix *symgraph.Index
}

func NewDOTGenerator(ix *symgraph.Index) *DOTGenerator {
	return &DOTGenerator{ix: ix}
}

func (d *DOTGenerator) Generate(entry string, res closure.Result) string {
	var buf strings.Builder

	buf.WriteString("digraph focal {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n\n")

	for _, name := range res.Indirect.Sorted() {
		attrs := ""
		switch {
		case name == entry:
			attrs = ", style=\"rounded,filled\", fillcolor=\"#ffd27f\""
		case res.Direct.Has(name):
			attrs = ", style=\"rounded,filled\", fillcolor=\"#d0e6ff\""
		case len(d.ix.Lookup(name)) == 0:
			attrs = ", style=\"rounded,dashed\""
		}
		buf.WriteString(fmt.Sprintf("  %q [label=%q%s];\n", name, name, attrs))
	}
	buf.WriteByte('\n')

	for _, name := range res.Indirect.Sorted() {
		for _, ref := range d.ix.Refs(name).Sorted() {
			if !res.Indirect.Has(ref) {
				continue
			}
			buf.WriteString(fmt.Sprintf("  %q -> %q;\n", name, ref))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}
