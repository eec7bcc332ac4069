// # internal/closure/closure.go
package closure

import (
	"sort"

	"focal/internal/model"
	"focal/internal/symgraph"
)

// Result holds the two name sets an entry point's extraction renders from.
// Direct is the seed (the entry's own name plus its immediate context);
// Indirect is the full transitive closure of Direct over reference edges.
type Result struct {
	Direct   model.RefSet
	Indirect model.RefSet
}

// Seed builds the direct set for an entry point: the entry's own qualified
// name, its declared references, the enclosing compound declaration's
// references (when the entry is a trait or impl method), and the module-level
// references.
func Seed(entry *model.Decl, enclosing *model.Decl, mod *model.Module) model.RefSet {
	seed := make(model.RefSet)
	if entry != nil {
		seed.Add(entry.Name)
		seed.AddAll(entry.Refs)
	}
	if enclosing != nil {
		seed.AddAll(enclosing.Refs)
	}
	if mod != nil {
		seed.AddAll(mod.Refs)
	}
	return seed
}

// Compute runs the worklist: pop the lexicographically smallest pending
// name, mark it visited, enqueue its own references. The visited set bounds
// the walk on cyclic reference graphs, and the total order on names makes
// the visitation sequence deterministic. Names that resolve to nothing in
// the index contribute no outgoing edges but still appear in the result.
func Compute(ix *symgraph.Index, seed model.RefSet) Result {
	direct := seed.Clone()
	indirect := make(model.RefSet)

	pending := seed.Sorted()
	inPending := seed.Clone()

	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		delete(inPending, name)

		if indirect.Has(name) {
			continue
		}
		indirect.Add(name)

		for _, ref := range ix.Refs(name).Sorted() {
			if indirect.Has(ref) || inPending.Has(ref) {
				continue
			}
			at := sort.SearchStrings(pending, ref)
			pending = append(pending, "")
			copy(pending[at+1:], pending[at:])
			pending[at] = ref
			inPending.Add(ref)
		}
	}

	return Result{Direct: direct, Indirect: indirect}
}
