// # internal/symgraph/index.go
package symgraph

import (
	"focal/internal/model"
)

// Entry is one resolution candidate for a qualified name. When the name hits
// a member nested inside a trait or impl, Enclosing carries the compound
// declaration so extraction can render the enclosing shell.
type Entry struct {
	Module    string
	Decl      *model.Decl
	Enclosing *model.Decl
}

// Index is the flattened, queryable view over all modules' declarations,
// built once after the front end reports the full module list. A name may
// resolve to several entries (an impl's target type and a method can share a
// name); every candidate participates in closure and assembly.
type Index struct {
	entries map[string][]Entry
	modules []*model.Module
	byName  map[string]*model.Module
}

// Build precomputes the name index from the ordered module list. The module
// list is treated as read-only from here on.
func Build(modules []*model.Module) *Index {
	ix := &Index{
		entries: make(map[string][]Entry),
		modules: modules,
		byName:  make(map[string]*model.Module, len(modules)),
	}
	for _, m := range modules {
		if m == nil {
			continue
		}
		ix.byName[m.Name] = m
		ix.indexModule(m)
	}
	return ix
}

func (ix *Index) indexModule(m *model.Module) {
	for _, d := range m.Fns {
		ix.add(d.Name, Entry{Module: m.Name, Decl: d})
	}
	for _, list := range [][]*model.Decl{m.Enums, m.Structs, m.Unions} {
		for _, d := range list {
			ix.add(d.Name, Entry{Module: m.Name, Decl: d})
		}
	}
	for _, trait := range m.Traits {
		ix.add(trait.Name, Entry{Module: m.Name, Decl: trait})
		for _, method := range trait.Fns {
			ix.add(method.Name, Entry{Module: m.Name, Decl: method, Enclosing: trait})
		}
	}
	for _, impl := range m.Impls {
		ix.add(impl.TargetType, Entry{Module: m.Name, Decl: impl})
		if impl.TraitName != "" {
			ix.add(impl.TraitName, Entry{Module: m.Name, Decl: impl})
		}
		for _, method := range impl.Fns {
			ix.add(method.Name, Entry{Module: m.Name, Decl: method, Enclosing: impl})
		}
	}
}

func (ix *Index) add(name string, e Entry) {
	if name == "" {
		return
	}
	ix.entries[name] = append(ix.entries[name], e)
}

// Lookup returns every declaration candidate owning the qualified name, in
// module-list order. An unknown name returns nil; callers treat that as an
// external or builtin reference and drop it silently.
func (ix *Index) Lookup(name string) []Entry {
	if ix == nil {
		return nil
	}
	return ix.entries[name]
}

// Refs returns the union of the reference sets of every candidate for the
// name, which is the adjacency function the closure walks.
func (ix *Index) Refs(name string) model.RefSet {
	out := make(model.RefSet)
	for _, e := range ix.Lookup(name) {
		if e.Decl != nil {
			out.AddAll(e.Decl.Refs)
		}
	}
	return out
}

// Modules returns the ordered module list the index was built from.
func (ix *Index) Modules() []*model.Module {
	if ix == nil {
		return nil
	}
	return ix.modules
}

// Module returns the module with the given name, or nil.
func (ix *Index) Module(name string) *model.Module {
	if ix == nil {
		return nil
	}
	return ix.byName[name]
}

// Size returns the number of distinct indexed names.
func (ix *Index) Size() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}
