// # internal/model/decl.go
package model

import "sort"

// Kind identifies the source-level declaration kind. All declaration kinds
// share one record type (Decl) so that lookup and canonical ordering never
// need per-kind branching.
type Kind int

const (
	KindUse Kind = iota
	KindStatic
	KindConst
	KindFn
	KindMacro
	KindTypeAlias
	KindOpaqueType
	KindEnum
	KindStruct
	KindUnion
	KindTrait
	KindTraitAlias
	KindImpl
	KindAssocType
	KindAssocConst
	KindMethod
)

var kindNames = map[Kind]string{
	KindUse:        "use",
	KindStatic:     "static",
	KindConst:      "const",
	KindFn:         "fn",
	KindMacro:      "macro",
	KindTypeAlias:  "type_alias",
	KindOpaqueType: "opaque_type",
	KindEnum:       "enum",
	KindStruct:     "struct",
	KindUnion:      "union",
	KindTrait:      "trait",
	KindTraitAlias: "trait_alias",
	KindImpl:       "impl",
	KindAssocType:  "assoc_type",
	KindAssocConst: "assoc_const",
	KindMethod:     "method",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Named reports whether declarations of this kind are identified (and
// deduplicated) by qualified name. Unnamed kinds compare by full source text.
func (k Kind) Named() bool {
	switch k {
	case KindUse, KindStatic, KindConst, KindMacro, KindTypeAlias, KindOpaqueType, KindTraitAlias:
		return false
	}
	return true
}

// Compound reports whether the kind owns member declarations.
func (k Kind) Compound() bool {
	return k == KindTrait || k == KindImpl
}

// Span is a byte range inside one source file.
type Span struct {
	File  string
	Start uint
	End   uint
}

// Subsumes reports whether s fully contains other within the same file.
func (s Span) Subsumes(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && s.End >= other.End
}

// RefSet is a set of qualified names a declaration mentions.
type RefSet map[string]struct{}

func NewRefSet(names ...string) RefSet {
	rs := make(RefSet, len(names))
	for _, name := range names {
		rs.Add(name)
	}
	return rs
}

func (rs RefSet) Add(name string) {
	if name == "" {
		return
	}
	rs[name] = struct{}{}
}

func (rs RefSet) AddAll(other RefSet) {
	for name := range other {
		rs[name] = struct{}{}
	}
}

func (rs RefSet) Has(name string) bool {
	_, ok := rs[name]
	return ok
}

// Sorted returns the set contents in lexicographic order.
func (rs RefSet) Sorted() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (rs RefSet) Clone() RefSet {
	out := make(RefSet, len(rs))
	for name := range rs {
		out[name] = struct{}{}
	}
	return out
}

// Decl is one source declaration. Named kinds carry a globally qualified
// Name; simple kinds (use, static, const, macro, aliases) may leave it empty
// and are identified by Text instead. Compound kinds (trait, impl) own
// ordered member collections which are Decls in their own right.
type Decl struct {
	Kind Kind
	Name string
	Text string
	Span Span
	Refs RefSet

	// Impl extras. TargetType is the implementing type's qualified name,
	// TraitName the implemented trait's qualified name (empty for inherent
	// impls). Both are also present in Refs.
	TargetType string
	TraitName  string

	// Members, in source order. Only populated for compound kinds.
	Types  []*Decl
	Consts []*Decl
	Fns    []*Decl
}

func (d *Decl) IsCompound() bool {
	return d != nil && d.Kind.Compound()
}

// FindFn returns the member function with the given qualified name, or nil.
func (d *Decl) FindFn(name string) *Decl {
	if d == nil {
		return nil
	}
	for _, fn := range d.Fns {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Clone returns a deep copy. Member slices and reference sets are copied so
// callers can mutate the clone without touching the shared model.
func (d *Decl) Clone() *Decl {
	if d == nil {
		return nil
	}
	out := *d
	out.Refs = d.Refs.Clone()
	out.Types = cloneDecls(d.Types)
	out.Consts = cloneDecls(d.Consts)
	out.Fns = cloneDecls(d.Fns)
	return &out
}

func cloneDecls(in []*Decl) []*Decl {
	if in == nil {
		return nil
	}
	out := make([]*Decl, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}

// LocalName returns the final path segment of a qualified name.
func LocalName(qualified string) string {
	for i := len(qualified) - 2; i > 0; i-- {
		if qualified[i] == ':' && qualified[i-1] == ':' {
			return qualified[i+1:]
		}
	}
	return qualified
}
