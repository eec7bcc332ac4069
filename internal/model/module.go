// # internal/model/module.go
package model

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Module is the container of every declaration collection for one source
// module. It is mutable while the front end is inside the module and becomes
// immutable once Close is called.
type Module struct {
	Name string

	Uses         []*Decl
	Statics      []*Decl
	Consts       []*Decl
	Fns          []*Decl
	Macros       []*Decl
	TypeAliases  []*Decl
	OpaqueTypes  []*Decl
	Enums        []*Decl
	Structs      []*Decl
	Unions       []*Decl
	Traits       []*Decl
	TraitAliases []*Decl
	Impls        []*Decl

	// Refs holds module-level bindings that do not resolve to a single
	// declaration (static/const initializers, type alias targets).
	Refs RefSet

	// markers accumulates capability markers (pseudo-impl entries reported
	// by the front end for derives) keyed by target name until Close.
	markers map[string]map[string]struct{}
	closed  bool
}

func NewModule(name string) *Module {
	return &Module{
		Name:    name,
		Refs:    make(RefSet),
		markers: make(map[string]map[string]struct{}),
	}
}

// Closed reports whether the module has been finalized.
func (m *Module) Closed() bool {
	return m != nil && m.closed
}

// Add inserts a declaration into the collection matching its kind. Named
// kinds replace an existing declaration with the same qualified name; simple
// kinds collapse on identical text, and a use whose span is subsumed by an
// already recorded use is dropped. Adding to a closed module is rejected.
func (m *Module) Add(d *Decl) error {
	if m == nil || d == nil {
		return nil
	}
	if m.closed {
		return fmt.Errorf("module %q is closed", m.Name)
	}
	switch d.Kind {
	case KindUse:
		for _, existing := range m.Uses {
			if existing.Text == d.Text || existing.Span.Subsumes(d.Span) {
				return nil
			}
		}
		m.Uses = append(m.Uses, d)
	case KindStatic:
		m.Statics = addByText(m.Statics, d)
	case KindConst:
		m.Consts = addByText(m.Consts, d)
	case KindFn:
		m.Fns = addByName(m.Fns, d)
	case KindMacro:
		m.Macros = addByText(m.Macros, d)
	case KindTypeAlias:
		m.TypeAliases = addByText(m.TypeAliases, d)
	case KindOpaqueType:
		m.OpaqueTypes = addByText(m.OpaqueTypes, d)
	case KindEnum:
		m.Enums = addByName(m.Enums, d)
	case KindStruct:
		m.Structs = addByName(m.Structs, d)
	case KindUnion:
		m.Unions = addByName(m.Unions, d)
	case KindTrait:
		m.Traits = addByName(m.Traits, d)
	case KindTraitAlias:
		m.TraitAliases = addByText(m.TraitAliases, d)
	case KindImpl:
		// An inherent impl and a trait impl for the same type are distinct
		// declarations; dedup runs on the (target, trait) pair.
		m.Impls = addImplDecl(m.Impls, d)
	default:
		return fmt.Errorf("declaration kind %s cannot be added at module scope", d.Kind)
	}
	return nil
}

func addByName(list []*Decl, d *Decl) []*Decl {
	for i, existing := range list {
		if existing.Name == d.Name {
			list[i] = d
			return list
		}
	}
	return append(list, d)
}

func addImplDecl(list []*Decl, d *Decl) []*Decl {
	for i, existing := range list {
		if existing.TargetType == d.TargetType && existing.TraitName == d.TraitName {
			list[i] = d
			return list
		}
	}
	return append(list, d)
}

func addByText(list []*Decl, d *Decl) []*Decl {
	for _, existing := range list {
		if existing.Text == d.Text {
			return list
		}
	}
	return append(list, d)
}

// AddCapabilityMarker records a synthetic capability marker (for example a
// derived trait reported as a pseudo-impl with no executable members) for the
// named target. Markers are merged into the target declaration's source text
// when the module closes.
func (m *Module) AddCapabilityMarker(target, capability string) error {
	if m == nil || target == "" || capability == "" {
		return nil
	}
	if m.closed {
		return fmt.Errorf("module %q is closed", m.Name)
	}
	set, ok := m.markers[target]
	if !ok {
		set = make(map[string]struct{})
		m.markers[target] = set
	}
	set[capability] = struct{}{}
	return nil
}

// Close finalizes the module: all capability markers recorded for the same
// target are merged into a single synthesized annotation line prefixed to
// that declaration's source text. Runs exactly once; later calls are no-ops.
func (m *Module) Close() {
	if m == nil || m.closed {
		return
	}
	m.closed = true

	targets := make([]string, 0, len(m.markers))
	for target := range m.markers {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		capabilities := make([]string, 0, len(m.markers[target]))
		for capability := range m.markers[target] {
			capabilities = append(capabilities, capability)
		}
		sort.Strings(capabilities)
		line := fmt.Sprintf("#[derive(%s)]", strings.Join(capabilities, ", "))

		d := m.findAnnotationTarget(target)
		if d == nil {
			slog.Debug("capability marker target not found", "module", m.Name, "target", target)
			continue
		}
		d.Text = line + "\n" + d.Text
	}
	m.markers = nil
}

func (m *Module) findAnnotationTarget(target string) *Decl {
	for _, list := range [][]*Decl{m.Structs, m.Enums, m.Unions} {
		for _, d := range list {
			if d.Name == target || LocalName(d.Name) == target {
				return d
			}
		}
	}
	return nil
}

// EachEntryPoint invokes fn for every function-like declaration in the
// module: free functions, trait methods (default or not) and impl methods.
// The enclosing compound declaration is passed for nested members, nil for
// free functions.
func (m *Module) EachEntryPoint(fn func(entry *Decl, enclosing *Decl)) {
	if m == nil || fn == nil {
		return
	}
	for _, d := range m.Fns {
		fn(d, nil)
	}
	for _, trait := range m.Traits {
		for _, method := range trait.Fns {
			fn(method, trait)
		}
	}
	for _, impl := range m.Impls {
		for _, method := range impl.Fns {
			fn(method, impl)
		}
	}
}
