// # internal/render/bucket.go
package render

import (
	"sort"
	"strings"

	"focal/internal/model"
)

// namedItem is a rendered module-scope declaration identified by name.
type namedItem struct {
	name   string
	text   string
	direct bool
}

// member is a rendered trait/impl member.
type member struct {
	name   string
	text   string
	direct bool
}

// compound is a rendered trait or impl shell with its selected members.
type compound struct {
	kind       model.Kind
	name       string
	targetType string
	traitName  string
	header     string
	full       bool
	direct     bool
	types      []member
	consts     []member
	fns        []member
}

func (c *compound) findFn(name string) *member {
	for i := range c.fns {
		if c.fns[i].name == name {
			return &c.fns[i]
		}
	}
	return nil
}

// mergeFn inserts or upgrades a member function. A member placed by the
// direct pass is never overwritten, and a version carrying a non-empty body
// is never replaced by an empty-body version.
func (c *compound) mergeFn(name, text string, direct bool) {
	existing := c.findFn(name)
	if existing == nil {
		c.fns = append(c.fns, member{name: name, text: text, direct: direct})
		return
	}
	if existing.direct {
		return
	}
	if HasBody(existing.text) && !HasBody(text) {
		return
	}
	existing.text = text
	if direct {
		existing.direct = true
	}
}

func (c *compound) mergeSimpleMember(list *[]member, text string) {
	for _, m := range *list {
		if m.text == text {
			return
		}
	}
	*list = append(*list, member{text: text})
}

// Bucket accumulates the declarations selected for one module of an entry
// point's context. Simple kinds are pre-populated from the module when the
// bucket is first touched, so the rendered section parses standalone.
type Bucket struct {
	module string

	uses         []string
	statics      []string
	consts       []string
	macros       []string
	typeAliases  []string
	traitAliases []string

	fns     map[string]*namedItem
	enums   map[string]*namedItem
	structs map[string]*namedItem
	unions  map[string]*namedItem

	traits map[string]*compound
	impls  map[string]*compound
}

func newBucket(module string) *Bucket {
	return &Bucket{
		module:  module,
		fns:     make(map[string]*namedItem),
		enums:   make(map[string]*namedItem),
		structs: make(map[string]*namedItem),
		unions:  make(map[string]*namedItem),
		traits:  make(map[string]*compound),
		impls:   make(map[string]*compound),
	}
}

func implKey(targetType, traitName string) string {
	return targetType + "|" + traitName
}

func appendText(list []string, text string) []string {
	for _, existing := range list {
		if existing == text {
			return list
		}
	}
	return append(list, text)
}

// render writes the bucket in canonical kind order: uses, statics, consts,
// fns, macros, aliases, enums, structs, unions, traits, trait aliases,
// impls; within a kind, name (or text) sort order. The ordering is what
// makes a run byte-for-byte reproducible.
func (b *Bucket) render(sb *strings.Builder) {
	sb.WriteString("// ")
	sb.WriteString(b.module)
	sb.WriteByte('\n')

	for _, list := range [][]string{b.uses, b.statics, b.consts} {
		writeTexts(sb, list)
	}
	writeNamed(sb, b.fns)
	writeTexts(sb, b.macros)
	writeTexts(sb, b.typeAliases)
	writeNamed(sb, b.enums)
	writeNamed(sb, b.structs)
	writeNamed(sb, b.unions)
	writeCompounds(sb, b.traits)
	writeTexts(sb, b.traitAliases)
	writeCompounds(sb, b.impls)
}

func writeTexts(sb *strings.Builder, list []string) {
	sorted := make([]string, len(list))
	copy(sorted, list)
	sort.Strings(sorted)
	for _, text := range sorted {
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
}

func writeNamed(sb *strings.Builder, items map[string]*namedItem) {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(items[name].text)
		sb.WriteByte('\n')
	}
}

func writeCompounds(sb *strings.Builder, compounds map[string]*compound) {
	keys := make([]string, 0, len(compounds))
	for key := range compounds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writeCompound(sb, compounds[key])
	}
}

func writeCompound(sb *strings.Builder, c *compound) {
	sb.WriteString(c.header)
	sb.WriteString(" {\n")
	writeMembers(sb, c.types)
	writeMembers(sb, c.consts)
	writeMembers(sb, c.fns)
	sb.WriteString("}\n")
}

func writeMembers(sb *strings.Builder, members []member) {
	sorted := make([]member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].name != sorted[j].name {
			return sorted[i].name < sorted[j].name
		}
		return sorted[i].text < sorted[j].text
	})
	for _, m := range sorted {
		for _, line := range strings.Split(m.text, "\n") {
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
}
