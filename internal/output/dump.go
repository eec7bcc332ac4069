// # internal/output/dump.go
package output

import (
	"fmt"
	"strings"

	"focal/internal/model"
)

// Dump renders the whole collected declaration model as a human-readable
// listing. It is written once per run (context.txt) before any entry point is
// processed, so a bad extraction can be diagnosed against what the front end
// actually reported.
func Dump(modules []*model.Module) string {
	var sb strings.Builder
	for _, m := range modules {
		fmt.Fprintf(&sb, "module %s\n", m.Name)
		if len(m.Refs) > 0 {
			fmt.Fprintf(&sb, "  refs: %s\n", strings.Join(m.Refs.Sorted(), ", "))
		}
		dumpDecls(&sb, m.Uses)
		dumpDecls(&sb, m.Statics)
		dumpDecls(&sb, m.Consts)
		dumpDecls(&sb, m.Fns)
		dumpDecls(&sb, m.Macros)
		dumpDecls(&sb, m.TypeAliases)
		dumpDecls(&sb, m.OpaqueTypes)
		dumpDecls(&sb, m.Enums)
		dumpDecls(&sb, m.Structs)
		dumpDecls(&sb, m.Unions)
		dumpDecls(&sb, m.Traits)
		dumpDecls(&sb, m.TraitAliases)
		dumpDecls(&sb, m.Impls)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func dumpDecls(sb *strings.Builder, decls []*model.Decl) {
	for _, d := range decls {
		label := d.Name
		if label == "" {
			label = firstLine(d.Text)
		}
		fmt.Fprintf(sb, "  %s %s\n", d.Kind, label)
		if len(d.Refs) > 0 {
			fmt.Fprintf(sb, "    refs: %s\n", strings.Join(d.Refs.Sorted(), ", "))
		}
		for _, member := range d.Fns {
			fmt.Fprintf(sb, "    %s %s\n", member.Kind, member.Name)
			if len(member.Refs) > 0 {
				fmt.Fprintf(sb, "      refs: %s\n", strings.Join(member.Refs.Sorted(), ", "))
			}
		}
	}
}

func firstLine(text string) string {
	if at := strings.IndexByte(text, '\n'); at >= 0 {
		return text[:at]
	}
	return text
}
