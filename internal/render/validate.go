// # internal/render/validate.go
package render

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// Validator re-parses declaration source text before it is admitted into a
// rendered context. Text that fails to parse is a front-end contract
// violation: the declaration is skipped for the current entry point only.
type Validator struct {
	lang *sitter.Language
	pool sync.Pool
}

func NewValidator() *Validator {
	lang := sitter.NewLanguage(tree_sitter_rust.Language())
	v := &Validator{lang: lang}
	v.pool = sync.Pool{
		New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(lang)
			return p
		},
	}
	return v
}

// ValidDecl reports whether the text parses standalone as a module-scope
// declaration.
func (v *Validator) ValidDecl(text string) bool {
	if v == nil {
		return true
	}
	return v.parseClean([]byte(text))
}

// ValidMember reports whether the text parses as a trait/impl member. The
// text is wrapped in a synthetic trait so prototypes without bodies parse.
func (v *Validator) ValidMember(text string) bool {
	if v == nil {
		return true
	}
	return v.parseClean([]byte(fmt.Sprintf("trait __Probe { %s }", text)))
}

func (v *Validator) parseClean(source []byte) bool {
	parser := v.pool.Get().(*sitter.Parser)
	defer func() {
		parser.Reset()
		v.pool.Put(parser)
	}()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return false
	}
	defer tree.Close()

	root := tree.RootNode()
	return root != nil && !root.HasError()
}
