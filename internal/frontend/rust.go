// # internal/frontend/rust.go
package frontend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"focal/internal/model"
	"focal/internal/observability"
)

// RustFrontend builds the declaration model from a Rust crate using the
// tree-sitter grammar. Qualified names use :: separators rooted at "crate".
type RustFrontend struct {
	crawler *Crawler
	pool    *ParserPool
	log     *slog.Logger
}

func NewRustFrontend(root string, excludeDirs, excludeFiles []string, logger *slog.Logger) (*RustFrontend, error) {
	crawler, err := NewCrawler(root, excludeDirs, excludeFiles)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	lang := sitter.NewLanguage(tree_sitter_rust.Language())
	return &RustFrontend{
		crawler: crawler,
		pool:    NewParserPool(lang),
		log:     logger,
	}, nil
}

func (f *RustFrontend) ListModules(ctx context.Context) ([]*model.Module, error) {
	files, err := f.crawler.Crawl()
	if err != nil {
		return nil, err
	}

	modules := make(map[string]*model.Module)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.extractFile(file, modules); err != nil {
			// A file the grammar cannot parse is reported and skipped; the
			// rest of the crate still produces a model.
			f.log.Warn("skipping unparseable file", "file", file, "error", err)
		}
	}

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*model.Module, 0, len(names))
	for _, name := range names {
		m := modules[name]
		m.Close()
		out = append(out, m)
	}
	return out, nil
}

func (f *RustFrontend) extractFile(file string, modules map[string]*model.Module) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	start := time.Now()
	parser := f.pool.Get()
	tree := parser.Parse(source, nil)
	f.pool.Put(parser)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())

	if tree == nil {
		return fmt.Errorf("parse returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return fmt.Errorf("parse returned no root node")
	}
	if root.HasError() {
		f.log.Debug("syntax errors in file, extracting what parses", "file", file)
	}

	modPath := f.crawler.ModulePath(file)
	f.extractScope(root, source, file, modPath, modules)
	return nil
}

// scope holds the name-resolution context of one declaration list: the use
// aliases visible in it and the names declared at its level.
type scope struct {
	file    string
	modPath string
	source  []byte
	aliases map[string]string
	locals  map[string]bool
}

func (f *RustFrontend) extractScope(list *sitter.Node, source []byte, file, modPath string, modules map[string]*model.Module) {
	mod, ok := modules[modPath]
	if !ok {
		mod = model.NewModule(modPath)
		modules[modPath] = mod
	}

	sc := &scope{
		file:    file,
		modPath: modPath,
		source:  source,
		aliases: make(map[string]string),
		locals:  make(map[string]bool),
	}
	f.prescan(list, sc)

	var pendingAttrs []*sitter.Node
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		switch child.Kind() {
		case "attribute_item":
			pendingAttrs = append(pendingAttrs, child)
			continue
		case "inner_attribute_item", "line_comment", "block_comment":
			continue
		}
		f.extractItem(child, pendingAttrs, sc, mod, modules)
		pendingAttrs = nil
	}
}

// prescan records the use aliases and locally declared names of a scope so
// reference tokens can be qualified while items are extracted.
func (f *RustFrontend) prescan(list *sitter.Node, sc *scope) {
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		switch child.Kind() {
		case "use_declaration":
			for j := uint(0); j < child.ChildCount(); j++ {
				f.collectUseAliases(child.Child(j), "", sc)
			}
		case "function_item", "struct_item", "enum_item", "union_item",
			"trait_item", "type_item", "mod_item", "macro_definition":
			if name := child.ChildByFieldName("name"); name != nil {
				sc.locals[f.text(name, sc.source)] = true
			}
		case "const_item", "static_item":
			if name := child.ChildByFieldName("name"); name != nil {
				sc.locals[f.text(name, sc.source)] = true
			}
		}
	}
}

// collectUseAliases walks one use tree and records local-name to full-path
// bindings. prefix carries the path accumulated by enclosing scoped lists.
func (f *RustFrontend) collectUseAliases(node *sitter.Node, prefix string, sc *scope) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier", "type_identifier", "crate", "self", "super":
		full := joinPath(prefix, f.text(node, sc.source))
		sc.aliases[model.LocalName(full)] = f.normalizePath(full, sc)
	case "scoped_identifier":
		full := joinPath(prefix, f.pathText(node, sc.source))
		sc.aliases[model.LocalName(full)] = f.normalizePath(full, sc)
	case "use_as_clause":
		path := node.ChildByFieldName("path")
		alias := node.ChildByFieldName("alias")
		if path != nil && alias != nil {
			full := joinPath(prefix, f.pathText(path, sc.source))
			sc.aliases[f.text(alias, sc.source)] = f.normalizePath(full, sc)
		}
	case "scoped_use_list":
		path := node.ChildByFieldName("path")
		list := node.ChildByFieldName("list")
		base := prefix
		if path != nil {
			base = joinPath(prefix, f.pathText(path, sc.source))
		}
		if list != nil {
			for i := uint(0); i < list.ChildCount(); i++ {
				f.collectUseAliases(list.Child(i), base, sc)
			}
		}
	case "use_list":
		for i := uint(0); i < node.ChildCount(); i++ {
			f.collectUseAliases(node.Child(i), prefix, sc)
		}
	case "use_wildcard":
		// Glob imports cannot be resolved without full name information;
		// references through them stay unresolved and drop out of closures.
	}
}

func (f *RustFrontend) extractItem(node *sitter.Node, attrs []*sitter.Node, sc *scope, mod *model.Module, modules map[string]*model.Module) {
	switch node.Kind() {
	case "use_declaration":
		f.addSimple(mod, model.KindUse, node, nil, sc)
	case "static_item":
		d := f.addSimple(mod, model.KindStatic, node, attrs, sc)
		if d != nil {
			mod.Refs.AddAll(d.Refs)
		}
	case "const_item":
		d := f.addSimple(mod, model.KindConst, node, attrs, sc)
		if d != nil {
			mod.Refs.AddAll(d.Refs)
		}
	case "macro_definition":
		f.addSimple(mod, model.KindMacro, node, attrs, sc)
	case "type_item":
		d := f.addSimple(mod, model.KindTypeAlias, node, attrs, sc)
		if d != nil {
			mod.Refs.AddAll(d.Refs)
		}
	case "trait_alias_item":
		f.addSimple(mod, model.KindTraitAlias, node, attrs, sc)
	case "function_item":
		f.addNamed(mod, model.KindFn, node, attrs, sc)
	case "enum_item":
		f.addNamed(mod, model.KindEnum, node, attrs, sc)
	case "struct_item":
		f.addNamed(mod, model.KindStruct, node, attrs, sc)
	case "union_item":
		f.addNamed(mod, model.KindUnion, node, attrs, sc)
	case "trait_item":
		f.addTrait(mod, node, attrs, sc)
	case "impl_item":
		f.addImpl(mod, node, attrs, sc)
	case "mod_item":
		f.addMod(node, sc, modules)
	}
}

func (f *RustFrontend) addSimple(mod *model.Module, kind model.Kind, node *sitter.Node, attrs []*sitter.Node, sc *scope) *model.Decl {
	d := &model.Decl{
		Kind: kind,
		Text: f.itemText(node, attrs, sc),
		Span: f.span(node, sc),
		Refs: f.collectRefs(node, sc),
	}
	if err := mod.Add(d); err != nil {
		f.log.Warn("declaration rejected", "module", mod.Name, "kind", kind.String(), "error", err)
		return nil
	}
	return d
}

func (f *RustFrontend) addNamed(mod *model.Module, kind model.Kind, node *sitter.Node, attrs []*sitter.Node, sc *scope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := f.text(nameNode, sc.source)
	derives, rest := f.splitDerives(attrs, sc)
	d := &model.Decl{
		Kind: kind,
		Name: sc.modPath + "::" + name,
		Text: f.itemText(node, rest, sc),
		Span: f.span(node, sc),
		Refs: f.collectRefs(node, sc),
	}
	if err := mod.Add(d); err != nil {
		f.log.Warn("declaration rejected", "module", mod.Name, "name", d.Name, "error", err)
		return
	}
	for _, derive := range derives {
		if err := mod.AddCapabilityMarker(name, derive); err != nil {
			f.log.Warn("capability marker rejected", "module", mod.Name, "target", name, "error", err)
		}
	}
}

func (f *RustFrontend) addTrait(mod *model.Module, node *sitter.Node, attrs []*sitter.Node, sc *scope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	qname := sc.modPath + "::" + f.text(nameNode, sc.source)
	d := &model.Decl{
		Kind: model.KindTrait,
		Name: qname,
		Text: f.itemText(node, attrs, sc),
		Span: f.span(node, sc),
		Refs: f.signatureRefs(node, sc),
	}
	f.collectMembers(node.ChildByFieldName("body"), qname, d, sc)
	if err := mod.Add(d); err != nil {
		f.log.Warn("declaration rejected", "module", mod.Name, "name", d.Name, "error", err)
	}
}

func (f *RustFrontend) addImpl(mod *model.Module, node *sitter.Node, attrs []*sitter.Node, sc *scope) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	target := f.qualifyType(f.text(typeNode, sc.source), sc)
	traitName := ""
	if traitNode := node.ChildByFieldName("trait"); traitNode != nil {
		traitName = f.resolve(f.pathText(traitNode, sc.source), sc)
	}

	refs := model.NewRefSet(target)
	if traitName != "" {
		refs.Add(traitName)
	}
	d := &model.Decl{
		Kind:       model.KindImpl,
		Name:       target,
		Text:       f.itemText(node, attrs, sc),
		Span:       f.span(node, sc),
		Refs:       refs,
		TargetType: target,
		TraitName:  traitName,
	}
	f.collectMembers(node.ChildByFieldName("body"), target, d, sc)
	if err := mod.Add(d); err != nil {
		f.log.Warn("declaration rejected", "module", mod.Name, "name", d.Name, "error", err)
	}
}

// collectMembers fills a compound declaration's member collections from its
// declaration list. Member names are qualified under owner.
func (f *RustFrontend) collectMembers(body *sitter.Node, owner string, d *model.Decl, sc *scope) {
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		switch child.Kind() {
		case "function_item", "function_signature_item":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			member := &model.Decl{
				Kind: model.KindMethod,
				Name: owner + "::" + f.text(nameNode, sc.source),
				Text: f.text(child, sc.source),
				Span: f.span(child, sc),
				Refs: f.collectRefs(child, sc),
			}
			d.Fns = append(d.Fns, member)
			d.Refs.AddAll(member.Refs)
		case "associated_type", "type_item":
			member := &model.Decl{
				Kind: model.KindAssocType,
				Text: f.text(child, sc.source),
				Span: f.span(child, sc),
				Refs: f.collectRefs(child, sc),
			}
			d.Types = append(d.Types, member)
			d.Refs.AddAll(member.Refs)
		case "const_item":
			member := &model.Decl{
				Kind: model.KindAssocConst,
				Text: f.text(child, sc.source),
				Span: f.span(child, sc),
				Refs: f.collectRefs(child, sc),
			}
			d.Consts = append(d.Consts, member)
			d.Refs.AddAll(member.Refs)
		}
	}
}

func (f *RustFrontend) addMod(node *sitter.Node, sc *scope, modules map[string]*model.Module) {
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		// `mod foo;` declarations resolve through the file crawler.
		return
	}
	child := sc.modPath + "::" + f.text(nameNode, sc.source)
	f.extractScope(body, sc.source, sc.file, child, modules)
}

// splitDerives separates derive attributes (returned as capability names)
// from the attributes that stay prefixed to the declaration text.
func (f *RustFrontend) splitDerives(attrs []*sitter.Node, sc *scope) (derives []string, rest []*sitter.Node) {
	for _, attr := range attrs {
		text := f.text(attr, sc.source)
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "#[derive("), ")]")
		if inner != text && !strings.ContainsAny(inner, "[]") {
			for _, part := range strings.Split(inner, ",") {
				if part = strings.TrimSpace(part); part != "" {
					derives = append(derives, part)
				}
			}
			continue
		}
		rest = append(rest, attr)
	}
	return derives, rest
}

func (f *RustFrontend) itemText(node *sitter.Node, attrs []*sitter.Node, sc *scope) string {
	if len(attrs) == 0 {
		return f.text(node, sc.source)
	}
	var sb strings.Builder
	for _, attr := range attrs {
		sb.WriteString(f.text(attr, sc.source))
		sb.WriteByte('\n')
	}
	sb.WriteString(f.text(node, sc.source))
	return sb.String()
}

// collectRefs walks the item subtree and gathers the qualified names it
// mentions: type identifiers, scoped paths, call targets and macro names.
// Tokens that resolve to nothing stay in the set; closure computation drops
// them when no declaration matches.
func (f *RustFrontend) collectRefs(node *sitter.Node, sc *scope) model.RefSet {
	refs := make(model.RefSet)
	f.walkRefs(node, sc, refs)
	return refs
}

// signatureRefs gathers references of a compound declaration without
// descending into its member bodies, which carry their own reference sets.
func (f *RustFrontend) signatureRefs(node *sitter.Node, sc *scope) model.RefSet {
	refs := make(model.RefSet)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "declaration_list" {
			continue
		}
		f.walkRefs(child, sc, refs)
	}
	return refs
}

func (f *RustFrontend) walkRefs(node *sitter.Node, sc *scope, refs model.RefSet) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "type_identifier":
		f.addRef(refs, f.text(node, sc.source), sc)
		return
	case "scoped_identifier", "scoped_type_identifier":
		f.addRef(refs, f.pathText(node, sc.source), sc)
		return
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" {
			f.addRef(refs, f.text(fn, sc.source), sc)
		}
	case "macro_invocation":
		if name := node.ChildByFieldName("macro"); name != nil {
			f.addRef(refs, f.pathText(name, sc.source), sc)
		}
	case "use_declaration":
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		f.walkRefs(node.Child(i), sc, refs)
	}
}

func (f *RustFrontend) addRef(refs model.RefSet, token string, sc *scope) {
	resolved := f.resolve(token, sc)
	if resolved == "" {
		return
	}
	refs.Add(resolved)
}

// resolve qualifies one reference token against the scope: local names get
// the module path, aliased names follow their use binding, self/super paths
// are rebased. Unknown bare names are kept as-is.
func (f *RustFrontend) resolve(token string, sc *scope) string {
	token = strings.TrimSpace(token)
	if token == "" || token == "Self" || token == "self" || rustPrimitives[token] {
		return ""
	}
	if strings.Contains(token, "::") {
		return f.normalizePath(token, sc)
	}
	if full, ok := sc.aliases[token]; ok {
		return full
	}
	if sc.locals[token] {
		return sc.modPath + "::" + token
	}
	return token
}

// normalizePath rebases crate/self/super prefixes and resolves an aliased
// first segment.
func (f *RustFrontend) normalizePath(path string, sc *scope) string {
	segments := strings.Split(path, "::")
	switch segments[0] {
	case "crate":
		return path
	case "self":
		return joinPath(sc.modPath, strings.Join(segments[1:], "::"))
	case "super":
		return joinPath(parentModule(sc.modPath), strings.Join(segments[1:], "::"))
	}
	if full, ok := sc.aliases[segments[0]]; ok {
		return joinPath(full, strings.Join(segments[1:], "::"))
	}
	if sc.locals[segments[0]] {
		return sc.modPath + "::" + path
	}
	return path
}

// qualifyType resolves a type expression to the qualified name of its base
// type, dropping generic arguments and reference sigils.
func (f *RustFrontend) qualifyType(text string, sc *scope) string {
	base := strings.TrimSpace(text)
	for _, prefix := range []string{"&mut ", "&", "dyn "} {
		base = strings.TrimPrefix(base, prefix)
	}
	if at := strings.IndexByte(base, '<'); at >= 0 {
		base = base[:at]
	}
	base = strings.TrimSpace(base)
	if resolved := f.resolve(base, sc); resolved != "" {
		return resolved
	}
	return base
}

func (f *RustFrontend) span(node *sitter.Node, sc *scope) model.Span {
	return model.Span{File: sc.file, Start: node.StartByte(), End: node.EndByte()}
}

func (f *RustFrontend) text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// pathText returns the node's text with whitespace stripped, so multi-line
// paths compare equal to their single-line spelling.
func (f *RustFrontend) pathText(node *sitter.Node, source []byte) string {
	text := f.text(node, source)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, text)
}

func joinPath(prefix, rest string) string {
	if prefix == "" {
		return rest
	}
	if rest == "" {
		return prefix
	}
	return prefix + "::" + rest
}

func parentModule(modPath string) string {
	at := strings.LastIndex(modPath, "::")
	if at < 0 {
		return modPath
	}
	return modPath[:at]
}

var rustPrimitives = map[string]bool{
	"bool": true, "char": true, "str": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}
