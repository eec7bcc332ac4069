// # internal/render/assemble.go
package render

import (
	"log/slog"
	"strings"

	"focal/internal/closure"
	"focal/internal/model"
	"focal/internal/symgraph"
)

// Assembler turns a closure result into rendered per-module buckets. The
// direct pass inserts full declarations; the indirect pass inserts reduced
// ones and never overwrites a name the direct pass already placed.
type Assembler struct {
	ix        *symgraph.Index
	validator *Validator
	log       *slog.Logger
}

func NewAssembler(ix *symgraph.Index, validator *Validator, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{ix: ix, validator: validator, log: logger}
}

// Context is the assembled output for one entry point: buckets keyed by
// module name, rendered in first-touched order.
type Context struct {
	order   []string
	buckets map[string]*Bucket
}

// Render serializes every module section in first-touched order.
func (c *Context) Render() string {
	var sb strings.Builder
	for _, name := range c.order {
		c.buckets[name].render(&sb)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Modules returns the touched module names in first-touched order.
func (c *Context) Modules() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Assemble runs the direct pass over the seed set, then the indirect pass
// over the transitive closure.
func (a *Assembler) Assemble(res closure.Result) *Context {
	ctx := &Context{buckets: make(map[string]*Bucket)}
	for _, name := range res.Direct.Sorted() {
		for _, e := range a.ix.Lookup(name) {
			a.insertDirect(ctx, e)
		}
	}
	for _, name := range res.Indirect.Sorted() {
		for _, e := range a.ix.Lookup(name) {
			a.insertIndirect(ctx, e)
		}
	}
	return ctx
}

// bucket returns the module's bucket, creating and pre-populating it with
// the module's simple declarations (uses, statics, consts, macros, aliases)
// on first touch so the section parses standalone.
func (a *Assembler) bucket(ctx *Context, moduleName string) *Bucket {
	if b, ok := ctx.buckets[moduleName]; ok {
		return b
	}
	b := newBucket(moduleName)
	ctx.buckets[moduleName] = b
	ctx.order = append(ctx.order, moduleName)

	mod := a.ix.Module(moduleName)
	if mod == nil {
		return b
	}
	for _, d := range mod.Uses {
		if a.admitDecl(d) {
			b.uses = appendText(b.uses, d.Text)
		}
	}
	for _, d := range mod.Statics {
		if a.admitDecl(d) {
			b.statics = appendText(b.statics, d.Text)
		}
	}
	for _, d := range mod.Consts {
		if a.admitDecl(d) {
			b.consts = appendText(b.consts, d.Text)
		}
	}
	for _, d := range mod.Macros {
		if a.admitDecl(d) {
			b.macros = appendText(b.macros, d.Text)
		}
	}
	for _, d := range mod.TypeAliases {
		if a.admitDecl(d) {
			b.typeAliases = appendText(b.typeAliases, d.Text)
		}
	}
	for _, d := range mod.OpaqueTypes {
		if a.admitDecl(d) {
			b.typeAliases = appendText(b.typeAliases, d.Text)
		}
	}
	for _, d := range mod.TraitAliases {
		if a.admitDecl(d) {
			b.traitAliases = appendText(b.traitAliases, d.Text)
		}
	}
	return b
}

// admitDecl re-parses the recorded source text. Failures are front-end
// contract violations: the declaration is skipped for this entry only.
func (a *Assembler) admitDecl(d *model.Decl) bool {
	if a.validator == nil || a.validator.ValidDecl(d.Text) {
		return true
	}
	a.log.Warn("declaration text failed to re-parse, skipping", "name", d.Name, "kind", d.Kind.String())
	return false
}

func (a *Assembler) admitMember(d *model.Decl) bool {
	if a.validator == nil || a.validator.ValidMember(d.Text) {
		return true
	}
	a.log.Warn("member text failed to re-parse, skipping", "name", d.Name, "kind", d.Kind.String())
	return false
}

func (a *Assembler) insertDirect(ctx *Context, e symgraph.Entry) {
	if e.Enclosing != nil {
		if !a.admitMember(e.Decl) {
			return
		}
		b := a.bucket(ctx, e.Module)
		c := a.ensureCompound(b, e.Enclosing)
		c.mergeFn(e.Decl.Name, e.Decl.Text, true)
		return
	}

	d := e.Decl
	switch d.Kind {
	case model.KindFn:
		if !a.admitDecl(d) {
			return
		}
		b := a.bucket(ctx, e.Module)
		b.fns[d.Name] = &namedItem{name: d.Name, text: d.Text, direct: true}
	case model.KindEnum:
		a.insertNamedDirect(ctx, e, func(b *Bucket) map[string]*namedItem { return b.enums })
	case model.KindStruct:
		a.insertNamedDirect(ctx, e, func(b *Bucket) map[string]*namedItem { return b.structs })
	case model.KindUnion:
		a.insertNamedDirect(ctx, e, func(b *Bucket) map[string]*namedItem { return b.unions })
	case model.KindTrait:
		if !a.admitDecl(d) {
			return
		}
		b := a.bucket(ctx, e.Module)
		c := a.ensureCompound(b, d)
		a.fillCompoundFull(c, d, true)
	case model.KindImpl:
		// An impl resolves through its target type or trait name, never
		// through a name of its own. Its members keep the body-retention
		// policy; a directly-named method arrives separately through the
		// member path and wins the merge there.
		if !a.admitDecl(d) {
			return
		}
		b := a.bucket(ctx, e.Module)
		c := a.ensureCompound(b, d)
		c.full = true
		c.direct = true
		a.fillCompoundReduced(c, d)
	}
}

func (a *Assembler) insertNamedDirect(ctx *Context, e symgraph.Entry, pick func(*Bucket) map[string]*namedItem) {
	if !a.admitDecl(e.Decl) {
		return
	}
	b := a.bucket(ctx, e.Module)
	pick(b)[e.Decl.Name] = &namedItem{name: e.Decl.Name, text: e.Decl.Text, direct: true}
}

func (a *Assembler) insertIndirect(ctx *Context, e symgraph.Entry) {
	if e.Enclosing != nil {
		if !a.admitMember(e.Decl) {
			return
		}
		b := a.bucket(ctx, e.Module)
		c := a.ensureCompound(b, e.Enclosing)
		c.mergeFn(e.Decl.Name, a.reduceMember(e.Enclosing, e.Decl), false)
		return
	}

	d := e.Decl
	switch d.Kind {
	case model.KindFn:
		if !a.admitDecl(d) {
			return
		}
		b := a.bucket(ctx, e.Module)
		if _, ok := b.fns[d.Name]; ok {
			return
		}
		b.fns[d.Name] = &namedItem{name: d.Name, text: ClearBody(d.Text)}
	case model.KindEnum:
		a.insertNamedIndirect(ctx, e, func(b *Bucket) map[string]*namedItem { return b.enums })
	case model.KindStruct:
		a.insertNamedIndirect(ctx, e, func(b *Bucket) map[string]*namedItem { return b.structs })
	case model.KindUnion:
		a.insertNamedIndirect(ctx, e, func(b *Bucket) map[string]*namedItem { return b.unions })
	case model.KindTrait:
		if !a.admitDecl(d) {
			return
		}
		b := a.bucket(ctx, e.Module)
		if _, ok := b.traits[d.Name]; ok {
			return
		}
		c := a.ensureCompound(b, d)
		a.fillCompoundFull(c, d, false)
	case model.KindImpl:
		if !a.admitDecl(d) {
			return
		}
		b := a.bucket(ctx, e.Module)
		key := implKey(d.TargetType, d.TraitName)
		if existing, ok := b.impls[key]; ok && existing.full {
			return
		}
		c := a.ensureCompound(b, d)
		a.fillCompoundReduced(c, d)
	}
}

func (a *Assembler) insertNamedIndirect(ctx *Context, e symgraph.Entry, pick func(*Bucket) map[string]*namedItem) {
	if !a.admitDecl(e.Decl) {
		return
	}
	b := a.bucket(ctx, e.Module)
	items := pick(b)
	if _, ok := items[e.Decl.Name]; ok {
		return
	}
	items[e.Decl.Name] = &namedItem{name: e.Decl.Name, text: e.Decl.Text}
}

// ensureCompound returns the bucket's shell for the compound declaration,
// creating a signature-only shell on first touch.
func (a *Assembler) ensureCompound(b *Bucket, d *model.Decl) *compound {
	var store map[string]*compound
	var key string
	if d.Kind == model.KindImpl {
		store, key = b.impls, implKey(d.TargetType, d.TraitName)
	} else {
		store, key = b.traits, d.Name
	}
	if c, ok := store[key]; ok {
		return c
	}
	c := &compound{
		kind:       d.Kind,
		name:       d.Name,
		targetType: d.TargetType,
		traitName:  d.TraitName,
		header:     Signature(d.Text),
	}
	store[key] = c
	for _, t := range d.Types {
		if a.admitMember(t) {
			c.mergeSimpleMember(&c.types, t.Text)
		}
	}
	for _, cst := range d.Consts {
		if a.admitMember(cst) {
			c.mergeSimpleMember(&c.consts, cst.Text)
		}
	}
	return c
}

// fillCompoundFull inserts every member with its body intact (direct-pass
// treatment of a compound reached by name).
func (a *Assembler) fillCompoundFull(c *compound, d *model.Decl, direct bool) {
	c.full = true
	if direct {
		c.direct = true
	}
	for _, fn := range d.Fns {
		if a.admitMember(fn) {
			c.mergeFn(fn.Name, fn.Text, direct)
		}
	}
}

// fillCompoundReduced inserts every member under the indirect-pass policy:
// trait default methods keep bodies, impl methods keep bodies only when the
// constructor heuristic retains them.
func (a *Assembler) fillCompoundReduced(c *compound, d *model.Decl) {
	for _, fn := range d.Fns {
		if a.admitMember(fn) {
			c.mergeFn(fn.Name, a.reduceMember(d, fn), false)
		}
	}
}

// reduceMember applies the indirect-pass body policy to one member.
func (a *Assembler) reduceMember(enclosing, fn *model.Decl) string {
	if enclosing.Kind == model.KindTrait {
		return fn.Text
	}
	if retainsConstructorBody(fn.Text, enclosing.TargetType) {
		return fn.Text
	}
	return ClearBody(fn.Text)
}
