// # internal/render/render_test.go
package render

import (
	"strings"
	"testing"

	"focal/internal/closure"
	"focal/internal/model"
	"focal/internal/symgraph"
)

func assembleFor(t *testing.T, modules []*model.Module, entryName string) (*Context, closure.Result) {
	t.Helper()
	ix := symgraph.Build(modules)

	var entry, enclosing *model.Decl
	var owner *model.Module
	for _, m := range modules {
		m.EachEntryPoint(func(e, enc *model.Decl) {
			if e.Name == entryName {
				entry, enclosing, owner = e, enc, m
			}
		})
	}
	if entry == nil {
		t.Fatalf("entry point %q not found", entryName)
	}

	res := closure.Compute(ix, closure.Seed(entry, enclosing, owner))
	asm := NewAssembler(ix, nil, nil)
	return asm.Assemble(res), res
}

func chainModule() []*model.Module {
	m := model.NewModule("m")
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::f", Text: "fn f() { g() }", Refs: model.NewRefSet("m::g")})
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::g", Text: "fn g() { h() }", Refs: model.NewRefSet("m::h")})
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::h", Text: "fn h() { 42 }", Refs: model.NewRefSet()})
	m.Close()
	return []*model.Module{m}
}

// Scenario B: f -> g -> h. f and g are direct (full bodies), h is reached
// only indirectly and becomes a signature-only stub.
func TestAssemble_IndirectFnStubbed(t *testing.T) {
	ctx, res := assembleFor(t, chainModule(), "m::f")

	if !res.Direct.Has("m::f") || !res.Direct.Has("m::g") || res.Direct.Has("m::h") {
		t.Fatalf("Unexpected direct set: %v", res.Direct.Sorted())
	}
	if !res.Indirect.Has("m::h") {
		t.Fatalf("Expected h in indirect set: %v", res.Indirect.Sorted())
	}

	out := ctx.Render()
	if !strings.Contains(out, "fn f() { g() }") {
		t.Errorf("Expected full f, got:\n%s", out)
	}
	if !strings.Contains(out, "fn g() { h() }") {
		t.Errorf("Expected full g, got:\n%s", out)
	}
	if !strings.Contains(out, "fn h() {}") || strings.Contains(out, "fn h() { 42 }") {
		t.Errorf("Expected stubbed h, got:\n%s", out)
	}
}

// Direct-over-indirect precedence: a name in both sets renders full.
func TestAssemble_DirectWinsOverIndirect(t *testing.T) {
	ctx, _ := assembleFor(t, chainModule(), "m::f")

	out := ctx.Render()
	if strings.Contains(out, "fn g() {}") {
		t.Errorf("Direct g must not be reduced:\n%s", out)
	}
}

// Scenario C: impl for Point has new() -> Point and helper() -> i32. A
// function referencing only the type pulls in the impl with new retained
// and helper stubbed.
func TestAssemble_ConstructorRetention(t *testing.T) {
	m := model.NewModule("m")
	m.Add(&model.Decl{Kind: model.KindStruct, Name: "m::Point", Text: "struct Point { x: i32 }", Refs: model.NewRefSet()})
	impl := &model.Decl{
		Kind:       model.KindImpl,
		Name:       "m::Point",
		TargetType: "m::Point",
		Text:       "impl Point { fn new() -> Point { Point { x: 0 } } fn helper() -> i32 { 7 } }",
		Refs:       model.NewRefSet("m::Point"),
		Fns: []*model.Decl{
			{Kind: model.KindMethod, Name: "m::Point::new", Text: "fn new() -> Point { Point { x: 0 } }", Refs: model.NewRefSet("m::Point")},
			{Kind: model.KindMethod, Name: "m::Point::helper", Text: "fn helper() -> i32 { 7 }", Refs: model.NewRefSet()},
		},
	}
	m.Add(impl)
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::render", Text: "fn render(p: Point) { }", Refs: model.NewRefSet("m::Point")})
	m.Close()

	ctx, _ := assembleFor(t, []*model.Module{m}, "m::render")
	out := ctx.Render()

	if !strings.Contains(out, "fn new() -> Point { Point { x: 0 } }") {
		t.Errorf("Constructor body must be retained:\n%s", out)
	}
	if !strings.Contains(out, "fn helper() -> i32 {}") {
		t.Errorf("Non-constructor method must be stubbed:\n%s", out)
	}
}

// Trait default methods keep their bodies when reached indirectly.
func TestAssemble_TraitDefaultBodyRetained(t *testing.T) {
	m := model.NewModule("m")
	trait := &model.Decl{
		Kind: model.KindTrait,
		Name: "m::Greeter",
		Text: "trait Greeter { fn greet(&self) { println!(\"hi\") } }",
		Refs: model.NewRefSet(),
		Fns: []*model.Decl{
			{Kind: model.KindMethod, Name: "m::Greeter::greet", Text: "fn greet(&self) { println!(\"hi\") }", Refs: model.NewRefSet()},
		},
	}
	m.Add(trait)
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::caller", Text: "fn caller<T: Greeter>(t: T) { }", Refs: model.NewRefSet("m::Greeter")})
	m.Close()

	ctx, _ := assembleFor(t, []*model.Module{m}, "m::caller")
	out := ctx.Render()

	if !strings.Contains(out, "fn greet(&self) { println!(\"hi\") }") {
		t.Errorf("Trait default method body must survive the indirect pass:\n%s", out)
	}
}

// Merge rule: a member reached through two shells keeps the body-carrying
// version; an empty-body replacement never wins.
func TestCompound_MergeBodyWins(t *testing.T) {
	c := &compound{kind: model.KindImpl, header: "impl T"}

	c.mergeFn("m::T::make", "fn make() -> T {}", false)
	c.mergeFn("m::T::make", "fn make() -> T { T }", false)
	if got := c.findFn("m::T::make").text; got != "fn make() -> T { T }" {
		t.Fatalf("Body-carrying version must win, got %q", got)
	}

	c.mergeFn("m::T::make", "fn make() -> T {}", false)
	if got := c.findFn("m::T::make").text; got != "fn make() -> T { T }" {
		t.Errorf("Empty body must not overwrite retained body, got %q", got)
	}
}

func TestCompound_DirectMemberNeverOverwritten(t *testing.T) {
	c := &compound{kind: model.KindImpl, header: "impl T"}
	c.mergeFn("m::T::go", "fn go(&self) { self.run() }", true)
	c.mergeFn("m::T::go", "fn go(&self) {}", false)

	if got := c.findFn("m::T::go").text; got != "fn go(&self) { self.run() }" {
		t.Errorf("Direct member replaced by indirect version: %q", got)
	}
}

// Determinism: identical input renders byte-identical output.
func TestAssemble_Deterministic(t *testing.T) {
	first, _ := assembleFor(t, chainModule(), "m::f")
	second, _ := assembleFor(t, chainModule(), "m::f")

	if first.Render() != second.Render() {
		t.Error("Rendering is not byte-for-byte reproducible")
	}
}

// Degenerate input: an entry with no references renders only itself.
func TestAssemble_DegenerateEntry(t *testing.T) {
	m := model.NewModule("m")
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::lonely", Text: "fn lonely() {}", Refs: model.NewRefSet()})
	m.Close()

	ctx, _ := assembleFor(t, []*model.Module{m}, "m::lonely")
	out := ctx.Render()

	if !strings.Contains(out, "// m") || !strings.Contains(out, "fn lonely() {}") {
		t.Errorf("Degenerate entry should render its own declaration:\n%s", out)
	}
}

// Simple declarations of a touched module ride along so the section parses
// standalone.
func TestAssemble_SimpleKindsPrePopulated(t *testing.T) {
	m := model.NewModule("m")
	m.Add(&model.Decl{Kind: model.KindUse, Text: "use std::fmt;", Span: model.Span{File: "lib.rs", Start: 0, End: 13}})
	m.Add(&model.Decl{Kind: model.KindConst, Text: "const LIMIT: usize = 8;"})
	m.Add(&model.Decl{Kind: model.KindFn, Name: "m::f", Text: "fn f() {}", Refs: model.NewRefSet()})
	m.Close()

	ctx, _ := assembleFor(t, []*model.Module{m}, "m::f")
	out := ctx.Render()

	if !strings.Contains(out, "use std::fmt;") || !strings.Contains(out, "const LIMIT: usize = 8;") {
		t.Errorf("Module simple declarations missing:\n%s", out)
	}
}

func TestClearBody(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"fn f() -> i32 { 42 }", "fn f() -> i32 {}"},
		{"fn f(&self);", "fn f(&self);"},
		{"fn nested() { if x { y() } }", "fn nested() {}"},
	}
	for _, tc := range cases {
		if got := ClearBody(tc.in); got != tc.want {
			t.Errorf("ClearBody(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReturnType(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"fn new() -> Point { Point }", "Point"},
		{"fn get(&self) -> Option<Self> { None }", "Option<Self>"},
		{"fn run(&self) { }", ""},
		{"fn build<T>() -> T where T: Default { T::default() }", "T"},
	}
	for _, tc := range cases {
		if got := ReturnType(tc.in); got != tc.want {
			t.Errorf("ReturnType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRetainsConstructorBody(t *testing.T) {
	cases := []struct {
		text, target string
		want         bool
	}{
		{"fn new() -> Point { Point }", "m::Point", true},
		{"fn boxed() -> Box<Self> { Box::new(Self) }", "m::Point", true},
		{"fn helper() -> i32 { 7 }", "m::Point", false},
		{"fn find() -> PointerMap { PointerMap }", "m::Point", false},
		{"fn run(&self) { }", "m::Point", false},
	}
	for _, tc := range cases {
		if got := retainsConstructorBody(tc.text, tc.target); got != tc.want {
			t.Errorf("retainsConstructorBody(%q, %q) = %v, want %v", tc.text, tc.target, got, tc.want)
		}
	}
}
