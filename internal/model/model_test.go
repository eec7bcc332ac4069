// # internal/model/model_test.go
package model

import (
	"strings"
	"testing"
)

func TestModule_AddNamedReplaces(t *testing.T) {
	m := NewModule("demo")

	first := &Decl{Kind: KindFn, Name: "demo::f", Text: "fn f() { 1 }", Refs: NewRefSet()}
	second := &Decl{Kind: KindFn, Name: "demo::f", Text: "fn f() { 2 }", Refs: NewRefSet()}

	if err := m.Add(first); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := m.Add(second); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if len(m.Fns) != 1 {
		t.Fatalf("Expected 1 fn after replacement, got %d", len(m.Fns))
	}
	if m.Fns[0].Text != "fn f() { 2 }" {
		t.Errorf("Expected second declaration to win, got %q", m.Fns[0].Text)
	}
}

func TestModule_AddSimpleCollapsesByText(t *testing.T) {
	m := NewModule("demo")

	m.Add(&Decl{Kind: KindConst, Text: "const A: i32 = 1;"})
	m.Add(&Decl{Kind: KindConst, Text: "const A: i32 = 1;"})
	m.Add(&Decl{Kind: KindConst, Text: "const B: i32 = 2;"})

	if len(m.Consts) != 2 {
		t.Errorf("Expected 2 consts, got %d", len(m.Consts))
	}
}

func TestModule_ImplDedupByTargetAndTrait(t *testing.T) {
	m := NewModule("demo")

	inherent := &Decl{Kind: KindImpl, Name: "demo::Point", TargetType: "demo::Point", Text: "impl Point { }"}
	forTrait := &Decl{Kind: KindImpl, Name: "demo::Point", TargetType: "demo::Point", TraitName: "demo::Show", Text: "impl Show for Point { }"}
	replacement := &Decl{Kind: KindImpl, Name: "demo::Point", TargetType: "demo::Point", Text: "impl Point { fn f() {} }"}

	m.Add(inherent)
	m.Add(forTrait)
	m.Add(replacement)

	if len(m.Impls) != 2 {
		t.Fatalf("Expected 2 impls (inherent replaced, trait impl kept), got %d", len(m.Impls))
	}
	if m.Impls[0].Text != replacement.Text {
		t.Errorf("Inherent impl not replaced: %q", m.Impls[0].Text)
	}
}

func TestModule_SubsumedUseDropped(t *testing.T) {
	m := NewModule("demo")

	outer := &Decl{
		Kind: KindUse,
		Text: "use a::{b, c};",
		Span: Span{File: "lib.rs", Start: 0, End: 20},
	}
	inner := &Decl{
		Kind: KindUse,
		Text: "use a::b;",
		Span: Span{File: "lib.rs", Start: 4, End: 9},
	}

	m.Add(outer)
	m.Add(inner)

	if len(m.Uses) != 1 {
		t.Fatalf("Expected subsumed use to be dropped, got %d uses", len(m.Uses))
	}
	if m.Uses[0].Text != outer.Text {
		t.Errorf("Wrong surviving use: %q", m.Uses[0].Text)
	}
}

func TestModule_AnnotationMergeIdempotent(t *testing.T) {
	m := NewModule("demo")
	m.Add(&Decl{Kind: KindStruct, Name: "demo::Point", Text: "struct Point { x: i32 }", Refs: NewRefSet()})

	m.AddCapabilityMarker("Point", "Clone")
	m.AddCapabilityMarker("Point", "Clone")
	m.AddCapabilityMarker("Point", "Debug")
	m.Close()

	text := m.Structs[0].Text
	if !strings.HasPrefix(text, "#[derive(Clone, Debug)]\n") {
		t.Fatalf("Expected single merged derive line, got %q", text)
	}
	if strings.Count(text, "#[derive") != 1 {
		t.Errorf("Expected exactly one annotation line, got %q", text)
	}

	// Close is a no-op the second time around.
	m.Close()
	if m.Structs[0].Text != text {
		t.Errorf("Second Close mutated the declaration: %q", m.Structs[0].Text)
	}
}

func TestModule_ClosedRejectsMutation(t *testing.T) {
	m := NewModule("demo")
	m.Close()

	if err := m.Add(&Decl{Kind: KindFn, Name: "demo::f", Text: "fn f() {}"}); err == nil {
		t.Error("Expected Add on a closed module to fail")
	}
	if err := m.AddCapabilityMarker("T", "Clone"); err == nil {
		t.Error("Expected AddCapabilityMarker on a closed module to fail")
	}
}

func TestModule_EachEntryPoint(t *testing.T) {
	m := NewModule("demo")
	m.Add(&Decl{Kind: KindFn, Name: "demo::free", Text: "fn free() {}", Refs: NewRefSet()})

	trait := &Decl{
		Kind: KindTrait,
		Name: "demo::Greeter",
		Text: "trait Greeter { fn greet(&self); }",
		Refs: NewRefSet(),
		Fns: []*Decl{
			{Kind: KindMethod, Name: "demo::Greeter::greet", Text: "fn greet(&self);", Refs: NewRefSet()},
		},
	}
	m.Add(trait)

	impl := &Decl{
		Kind:       KindImpl,
		Name:       "demo::Point",
		TargetType: "demo::Point",
		Text:       "impl Point { fn new() -> Point { Point } }",
		Refs:       NewRefSet("demo::Point"),
		Fns: []*Decl{
			{Kind: KindMethod, Name: "demo::Point::new", Text: "fn new() -> Point { Point }", Refs: NewRefSet()},
		},
	}
	m.Add(impl)

	type hit struct {
		name      string
		enclosing string
	}
	var hits []hit
	m.EachEntryPoint(func(entry *Decl, enclosing *Decl) {
		h := hit{name: entry.Name}
		if enclosing != nil {
			h.enclosing = enclosing.Name
		}
		hits = append(hits, h)
	})

	want := []hit{
		{name: "demo::free"},
		{name: "demo::Greeter::greet", enclosing: "demo::Greeter"},
		{name: "demo::Point::new", enclosing: "demo::Point"},
	}
	if len(hits) != len(want) {
		t.Fatalf("Expected %d entry points, got %d: %v", len(want), len(hits), hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("Entry %d: expected %v, got %v", i, want[i], hits[i])
		}
	}
}

func TestLocalName(t *testing.T) {
	cases := map[string]string{
		"a::b::c": "c",
		"c":       "c",
		"a::b":    "b",
		"":        "",
	}
	for in, want := range cases {
		if got := LocalName(in); got != want {
			t.Errorf("LocalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRefSet_Sorted(t *testing.T) {
	rs := NewRefSet("b", "a", "c", "a")
	got := rs.Sorted()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Sorted = %v", got)
	}
}
