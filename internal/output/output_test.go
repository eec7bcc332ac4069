// # internal/output/output_test.go
package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEntryFileName_Sanitizes(t *testing.T) {
	name := EntryFileName("crate::net::Server::bind")
	if strings.ContainsAny(name, ":<> ") {
		t.Errorf("Encoded name carries unsafe characters: %q", name)
	}
	if !strings.HasPrefix(name, "crate__net__Server__bind-") {
		t.Errorf("Readable stem missing: %q", name)
	}
	if !strings.HasSuffix(name, ".rs") {
		t.Errorf("Missing extension: %q", name)
	}
}

func TestEntryFileName_DistinctAfterSanitization(t *testing.T) {
	a := EntryFileName("crate::a::f")
	b := EntryFileName("crate::a__f")
	if a == b {
		t.Errorf("Names that sanitize identically must not collide: %q", a)
	}
}

func TestEntryFileName_Stable(t *testing.T) {
	if EntryFileName("crate::f") != EntryFileName("crate::f") {
		t.Error("Encoding must be deterministic across calls")
	}
}

func TestEntryFileName_LongNameBounded(t *testing.T) {
	long := "crate::" + strings.Repeat("deeply::", 64) + "f"
	name := EntryFileName(long)
	if len(name) > maxStemLen+1+36+3 {
		t.Errorf("Encoded name too long: %d bytes", len(name))
	}
}

func TestWriter_WriteEntryAndReset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	name, err := w.WriteEntry("crate::f", "fn f() {}\n")
	if err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Read back: %v", err)
	}
	if string(data) != "fn f() {}\n" {
		t.Errorf("Content mismatch: %q", data)
	}

	// No temp files may survive the rename.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("Leftover temp file %q", e.Name())
		}
	}

	// Reset clears stale context files from the previous run.
	if err := w.Reset(); err != nil {
		t.Fatalf("Second reset: %v", err)
	}
	entries, _ = os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Reset left %d files behind", len(entries))
	}
}

func TestNameMap_Flush(t *testing.T) {
	dir := t.TempDir()
	nm := NewNameMap()
	nm.Add("crate::b", "b.rs")
	nm.Add("crate::a", "a.rs")

	if err := nm.Flush(dir); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "name_map.json"))
	if err != nil {
		t.Fatalf("Read name map: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["crate::a"] != "a.rs" || decoded["crate::b"] != "b.rs" {
		t.Errorf("Unexpected mapping: %v", decoded)
	}
	// Sorted keys keep the file diffable.
	if strings.Index(string(data), "crate::a") > strings.Index(string(data), "crate::b") {
		t.Error("Keys not emitted in sorted order")
	}
}

func TestReport_GenerateTSV(t *testing.T) {
	r := NewReport()
	r.Add(EntryResult{Entry: "crate::g", File: "g.rs", Modules: 2, DirectSize: 3, IndirectSize: 7})
	r.Add(EntryResult{Entry: "crate::f", Skipped: true, Err: "unparseable text"})

	tsv := r.GenerateTSV()
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "crate::f\t") || !strings.Contains(lines[1], "skipped: unparseable text") {
		t.Errorf("Rows not sorted or skip status missing: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "crate::g\tg.rs\t2\t3\t7\tok") {
		t.Errorf("Unexpected row: %q", lines[2])
	}
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focal.db")
	store, err := OpenSnapshotStore(path, "proj")
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	defer store.Close()

	rows := []EntryResult{
		{Entry: "crate::f", File: "f.rs", Modules: 1, DirectSize: 2, IndirectSize: 4},
		{Entry: "crate::broken", Skipped: true, Err: "io"},
	}
	contents := map[string]string{"crate::f": "fn f() {}\n"}
	if err := store.RecordRun(rows, contents); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	snap, err := store.Lookup("crate::f")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if snap == nil || snap.File != "f.rs" || snap.DirectCount != 2 || snap.IndirectCount != 4 {
		t.Fatalf("Unexpected snapshot: %+v", snap)
	}
	if snap.ContentSHA == "" {
		t.Error("Content hash missing")
	}

	// Skipped entries are not recorded.
	missing, err := store.Lookup("crate::broken")
	if err != nil {
		t.Fatalf("Lookup skipped: %v", err)
	}
	if missing != nil {
		t.Errorf("Skipped entry must not be stored: %+v", missing)
	}

	// A later run replaces the previous snapshots wholesale.
	if err := store.RecordRun([]EntryResult{{Entry: "crate::g", File: "g.rs"}}, nil); err != nil {
		t.Fatalf("Second RecordRun: %v", err)
	}
	gone, err := store.Lookup("crate::f")
	if err != nil {
		t.Fatalf("Lookup after replace: %v", err)
	}
	if gone != nil {
		t.Error("Stale snapshot survived a later run")
	}
}
