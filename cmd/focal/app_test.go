// # cmd/focal/app_test.go
package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"focal/internal/config"
)

func TestApp(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "focaltest")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	// A small crate with a call chain and an impl.
	src := filepath.Join(tmpDir, "crate", "src")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib.rs"), []byte(`
pub struct Counter { n: u64 }

impl Counter {
    pub fn new() -> Counter { Counter { n: 0 } }
    pub fn bump(&mut self) { self.n += 1; }
}

fn tick(c: &mut Counter) { c.bump(); helper() }
fn helper() { leaf() }
fn leaf() {}
`), 0644))

	cfg := config.Default(filepath.Join(tmpDir, "crate"))
	cfg.Output.Dir = filepath.Join(tmpDir, "out")
	cfg.Output.Dump = true
	cfg.Output.Report = "report.tsv"

	app, err := NewApp(cfg)
	require.NoError(t, err)

	res, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Failed)
	// tick, helper, leaf, Counter::new, Counter::bump
	require.Equal(t, 5, res.Entries)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "name_map.json"))
	require.NoError(t, err)
	var nameMap map[string]string
	require.NoError(t, json.Unmarshal(data, &nameMap))
	require.Len(t, nameMap, 5)
	require.Contains(t, nameMap, "crate::tick")

	content, err := os.ReadFile(filepath.Join(cfg.Output.Dir, nameMap["crate::tick"]))
	require.NoError(t, err)
	text := string(content)
	require.Contains(t, text, "fn tick(c: &mut Counter) { c.bump(); helper() }")
	require.Contains(t, text, "fn helper() { leaf() }")
	// leaf is two hops out and renders as a stub.
	require.Contains(t, text, "fn leaf() {}")
	require.NotContains(t, strings.ReplaceAll(text, "fn leaf() {}", ""), "fn leaf()")

	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "context.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.Dir, "report.tsv"))
	require.NoError(t, err)
}
