// # internal/frontend/crawler.go
package frontend

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"focal/internal/util"
)

// Crawler enumerates the Rust source files of one crate directory, honoring
// exclude patterns for directories and files.
type Crawler struct {
	root         string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func NewCrawler(root string, excludeDirs, excludeFiles []string) (*Crawler, error) {
	c := &Crawler{root: filepath.Clean(root)}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude dir pattern %q: %w", pattern, err)
		}
		c.excludeDirs = append(c.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude file pattern %q: %w", pattern, err)
		}
		c.excludeFiles = append(c.excludeFiles, g)
	}
	return c, nil
}

// Crawl returns the crate's .rs files sorted by path, so downstream module
// construction sees files in a stable order.
func (c *Crawler) Crawl() ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != c.root && c.excludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".rs") {
			return nil
		}
		if c.excludedFile(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("crawl %q: %w", c.root, err)
	}
	sort.Strings(files)
	return files, nil
}

func (c *Crawler) excludedDir(name string) bool {
	for _, g := range c.excludeDirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (c *Crawler) excludedFile(name string) bool {
	for _, g := range c.excludeFiles {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ModulePath derives the crate-relative module path of a source file:
// src/lib.rs and src/main.rs map to the crate root, src/net.rs and
// src/net/mod.rs map to crate::net, src/net/tcp.rs to crate::net::tcp.
func (c *Crawler) ModulePath(file string) string {
	rel, err := filepath.Rel(c.root, file)
	if err != nil {
		rel = file
	}
	rel = util.NormalizePatternPath(rel)
	rel = strings.TrimPrefix(rel, "src/")
	rel = strings.TrimSuffix(rel, ".rs")

	parts := strings.Split(rel, "/")
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if last == "lib" || last == "main" || last == "mod" {
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
		return "crate"
	}
	return "crate::" + strings.Join(parts, "::")
}
