package trellis

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/trellis/internal/runtime"
)

// skipDirs are never descended into by the fallback walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"build":        true,
	"target":       true,
	"out":          true,
}

// listFiles returns the absolute paths of Java sources and stub scripts
// under root, sorted. Inside a git work tree it uses git ls-files so that
// ignored files stay out; otherwise it walks the tree and honours the
// root .gitignore.
func listFiles(root string) ([]string, error) {
	if paths, ok := gitListFiles(root); ok {
		return paths, nil
	}
	return walkListFiles(root)
}

// gitListFiles lists tracked and untracked (but not ignored) files.
// ok is false when root is not a git work tree or git is unavailable.
func gitListFiles(root string) ([]string, bool) {
	info, err := os.Stat(filepath.Join(root, ".git"))
	if err != nil || !info.IsDir() {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil, false
	}

	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(line))
		if _, ok := runtime.LanguageForFile(abs); ok {
			paths = append(paths, abs)
		}
	}
	sort.Strings(paths)
	return paths, true
}

// walkListFiles discovers files by walking the filesystem. Hidden
// directories, build output directories and .gitignore matches are skipped.
func walkListFiles(root string) ([]string, error) {
	gi, _ := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if _, ok := runtime.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
