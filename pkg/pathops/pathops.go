// Package pathops provides the filesystem primitives the build pipeline
// relies on for cache correctness: idempotent directory creation, an
// ignore-file-aware recursive gather, and a copy-with-rewrite helper.
package pathops

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// IgnoreFileName is the name of the per-directory ignore manifest honored by
// Gather. One glob pattern per line, rooted at the directory that contains
// the file; blank lines and lines beginning with "#" are not patterns.
const IgnoreFileName = ".j2cl-maven-plugin-ignore.txt"

// CreateIfAbsent idempotently creates a directory (and its parents).
func CreateIfAbsent(p string) error {
	if err := os.MkdirAll(p, 0o755); err != nil {
		return errors.Wrapf(err, "creating directory %s", p)
	}
	return nil
}

// Exists returns p and true iff p exists and is a directory.
func Exists(p string) (string, bool) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return p, true
}

// RemoveAll recursively deletes p. Deleting a path that does not exist is
// not an error.
func RemoveAll(p string) error {
	if err := os.RemoveAll(p); err != nil {
		return errors.Wrapf(err, "removing %s", p)
	}
	return nil
}

// IncludePredicate decides whether a visited file (given its path relative
// to the gather root) should be part of the result set, independent of any
// ignore-file exclusion.
type IncludePredicate func(relPath string) bool

// IncludeAll is the trivial predicate accepting every file.
func IncludeAll(string) bool { return true }

// IncludeExt returns a predicate matching files by extension (e.g. ".java").
func IncludeExt(exts ...string) IncludePredicate {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return func(relPath string) bool {
		return set[strings.ToLower(filepath.Ext(relPath))]
	}
}

// ignoreFrame is one directory's contribution to the active exclusion set.
type ignoreFrame struct {
	dir      string
	patterns []string
}

// Gather walks root recursively, honoring ignore files per §4.1, and returns
// the sorted set of absolute paths to files accepted by include. Directory
// traversal is depth-first so the ignore-file stack discipline (patterns
// apply to the subtree rooted at the directory that declares them, and are
// popped on leaving that directory) can be maintained with a simple stack.
func Gather(root string, include IncludePredicate) ([]string, error) {
	if include == nil {
		include = IncludeAll
	}
	root = filepath.Clean(root)
	if _, ok := Exists(root); !ok {
		return nil, errors.Errorf("gather: %s is not a directory", root)
	}

	var results []string
	patternCache := make(map[uint64][]string)

	var walk func(dir string, stack []ignoreFrame) error
	walk = func(dir string, stack []ignoreFrame) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, "reading directory %s", dir)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		frame := ignoreFrame{dir: dir}
		if patterns, err := readIgnoreFile(filepath.Join(dir, IgnoreFileName), patternCache); err != nil {
			return err
		} else if len(patterns) > 0 {
			frame.patterns = patterns
		}
		localStack := stack
		if len(frame.patterns) > 0 {
			localStack = append(append([]ignoreFrame{}, stack...), frame)
		}

		var subdirs []string
		for _, e := range entries {
			full := filepath.Join(dir, e.Name())
			if e.IsDir() {
				subdirs = append(subdirs, full)
				continue
			}
			if e.Name() == IgnoreFileName {
				continue
			}
			rel, err := filepath.Rel(root, full)
			if err != nil {
				return err
			}
			if !include(filepath.ToSlash(rel)) {
				continue
			}
			if isExcluded(full, localStack) {
				continue
			}
			results = append(results, full)
		}
		for _, sd := range subdirs {
			if err := walk(sd, localStack); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, nil); err != nil {
		return nil, err
	}
	sort.Strings(results)
	return results, nil
}

// readIgnoreFile parses an ignore manifest, caching the parsed pattern list
// keyed by a non-cryptographic hash of its path. The cache is created by
// each Gather call and lives only for that call.
func readIgnoreFile(p string, cache map[uint64][]string) ([]string, error) {
	key := xxhash.Sum64String(p)
	if v, ok := cache[key]; ok {
		return v, nil
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			cache[key] = nil
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading ignore file %s", p)
	}
	defer f.Close()

	dir := filepath.Dir(p)
	var patterns []string
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading ignore file %s", p)
	}
	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, filepath.Join(dir, trimmed))
	}
	cache[key] = patterns
	return patterns, nil
}

// isExcluded reports whether p matches any still-active ignore pattern in
// stack (the union of every ancestor directory's patterns that still
// dominate p).
func isExcluded(p string, stack []ignoreFrame) bool {
	for _, frame := range stack {
		for _, pattern := range frame.patterns {
			if ok, _ := filepath.Match(pattern, p); ok {
				return true
			}
		}
	}
	return false
}

// RewriteFunc transforms a file's bytes before they are written at the
// destination. Returning the input unchanged is a no-op copy.
type RewriteFunc func(relPath string, content []byte) ([]byte, error)

// Copy copies each file in files (absolute paths under srcRoot) to dstRoot,
// preserving the path relative to srcRoot. If rewrite is non-nil its result
// replaces the file's bytes before they are written. Later entries targeting
// the same destination path silently overwrite earlier ones (mirrors the
// teacher's multi-source-root Strip semantics); callers that must detect
// this should sort files so each source root's precedence is reflected by
// call order, and log such overwrites via the caller's own logger.
func Copy(srcRoot string, files []string, dstRoot string, rewrite RewriteFunc) error {
	if err := CreateIfAbsent(dstRoot); err != nil {
		return err
	}
	for _, f := range files {
		rel, err := filepath.Rel(srcRoot, f)
		if err != nil {
			return errors.Wrapf(err, "computing relative path for %s under %s", f, srcRoot)
		}
		dst := filepath.Join(dstRoot, rel)
		if err := CreateIfAbsent(filepath.Dir(dst)); err != nil {
			return err
		}
		if err := copyOneFile(f, dst, rel, rewrite); err != nil {
			return err
		}
	}
	return nil
}

func copyOneFile(src, dst, rel string, rewrite RewriteFunc) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "reading %s", src)
	}
	if rewrite != nil {
		content, err = rewrite(filepath.ToSlash(rel), content)
		if err != nil {
			return errors.Wrapf(err, "rewriting %s", src)
		}
	}
	info, err := os.Stat(src)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode()
	}
	// Write to a uniquely-named sibling then rename into place, so that a
	// concurrent reader of dst (e.g. a worker racing a slower CopyFromRoots
	// call for a different source root) never observes a partially-written
	// file.
	tmp := dst + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s to %s", tmp, dst)
	}
	return nil
}

// CopyFromRoots copies files gathered from multiple source roots into a
// single destination directory, in root order, so that later roots
// overwrite earlier ones for colliding relative paths (§4.6.1/§9(c)). The
// onOverwrite callback, if non-nil, is invoked with the relative path each
// time a later root clobbers an earlier one's output.
func CopyFromRoots(roots []string, include IncludePredicate, dstRoot string, rewrite RewriteFunc, onOverwrite func(rel string)) error {
	written := make(map[string]bool)
	for _, root := range roots {
		files, err := Gather(root, include)
		if err != nil {
			return err
		}
		for _, f := range files {
			rel, err := filepath.Rel(root, f)
			if err != nil {
				return err
			}
			relSlash := filepath.ToSlash(rel)
			if written[relSlash] && onOverwrite != nil {
				onOverwrite(relSlash)
			}
			written[relSlash] = true
			if err := Copy(root, []string{f}, dstRoot, rewrite); err != nil {
				return err
			}
		}
	}
	return nil
}

// SortedSet is a convenience alias documenting gather's return contract.
type SortedSet = []string
