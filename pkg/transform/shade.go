package transform

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
)

// ShadeStatus reports whether Shade actually ran or was Skipped (§4.6.2:
// "If shadeMappings is empty, the step produces Skipped").
type ShadeStatus int

const (
	ShadeSkipped ShadeStatus = iota
	ShadeRan
)

// classRewriteExts are the extensions whose byte content is substituted in
// place (in addition to being relocated, for shaded files): Java source and
// compiled class files. The class-file case treats the constant-pool bytes
// as opaque substitution candidates per §4.6.2, rather than pulling in a
// full class-file parser — every occurrence of the dot-form or path-form
// find string is replaced, which is safe because compiled constant-pool
// UTF8 entries store type names using the same slash-separated form we
// match on.
var classRewriteExts = pathops.IncludeExt(".java", ".class")

// sortedMapping pre-computes the filesystem-path forms of a ShadeMapping,
// longest Find-as-path first, to resolve §9(b)'s overlapping-prefix
// ambiguity as longest-prefix-wins.
type sortedMapping struct {
	artifact.ShadeMapping
	findPath    string
	replacePath string
}

func prepareMappings(mappings []artifact.ShadeMapping) []sortedMapping {
	out := make([]sortedMapping, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, sortedMapping{
			ShadeMapping: m,
			findPath:     strings.ReplaceAll(m.Find, ".", "/"),
			replacePath:  strings.ReplaceAll(m.Replace, ".", "/"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].findPath) > len(out[j].findPath)
	})
	return out
}

// matchMapping returns the longest-prefix-matching mapping for relPath (a
// slash-separated path relative to the input root), and ok=false if none
// matches (relPath is non-shaded).
func matchMapping(relPath string, mappings []sortedMapping) (sortedMapping, bool) {
	for _, m := range mappings {
		if relPath == m.findPath || strings.HasPrefix(relPath, m.findPath+"/") {
			return m, true
		}
	}
	return sortedMapping{}, false
}

// relocate rewrites relPath by replacing the matched mapping's find prefix
// with its replacement prefix (an empty replacement moves the remainder to
// the tree root, per §4.6.2).
func relocate(relPath string, m sortedMapping) string {
	rest := strings.TrimPrefix(relPath, m.findPath)
	rest = strings.TrimPrefix(rest, "/")
	if m.replacePath == "" {
		return rest
	}
	if rest == "" {
		return m.replacePath
	}
	return m.replacePath + "/" + rest
}

// rewriteContent replaces every occurrence of each mapping's dot-form and
// path-form find string with its corresponding replacement, longest find
// string first so that a shorter find string nested inside a longer one
// cannot partially clobber it first.
func rewriteContent(content []byte, mappings []sortedMapping) []byte {
	s := string(content)
	for _, m := range mappings {
		if m.findPath != "" {
			s = strings.ReplaceAll(s, m.findPath, m.replacePath)
			s = strings.ReplaceAll(s, strings.ReplaceAll(m.findPath, "/", "\\"), strings.ReplaceAll(m.replacePath, "/", "\\"))
		}
		if m.Find != "" {
			s = strings.ReplaceAll(s, m.Find, m.Replace)
		}
	}
	return []byte(s)
}

// Shade implements §4.6.2. inputRoot is the tree to shade (the Strip
// step's source output, when called from the CompileStripped worker);
// outputDir receives the shaded tree. If mappings is empty, Shade returns
// (ShadeSkipped, nil) and writes nothing, so outputDir does not exist for
// downstream classpath assembly to find.
func Shade(inputRoot string, mappings []artifact.ShadeMapping, outputDir string) (ShadeStatus, error) {
	if len(mappings) == 0 {
		return ShadeSkipped, nil
	}
	sorted := prepareMappings(mappings)

	files, err := pathops.Gather(inputRoot, pathops.IncludeAll)
	if err != nil {
		return ShadeSkipped, errors.Wrap(err, "gathering shade input")
	}

	if err := pathops.CreateIfAbsent(outputDir); err != nil {
		return ShadeSkipped, err
	}

	for _, f := range files {
		rel, err := filepath.Rel(inputRoot, f)
		if err != nil {
			return ShadeSkipped, err
		}
		relSlash := filepath.ToSlash(rel)

		m, shaded := matchMapping(relSlash, sorted)

		destRel := relSlash
		if shaded {
			destRel = relocate(relSlash, m)
		}
		if destRel == "" {
			continue
		}
		dest := filepath.Join(outputDir, filepath.FromSlash(destRel))
		if err := pathops.CreateIfAbsent(filepath.Dir(dest)); err != nil {
			return ShadeSkipped, err
		}

		rewrite := classRewriteExts(relSlash)
		if err := copyMaybeRewrite(f, dest, rewrite, sorted); err != nil {
			return ShadeSkipped, err
		}
	}

	return ShadeRan, nil
}

func copyMaybeRewrite(src, dst string, rewrite bool, mappings []sortedMapping) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "reading %s", src)
	}
	if rewrite {
		content = rewriteContent(content, mappings)
	}
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(src); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(dst, content, mode); err != nil {
		return errors.Wrapf(err, "writing %s", dst)
	}
	return nil
}
