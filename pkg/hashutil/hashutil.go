// Package hashutil provides a stable, streaming fingerprint accumulator used
// to derive content-addressed cache keys for build artifacts and pipeline
// steps.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Builder accumulates bytes into a stable SHA-256 digest. The accumulation
// order is significant: callers MUST append inputs in a deterministic order
// (e.g. sort map keys before appending) for the resulting digest to be a
// pure function of logical inputs rather than traversal order.
type Builder struct {
	h hash.Hash
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{h: sha256.New()}
}

// Append writes raw bytes into the digest, preceded by a length-prefix frame
// so that e.g. Append([]byte("ab")); Append([]byte("c")) is distinguishable
// from Append([]byte("a")); Append([]byte("bc")).
func (b *Builder) Append(p []byte) *Builder {
	fmt.Fprintf(b.h, "%d:", len(p))
	b.h.Write(p)
	return b
}

// AppendString writes a string into the digest.
func (b *Builder) AppendString(s string) *Builder {
	return b.Append([]byte(s))
}

// AppendStrings writes each string into the digest, in the order given. It
// does not sort; callers needing order-independence must sort first.
func (b *Builder) AppendStrings(ss []string) *Builder {
	for _, s := range ss {
		b.AppendString(s)
	}
	return b
}

// AppendSortedPairs writes a map's entries into the digest sorted by key, so
// the result does not depend on Go's randomized map iteration order.
func (b *Builder) AppendSortedPairs(m map[string]string) *Builder {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.AppendString(k)
		b.AppendString(m[k])
	}
	return b
}

// AppendPathContents walks p recursively in lexicographic order and appends
// each regular file's relative path and byte contents. Used when a step's
// fingerprint must be sensitive to the full contents of a directory tree
// (e.g. an unpacked dependency archive).
func (b *Builder) AppendPathContents(root string) error {
	var files []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("hashutil: walking %s: %w", root, err)
	}
	sort.Strings(files)
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return err
		}
		b.AppendString(filepath.ToSlash(rel))
		if err := b.appendFile(f); err != nil {
			return err
		}
	}
	return nil
}

// AppendFile appends the contents of a single file, erroring if it does not
// exist or cannot be read.
func (b *Builder) AppendFile(p string) error {
	return b.appendFile(p)
}

func (b *Builder) appendFile(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("hashutil: opening %s: %w", p, err)
	}
	defer f.Close()
	if _, err := io.Copy(b.h, f); err != nil {
		return fmt.Errorf("hashutil: reading %s: %w", p, err)
	}
	return nil
}

// Finalize returns the lowercase hex-encoded digest accumulated so far. It
// does not reset or mutate the Builder; callers typically call it once.
func (b *Builder) Finalize() string {
	return hex.EncodeToString(b.h.Sum(nil))
}
