package workers

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/pathops"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// relevantUnpackEntry matches the archive entries the Unpack step cares
// about: Java and (native) JavaScript sources (§4.4 Unpack: "the archive's
// source entries").
func relevantUnpackEntry(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".java") || strings.HasSuffix(lower, ".js")
}

// runUnpack implements §4.4 Unpack. For a Root artifact it copies the
// resolver-provided SourceRoots verbatim (Aborted if none); for every other
// kind it extracts relevant entries from ArtifactFile (Aborted if the
// archive holds none).
func runUnpack(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, logger *logrus.Logger) (steps.Result, error) {
	outDir := slot.OutputDir()

	if a.Kind == artifact.Root {
		if len(a.SourceRoots) == 0 {
			return steps.Aborted, nil
		}
		if err := pathops.CopyFromRoots(a.SourceRoots, pathops.IncludeAll, outDir, nil, func(rel string) {
			logger.WithField("path", rel).Debug("source root overwrote a prior root's file")
		}); err != nil {
			return steps.Failed, err
		}
		return steps.Success, nil
	}

	if a.ArtifactFile == "" {
		return steps.Aborted, nil
	}

	found, err := unpackArchive(a.ArtifactFile, outDir)
	if err != nil {
		return steps.Failed, err
	}
	if !found {
		_ = pathops.RemoveAll(outDir)
		return steps.Aborted, nil
	}
	return steps.Success, nil
}

func unpackArchive(archivePath, outDir string) (bool, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return false, errors.Wrapf(err, "opening archive %s", archivePath)
	}
	defer r.Close()

	found := false
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !relevantUnpackEntry(f.Name) {
			continue
		}
		if err := extractZipEntry(f, outDir); err != nil {
			return false, err
		}
		found = true
	}
	return found, nil
}

func extractZipEntry(f *zip.File, outDir string) error {
	dest := filepath.Join(outDir, filepath.FromSlash(f.Name))
	if err := pathops.CreateIfAbsent(filepath.Dir(dest)); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "reading archive entry %s", f.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "writing %s", dest)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return errors.Wrapf(err, "extracting %s", f.Name)
	}
	return nil
}
