// Package remotecache implements the optional remote cache backend: a
// slot's completed output/ directory and its result marker can be pushed
// to, and pulled from, an S3-compatible object store, letting a fleet of
// build hosts share a cache.Layout instead of rebuilding it locally.
// Adapted from the S3/Minio putter/fetcher pattern (sha256 dedup check via
// object user-metadata, FPutObject/GetObject), trading the teacher's
// self-hosted ephemeral Minio server for a caller-supplied persistent
// endpoint.
package remotecache

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/j2clbuild/buildgraph/pkg/cache"
)

// Backend pushes and pulls cache.Slot contents to/from a bucket on an
// S3-compatible object store.
type Backend struct {
	client *minio.Client
	bucket string
}

// Config is the connection information for a Backend.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Secure          bool
}

// New constructs a Backend from cfg, ensuring its bucket exists.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "remotecache: constructing client")
	}
	b := &Backend{client: c, bucket: cfg.Bucket}
	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "remotecache: checking bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "remotecache: creating bucket %s", cfg.Bucket)
		}
	}
	return b, nil
}

// objectKey is the slot's remote object name: its cache-relative path with
// path separators normalized to forward slashes, plus a ".tar" suffix.
func objectKey(slot *cache.Slot, cacheBaseDir string) (string, error) {
	rel, err := filepath.Rel(cacheBaseDir, slot.Path)
	if err != nil {
		return "", errors.Wrapf(err, "remotecache: relativizing slot path %s", slot.Path)
	}
	return filepath.ToSlash(rel) + ".tar", nil
}

// Push uploads slot's full contents (output/, log.txt, result marker) as a
// single tar object, skipping the upload if an object with an identical
// sha256 already exists remotely (mirrors the teacher's putter dedup
// check).
func (b *Backend) Push(ctx context.Context, cacheBaseDir string, slot *cache.Slot) error {
	key, err := objectKey(slot, cacheBaseDir)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "buildgraph-slot-*.tar")
	if err != nil {
		return errors.Wrap(err, "remotecache: creating staging tar")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tarSlot(tmp, slot.Path); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "remotecache: closing staging tar")
	}

	sum, err := sha256File(tmpPath)
	if err != nil {
		return err
	}

	if existing, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err == nil {
		if existing.UserMetadata["Sha256"] == sum {
			return nil
		}
	}

	_, err = b.client.FPutObject(ctx, b.bucket, key, tmpPath, minio.PutObjectOptions{
		UserMetadata: map[string]string{"sha256": sum},
	})
	if err != nil {
		return errors.Wrapf(err, "remotecache: uploading %s", key)
	}
	return nil
}

// Pull downloads and extracts a remote slot into slot.Path, returning
// (false, nil) if no remote object exists for it.
func (b *Backend) Pull(ctx context.Context, cacheBaseDir string, slot *cache.Slot) (bool, error) {
	key, err := objectKey(slot, cacheBaseDir)
	if err != nil {
		return false, err
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return false, errors.Wrapf(err, "remotecache: fetching %s", key)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrapf(err, "remotecache: statting remote object %s", key)
	}

	if err := slot.EnsureDir(); err != nil {
		return false, err
	}
	if err := untarSlot(obj, slot.Path); err != nil {
		return false, err
	}
	return true, nil
}

func tarSlot(w io.Writer, root string) error {
	tw := tar.NewWriter(w)
	defer tw.Close()

	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

func untarSlot(r io.Reader, dst string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "remotecache: reading tar entry")
		}
		target := filepath.Join(dst, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}

func sha256File(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
