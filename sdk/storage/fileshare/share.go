// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package fileshare is the FILE backend: a network share mounted as a local
// directory tree. Each top level directory is a share, objects are plain files
// and their properties live in a JSON sidecar next to them.
package fileshare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
)

const sidecarSuffix = ".metadata.json"

// Share implements storage.Backend over a directory.
type Share struct {
	root     string
	endpoint string
}

var _ storage.Backend = (*Share)(nil)

type sidecar struct {
	Properties storage.Properties `json:"properties"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
}

func New(acc config.StorageAccount) (*Share, error) {
	root := strings.TrimSpace(acc.Root)
	if root == "" {
		return nil, fmt.Errorf("file share root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid share root %q: %w", root, err)
	}
	endpoint := strings.TrimSpace(acc.Endpoint)
	if endpoint == "" {
		endpoint = strings.TrimSpace(acc.Name)
	}
	if endpoint == "" {
		endpoint = "localhost"
	}
	return &Share{root: abs, endpoint: endpoint}, nil
}

func (s *Share) Kind() artifact.StorageKind { return artifact.KindFile }

func (s *Share) Root() string { return s.root }

func (s *Share) Validate(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("share root not reachable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("share root %s is not a directory", s.root)
	}
	return nil
}

// CreateContainerIfAbsent creates the share directory. Shares have no public
// access level, publicAccess is ignored.
func (s *Share) CreateContainerIfAbsent(_ context.Context, name string, _ *bool) error {
	dir, err := s.containerPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create share %s: %w", name, err)
	}
	return nil
}

func (s *Share) List(_ context.Context, container, prefix string) ([]storage.ObjectInfo, error) {
	base, err := s.containerPath(container)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrContainerNotFound, container)
	}

	prefix = strings.TrimLeft(prefix, "/")
	dir := filepath.Join(base, filepath.FromSlash(cleanKey(prefix)))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []storage.ObjectInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			out = append(out, storage.ObjectInfo{Name: prefix + name + "/", IsDir: true})
			continue
		}
		if strings.HasSuffix(name, sidecarSuffix) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		out = append(out, storage.ObjectInfo{Name: prefix + name, Size: info.Size()})
	}
	return out, nil
}

// DeleteAll removes every file under prefix. An empty prefix empties the share
// but keeps its directory.
func (s *Share) DeleteAll(_ context.Context, container, prefix string) error {
	base, err := s.containerPath(container)
	if err != nil {
		return err
	}
	prefix = strings.TrimLeft(filepath.ToSlash(prefix), "/")

	if prefix == "" || strings.HasSuffix(prefix, "/") {
		dir := filepath.Join(base, filepath.FromSlash(cleanKey(prefix)))
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return fmt.Errorf("failed to delete %s: %w", e.Name(), err)
			}
		}
		return nil
	}

	return filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		if strings.HasPrefix(filepath.ToSlash(rel), prefix) {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to delete %s: %w", rel, err)
			}
		}
		return nil
	})
}

func (s *Share) Object(container, name string) storage.Object {
	return &file{s: s, container: container, name: name}
}

// Describe returns the properties and metadata stored with an object.
func (s *Share) Describe(container, name string) (storage.Properties, map[string]string, error) {
	f := &file{s: s, container: container, name: name}
	p, err := f.path()
	if err != nil {
		return storage.Properties{}, nil, err
	}
	data, err := os.ReadFile(p + sidecarSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.Properties{}, nil, nil
	}
	if err != nil {
		return storage.Properties{}, nil, err
	}
	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return storage.Properties{}, nil, fmt.Errorf("corrupt metadata for %s: %w", name, err)
	}
	return sc.Properties, sc.Metadata, nil
}

func (s *Share) containerPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid share name %q", name)
	}
	return filepath.Join(s.root, name), nil
}

// cleanKey drops ".." segments so a key never resolves outside its share.
func cleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
}

type file struct {
	s         *Share
	container string
	name      string
}

func (f *file) Container() string { return f.container }
func (f *file) Name() string      { return f.name }

func (f *file) URL() string {
	return storage.ObjectURL(f.s.endpoint, f.container, cleanKey(f.name))
}

func (f *file) path() (string, error) {
	base, err := f.s.containerPath(f.container)
	if err != nil {
		return "", err
	}
	key := cleanKey(f.name)
	if key == "" {
		return "", fmt.Errorf("empty object name")
	}
	return filepath.Join(base, filepath.FromSlash(key)), nil
}

func (f *file) Exists(_ context.Context) (bool, error) {
	p, err := f.path()
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// Upload writes to a temporary file first so readers never see partial content.
func (f *file) Upload(ctx context.Context, r io.Reader, _ int64, props storage.Properties, metadata map[string]string) error {
	p, err := f.path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	data, err := json.Marshal(sidecar{Properties: props, Metadata: metadata})
	if err != nil {
		return err
	}
	if err := os.WriteFile(p+sidecarSuffix, data, 0o644); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

func (f *file) Download(ctx context.Context, w io.Writer) (int64, error) {
	p, err := f.path()
	if err != nil {
		return 0, err
	}
	src, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, f.container, f.name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	n, err := io.Copy(w, &ctxReader{ctx: ctx, r: src})
	if err != nil {
		return n, fmt.Errorf("failed to read file: %w", err)
	}
	return n, nil
}

func (f *file) Delete(_ context.Context) error {
	p, err := f.path()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, f.container, f.name)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	_ = os.Remove(p + sidecarSuffix)
	return nil
}

// ctxReader stops a copy once the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
