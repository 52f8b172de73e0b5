// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage/fileshare"
)

var errInjected = errors.New("injected failure")

// faultyBackend wraps a real backend, records every call and fails the
// operations it is told to.
type faultyBackend struct {
	inner storage.Backend

	mu           sync.Mutex
	calls        []string
	listed       []string
	failValidate bool
	failDownload map[string]bool
	failUpload   map[string]bool
}

func (b *faultyBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *faultyBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *faultyBackend) Listed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.listed...)
}

func (b *faultyBackend) Kind() artifact.StorageKind {
	if b.inner == nil {
		return artifact.KindFile
	}
	return b.inner.Kind()
}

func (b *faultyBackend) Validate(ctx context.Context) error {
	b.record("validate")
	if b.failValidate {
		return errInjected
	}
	return b.inner.Validate(ctx)
}

func (b *faultyBackend) CreateContainerIfAbsent(ctx context.Context, name string, publicAccess *bool) error {
	b.record("create")
	return b.inner.CreateContainerIfAbsent(ctx, name, publicAccess)
}

func (b *faultyBackend) List(ctx context.Context, container, prefix string) ([]storage.ObjectInfo, error) {
	b.record("list")
	b.mu.Lock()
	b.listed = append(b.listed, prefix)
	b.mu.Unlock()
	return b.inner.List(ctx, container, prefix)
}

func (b *faultyBackend) Object(container, name string) storage.Object {
	b.record("object")
	return &faultyObject{Object: b.inner.Object(container, name), b: b}
}

func (b *faultyBackend) DeleteAll(ctx context.Context, container, prefix string) error {
	b.record("deleteAll")
	return b.inner.DeleteAll(ctx, container, prefix)
}

type faultyObject struct {
	storage.Object
	b *faultyBackend
}

func (o *faultyObject) Upload(ctx context.Context, r io.Reader, size int64, props storage.Properties, md map[string]string) error {
	o.b.record("upload")
	if o.b.failUpload[o.Name()] {
		return errInjected
	}
	return o.Object.Upload(ctx, r, size, props, md)
}

func (o *faultyObject) Download(ctx context.Context, w io.Writer) (int64, error) {
	o.b.record("download")
	if o.b.failDownload[o.Name()] {
		return 0, errInjected
	}
	return o.Object.Download(ctx, w)
}

func newShare(t *testing.T) *fileshare.Share {
	t.Helper()
	share, err := fileshare.New(config.StorageAccount{Name: "acct", Root: t.TempDir()})
	require.NoError(t, err)
	return share
}
