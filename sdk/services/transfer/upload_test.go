// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/utils"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func names(recs []artifact.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out
}

func TestUploadInvalidModeMakesNoBackendCalls(t *testing.T) {
	b := &faultyBackend{}
	svc := New(b, WithLogger(zerolog.Nop()))

	res, err := svc.Upload(context.Background(), UploadRequest{
		Workspace: t.TempDir(),
		Container: "builds",
		FilePath:  "**",
		Mode:      UploadModeFor(false, false),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilesUploaded)
	assert.Empty(t, res.Individual)
	assert.Empty(t, res.Archives)
	assert.Empty(t, b.Calls())
}

func TestUploadConfigurationErrorsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		req  UploadRequest
	}{
		{name: "blank container", req: UploadRequest{FilePath: "**"}},
		{name: "uppercase container", req: UploadRequest{Container: "Builds", FilePath: "**"}},
		{name: "double hyphen", req: UploadRequest{Container: "my--builds", FilePath: "**"}},
		{name: "too short", req: UploadRequest{Container: "ab", FilePath: "**"}},
		{name: "blank pattern", req: UploadRequest{Container: "builds", FilePath: " "}},
		{name: "run without project", req: UploadRequest{Container: "builds", FilePath: "**", RunID: "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &faultyBackend{}
			tt.req.Workspace = t.TempDir()
			tt.req.Mode = UploadIndividual

			_, err := New(b, WithLogger(zerolog.Nop())).Upload(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Empty(t, b.Calls())
		})
	}
}

func TestUploadAccountProbeFails(t *testing.T) {
	b := &faultyBackend{inner: newShare(t), failValidate: true}
	_, err := New(b, WithLogger(zerolog.Nop())).Upload(context.Background(), UploadRequest{
		Workspace: t.TempDir(),
		Container: "builds",
		FilePath:  "**",
		Mode:      UploadIndividual,
	})
	assert.ErrorIs(t, err, ErrAccount)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, []string{"validate"}, b.Calls())
}

func TestUploadNaming(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{
		"release/build/test.txt": "hello",
		"release/build/skip.log": "nope",
	})
	share := newShare(t)
	svc := New(share, WithLogger(zerolog.Nop()))

	res, err := svc.Upload(context.Background(), UploadRequest{
		Workspace:        ws,
		Container:        "builds",
		FilePath:         "release/build/*.txt::embedded",
		VirtualPath:      "virtual",
		RemovePrefixPath: "release/build/",
		Mode:             UploadIndividual,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesUploaded)
	require.Len(t, res.Individual, 1)
	assert.Empty(t, res.Archives)

	rec := res.Individual[0]
	sum := md5.Sum([]byte("hello"))
	assert.Equal(t, "virtual/embedded/test.txt", rec.Name)
	assert.Equal(t, hex.EncodeToString(sum[:]), rec.ContentHash)
	assert.Equal(t, int64(5), rec.SizeBytes)
	assert.Equal(t, artifact.KindFile, rec.Kind)
	assert.True(t, strings.HasPrefix(rec.URL, "https://"), rec.URL)

	ok, err := share.Object("builds", "virtual/embedded/test.txt").Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadMultiplePatternsAndExcludes(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{
		"bin/app":          "bin",
		"bin/app.debug":    "dbg",
		"docs/a.md":        "a",
		"docs/drafts/b.md": "b",
	})
	svc := New(newShare(t), WithLogger(zerolog.Nop()))

	res, err := svc.Upload(context.Background(), UploadRequest{
		Workspace:       ws,
		Container:       "builds",
		FilePath:        "bin/*; docs/**/*.md::documentation",
		ExcludeFilePath: "**/*.debug,docs/drafts/",
		Mode:            UploadIndividual,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesUploaded)
	assert.Equal(t, []string{"bin/app", "documentation/docs/a.md"}, names(res.Individual))
}

func TestUploadZeroMatches(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{"a.txt": "a"})
	svc := New(newShare(t), WithLogger(zerolog.Nop()))

	res, err := svc.Upload(context.Background(), UploadRequest{
		Workspace: ws,
		Container: "builds",
		FilePath:  "*.jar",
		Mode:      UploadBoth,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilesUploaded)
	assert.Empty(t, res.Individual)
	assert.Empty(t, res.Archives)
}

func TestUploadArchive(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{
		"out/a.txt":     "a",
		"out/sub/b.txt": "b",
		"out/c.tmp":     "c",
		"lib/d.jar":     "d",
	})
	share := newShare(t)
	svc := New(share, WithLogger(zerolog.Nop()))

	res, err := svc.Upload(context.Background(), UploadRequest{
		Workspace:       ws,
		Container:       "builds",
		FilePath:        "out/**;lib/*.jar",
		ExcludeFilePath: "**/*.tmp",
		VirtualPath:     "run-1/",
		Mode:            UploadArchive,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.FilesUploaded)
	assert.Empty(t, res.Individual)
	require.Len(t, res.Archives, 1)
	assert.Equal(t, "run-1/"+ArchiveName, res.Archives[0].Name)

	zr, err := zip.OpenReader(filepath.Join(share.Root(), "builds", "run-1", ArchiveName))
	require.NoError(t, err)
	defer zr.Close()
	var entries []string
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	sort.Strings(entries)
	assert.Equal(t, []string{"lib/d.jar", "out/a.txt", "out/sub/b.txt"}, entries)

	// staging is cleaned up
	left, err := os.ReadDir(ws)
	require.NoError(t, err)
	for _, e := range left {
		assert.False(t, strings.HasPrefix(e.Name(), utils.StagingPrefix), e.Name())
	}
}

func TestUploadBothKeepsRecordsApart(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{"a.txt": "a", "b.txt": "b"})
	svc := New(newShare(t), WithLogger(zerolog.Nop()))

	res, err := svc.Upload(context.Background(), UploadRequest{
		Workspace: ws,
		Container: "builds",
		FilePath:  "*.txt",
		Mode:      UploadBoth,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesUploaded)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(res.Individual))
	assert.Equal(t, []string{ArchiveName}, names(res.Archives))
}

func TestUploadArchiveKeepsBraceAlternation(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{"a.txt": "a", "b.log": "b", "c.bin": "c"})
	share := newShare(t)

	res, err := New(share, WithLogger(zerolog.Nop())).Upload(context.Background(), UploadRequest{
		Workspace: ws,
		Container: "builds",
		FilePath:  "*.{txt,log}",
		Mode:      UploadBoth,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FilesUploaded)
	assert.Equal(t, []string{"a.txt", "b.log"}, names(res.Individual))

	zr, err := zip.OpenReader(filepath.Join(share.Root(), "builds", ArchiveName))
	require.NoError(t, err)
	defer zr.Close()
	var entries []string
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	sort.Strings(entries)
	assert.Equal(t, []string{"a.txt", "b.log"}, entries)
}

func TestUploadContentTypeAndMetadata(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{
		"app.js":    "function f() { return 1 }",
		"page.html": "<html><body>hi</body></html>",
	})
	share := newShare(t)
	svc := New(share, WithLogger(zerolog.Nop()))
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadRequest{
		Workspace: ws,
		Container: "auto",
		FilePath:  "*",
		Mode:      UploadIndividual,
		Properties: ContentProperties{
			DetectContentType: true,
			CacheControl:      "max-age=60",
		},
		Metadata: []MetadataPair{
			{Key: "build", Value: "${BUILD_NUMBER}"},
			{Key: "empty", Value: "${UNSET_EMPTY}"},
			{Key: "  ", Value: "orphan"},
		},
		Env: map[string]string{"BUILD_NUMBER": "42", "UNSET_EMPTY": " "},
	})
	require.NoError(t, err)

	props, md, err := share.Describe("auto", "app.js")
	require.NoError(t, err)
	assert.Equal(t, "application/javascript", props.ContentType)
	assert.Equal(t, "max-age=60", props.CacheControl)
	assert.Equal(t, map[string]string{"build": "42"}, md)

	props, _, err = share.Describe("auto", "page.html")
	require.NoError(t, err)
	assert.Contains(t, props.ContentType, "text/html")

	_, err = svc.Upload(ctx, UploadRequest{
		Workspace:  ws,
		Container:  "explicit",
		FilePath:   "*.js",
		Mode:       UploadIndividual,
		Properties: ContentProperties{DetectContentType: true, ContentType: "text/x-custom"},
	})
	require.NoError(t, err)
	props, _, err = share.Describe("explicit", "app.js")
	require.NoError(t, err)
	assert.Equal(t, "text/x-custom", props.ContentType)
}

func TestUploadCleanVirtualPathOnly(t *testing.T) {
	ctx := context.Background()
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{"new.txt": "n"})
	share := newShare(t)
	require.NoError(t, share.CreateContainerIfAbsent(ctx, "builds", nil))
	for _, name := range []string{"keep/old.txt", "vp/old.txt"} {
		require.NoError(t, share.Object("builds", name).Upload(ctx, strings.NewReader("old"), 3, storage.Properties{}, nil))
	}
	svc := New(share, WithLogger(zerolog.Nop()))
	exists := func(name string) bool {
		ok, err := share.Object("builds", name).Exists(ctx)
		require.NoError(t, err)
		return ok
	}

	_, err := svc.Upload(ctx, UploadRequest{
		Workspace:            ws,
		Container:            "builds",
		FilePath:             "new.txt",
		VirtualPath:          "vp",
		CleanContainer:       true,
		CleanVirtualPathOnly: true,
		Mode:                 UploadIndividual,
	})
	require.NoError(t, err)
	assert.True(t, exists("keep/old.txt"))
	assert.False(t, exists("vp/old.txt"))
	assert.True(t, exists("vp/new.txt"))

	_, err = svc.Upload(ctx, UploadRequest{
		Workspace:      ws,
		Container:      "builds",
		FilePath:       "new.txt",
		CleanContainer: true,
		Mode:           UploadIndividual,
	})
	require.NoError(t, err)
	assert.False(t, exists("keep/old.txt"))
	assert.False(t, exists("vp/new.txt"))
	assert.True(t, exists("new.txt"))
}

func TestUploadFailureIsFatal(t *testing.T) {
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{"a.txt": "a", "b.txt": "b"})
	b := &faultyBackend{inner: newShare(t), failUpload: map[string]bool{"a.txt": true}}

	res, err := New(b, WithLogger(zerolog.Nop())).Upload(context.Background(), UploadRequest{
		Workspace: ws,
		Container: "builds",
		FilePath:  "*.txt",
		Mode:      UploadIndividual,
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrTransfer)
	assert.ErrorIs(t, err, errInjected)
}

func TestUploadAppendsToRunManifest(t *testing.T) {
	ctx := context.Background()
	ws := t.TempDir()
	writeFiles(t, ws, map[string]string{"a.txt": "a", "b.bin": "b"})
	store, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := New(newShare(t), WithLogger(zerolog.Nop()), WithManifestStore(store))

	for _, p := range []string{"a.txt", "b.bin"} {
		_, err := svc.Upload(ctx, UploadRequest{
			Workspace: ws,
			Container: "builds",
			FilePath:  p,
			Mode:      UploadBoth,
			Project:   "demo",
			RunID:     "run-7",
		})
		require.NoError(t, err)
	}

	m, err := store.Load(ctx, "demo", "run-7")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.bin"}, names(m.Individual))
	assert.Len(t, m.Archives, 2)
	rec, ok := m.Lookup("b.bin")
	require.True(t, ok)
	assert.Equal(t, "builds", rec.Container)
}
