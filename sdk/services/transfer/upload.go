// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/naming"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/pattern"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/utils"
)

const (
	includeSeparators = ";"
	listSeparators    = ","
)

// Upload runs one upload invocation:
// - validation and account probe
// - container creation and optional cleanup
// - per pattern token: listing and, unless archive only, individual uploads
// - zip archive of everything matched, unless individual only
// - manifest append when a project and run id are given
//
// Files are uploaded one after the other; the first failure aborts the call.
func (s *TransferService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Mode == UploadInvalid {
		s.log.Warn().Msg("neither individual nor archive upload selected, nothing to do")
		return &UploadResult{}, nil
	}
	req = req.expanded()
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := s.backend.Validate(ctx); err != nil {
		return nil, accountError(err)
	}
	if err := s.backend.CreateContainerIfAbsent(ctx, req.Container, req.PublicAccess); err != nil {
		return nil, transferError("create container "+req.Container, err)
	}

	virtualPath := naming.NormalizeDir(req.VirtualPath)
	if req.CleanContainer {
		prefix := ""
		if req.CleanVirtualPathOnly && virtualPath != "" {
			prefix = virtualPath
		}
		s.log.Info().Str("container", req.Container).Str("prefix", prefix).Msg("cleaning destination")
		if err := s.backend.DeleteAll(ctx, req.Container, prefix); err != nil {
			return nil, transferError("clean container "+req.Container, err)
		}
	}

	workspace, err := filepath.Abs(req.Workspace)
	if err != nil {
		return nil, configError("invalid workspace: %v", err)
	}
	staging := filepath.Join(workspace, utils.StagingDirName())
	excludes := pattern.Split(req.ExcludeFilePath, listSeparators)
	metadata := metadataMap(req.Metadata, req.Env, s.log)

	res := &UploadResult{}
	var archiveIncludes []string

	for _, tok := range pattern.Split(req.FilePath, includeSeparators) {
		t := naming.ParseToken(tok)
		files, err := listWorkspace(workspace, pattern.New([]string{t.Glob}, excludes))
		if err != nil {
			return nil, transferError("list files for "+t.Glob, err)
		}
		archiveIncludes = append(archiveIncludes, t.Glob)
		res.FilesUploaded += len(files)
		s.log.Debug().Str("pattern", t.Glob).Int("files", len(files)).Msg("pattern matched")

		if !req.Mode.individual() {
			continue
		}
		n := naming.UploadNaming{
			VirtualPath:         virtualPath,
			EmbeddedVirtualPath: t.VirtualPath,
			RemovePrefix:        req.RemovePrefixPath,
		}
		for _, f := range files {
			key, err := naming.UploadKey(workspace, f, n)
			if err != nil {
				return nil, transferError("resolve name", err)
			}
			rec, err := s.uploadFile(ctx, req.Container, key, f, req.Properties, metadata)
			if err != nil {
				return nil, err
			}
			res.Individual = append(res.Individual, rec)
		}
	}

	if res.FilesUploaded == 0 {
		s.log.Info().Str("pattern", req.FilePath).Msg("no files matched")
		return res, nil
	}

	if req.Mode.archive() {
		rec, err := s.uploadArchive(ctx, req, workspace, staging, virtualPath, archiveIncludes, excludes, metadata)
		if err != nil {
			return nil, err
		}
		res.Archives = append(res.Archives, rec)
	}

	if err := s.recordManifest(ctx, req.Project, req.RunID, res.Individual, res.Archives); err != nil {
		return nil, err
	}
	return res, nil
}

// uploadArchive zips everything the accumulated include globs select, uploads
// it as virtualPath + ArchiveName and removes the staging directory. The globs
// are the ones the individual selection used, unsplit.
func (s *TransferService) uploadArchive(ctx context.Context, req UploadRequest, workspace, staging, virtualPath string,
	includes, excludes []string, metadata map[string]string) (artifact.Record, error) {
	defer os.RemoveAll(staging)

	m := pattern.New(includes, excludes)
	files, err := listWorkspace(workspace, m)
	if err != nil {
		return artifact.Record{}, transferError("list files for archive", err)
	}

	zipPath := filepath.Join(staging, ArchiveName)
	if err := writeArchive(zipPath, workspace, files); err != nil {
		return artifact.Record{}, transferError("build archive", err)
	}
	s.log.Info().Int("files", len(files)).Str("archive", zipPath).Msg("archive built")

	return s.uploadFile(ctx, req.Container, virtualPath+ArchiveName, zipPath, req.Properties, metadata)
}

func (s *TransferService) uploadFile(ctx context.Context, container, key, path string, props ContentProperties,
	metadata map[string]string) (artifact.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return artifact.Record{}, transferError("open "+path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return artifact.Record{}, transferError("stat "+path, err)
	}

	br := bufio.NewReaderSize(f, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return artifact.Record{}, transferError("read "+path, err)
	}

	obj := s.backend.Object(container, key)
	hr := newHashingReader(utils.NewProgressReader(br, st.Size(), s.log.With().Str("key", key).Logger()))

	s.log.Debug().Str("container", container).Str("key", key).Str("path", path).Msg("uploading")
	if err := obj.Upload(ctx, hr, st.Size(), properties(key, head, props), metadata); err != nil {
		s.log.Error().Err(err).Str("container", container).Str("key", key).Msg("upload failed")
		return artifact.Record{}, transferError(fmt.Sprintf("upload %s to %s/%s", path, container, key), err)
	}

	rec, err := artifact.NewRecord(key, container, obj.URL(), hr.Sum(), hr.Size(), s.backend.Kind())
	if err != nil {
		return artifact.Record{}, transferError("record "+key, err)
	}
	s.log.Info().
		Str("container", container).
		Str("key", key).
		Str("size", utils.HumanSize(rec.SizeBytes)).
		Msg("uploaded")
	return rec, nil
}

func (s *TransferService) recordManifest(ctx context.Context, project, runID string, individual, archives []artifact.Record) error {
	if project == "" || runID == "" {
		return nil
	}
	if s.manifests == nil {
		s.log.Warn().Str("project", project).Str("run", runID).Msg("no manifest store configured, records not persisted")
		return nil
	}
	m, err := artifact.AppendTo(ctx, s.manifests, project, runID, individual, archives)
	if err != nil {
		return transferError("update manifest", err)
	}
	s.log.Debug().Int("individual", len(m.Individual)).Int("archives", len(m.Archives)).Msg("manifest updated")
	return nil
}

func (r UploadRequest) expanded() UploadRequest {
	r.FilePath = expand(r.FilePath, r.Env)
	r.ExcludeFilePath = expand(r.ExcludeFilePath, r.Env)
	r.VirtualPath = expand(r.VirtualPath, r.Env)
	r.RemovePrefixPath = expand(r.RemovePrefixPath, r.Env)
	r.Container = expand(r.Container, r.Env)
	r.Workspace = expand(r.Workspace, r.Env)
	return r
}
