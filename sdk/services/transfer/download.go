// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/naming"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/pattern"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/pool"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/utils"
)

const tempPrefix = ".tmp-"

type workItem struct {
	container string
	name      string
}

// Download scans the source and feeds matching objects to the worker pool.
// A failing object is logged and counted; the others still complete and the
// result is flagged unstable. Scan and setup errors abort the call.
func (s *TransferService) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	req = req.expanded()
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Source == SourceRun && s.manifests == nil {
		return nil, configError("downloading from a run needs a manifest store")
	}
	if err := s.backend.Validate(ctx); err != nil {
		return nil, accountError(err)
	}

	dest := req.DownloadDir
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(req.Workspace, dest)
	}
	m := pattern.New(
		pattern.Split(req.IncludeFilePattern, listSeparators),
		pattern.Split(req.ExcludeFilePattern, listSeparators),
	)

	records := &artifact.List{}
	p := pool.New(s.transfer.Workers, s.transfer.QueueSize,
		s.fetch(dest, req.Flatten, req.DeleteAfterDownload, records),
		pool.WithFailureHandler(func(item workItem, err error) {
			s.log.Error().Err(err).Str("container", item.container).Str("key", item.name).Msg("download failed")
		}),
	)
	p.Start(ctx)

	var scanErr error
	switch req.Source {
	case SourceRun:
		scanErr = s.scanManifest(ctx, p, req, m)
	default:
		scanErr = s.scanContainer(ctx, p, req.Container, "", m)
	}
	stats := p.Wait()

	if scanErr != nil {
		return nil, transferError("scan "+req.Container, scanErr)
	}

	res := &DownloadResult{
		FilesDownloaded: int(stats.Completed),
		Failed:          int(stats.Failed),
		Unstable:        stats.Failed > 0,
		Records:         records.Items(),
	}
	if res.FilesDownloaded == 0 && res.Failed == 0 {
		s.log.Info().Str("pattern", req.IncludeFilePattern).Msg("no objects matched")
	}
	if res.Unstable {
		s.log.Warn().Int("failed", res.Failed).Int("downloaded", res.FilesDownloaded).Msg("download finished with failures")
	}
	return res, nil
}

// scanContainer walks the listing depth-first. Directories are entered only
// when some include pattern could still match below them.
func (s *TransferService) scanContainer(ctx context.Context, p *pool.Pool[workItem], container, prefix string, m *pattern.Matcher) error {
	entries, err := s.backend.List(ctx, container, prefix)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir {
			if !m.Descend(e.Name) {
				continue
			}
			if err := s.scanContainer(ctx, p, container, e.Name, m); err != nil {
				return err
			}
			continue
		}
		if !m.Includes(e.Name) {
			continue
		}
		if err := p.Submit(ctx, workItem{container: container, name: e.Name}); err != nil {
			return err
		}
	}
	return nil
}

// scanManifest submits the recorded artifacts of a previous run.
func (s *TransferService) scanManifest(ctx context.Context, p *pool.Pool[workItem], req DownloadRequest, m *pattern.Matcher) error {
	man, err := s.manifests.Load(ctx, req.Project, req.RunID)
	if errors.Is(err, artifact.ErrManifestNotFound) {
		s.log.Info().Str("project", req.Project).Str("run", req.RunID).Msg("run has no recorded artifacts")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	for _, rec := range man.All() {
		if !m.Includes(rec.Name) {
			continue
		}
		container := rec.Container
		if container == "" {
			container = req.Container
		}
		if err := p.Submit(ctx, workItem{container: container, name: rec.Name}); err != nil {
			return err
		}
	}
	return nil
}

func (s *TransferService) fetch(dest string, flatten, deleteAfter bool, records *artifact.List) pool.Handler[workItem] {
	return func(ctx context.Context, item workItem) error {
		if item.container == "" {
			return fmt.Errorf("no container for %s", item.name)
		}
		target := naming.DownloadPath(dest, item.name, flatten)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		// Write next to the target and rename on success so a failed or
		// concurrent download never clobbers a file already in place.
		out, err := os.CreateTemp(filepath.Dir(target), tempPrefix+"*")
		if err != nil {
			return fmt.Errorf("failed to create local file: %w", err)
		}
		obj := s.backend.Object(item.container, item.name)
		n, err := obj.Download(ctx, out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			err = os.Rename(out.Name(), target)
		}
		if err != nil {
			_ = os.Remove(out.Name())
			return err
		}

		if deleteAfter {
			if err := obj.Delete(ctx); err != nil {
				return fmt.Errorf("downloaded but failed to delete source: %w", err)
			}
		}

		rec, err := artifact.NewRecord(item.name, item.container, obj.URL(), "", n, s.backend.Kind())
		if err != nil {
			return err
		}
		records.Append(rec)
		s.log.Info().
			Str("container", item.container).
			Str("key", item.name).
			Str("path", target).
			Str("size", utils.HumanSize(n)).
			Msg("downloaded")
		return nil
	}
}

func (r DownloadRequest) expanded() DownloadRequest {
	r.Container = expand(r.Container, r.Env)
	r.IncludeFilePattern = expand(r.IncludeFilePattern, r.Env)
	r.ExcludeFilePattern = expand(r.ExcludeFilePattern, r.Env)
	r.DownloadDir = expand(r.DownloadDir, r.Env)
	r.Workspace = expand(r.Workspace, r.Env)
	r.Project = expand(r.Project, r.Env)
	r.RunID = expand(r.RunID, r.Env)
	return r
}
