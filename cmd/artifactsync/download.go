// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/services/transfer"
)

type downloadOptions struct {
	workspace   string
	container   string
	include     string
	exclude     string
	dir         string
	flatten     bool
	deleteAfter bool
	fromRun     string
	allowEmpty  bool
	out         string
}

func downloadCommand(v *viper.Viper) *cobra.Command {
	o := downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download objects from a container or from the artifacts of a previous run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, settings, err := newService(cmd.Context(), v)
			if err != nil {
				return err
			}

			req := o.request()
			req.Project = settings.Project
			if o.fromRun != "" {
				req.Source = transfer.SourceRun
				req.RunID = o.fromRun
			}

			res, err := svc.Download(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info().
				Int("files", res.FilesDownloaded).
				Int("failed", res.Failed).
				Msg("download finished")
			if err := render(os.Stdout, o.out, res); err != nil {
				return err
			}
			if res.Unstable {
				return fmt.Errorf("%w: %d objects failed", errUnstable, res.Failed)
			}
			if res.FilesDownloaded == 0 && !o.allowEmpty {
				return fmt.Errorf("%w: no files downloaded", errUnstable)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.workspace, "workspace", "w", ".", "workspace root")
	f.StringVarP(&o.container, "container", "c", "", "source container or share")
	f.StringVarP(&o.include, "include", "i", "", `"," separated globs (default: everything)`)
	f.StringVarP(&o.exclude, "exclude", "x", "", `"," separated globs to leave out`)
	f.StringVarP(&o.dir, "dir", "d", "", "download directory, relative to the workspace")
	f.BoolVar(&o.flatten, "flatten", false, "drop directories from object names")
	f.BoolVar(&o.deleteAfter, "delete-after-download", false, "delete each object once downloaded")
	f.StringVar(&o.fromRun, "from-run", "", "download the artifacts recorded for this run of --project")
	addOutputFlags(f, &o.out, &o.allowEmpty)

	return cmd
}

func (o downloadOptions) request() transfer.DownloadRequest {
	return transfer.DownloadRequest{
		Source:              transfer.SourceContainer,
		Container:           o.container,
		IncludeFilePattern:  o.include,
		ExcludeFilePattern:  o.exclude,
		DownloadDir:         o.dir,
		Workspace:           o.workspace,
		Flatten:             o.flatten,
		DeleteAfterDownload: o.deleteAfter,
		Env:                 environ(),
	}
}
