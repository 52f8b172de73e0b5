// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/services/transfer"
)

type uploadOptions struct {
	workspace            string
	container            string
	include              string
	exclude              string
	virtualPath          string
	removePrefix         string
	individual           bool
	archive              bool
	clean                bool
	cleanVirtualPathOnly bool
	public               string
	metadata             []string
	contentType          string
	contentEncoding      string
	contentLanguage      string
	cacheControl         string
	detectContentType    bool
	allowEmpty           bool
	out                  string
}

func uploadCommand(v *viper.Viper) *cobra.Command {
	o := uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload workspace files matching the include patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := o.request()
			if err != nil {
				return err
			}

			svc, settings, err := newService(cmd.Context(), v)
			if err != nil {
				return err
			}
			req.Project = settings.Project
			req.RunID = settings.RunId

			res, err := svc.Upload(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info().
				Int("files", res.FilesUploaded).
				Int("individual", len(res.Individual)).
				Int("archives", len(res.Archives)).
				Msg("upload finished")
			if err := render(os.Stdout, o.out, res); err != nil {
				return err
			}
			if res.FilesUploaded == 0 && !o.allowEmpty {
				return fmt.Errorf("%w: no files uploaded", errUnstable)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.workspace, "workspace", "w", ".", "workspace root the patterns are relative to")
	f.StringVarP(&o.container, "container", "c", "", "destination container or share")
	f.StringVarP(&o.include, "include", "i", "", `";" separated globs, each optionally "glob::subdir"`)
	f.StringVarP(&o.exclude, "exclude", "x", "", `"," separated globs to leave out`)
	f.StringVar(&o.virtualPath, "virtual-path", "", "prefix for every object name")
	f.StringVar(&o.removePrefix, "remove-prefix", "", "leading path to strip from relative file paths")
	f.BoolVar(&o.individual, "individual", true, "upload matched files one by one")
	f.BoolVar(&o.archive, "archive", false, "upload matched files as one zip archive")
	f.BoolVar(&o.clean, "clean", false, "empty the destination before uploading")
	f.BoolVar(&o.cleanVirtualPathOnly, "clean-virtual-path-only", false, "with --clean, only delete below the virtual path")
	f.StringVar(&o.public, "public", "", "public read access for a new container (true|false)")
	f.StringArrayVarP(&o.metadata, "metadata", "m", nil, "metadata key=value, repeatable")
	f.StringVar(&o.contentType, "content-type", "", "Content-Type for every object")
	f.StringVar(&o.contentEncoding, "content-encoding", "", "Content-Encoding for every object")
	f.StringVar(&o.contentLanguage, "content-language", "", "Content-Language for every object")
	f.StringVar(&o.cacheControl, "cache-control", "", "Cache-Control for every object")
	f.BoolVar(&o.detectContentType, "detect-content-type", true, "detect Content-Type from file content")
	addOutputFlags(f, &o.out, &o.allowEmpty)
	_ = cmd.MarkFlagRequired("container")
	_ = cmd.MarkFlagRequired("include")

	return cmd
}

func (o uploadOptions) request() (transfer.UploadRequest, error) {
	req := transfer.UploadRequest{
		Workspace:            o.workspace,
		Container:            o.container,
		FilePath:             o.include,
		ExcludeFilePath:      o.exclude,
		VirtualPath:          o.virtualPath,
		RemovePrefixPath:     o.removePrefix,
		Mode:                 transfer.UploadModeFor(o.individual, o.archive),
		CleanContainer:       o.clean,
		CleanVirtualPathOnly: o.cleanVirtualPathOnly,
		Properties: transfer.ContentProperties{
			CacheControl:      o.cacheControl,
			ContentType:       o.contentType,
			ContentEncoding:   o.contentEncoding,
			ContentLanguage:   o.contentLanguage,
			DetectContentType: o.detectContentType,
		},
		Env: environ(),
	}
	if o.public != "" {
		b, err := strconv.ParseBool(o.public)
		if err != nil {
			return req, fmt.Errorf("invalid --public value %q", o.public)
		}
		req.PublicAccess = &b
	}
	for _, kv := range o.metadata {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			return req, errors.New("metadata must be key=value: " + kv)
		}
		req.Metadata = append(req.Metadata, transfer.MetadataPair{Key: k, Value: val})
	}
	return req, nil
}
