// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"os"
	"regexp"
	"strings"
)

// containers and shares: 3-63 chars, lowercase letters, digits, single hyphens
// not at either end
var containerName = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func validateContainer(name string) error {
	if strings.TrimSpace(name) == "" {
		return configError("container name is required")
	}
	if len(name) < 3 || len(name) > 63 || !containerName.MatchString(name) {
		return configError("invalid container name %q: use 3-63 lowercase letters, digits and single hyphens", name)
	}
	return nil
}

func validateWorkspace(ws string) error {
	if strings.TrimSpace(ws) == "" {
		return configError("workspace is required")
	}
	st, err := os.Stat(ws)
	if err != nil {
		return configError("cannot access workspace: %v", err)
	}
	if !st.IsDir() {
		return configError("workspace %s is not a directory", ws)
	}
	return nil
}

func (r *UploadRequest) validate() error {
	if err := validateWorkspace(r.Workspace); err != nil {
		return err
	}
	if err := validateContainer(r.Container); err != nil {
		return err
	}
	if strings.TrimSpace(r.FilePath) == "" {
		return configError("file path pattern is required")
	}
	if r.Mode < UploadIndividual || r.Mode > UploadBoth {
		return configError("unknown upload mode %d", r.Mode)
	}
	if (r.Project == "") != (r.RunID == "") {
		return configError("project and run id must be set together")
	}
	return nil
}

func (r *DownloadRequest) validate() error {
	if err := validateWorkspace(r.Workspace); err != nil {
		return err
	}
	switch r.Source {
	case SourceContainer:
		return validateContainer(r.Container)
	case SourceRun:
		if strings.TrimSpace(r.Project) == "" || strings.TrimSpace(r.RunID) == "" {
			return configError("project and run id are required to download from a run")
		}
		return nil
	default:
		return configError("unknown download source %d", r.Source)
	}
}
