// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import "github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"

// UploadMode selects individual files, a zip archive, or both.
type UploadMode int

const (
	UploadInvalid UploadMode = iota
	UploadIndividual
	UploadArchive
	UploadBoth
)

// UploadModeFor maps the two host switches to a mode. Both off is
// UploadInvalid, which uploads nothing.
func UploadModeFor(individual, archive bool) UploadMode {
	switch {
	case individual && archive:
		return UploadBoth
	case archive:
		return UploadArchive
	case individual:
		return UploadIndividual
	default:
		return UploadInvalid
	}
}

func (m UploadMode) String() string {
	switch m {
	case UploadIndividual:
		return "INDIVIDUAL"
	case UploadArchive:
		return "ARCHIVE"
	case UploadBoth:
		return "BOTH"
	default:
		return "INVALID"
	}
}

func (m UploadMode) individual() bool { return m == UploadIndividual || m == UploadBoth }
func (m UploadMode) archive() bool    { return m == UploadArchive || m == UploadBoth }

// ContentProperties override the content headers of uploaded objects. Blank
// values are left to detection or unset.
type ContentProperties struct {
	CacheControl      string
	ContentType       string
	ContentEncoding   string
	ContentLanguage   string
	DetectContentType bool
}

type MetadataPair struct {
	Key   string
	Value string
}

// -------- Upload --------

type UploadRequest struct {
	// Workspace is the root the file patterns are relative to (required).
	Workspace string
	Container string
	// FilePath is a ";" separated list of globs, each optionally "glob::subdir".
	FilePath string
	// ExcludeFilePath is a "," separated list of globs.
	ExcludeFilePath  string
	VirtualPath      string
	RemovePrefixPath string
	Mode             UploadMode

	CleanContainer       bool
	CleanVirtualPathOnly bool
	PublicAccess         *bool

	Metadata   []MetadataPair
	Properties ContentProperties
	// Env is used for ${VAR} substitution in the string fields above.
	Env map[string]string

	// Project and RunID, when set, append the records to the run manifest.
	Project string
	RunID   string
}

type UploadResult struct {
	FilesUploaded int               `json:"filesUploaded"        yaml:"filesUploaded"`
	Individual    []artifact.Record `json:"individual,omitempty" yaml:"individual,omitempty"`
	Archives      []artifact.Record `json:"archives,omitempty"   yaml:"archives,omitempty"`
}

// -------- Download --------

type SourceKind int

const (
	// SourceContainer lists the container directly.
	SourceContainer SourceKind = iota
	// SourceRun uses the manifest recorded for a previous run.
	SourceRun
)

type DownloadRequest struct {
	Source    SourceKind
	Container string
	// IncludeFilePattern and ExcludeFilePattern are "," separated globs.
	IncludeFilePattern string
	ExcludeFilePattern string
	// DownloadDir is relative to Workspace unless absolute.
	DownloadDir         string
	Workspace           string
	Flatten             bool
	DeleteAfterDownload bool

	Project string
	RunID   string
	Env     map[string]string
}

type DownloadResult struct {
	FilesDownloaded int `json:"filesDownloaded" yaml:"filesDownloaded"`
	Failed          int `json:"failed"          yaml:"failed"`
	// Unstable is set when at least one object failed; the others completed.
	Unstable bool              `json:"unstable"          yaml:"unstable"`
	Records  []artifact.Record `json:"records,omitempty" yaml:"records,omitempty"`
}
