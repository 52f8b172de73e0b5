// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// StorageKind identifies the backend family an object lives in.
type StorageKind string

const (
	KindBlob StorageKind = "BLOB"
	KindFile StorageKind = "FILE"
)

// ParseKind accepts the usual spellings ("blob", "file", "share", "fileshare").
func ParseKind(s string) (StorageKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blob", "s3", "object":
		return KindBlob, nil
	case "file", "share", "fileshare", "file-share":
		return KindFile, nil
	default:
		return "", fmt.Errorf("unsupported storage kind %q", s)
	}
}

// Record describes one object that has been transferred successfully.
// Records are values: once built they are never modified.
type Record struct {
	Name        string      `json:"name"                  yaml:"name"`
	Container   string      `json:"container,omitempty"   yaml:"container,omitempty"`
	URL         string      `json:"url"                   yaml:"url"`
	ContentHash string      `json:"contentHash,omitempty" yaml:"contentHash,omitempty"`
	SizeBytes   int64       `json:"sizeBytes"             yaml:"sizeBytes"`
	Kind        StorageKind `json:"storageKind"           yaml:"storageKind"`
}

// NewRecord validates the attributes and rewrites the URL to https.
func NewRecord(name, container, rawURL, contentHash string, size int64, kind StorageKind) (Record, error) {
	if strings.TrimSpace(name) == "" {
		return Record{}, errors.New("artifact name is required")
	}
	if size < 0 {
		return Record{}, fmt.Errorf("artifact %s: negative size %d", name, size)
	}
	if kind == "" {
		kind = KindBlob
	}
	return Record{
		Name:        name,
		Container:   container,
		URL:         SecureURL(rawURL),
		ContentHash: contentHash,
		SizeBytes:   size,
		Kind:        kind,
	}, nil
}

// SecureURL returns raw with its scheme forced to https. Values that do not
// parse as absolute URLs are returned unchanged.
func SecureURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = "https"
	return u.String()
}

// Basename is the final path segment of the object name.
func (r Record) Basename() string {
	name := strings.TrimSuffix(r.Name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
