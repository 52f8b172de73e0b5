// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"io"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
)

var (
	ErrNotFound          = errors.New("object not found")
	ErrContainerNotFound = errors.New("container not found")
)

// ObjectInfo is one entry of a single-level listing. Directory entries carry a
// name ending in "/".
type ObjectInfo struct {
	Name  string
	IsDir bool
	Size  int64
}

// Properties are the content headers stored with an object.
type Properties struct {
	ContentType     string
	ContentEncoding string
	ContentLanguage string
	CacheControl    string
}

// Object is a handle to one remote blob or file. Obtaining a handle does not
// touch the network.
type Object interface {
	Container() string
	Name() string
	URL() string
	Exists(ctx context.Context) (bool, error)
	// Upload stores size bytes from r. size may be -1 when unknown.
	Upload(ctx context.Context, r io.Reader, size int64, props Properties, metadata map[string]string) error
	Download(ctx context.Context, w io.Writer) (int64, error)
	Delete(ctx context.Context) error
}

// Backend is the capability set the transfer engine needs from a storage kind.
type Backend interface {
	Kind() artifact.StorageKind
	// Validate is a lightweight probe of the account credentials and endpoint.
	Validate(ctx context.Context) error
	// CreateContainerIfAbsent creates the container or share. A nil publicAccess
	// leaves the access level to the backend default.
	CreateContainerIfAbsent(ctx context.Context, name string, publicAccess *bool) error
	// List returns the direct children of prefix ("" for the root).
	List(ctx context.Context, container, prefix string) ([]ObjectInfo, error)
	Object(container, name string) Object
	// DeleteAll removes every object below prefix, recursively.
	DeleteAll(ctx context.Context, container, prefix string) error
}
