// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import "runtime"

const (
	DefaultWorkers    = 16
	DefaultMaxRetries = 3
)

// Config is everything the SDK needs; callers build it from their own sources
// (flags, env, INI). The SDK never reads global settings itself.
type Config struct {
	Core     CoreConfig
	Storage  StorageAccount
	Transfer TransferConfig
}

// CoreConfig locates the core API holding run manifests. Optional.
type CoreConfig struct {
	BaseURL           string
	APIVersion        string
	AccessToken       string
	BasicAuthUsername string
	BasicAuthPassword string
	MaxRetries        int
}

// StorageAccount is the opaque account record produced by credential
// resolution: identity, secret and endpoint.
type StorageAccount struct {
	Name     string
	Key      string
	Token    string
	Endpoint string
	Region   string

	// Kind is "blob" or "file".
	Kind string
	// Driver selects the client: "s3" (default for blob), "minio", "fs" (default for file).
	Driver string
	// Root is the mount point of a file share.
	Root string
	// PathStyle forces path-style bucket addressing.
	PathStyle bool
}

// TransferConfig tunes retries and parallelism.
type TransferConfig struct {
	// Workers is the size of the download pool.
	Workers int
	// QueueSize bounds the download queue; 0 means 4*Workers.
	QueueSize int
	// MaxRetries is the attempt budget handed to the storage client.
	MaxRetries int
	// ConcurrentRequests is the per-object part concurrency for large transfers.
	ConcurrentRequests int
}

// WithDefaults fills unset tuning values.
func (t TransferConfig) WithDefaults() TransferConfig {
	if t.Workers <= 0 {
		t.Workers = DefaultWorkers
	}
	if t.QueueSize <= 0 {
		t.QueueSize = 4 * t.Workers
	}
	if t.MaxRetries <= 0 {
		t.MaxRetries = DefaultMaxRetries
	}
	if t.ConcurrentRequests <= 0 {
		t.ConcurrentRequests = runtime.NumCPU()
	}
	return t
}
