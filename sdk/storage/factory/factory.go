// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package factory selects the storage adapter for an account.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage/fileshare"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage/minioblob"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage/s3blob"
)

const (
	DriverS3    = "s3"
	DriverMinio = "minio"
	DriverFS    = "fs"
)

// Resolve returns the storage kind and driver of an account, applying the
// per-kind default driver.
func Resolve(acc config.StorageAccount) (artifact.StorageKind, string, error) {
	kind := artifact.KindBlob
	if strings.TrimSpace(acc.Kind) != "" {
		k, err := artifact.ParseKind(acc.Kind)
		if err != nil {
			return "", "", err
		}
		kind = k
	}

	driver := strings.ToLower(strings.TrimSpace(acc.Driver))
	if driver == "" {
		driver = DriverS3
		if kind == artifact.KindFile {
			driver = DriverFS
		}
	}

	switch {
	case kind == artifact.KindBlob && (driver == DriverS3 || driver == DriverMinio):
	case kind == artifact.KindFile && driver == DriverFS:
	default:
		return "", "", fmt.Errorf("driver %q does not serve %s storage", driver, kind)
	}
	return kind, driver, nil
}

// New builds the backend for an account.
func New(ctx context.Context, acc config.StorageAccount, tc config.TransferConfig) (storage.Backend, error) {
	_, driver, err := Resolve(acc)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverMinio:
		return minioblob.New(acc, tc)
	case DriverFS:
		return fileshare.New(acc)
	default:
		return s3blob.New(ctx, acc, tc)
	}
}
