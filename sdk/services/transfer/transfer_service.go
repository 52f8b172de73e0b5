// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage/factory"
)

type TransferService struct {
	backend   storage.Backend
	manifests artifact.ManifestStore
	transfer  config.TransferConfig
	log       zerolog.Logger
}

type Option func(*TransferService)

func WithLogger(l zerolog.Logger) Option {
	return func(s *TransferService) { s.log = l }
}

// WithManifestStore enables run manifests: uploads with a project and run id
// append to them, downloads can use them as a source.
func WithManifestStore(m artifact.ManifestStore) Option {
	return func(s *TransferService) { s.manifests = m }
}

func WithTransferConfig(tc config.TransferConfig) Option {
	return func(s *TransferService) { s.transfer = tc }
}

// New builds a service over an existing backend.
func New(backend storage.Backend, opts ...Option) *TransferService {
	s := &TransferService{backend: backend, log: log.Logger}
	for _, o := range opts {
		o(s)
	}
	s.transfer = s.transfer.WithDefaults()
	return s
}

// NewTransferService builds the backend for conf.Storage and, when the core
// endpoint is configured, a core manifest store.
func NewTransferService(ctx context.Context, conf config.Config, opts ...Option) (*TransferService, error) {
	backend, err := factory.New(ctx, conf.Storage, conf.Transfer)
	if err != nil {
		return nil, &StorageError{Kind: KindConfiguration, Op: "storage init", Err: err}
	}

	base := []Option{WithTransferConfig(conf.Transfer)}
	if conf.Core.BaseURL != "" {
		store, err := artifact.NewCoreStore(conf.Core)
		if err != nil {
			return nil, &StorageError{Kind: KindConfiguration, Op: "core init", Err: err}
		}
		base = append(base, WithManifestStore(store))
	}
	return New(backend, append(base, opts...)...), nil
}
