// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
)

// CoreStore keeps run manifests on the core API at
// /api/<version>/-/<project>/runs/<run>/artifacts.
type CoreStore struct {
	http config.CoreHTTP
}

func NewCoreStore(conf config.CoreConfig) (*CoreStore, error) {
	if conf.BaseURL == "" || conf.APIVersion == "" {
		return nil, errors.New("invalid core config")
	}
	return &CoreStore{http: config.NewHTTPCore(nil, conf)}, nil
}

// NewCoreStoreWithClient wraps an existing core client.
func NewCoreStoreWithClient(c config.CoreHTTP) *CoreStore {
	return &CoreStore{http: c}
}

func (s *CoreStore) manifestURL(project, runID string) (string, error) {
	if project == "" || runID == "" {
		return "", errors.New("project and run id are required")
	}
	return s.http.BuildURL(project, "runs", url.PathEscape(runID)+"/artifacts", nil), nil
}

func (s *CoreStore) Load(ctx context.Context, project, runID string) (*Manifest, error) {
	u, err := s.manifestURL(project, runID)
	if err != nil {
		return nil, err
	}
	body, status, err := s.http.Do(ctx, http.MethodGet, u, nil)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", ErrManifestNotFound, project, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if m.Project == "" {
		m.Project = project
	}
	if m.RunID == "" {
		m.RunID = runID
	}
	return &m, nil
}

func (s *CoreStore) Save(ctx context.Context, m *Manifest) error {
	if m == nil {
		return errors.New("nil manifest")
	}
	u, err := s.manifestURL(m.Project, m.RunID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if _, _, err := s.http.Do(ctx, http.MethodPut, u, payload); err != nil {
		return fmt.Errorf("failed to store manifest: %w", err)
	}
	return nil
}
