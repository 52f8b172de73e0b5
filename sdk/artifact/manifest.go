// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"errors"
)

// ErrManifestNotFound is returned by stores when a run has no manifest yet.
var ErrManifestNotFound = errors.New("artifact manifest not found")

// Manifest is the artifact list attached to one run of a project. Individual
// uploads and zip archives are kept apart.
type Manifest struct {
	Project    string   `json:"project"              yaml:"project"`
	RunID      string   `json:"runId"                yaml:"runId"`
	Individual []Record `json:"individual,omitempty" yaml:"individual,omitempty"`
	Archives   []Record `json:"archives,omitempty"   yaml:"archives,omitempty"`
}

// Append adds the records of one more invocation. Existing records are kept.
func (m *Manifest) Append(individual, archives []Record) {
	m.Individual = append(m.Individual, individual...)
	m.Archives = append(m.Archives, archives...)
}

// Lookup finds a record by object name. When an upload was repeated within the
// run the most recent record wins.
func (m *Manifest) Lookup(name string) (Record, bool) {
	for i := len(m.Individual) - 1; i >= 0; i-- {
		if m.Individual[i].Name == name {
			return m.Individual[i], true
		}
	}
	for i := len(m.Archives) - 1; i >= 0; i-- {
		if m.Archives[i].Name == name {
			return m.Archives[i], true
		}
	}
	return Record{}, false
}

// All returns individual records followed by archive records.
func (m *Manifest) All() []Record {
	out := make([]Record, 0, len(m.Individual)+len(m.Archives))
	out = append(out, m.Individual...)
	return append(out, m.Archives...)
}

// ManifestStore loads and persists run manifests.
type ManifestStore interface {
	Load(ctx context.Context, project, runID string) (*Manifest, error)
	Save(ctx context.Context, m *Manifest) error
}

// AppendTo loads the run manifest (or starts an empty one), appends the
// records and saves it back.
func AppendTo(ctx context.Context, store ManifestStore, project, runID string, individual, archives []Record) (*Manifest, error) {
	m, err := store.Load(ctx, project, runID)
	if errors.Is(err, ErrManifestNotFound) {
		m, err = &Manifest{Project: project, RunID: runID}, nil
	}
	if err != nil {
		return nil, err
	}
	m.Append(individual, archives)
	if err := store.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
