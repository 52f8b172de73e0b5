// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/pattern"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/utils"
)

// listWorkspace returns the files below root accepted by m, in walk order.
// Archive staging directories are never entered.
func listWorkspace(root string, m *pattern.Matcher) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), utils.StagingPrefix) || !m.Descend(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if m.Includes(rel) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
