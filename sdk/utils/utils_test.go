// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindEnvFromStruct(t *testing.T) {
	t.Setenv("ARTIFACTSYNC_WORKERS", "4")
	t.Setenv("ARTIFACTSYNC_CORE_ACCESS_TOKEN", "secret-token")

	v := viper.New()
	BindEnvFromStruct(v, EnvPrefix)
	s := LoadSettings(v)

	assert.Equal(t, 4, s.Workers)
	assert.Equal(t, 3, s.MaxRetries)
	assert.Equal(t, "v1", s.CoreApiVersion)
	assert.Equal(t, DefaultAccountsFile, s.AccountsFile)
	assert.Equal(t, "secret-token", s.CoreAccessToken)

	red := s.Redacted()
	assert.Equal(t, "***", red[CoreAccessToken])
	assert.Equal(t, "4", red[Workers])
}

func TestStagingDirName(t *testing.T) {
	a, b := StagingDirName(), StagingDirName()
	assert.True(t, strings.HasPrefix(a, StagingPrefix))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.TrimPrefix(a, StagingPrefix), 32)
}

func TestProgressReader(t *testing.T) {
	var logs bytes.Buffer
	pr := NewProgressReader(strings.NewReader("hello world"), 11, zerolog.New(&logs).Level(zerolog.DebugLevel))
	pr.interval = 0

	data, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, int64(11), pr.Bytes())
	assert.Contains(t, logs.String(), "transfer progress")
}

func TestHumanSize(t *testing.T) {
	assert.Contains(t, HumanSize(1024), "KB")
	assert.Contains(t, HumanSize(3*1024*1024), "MB")
}
