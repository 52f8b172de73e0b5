// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/services/transfer"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/utils"
)

// buildConfig resolves the storage account from the accounts file and maps
// the settings onto the SDK config.
func buildConfig(s utils.Settings, accounts config.AccountProvider) (config.Config, error) {
	acc, err := accounts.Account(s.StorageAccount)
	if err != nil {
		return config.Config{}, err
	}
	return config.Config{
		Storage: acc,
		Core: config.CoreConfig{
			BaseURL:           s.CoreEndpoint,
			APIVersion:        s.CoreApiVersion,
			AccessToken:       s.CoreAccessToken,
			BasicAuthUsername: s.CoreUser,
			BasicAuthPassword: s.CorePassword,
			MaxRetries:        s.MaxRetries,
		},
		Transfer: config.TransferConfig{
			Workers:            s.Workers,
			MaxRetries:         s.MaxRetries,
			ConcurrentRequests: s.ConcurrentRequests,
		},
	}, nil
}

func newService(ctx context.Context, v *viper.Viper) (*transfer.TransferService, utils.Settings, error) {
	s := utils.LoadSettings(v)
	log.Debug().Interface("settings", s.Redacted()).Msg("settings loaded")

	accounts, err := config.LoadIniAccounts(s.AccountsFile)
	if err != nil {
		return nil, s, err
	}
	conf, err := buildConfig(s, accounts)
	if err != nil {
		return nil, s, err
	}

	opts := []transfer.Option{transfer.WithLogger(log.Logger)}
	if s.ManifestDir != "" {
		store, err := artifact.NewFileStore(s.ManifestDir)
		if err != nil {
			return nil, s, err
		}
		opts = append(opts, transfer.WithManifestStore(store))
	}
	svc, err := transfer.NewTransferService(ctx, conf, opts...)
	return svc, s, err
}

// environ is the process environment, used for ${VAR} substitution.
func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, val, ok := strings.Cut(kv, "="); ok {
			env[k] = val
		}
	}
	return env
}

func addOutputFlags(f *pflag.FlagSet, out *string, allowEmpty *bool) {
	f.StringVarP(out, "out", "o", "text", "output format: text, json, yaml")
	f.BoolVar(allowEmpty, "allow-empty", false, "do not fail when nothing matched")
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "text", "":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
