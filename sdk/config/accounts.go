// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

var ErrAccountNotFound = errors.New("storage account not found")

// AccountProvider resolves storage account descriptors by name.
type AccountProvider interface {
	Account(name string) (StorageAccount, error)
	Names() []string
}

// StaticAccounts is an in-memory provider keyed by account name.
type StaticAccounts map[string]StorageAccount

func (s StaticAccounts) Account(name string) (StorageAccount, error) {
	acc, ok := s[name]
	if !ok {
		return StorageAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	if acc.Name == "" {
		acc.Name = name
	}
	return acc, nil
}

func (s StaticAccounts) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// INI keys of an account section.
const (
	iniAccountName = "account_name"
	iniAccountKey  = "account_key"
	iniToken       = "session_token"
	iniEndpoint    = "endpoint_url"
	iniRegion      = "region"
	iniKind        = "kind"
	iniDriver      = "driver"
	iniRoot        = "root"
	iniPathStyle   = "path_style"
)

// IniAccounts reads one account per section; [DEFAULT] values are inherited.
//
//	[ci-artifacts]
//	account_name = AKIA...
//	account_key  = ...
//	endpoint_url = https://s3.eu-west-1.amazonaws.com
//	kind         = blob
type IniAccounts struct {
	file *ini.File
}

func LoadIniAccounts(path string) (*IniAccounts, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}
	return &IniAccounts{file: f}, nil
}

// NewIniAccounts parses accounts from raw INI content.
func NewIniAccounts(data []byte) (*IniAccounts, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return &IniAccounts{file: f}, nil
}

func (a *IniAccounts) Account(name string) (StorageAccount, error) {
	if name == "" || !a.file.HasSection(name) || strings.EqualFold(name, ini.DefaultSection) {
		return StorageAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	def := a.file.Section(ini.DefaultSection)
	sec := a.file.Section(name)
	get := func(key string) string {
		if sec.HasKey(key) {
			return strings.TrimSpace(sec.Key(key).String())
		}
		return strings.TrimSpace(def.Key(key).String())
	}

	acc := StorageAccount{
		Name:     get(iniAccountName),
		Key:      get(iniAccountKey),
		Token:    get(iniToken),
		Endpoint: get(iniEndpoint),
		Region:   get(iniRegion),
		Kind:     get(iniKind),
		Driver:   get(iniDriver),
		Root:     get(iniRoot),
	}
	if v := get(iniPathStyle); v != "" {
		acc.PathStyle = strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
	}
	if acc.Name == "" {
		acc.Name = name
	}
	return acc, nil
}

func (a *IniAccounts) Names() []string {
	var names []string
	for _, s := range a.file.Sections() {
		if s.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}
