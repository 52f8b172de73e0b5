// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

const (
	EnvPrefix           = "ARTIFACTSYNC"
	DefaultAccountsFile = ".artifactsync.ini"
	StagingPrefix       = ".artifactsync-"

	CoreEndpoint       = "core_endpoint"
	CoreApiVersion     = "core_api_version"
	CoreAccessToken    = "core_access_token"
	CoreUser           = "core_user"
	CorePassword       = "core_password"
	AccountsFile       = "accounts_file"
	StorageAccount     = "storage_account"
	Workers            = "workers"
	MaxRetries         = "max_retries"
	ConcurrentRequests = "concurrent_requests"
	ManifestDir        = "manifest_dir"
	Project            = "project"
	RunId              = "run_id"
	LogLevel           = "log_level"
)
