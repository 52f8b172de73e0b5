// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds all logical keys of the command line host. Tags:
// - vkey: Viper key
// - env: env name without prefix (UPPER_SNAKE). If empty, derived from vkey
// - default: optional default to set if key is unset
// - secret: "true" if sensitive, never logged
type Settings struct {
	CoreEndpoint       string `vkey:"core_endpoint"       env:"CORE_ENDPOINT"`
	CoreApiVersion     string `vkey:"core_api_version"    env:"CORE_API_VERSION"    default:"v1"`
	CoreAccessToken    string `vkey:"core_access_token"   env:"CORE_ACCESS_TOKEN"   secret:"true"`
	CoreUser           string `vkey:"core_user"           env:"CORE_USER"`
	CorePassword       string `vkey:"core_password"       env:"CORE_PASSWORD"       secret:"true"`
	AccountsFile       string `vkey:"accounts_file"       env:"ACCOUNTS_FILE"       default:".artifactsync.ini"`
	StorageAccount     string `vkey:"storage_account"     env:"STORAGE_ACCOUNT"     default:"default"`
	Workers            int    `vkey:"workers"             env:"WORKERS"             default:"16"`
	MaxRetries         int    `vkey:"max_retries"         env:"MAX_RETRIES"         default:"3"`
	ConcurrentRequests int    `vkey:"concurrent_requests" env:"CONCURRENT_REQUESTS"`
	ManifestDir        string `vkey:"manifest_dir"        env:"MANIFEST_DIR"`
	Project            string `vkey:"project"             env:"PROJECT"`
	RunId              string `vkey:"run_id"              env:"RUN_ID"`
	LogLevel           string `vkey:"log_level"           env:"LOG_LEVEL"           default:"info"`
}

// BindEnvFromStruct binds PREFIX_<ENV> for every Settings field and applies
// the declared defaults.
func BindEnvFromStruct(v *viper.Viper, prefix string) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rt := reflect.TypeOf(Settings{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)

		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}

		env := f.Tag.Get("env")
		if env == "" {
			env = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
		if prefix != "" {
			env = strings.ToUpper(prefix) + "_" + env
		}
		_ = v.BindEnv(key, env)

		if def := f.Tag.Get("default"); def != "" {
			v.SetDefault(key, def)
		}
	}
}

// LoadSettings reads every tagged field from v.
func LoadSettings(v *viper.Viper) Settings {
	var s Settings
	rv := reflect.ValueOf(&s).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		key := rt.Field(i).Tag.Get("vkey")
		if key == "" {
			continue
		}
		field := rv.Field(i)
		switch field.Kind() {
		case reflect.Int:
			field.SetInt(int64(v.GetInt(key)))
		case reflect.Bool:
			field.SetBool(v.GetBool(key))
		default:
			field.SetString(v.GetString(key))
		}
	}
	return s
}

// Redacted returns the settings as strings with secrets masked, for logging.
func (s Settings) Redacted() map[string]string {
	out := map[string]string{}
	rv := reflect.ValueOf(s)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		key := f.Tag.Get("vkey")
		if key == "" {
			continue
		}
		var val string
		switch fv := rv.Field(i); fv.Kind() {
		case reflect.Int:
			val = strconv.FormatInt(fv.Int(), 10)
		case reflect.Bool:
			val = strconv.FormatBool(fv.Bool())
		default:
			val = fv.String()
		}
		if f.Tag.Get("secret") == "true" && val != "" {
			val = "***"
		}
		out[key] = val
	}
	return out
}
