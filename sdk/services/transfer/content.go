// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
)

const (
	sniffLen       = 512
	javascriptType = "application/javascript"
)

var macro = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expand substitutes $VAR and ${VAR} from env. Unknown variables stay as they are.
func expand(s string, env map[string]string) string {
	if len(env) == 0 || !strings.Contains(s, "$") {
		return s
	}
	return macro.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.Trim(strings.TrimPrefix(m, "$"), "{}")
		if v, ok := env[name]; ok {
			return v
		}
		return m
	})
}

// contentType picks the Content-Type header: explicit value, then detection
// when enabled, otherwise unset.
func contentType(name string, head []byte, p ContentProperties) string {
	if ct := strings.TrimSpace(p.ContentType); ct != "" {
		return ct
	}
	if !p.DetectContentType {
		return ""
	}
	ext := strings.ToLower(path.Ext(name))
	// sniffers see javascript as plain text
	if ext == ".js" {
		return javascriptType
	}
	ct := http.DetectContentType(head)
	if ct == "application/octet-stream" || strings.HasPrefix(ct, "text/plain") {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return ct
}

func properties(name string, head []byte, p ContentProperties) storage.Properties {
	return storage.Properties{
		ContentType:     contentType(name, head, p),
		ContentEncoding: strings.TrimSpace(p.ContentEncoding),
		ContentLanguage: strings.TrimSpace(p.ContentLanguage),
		CacheControl:    strings.TrimSpace(p.CacheControl),
	}
}

// metadataMap expands the pairs and drops the ones whose key or value ends up
// blank.
func metadataMap(pairs []MetadataPair, env map[string]string, log zerolog.Logger) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k := strings.TrimSpace(expand(p.Key, env))
		v := strings.TrimSpace(expand(p.Value, env))
		if k == "" || v == "" {
			log.Info().Str("key", p.Key).Msg("skipping metadata with blank key or value")
			continue
		}
		out[k] = v
	}
	return out
}

// hashingReader computes the MD5 digest and the size of what is streamed
// through it.
type hashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: r, h: md5.New()}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.h.Write(p[:n])
		hr.n += int64(n)
	}
	return n, err
}

func (hr *hashingReader) Sum() string { return hex.EncodeToString(hr.h.Sum(nil)) }

func (hr *hashingReader) Size() int64 { return hr.n }
