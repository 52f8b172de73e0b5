// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// EmbeddedSeparator splits a pattern token from its embedded virtual path.
const EmbeddedSeparator = "::"

// Token is one entry of an upload pattern list.
type Token struct {
	Glob string
	// VirtualPath is empty or ends with "/".
	VirtualPath string
}

// ParseToken splits "glob::subdir" at the first separator. A token without a
// usable glob part is treated as a plain glob.
func ParseToken(token string) Token {
	token = strings.TrimSpace(token)
	i := strings.Index(token, EmbeddedSeparator)
	if i < 0 {
		return Token{Glob: token}
	}
	glob := strings.TrimSpace(token[:i])
	if glob == "" {
		return Token{Glob: token}
	}
	return Token{
		Glob:        glob,
		VirtualPath: NormalizeDir(token[i+len(EmbeddedSeparator):]),
	}
}

// NormalizeDir returns "" for blank input, otherwise a slash separated path
// without a leading "./" or separator that always ends with "/".
func NormalizeDir(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// UploadNaming holds the per-invocation and per-token key prefixes.
type UploadNaming struct {
	VirtualPath         string
	EmbeddedVirtualPath string
	RemovePrefix        string
}

// RelativePath returns file relative to root with forward slashes.
func RelativePath(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("relative path error: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside of %s", file, root)
	}
	return rel, nil
}

// UploadKey computes virtualPath + embeddedVirtualPath + relative path, the
// relative path losing the remove prefix when it starts with it.
func UploadKey(root, file string, n UploadNaming) (string, error) {
	rel, err := RelativePath(root, file)
	if err != nil {
		return "", err
	}
	return KeyFor(rel, n), nil
}

// KeyFor is UploadKey for an already relative, slash separated path.
func KeyFor(rel string, n UploadNaming) string {
	rel = strings.TrimLeft(filepath.ToSlash(rel), "/")
	if prefix := NormalizeDir(n.RemovePrefix); prefix != "" && strings.HasPrefix(rel, prefix) {
		rel = strings.TrimPrefix(rel, prefix)
	}
	return NormalizeDir(n.VirtualPath) + NormalizeDir(n.EmbeddedVirtualPath) + rel
}

// DownloadPath maps an object key below dir. With flatten only the final
// segment of the key is kept.
func DownloadPath(dir, key string, flatten bool) string {
	key = strings.TrimLeft(filepath.ToSlash(key), "/")
	if flatten {
		key = path.Base(key)
	}
	// keys are untrusted; never let them climb out of dir
	clean := path.Clean("/" + key)
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}
