// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"net/url"
	"strings"
)

// ObjectURL joins base, container and the escaped object name. The scheme is
// always https.
func ObjectURL(base, container, name string) string {
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u.Scheme = "https"

	segs := []string{strings.Trim(u.EscapedPath(), "/")}
	if container != "" {
		segs = append(segs, url.PathEscape(container))
	}
	segs = append(segs, EscapeKey(name))

	var parts []string
	for _, s := range segs {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Join(parts, "/")
}

// EscapeKey path-escapes every segment of an object key.
func EscapeKey(name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
