// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package artifact

import "sync"

// List is an append-only record list safe for concurrent use.
type List struct {
	mu    sync.Mutex
	items []Record
}

func (l *List) Append(r ...Record) {
	l.mu.Lock()
	l.items = append(l.items, r...)
	l.mu.Unlock()
}

// Items returns a copy of the records appended so far.
func (l *List) Items() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
