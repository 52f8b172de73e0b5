// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/rs/zerolog"
)

// HumanSize renders a byte count as "1.50MB".
func HumanSize(n int64) string {
	return bytesize.New(float64(n)).String()
}

// ProgressReader counts the bytes read through it and logs progress at debug
// level, at most every interval.
type ProgressReader struct {
	r        io.Reader
	log      zerolog.Logger
	total    int64
	done     atomic.Int64
	interval time.Duration
	lastTick time.Time
}

// NewProgressReader wraps r. total may be -1 when unknown.
func NewProgressReader(r io.Reader, total int64, log zerolog.Logger) *ProgressReader {
	return &ProgressReader{r: r, total: total, log: log, interval: time.Second, lastTick: time.Now()}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	done := p.done.Add(int64(n))
	if time.Since(p.lastTick) >= p.interval {
		p.lastTick = time.Now()
		ev := p.log.Debug().Str("done", HumanSize(done))
		if p.total > 0 {
			ev = ev.Str("total", HumanSize(p.total)).Float64("percent", float64(done)/float64(p.total)*100)
		}
		ev.Msg("transfer progress")
	}
	return n, err
}

// Bytes is the number of bytes read so far.
func (p *ProgressReader) Bytes() int64 { return p.done.Load() }
