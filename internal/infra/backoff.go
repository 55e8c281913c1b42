package infra

import (
	"time"
)

// Backoff computes capped exponential delays.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff is used for connection attempts (1s, 2s, 4s ... 60s).
var DefaultBackoff = Backoff{Base: 1 * time.Second, Max: 60 * time.Second}

// Delay returns the exponential backoff duration for a given retry count.
// Logic: Base * 2^retry, capped at Max.
// If retry is negative, it returns Base.
func (b Backoff) Delay(retry int) time.Duration {
	if retry < 0 {
		return b.Base
	}

	// 2^30 * 1ns is already past any sensible cap; avoid shift overflow.
	if retry > 30 {
		return b.Max
	}

	backoff := b.Base * time.Duration(1<<retry)

	if backoff > b.Max || backoff <= 0 {
		return b.Max
	}

	return backoff
}
