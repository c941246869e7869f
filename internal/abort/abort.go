// Package abort provides the set-once cancellation token shared
// between the signal handler and the main control flow.
package abort

import "sync/atomic"

// Token records that a termination signal arrived. It is written at
// most once by the signal handler and read by the main flow after the
// supervised process has exited, so no lock is needed beyond the
// atomic flag.
type Token struct {
	flag atomic.Bool
}

// NewToken returns an untriggered token.
func NewToken() *Token {
	return &Token{}
}

// Trigger marks the token. The first signal wins; it reports whether
// this call was the one that set the flag.
func (t *Token) Trigger() bool {
	return t.flag.CompareAndSwap(false, true)
}

// Triggered reports whether a termination signal was received.
func (t *Token) Triggered() bool {
	return t.flag.Load()
}
