package types

import "sync/atomic"

// CancellationToken is a cancel flag shared by every task of one logical query.
//
// Cancel may race with IsCanceled reads from worker goroutines; both are
// sequentially consistent atomic operations. Tokens are never reset: a new
// query always obtains a fresh token.
type CancellationToken struct {
	canceled atomic.Bool
}

// NewCancellationToken returns a token that is not canceled.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// Cancel marks the token as canceled. It is idempotent.
func (t *CancellationToken) Cancel() {
	t.canceled.Store(true)
}

// IsCanceled reports whether Cancel has been called. A nil token is never canceled.
func (t *CancellationToken) IsCanceled() bool {
	if t == nil {
		return false
	}
	return t.canceled.Load()
}
