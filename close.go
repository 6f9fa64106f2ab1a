package vecdex

import "context"

// Close releases the handle's engine and marks the handle disposed.
// It is safe to call multiple times; only the first call has an effect.
// Operations already running finish normally, later calls reject with
// ErrDisposed.
func (h *Vecdex) Close() error {
	if h == nil {
		return nil
	}

	h.guard.mu.Lock()
	if h.guard.disposed {
		h.guard.mu.Unlock()
		return nil
	}
	h.guard.disposed = true
	h.guard.engine = nil
	h.guard.mu.Unlock()

	// Explicitly closed; the leak guard has nothing left to do.
	h.cleanup.Stop()
	h.logger.LogDispose(context.Background(), false)

	return nil
}
