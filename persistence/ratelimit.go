package persistence

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewIOLimiter returns a limiter that admits bytesPerSec bytes per
// second with an equal burst.
func NewIOLimiter(bytesPerSec int64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
}

// LimitedWriter throttles writes through a shared rate limiter so that
// background snapshot writes do not saturate disk or network bandwidth.
type LimitedWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	ctx     context.Context
}

// NewLimitedWriter wraps w so that writes consume limiter tokens, one
// per byte. A nil limiter disables throttling. The io.Writer interface
// has no context parameter, so the context is carried on the wrapper.
func NewLimitedWriter(ctx context.Context, w io.Writer, limiter *rate.Limiter) *LimitedWriter {
	return &LimitedWriter{w: w, limiter: limiter, ctx: ctx}
}

// Write implements io.Writer. Large writes are split into burst-sized
// chunks so the limiter can admit them.
func (lw *LimitedWriter) Write(p []byte) (int, error) {
	if lw.limiter == nil {
		return lw.w.Write(p)
	}

	total := 0
	for len(p) > 0 {
		chunk := len(p)
		if burst := lw.limiter.Burst(); chunk > burst {
			chunk = burst
		}
		if err := lw.limiter.WaitN(lw.ctx, chunk); err != nil {
			return total, err
		}
		n, err := lw.w.Write(p[:chunk])
		total += n
		if err != nil {
			return total, err
		}
		p = p[chunk:]
	}
	return total, nil
}
