package dispatch

import (
	"runtime"

	"golang.org/x/time/rate"

	"github.com/threadworks/harness/internal/logx"
)

// Option is a functional option for configuring the dispatcher.
type Option func(*config)

type config struct {
	workers int
	limiter *rate.Limiter
	log     *logx.Logger
}

func defaultConfig() *config {
	return &config{
		workers: runtime.GOMAXPROCS(0),
		log:     logx.Discard(),
	}
}

// WithWorkers sets the fixed pool size. The dispatcher never auto-scales:
// exactly n long-lived workers run for its whole lifetime. Defaults to
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithRateLimit throttles task pickup to perSecond with the given burst.
// Useful when units hit an external resource; no limit is applied by
// default.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *config) {
		if perSecond > 0 && burst > 0 {
			cfg.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger routes the dispatcher's diagnostic output. Silent by default.
func WithLogger(log *logx.Logger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}
