package agent

import (
	"log/slog"
	"time"

	"github.com/nettee/synphora/internal/retry"
)

// Options contains configuration for a run.
type Options struct {
	// MaxIterations limits the number of Reason steps. Default is 10.
	MaxIterations int

	// ReasonTimeout bounds each model call attempt. Default is 2 minutes.
	ReasonTimeout time.Duration

	// ActTimeout bounds each tool call. Default is 5 minutes.
	ActTimeout time.Duration

	// Retry is the retry policy for model calls.
	Retry retry.Config

	// Logger receives run logs. Default discards.
	Logger *slog.Logger

	// RunID identifies the run in logs. Generated when empty.
	RunID string
}

// Option is a functional option for configuring the executor.
type Option func(*Options)

// WithMaxIterations sets the maximum number of Reason steps.
// Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithReasonTimeout sets the timeout for each model call attempt.
func WithReasonTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReasonTimeout = d
	}
}

// WithActTimeout sets the timeout for each tool call.
func WithActTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ActTimeout = d
	}
}

// WithRetry sets the retry policy for model calls.
func WithRetry(cfg retry.Config) Option {
	return func(o *Options) {
		o.Retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithRunID sets the run identifier used in logs.
func WithRunID(id string) Option {
	return func(o *Options) {
		o.RunID = id
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxIterations: 10,
		ReasonTimeout: 2 * time.Minute,
		ActTimeout:    5 * time.Minute,
		Retry:         retry.DefaultConfig(),
		Logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
