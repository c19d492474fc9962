package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nettee/synphora/agent"
	"github.com/nettee/synphora/artifact"
	"github.com/nettee/synphora/internal/retry"
	"github.com/nettee/synphora/llm"
	"github.com/nettee/synphora/llm/anthropic"
	"github.com/nettee/synphora/llm/google"
	"github.com/nettee/synphora/llm/openai"
	"github.com/nettee/synphora/prompt"
	"github.com/nettee/synphora/store"
	"github.com/nettee/synphora/tool"
	"github.com/nettee/synphora/tool/article"
)

// app holds the components shared by the commands.
type app struct {
	cfg      *Config
	log      *slog.Logger
	store    artifact.Store
	prompts  *prompt.Provider
	model    llm.Client
	tools    *article.Tools
	registry *tool.Registry
	executor *agent.Executor

	closers []io.Closer
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// newStoreApp builds the components that do not need the model.
func newStoreApp(ctx context.Context, cfg *Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := newLogger(cfg, os.Stderr)
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log, prompts: prompt.Default()}
	st, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.store = st
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// newApp builds every component, including the model client and the
// executor.
func newApp(ctx context.Context, cfg *Config) (*app, error) {
	if err := cfg.ValidateModel(); err != nil {
		return nil, err
	}
	a, err := newStoreApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.model, err = newModel(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.tools = article.New(a.store, a.model, a.prompts, article.WithLogger(a.log))
	a.registry = tool.NewRegistry()
	if err := a.tools.Register(a.registry); err != nil {
		a.Close()
		return nil, err
	}

	a.executor = agent.New(a.model, a.registry,
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithReasonTimeout(cfg.ReasonTimeout),
		agent.WithActTimeout(cfg.ActTimeout),
		agent.WithRetry(retry.DefaultConfig().WithAttempts(cfg.ModelRetries)),
		agent.WithLogger(a.log),
	)
	a.log.Info("components ready",
		"provider", cfg.Provider,
		"store", cfg.Store,
		"tools", a.registry.Names(),
	)
	return a, nil
}

// Close releases the store backends.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func newModel(ctx context.Context, cfg *Config) (llm.Client, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(openai.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case "anthropic":
		return anthropic.New(anthropic.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case "google":
		return google.New(ctx, google.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// openStore opens the configured artifact backend. The returned closer is
// nil for backends holding no resources.
func openStore(_ context.Context, cfg *Config, log *slog.Logger) (artifact.Store, io.Closer, error) {
	switch cfg.Store {
	case "memory":
		return artifact.NewMemoryStore(), nil, nil
	case "file":
		st, err := artifact.OpenFileStore(cfg.StoreDir)
		return st, nil, err
	case "badger":
		db, err := store.NewBadgerAdapter(store.BadgerOptions{Dir: cfg.StoreDir, Logger: log})
		if err != nil {
			return nil, nil, err
		}
		return artifact.NewKVStore(db), db, nil
	case "s3":
		return artifact.NewKVStore(store.NewS3Adapter(newS3Client(cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix)), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{Region: cfg.Region}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "synphora config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		}))
	}
	return s3.New(opts)
}
