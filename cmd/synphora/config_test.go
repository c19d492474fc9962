package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nettee/synphora/artifact"
	"github.com/nettee/synphora/event"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 2*time.Minute, cfg.ReasonTimeout)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("SYNPHORA_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SYNPHORA_MAX_ITERATIONS", "4")
	t.Setenv("SYNPHORA_ACT_TIMEOUT", "30s")
	t.Setenv("SYNPHORA_MODEL_RETRIES", "not-a-number")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 4, cfg.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.ActTimeout)
	assert.Equal(t, 3, cfg.ModelRetries, "unparsable values keep the default")
	assert.NoError(t, cfg.ValidateModel())
}

func TestLoadConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "synphora.yaml")
	data := `
provider: google
model: gemini-2.5-flash
store: badger
store_dir: /var/lib/synphora
reason_timeout: 45s
s3:
  bucket: articles
log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("SYNPHORA_STORE", "memory")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, "memory", cfg.Store, "environment wins over the file")
	assert.Equal(t, "/var/lib/synphora", cfg.StoreDir)
	assert.Equal(t, 45*time.Second, cfg.ReasonTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ActTimeout)
	assert.Equal(t, "articles", cfg.S3.Bucket)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":8000", cfg.Addr)
}

func TestLoadConfigFileErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("act_timeout: soon\n"), 0o644))
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "act_timeout")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "unknown log format"},
		{"store", func(c *Config) { c.Store = "sqlite" }, "unknown store"},
		{"store dir", func(c *Config) { c.StoreDir = "" }, "SYNPHORA_STORE_DIR"},
		{"s3 bucket", func(c *Config) { c.Store = "s3"; c.S3.Region = "us-east-1" }, "SYNPHORA_S3_BUCKET"},
		{"iterations", func(c *Config) { c.MaxIterations = 0 }, "SYNPHORA_MAX_ITERATIONS"},
		{"retries", func(c *Config) { c.ModelRetries = 0 }, "SYNPHORA_MODEL_RETRIES"},
		{"timeouts", func(c *Config) { c.ActTimeout = 0 }, "timeouts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateModel(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateModel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")

	cfg.APIKey = "key"
	cfg.Provider = "mistral"
	assert.ErrorContains(t, cfg.ValidateModel(), "unknown provider")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	log := newLogger(cfg, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.True(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	for _, kind := range []string{"memory", "file", "badger"} {
		t.Run(kind, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Store = kind
			cfg.StoreDir = t.TempDir()

			st, closer, err := openStore(ctx, cfg, log)
			require.NoError(t, err)
			if closer != nil {
				defer closer.Close()
			}

			a, err := st.Create(ctx, artifact.Draft{
				Title:   "Draft",
				Content: "body",
				Type:    artifact.TypeOriginal,
				Role:    artifact.RoleUser,
			})
			require.NoError(t, err)
			got, err := st.Get(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "body", got.Content)
		})
	}
}

func TestRendererOutput(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	for _, e := range []event.Event{
		event.NewRunStarted(),
		event.NewTextMessage("m1", "Hello "),
		event.NewTextMessage("m1", "there."),
		event.NewArtifactContentStart("a1", "Comments", "comment"),
		event.NewArtifactContentChunk("a1", "Nice."),
		event.NewArtifactContentComplete("a1"),
		event.NewArtifactListUpdated("a1", "Comments", "comment", "assistant"),
		event.NewRunFinished(),
	} {
		r.Render(e)
	}

	out := buf.String()
	assert.Contains(t, out, "Hello there.\n")
	assert.Contains(t, out, "Comments")
	assert.Contains(t, out, "Nice.\n")
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "done")
}

func TestPrintArtifactsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printArtifacts(&buf, defaultTheme(), nil)
	assert.Contains(t, buf.String(), "No artifacts")
}
