// Command synphora runs the writing assistant.
//
// Configuration is via environment variables (a .env file is loaded if
// present) or a YAML file passed with --config:
//
//	LLM_PROVIDER             - openai, anthropic, or google (default: openai)
//	LLM_BASE_URL             - OpenAI-compatible base URL (optional)
//	LLM_API_KEY              - API key (required for model commands)
//	LLM_MODEL                - Model override (optional, uses provider default)
//	SYNPHORA_ADDR            - Listen address (default: :8000)
//	SYNPHORA_CORS_ORIGINS    - Comma-separated allowed origins
//	SYNPHORA_STORE           - memory, file, badger, or s3 (default: file)
//	SYNPHORA_STORE_DIR       - file/badger directory (default: data/store)
//	SYNPHORA_S3_*            - BUCKET, PREFIX, REGION, ENDPOINT for s3
//	SYNPHORA_MAX_ITERATIONS  - Reasoning steps per run (default: 10)
//	SYNPHORA_REASON_TIMEOUT  - Per model call timeout (default: 2m)
//	SYNPHORA_ACT_TIMEOUT     - Per tool call timeout (default: 5m)
//	SYNPHORA_MODEL_RETRIES   - Model call attempts (default: 3)
//	SYNPHORA_LOG_LEVEL       - debug, info, warn, error (default: info)
//	SYNPHORA_LOG_FORMAT      - text or json (default: text)
//
// Usage:
//
//	synphora serve
//	synphora run --artifact <id> "Please evaluate this article"
//	synphora artifacts list
//	synphora mcp
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
