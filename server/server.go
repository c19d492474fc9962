// Package server exposes the writing assistant over HTTP.
//
// Routes:
//
//	GET    /health                     liveness and version
//	POST   /agent                      run the agent, stream events as SSE
//	POST   /agent/agui                 run the agent, stream AG-UI events as SSE
//	GET    /agent/ws                   run the agent over a WebSocket
//	GET    /artifacts                  list artifacts
//	POST   /artifacts                  create an artifact
//	POST   /artifacts/upload           create an artifact from a multipart file
//	POST   /artifacts/generate-sample  have the model write a sample article
//	GET    /artifacts/{id}             fetch one artifact
//	DELETE /artifacts/{id}             delete one artifact
//
// Errors are JSON objects of the form {"detail": "..."}.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/agent"
	"github.com/nettee/synphora/artifact"
	"github.com/nettee/synphora/event"
)

// DefaultOrigins are the local frontend origins allowed by CORS.
var DefaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Runner starts agent runs. *agent.Executor implements it.
type Runner interface {
	Stream(ctx context.Context, history []synphora.Message, opts ...agent.Option) *event.Sink
}

// Prompts renders the agent conversation prompts. *prompt.Provider
// implements it.
type Prompts interface {
	System() (string, error)
	User(originalArtifactID, userMessage string) (string, error)
}

// Sampler writes sample articles. *article.Tools implements it.
type Sampler interface {
	Sample(ctx context.Context, topic string) (artifact.Artifact, error)
}

// Config holds the collaborators of a Server.
type Config struct {
	Runner  Runner
	Store   artifact.Store
	Prompts Prompts
	Sampler Sampler

	// Origins lists the allowed CORS origins. Nil means DefaultOrigins.
	Origins []string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server routes HTTP requests to the agent and the artifact store.
type Server struct {
	runner   Runner
	store    artifact.Store
	prompts  Prompts
	sampler  Sampler
	origins  map[string]bool
	log      *slog.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	origins := cfg.Origins
	if origins == nil {
		origins = DefaultOrigins
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		prompts: cfg.Prompts,
		sampler: cfg.Sampler,
		origins: make(map[string]bool, len(origins)),
		log:     log,
	}
	for _, o := range origins {
		s.origins[o] = true
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /agent", s.agent)
	mux.HandleFunc("POST /agent/agui", s.agentAGUI)
	mux.HandleFunc("GET /agent/ws", s.agentWS)
	mux.HandleFunc("GET /artifacts", s.listArtifacts)
	mux.HandleFunc("POST /artifacts", s.createArtifact)
	mux.HandleFunc("POST /artifacts/upload", s.uploadArtifact)
	mux.HandleFunc("POST /artifacts/generate-sample", s.generateSample)
	mux.HandleFunc("GET /artifacts/{id}", s.getArtifact)
	mux.HandleFunc("DELETE /artifacts/{id}", s.deleteArtifact)

	s.handler = s.cors(s.logRequests(mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight runs up to 30 seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     s,
		ReadTimeout: 10 * time.Second,
		// SSE needs no write timeout
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("server started", "addr", ln.Addr().String(), "version", synphora.Version)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   synphora.Version,
	})
}
