// Package web serves the JSON API used by the slide editor.
package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/ops"
)

// NewRouter builds the API routes over env.
func NewRouter(env *ops.Env, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handlers{env: env, logger: logger}

	r := mux.NewRouter()
	r.Use(securityHeaders, requestLogger(logger))

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/uploads/{name}", h.HandleMedia).Methods(http.MethodGet)

	r.HandleFunc("/api/register", h.HandleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.HandleLogin).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.requireAuth)

	api.HandleFunc("/presentations", h.HandleListDecks).Methods(http.MethodGet)
	api.HandleFunc("/presentations", h.HandleCreateDeck).Methods(http.MethodPost)
	api.HandleFunc("/presentations/generate-ai", h.HandleGenerateDeck).Methods(http.MethodPost)
	api.HandleFunc("/presentations/from-template", h.HandleCreateFromTemplate).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}", h.HandleGetDeck).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}", h.HandleUpdateDeck).Methods(http.MethodPut)
	api.HandleFunc("/presentations/{id}", h.HandleDeleteDeck).Methods(http.MethodDelete)
	api.HandleFunc("/presentations/{id}/export", h.HandleExportDeck).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}/slides", h.HandleAddSlide).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}/slides/reorder", h.HandleReorderSlides).Methods(http.MethodPut)

	api.HandleFunc("/slides/{id}", h.HandleGetSlide).Methods(http.MethodGet)
	api.HandleFunc("/slides/{id}", h.HandleUpdateSlide).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}", h.HandleDeleteSlide).Methods(http.MethodDelete)
	api.HandleFunc("/slides/{id}/elements", h.HandleAddElement).Methods(http.MethodPost)

	api.HandleFunc("/elements/{id}", h.HandleUpdateElement).Methods(http.MethodPut)
	api.HandleFunc("/elements/{id}", h.HandleDeleteElement).Methods(http.MethodDelete)

	api.HandleFunc("/ai/transform", h.HandleTransformText).Methods(http.MethodPost)
	api.HandleFunc("/ai/suggest-image", h.HandleSuggestImage).Methods(http.MethodPost)

	api.HandleFunc("/upload/{kind}", h.HandleUpload).Methods(http.MethodPost)
	api.HandleFunc("/templates", h.HandleListTemplates).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.requireAdmin)
	admin.HandleFunc("/templates", h.HandleListTemplates).Methods(http.MethodGet)
	admin.HandleFunc("/templates", h.HandleCreateTemplate).Methods(http.MethodPost)
	admin.HandleFunc("/templates/{id}", h.HandleUpdateTemplate).Methods(http.MethodPut)
	admin.HandleFunc("/templates/{id}", h.HandleDeleteTemplate).Methods(http.MethodDelete)
	admin.HandleFunc("/templates/{id}/preview", h.HandleSetTemplatePreview).Methods(http.MethodPut)
	admin.HandleFunc("/users", h.HandleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h.HandleSetAdmin).Methods(http.MethodPut)
	admin.HandleFunc("/prompts", h.HandleListPrompts).Methods(http.MethodGet)
	admin.HandleFunc("/prompts/{name}", h.HandleUpdatePrompt).Methods(http.MethodPut)

	r.NotFoundHandler = securityHeaders(http.HandlerFunc(h.HandleNotFound))
	r.MethodNotAllowedHandler = securityHeaders(http.HandlerFunc(h.HandleMethodNotAllowed))
	return r
}

// NewServer creates the HTTP server for the API.
func NewServer(env *ops.Env, logger logging.Logger, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(env, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger logging.Logger) error {
	ctx := context.Background()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info(ctx, "slidecraft API listening", "addr", srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") {
		logger.Warn(ctx, "server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info(ctx, "shutting down")
		// In-flight requests get 30s to finish.
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
