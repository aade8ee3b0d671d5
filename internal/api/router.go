package api

import (
	"net/http"

	"github.com/torchdb/toolgate/internal/audit"
	"github.com/torchdb/toolgate/internal/dispatch"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Dispatcher *dispatch.Dispatcher
	Reader     *audit.Reader // nil if ClickHouse unavailable
	APIKeyHash string        // bcrypt hash; empty disables transport auth
	Logger     *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Tool surface (auth required when an API key hash is configured)
	mux.HandleFunc("POST /v1/tools/call", deps.authMiddleware(deps.handleCallTool))
	mux.HandleFunc("GET /v1/tools", deps.authMiddleware(deps.handleListTools))

	// Audit listing
	mux.HandleFunc("GET /v1/audit/events", deps.authMiddleware(deps.handleListEvents))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
