// Package api exposes the tool registry over HTTP: a plain REST surface
// (GET /tools, POST /tools/{name}) and a JSON-RPC endpoint for assistant
// clients, behind the usual chi middleware stack.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/canvas-mcp/internal/auth/middleware"
	"github.com/mind-engage/canvas-mcp/internal/config"
	"github.com/mind-engage/canvas-mcp/internal/tools"
)

func NewRouter(cfg config.Config, reg *tools.Registry, authSvc *auth.AuthService) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc))
	}

	r.Group(func(pr chi.Router) {
		if cfg.EnableLocalAuth {
			pr.Use(auth.JWTMiddleware(authSvc))
		}
		pr.Get("/tools", listToolsHandler(reg))
		pr.Post("/tools/{name}", callToolHandler(cfg, reg))
		pr.Post("/rpc", rpcHandler(cfg, reg))
	})

	return r
}

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AdminOnly   bool   `json:"admin_only,omitempty"`
}

func listToolsHandler(reg *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := reg.List()
		out := make([]toolInfo, 0, len(all))
		for _, t := range all {
			out = append(out, toolInfo{Name: t.Name, Description: t.Description, AdminOnly: t.AdminOnly})
		}
		writeJSON(w, http.StatusOK, map[string]any{"tools": out})
	}
}

func callToolHandler(cfg config.Config, reg *tools.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		var args tools.Args
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "request body must be a JSON object"})
			return
		}
		if msg, ok := adminGate(cfg, reg, name, r); !ok {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": msg})
			return
		}
		result := reg.Call(r.Context(), name, args)
		writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}
}

// adminGate enforces the admin role on admin-only tools. With local auth
// off there is no identity to check and every tool is callable.
func adminGate(cfg config.Config, reg *tools.Registry, name string, r *http.Request) (string, bool) {
	if !cfg.EnableLocalAuth {
		return "", true
	}
	t, ok := reg.Get(name)
	if !ok || !t.AdminOnly {
		return "", true
	}
	if !auth.IsAdmin(r.Context()) {
		return "tool " + name + " requires the admin role", false
	}
	return "", true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
