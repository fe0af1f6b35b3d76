package main

import (
	"log"
	"net/http"

	"github.com/mind-engage/canvas-mcp/internal/anonymize"
	api "github.com/mind-engage/canvas-mcp/internal/api/http"
	auth "github.com/mind-engage/canvas-mcp/internal/auth/middleware"
	"github.com/mind-engage/canvas-mcp/internal/canvas"
	"github.com/mind-engage/canvas-mcp/internal/config"
	"github.com/mind-engage/canvas-mcp/internal/storage"
	"github.com/mind-engage/canvas-mcp/internal/tools"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	client := canvas.New(canvas.Config{
		BaseURL: cfg.CanvasAPIURL,
		Token:   cfg.CanvasAPIToken,
		Timeout: cfg.CanvasTimeout,
		PerPage: cfg.PerPage,
	})

	store, err := storage.NewFSStore(cfg.ExportDir)
	if err != nil {
		log.Fatalf("export store: %v", err)
	}

	anon := anonymize.New(cfg.EnableAnonymization, cfg.AnonymizationDebug)
	if !anon.Enabled() {
		log.Printf("warning: data anonymization is DISABLED; student identities pass through unmasked")
	}

	reg := tools.All(tools.Deps{
		Client:   client,
		Resolver: canvas.NewResolver(client),
		Anon:     anon,
		Store:    store,
	})

	var authSvc *auth.AuthService
	if cfg.EnableLocalAuth {
		authSvc = auth.NewAuthService(cfg.AuthHMACSecret, cfg.AdminUser, cfg.AdminPassHash)
	}

	r := api.NewRouter(cfg, reg, authSvc)
	log.Printf("listening on %s (tools=%d, anonymization=%v, local_auth=%v)",
		cfg.HTTPAddr, len(reg.List()), anon.Enabled(), cfg.EnableLocalAuth)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
