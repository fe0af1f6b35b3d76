package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	// Canvas API access
	CanvasAPIURL   string // e.g. https://canvas.example.edu/api/v1
	CanvasAPIToken string
	CanvasTimeout  time.Duration
	PerPage        int // page size sent on list requests

	// Privacy
	EnableAnonymization bool
	AnonymizationDebug  bool
	ExportDir           string // de-anonymization CSV maps land here

	// Local auth over the tool surface (optional)
	EnableLocalAuth bool
	AuthHMACSecret  string
	AdminUser       string
	AdminPassHash   string // bcrypt

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:            envOr("HTTP_ADDR", ":8084"),
		CanvasAPIURL:        strings.TrimSuffix(os.Getenv("CANVAS_API_URL"), "/"),
		CanvasAPIToken:      os.Getenv("CANVAS_API_TOKEN"),
		CanvasTimeout:       time.Duration(envInt("HTTP_TIMEOUT", 30)) * time.Second,
		PerPage:             envInt("CANVAS_PER_PAGE", 100),
		EnableAnonymization: envBool("ENABLE_DATA_ANONYMIZATION", true),
		AnonymizationDebug:  envBool("ANONYMIZATION_DEBUG", false),
		ExportDir:           envOr("EXPORT_DIR", "./local_maps"),
		EnableLocalAuth:     envBool("ENABLE_LOCAL_AUTH", false),
		AuthHMACSecret:      envOr("AUTH_HMAC_SECRET", ""),
		AdminUser:           envOr("ADMIN_USER", "admin"),
		AdminPassHash:       envOr("ADMIN_PASS_HASH", ""),
		CORSOrigins:         csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	if c.CanvasAPIURL == "" {
		return errors.New("CANVAS_API_URL must be set (e.g. https://canvas.example.edu/api/v1)")
	}
	if c.CanvasAPIToken == "" {
		return errors.New("CANVAS_API_TOKEN must be set")
	}
	if c.EnableLocalAuth && c.AuthHMACSecret == "" {
		return errors.New("AUTH_HMAC_SECRET must be set when ENABLE_LOCAL_AUTH is on")
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
