package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GOOGLE_PROJECT_ID", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Database.Type != "firestore" || cfg.Database.Collection != "waste_records" {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if len(cfg.Database.CredentialPaths) != 2 {
		t.Errorf("credential paths = %v", cfg.Database.CredentialPaths)
	}
	if cfg.ML.Type != "gemini" || !cfg.ValidateResponse() {
		t.Errorf("ml defaults = %+v", cfg.ML)
	}
	if cfg.RequestTimeout() != 60*time.Second {
		t.Errorf("timeout = %v", cfg.RequestTimeout())
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{
		"server": {"port": "9000", "strict_status": true, "request_timeout_sec": 5, "static_dir": "web"},
		"database": {"type": "sqlite", "path": "x.db", "project_id": "file-project"},
		"ml": {"type": "static", "model": "file-model", "validate_response": false}
	}`)
	t.Setenv("PORT", "7777")
	t.Setenv("GEMINI_MODEL", "gemini-test")
	t.Setenv("GOOGLE_PROJECT_ID", "env-project")

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "7777" {
		t.Errorf("PORT env should win, got %q", cfg.Server.Port)
	}
	if !cfg.Server.StrictStatus || cfg.RequestTimeout() != 5*time.Second || cfg.Server.StaticDir != "web" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.Path != "x.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Database.ProjectID != "env-project" {
		t.Errorf("GOOGLE_PROJECT_ID env should win, got %q", cfg.Database.ProjectID)
	}
	if cfg.ML.Model != "gemini-test" || cfg.ValidateResponse() {
		t.Errorf("GEMINI_MODEL env should win, ml = %+v", cfg.ML)
	}
}

func TestLoadConfigFileKeepsValuesWithoutEnv(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GOOGLE_PROJECT_ID", "")

	p := writeFile(t, t.TempDir(), "config.json", `{
		"server": {"port": "9000"},
		"database": {"project_id": "file-project"},
		"ml": {"model": "file-model"}
	}`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Database.ProjectID != "file-project" || cfg.ML.Model != "file-model" {
		t.Errorf("file values lost: port=%q project=%q model=%q", cfg.Server.Port, cfg.Database.ProjectID, cfg.ML.Model)
	}
}

func TestLoadConfigRejectsUnknownTypes(t *testing.T) {
	dir := t.TempDir()
	for _, body := range []string{
		`{"database": {"type": "mongo"}}`,
		`{"ml": {"type": "local"}}`,
		`{not json`,
	} {
		p := writeFile(t, dir, "bad.json", body)
		if _, err := LoadConfig(p); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

func TestFindCredentials(t *testing.T) {
	dir := t.TempDir()
	key := writeFile(t, dir, "key.json", "{}")

	var cfg Config
	cfg.Database.CredentialPaths = []string{filepath.Join(dir, "missing.json"), dir, key}
	got, ok := cfg.FindCredentials()
	if !ok || got != key {
		t.Fatalf("FindCredentials = %q, %v", got, ok)
	}

	cfg.Database.CredentialPaths = []string{filepath.Join(dir, "missing.json")}
	if _, ok := cfg.FindCredentials(); ok {
		t.Fatal("expected no credentials")
	}
}
