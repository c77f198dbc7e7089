package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"argus/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Workflow.DefaultDepth != "standard" {
		t.Fatalf("default depth = %q", cfg.Workflow.DefaultDepth)
	}
	if cfg.Workflow.StageTimeout <= 0 || cfg.Workflow.MaxStageAttempts <= 0 {
		t.Fatalf("default workflow tuning not positive: %+v", cfg.Workflow)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q", resolved)
	}
	if cfg.Workflow.DefaultDepth != "standard" {
		t.Fatalf("defaults not applied: %q", cfg.Workflow.DefaultDepth)
	}
}

func TestLoadOverridesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "argus.toml")
	content := `
[paths]
workspace_dir = "` + dir + `/work"

[workflow]
default_depth = "deep"
stage_timeout = 42
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("existing file reported missing")
	}
	if cfg.Workflow.DefaultDepth != "deep" {
		t.Fatalf("default depth = %q, want deep", cfg.Workflow.DefaultDepth)
	}
	if cfg.Workflow.StageTimeout != 42 {
		t.Fatalf("stage timeout = %d, want 42", cfg.Workflow.StageTimeout)
	}
	if !filepath.IsAbs(cfg.Paths.WorkspaceDir) {
		t.Fatalf("workspace dir not absolute: %q", cfg.Paths.WorkspaceDir)
	}
	// Overriding the workspace must not clobber the untouched defaults.
	if cfg.LLM.BaseURL == "" {
		t.Fatal("llm defaults lost during load")
	}
}

func TestLoadRejectsInvalidDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "argus.toml")
	content := "[workflow]\ndefault_depth = \"extreme\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unsupported depth")
	}
}

func TestValidateRejectsNonPositiveTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.StageTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero stage timeout")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[workflow]") {
		t.Fatal("sample missing workflow section")
	}

	// The sample must itself load and validate.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestLoadHonoursLLMAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("ARGUS_LLM_API_KEY", "env-llm-key")

	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "env-llm-key" {
		t.Fatalf("llm.api_key = %q, want env fallback", cfg.LLM.APIKey)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "work", "logs")
	cfg.Paths.ReportDir = filepath.Join(base, "work", "reports")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.LogDir, cfg.Paths.ReportDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s not created", dir)
		}
	}
}
