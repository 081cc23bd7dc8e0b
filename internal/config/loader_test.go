package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `addr: :9999
artifacts: models/preprocess_artifacts.json
top_k: 2
model:
  backend: tfserving
  inputs:
    sex_ohe: sex_input
  tfserving:
    endpoint: http://tf:8501
    model_name: derm
inference:
  fallback_on_model_error: false
cache:
  backend: redis
  redis_addr: redis:6379
cors:
  enabled: true
  origins: [http://localhost:5173]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Artifacts != "models/preprocess_artifacts.json" || cfg.TopK != 2 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Model.Backend != "tfserving" || cfg.Model.TFServing.Endpoint != "http://tf:8501" || cfg.Model.TFServing.ModelName != "derm" || cfg.Model.Inputs.SexOneHot != "sex_input" {
		t.Fatalf("unexpected model cfg: %+v", cfg.Model)
	}
	if cfg.FallbackOnModelError() {
		t.Fatalf("fallback should be disabled")
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis:6379" || !cfg.CORS.Enabled || cfg.CORS.Origins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","model":{"backend":"onnx","path":"/m/skin.onnx","site_index_type":"float32"},"cache":{"backend":"none"}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.Model.Path != "/m/skin.onnx" || cfg.Model.SiteIndexType != "float32" || cfg.Cache.Backend != "none" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\ntop_k=4\n[model]\nbackend=\"onnx\"\npath=\"x.onnx\"\n[log]\nlevel=\"debug\"\nformat=\"console\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.TopK != 4 || cfg.Model.Path != "x.onnx" || cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidContent(t *testing.T) {
	d := t.TempDir()
	for name, content := range map[string]string{
		"bad.yaml": "addr: :8080\n: broken\n",
		"bad.json": `{ "addr": ":8080", "artifacts": }`,
		"bad.toml": "addr=:8080\nartifacts\n",
	} {
		if _, err := Load(writeTempFile(t, d, name, content)); err == nil {
			t.Fatalf("%s: expected unmarshal error", name)
		}
	}
}
