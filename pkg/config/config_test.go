package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
appId: app
apiKey: key
objectId: object_1
recordId: r1
viewId: view_12
skipRecord: [Internal, Notes]
templateValue: Body
timeout: 5s
cycle: fail
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := Default()
	want.AppID = "app"
	want.APIKey = "key"
	want.ObjectID = "object_1"
	want.RecordID = "r1"
	want.ViewID = "view_12"
	want.SkipRecord = []string{"Internal", "Notes"}
	want.TemplateValue = "Body"
	want.Timeout = 5 * time.Second
	want.Cycle = CycleFail
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !cfg.HasDefaultRecord() {
		t.Fatalf("expected default record")
	}
}

func TestParse_EmptyAndUnknownKeys(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("empty document should yield defaults:\n%s", diff)
	}
	if cfg.TemplateKey != "Title" || cfg.TemplateValue != "Details" {
		t.Fatalf("unexpected template defaults %q/%q", cfg.TemplateKey, cfg.TemplateValue)
	}

	if _, err := Parse([]byte("appID: typo\n")); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knack.yaml")
	if err := os.WriteFile(path, []byte("appId: app\napiKey: key\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppID != "app" || cfg.Renderer != "markup" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvAppID: "env-app", EnvAPIKey: "", EnvBaseURL: "http://localhost:9999"}
	cfg := Default()
	cfg.APIKey = "file-key"
	cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if cfg.AppID != "env-app" || cfg.APIKey != "file-key" || cfg.BaseURL != "http://localhost:9999" {
		t.Fatalf("unexpected config after env %+v", cfg)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.BaseURL = "not a url"
	cfg.Concurrency = 0
	cfg.Cycle = "loop"
	cfg.RecordID = "r1"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, fragment := range []string{"appId", "apiKey", "baseUrl", "concurrency", "cycle", "objectId"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %s", err, fragment)
		}
	}
}
