package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/internal/server"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	errors.DisableColors()
	t.Cleanup(errors.EnableColors)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func initSite(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "site")
	if _, _, err := run(t, "init", dir); err != nil {
		t.Fatalf("init error: %v", err)
	}
	return filepath.Join(dir, config.ConfigFileName)
}

func TestInit(t *testing.T) {
	cfgPath := initSite(t)
	dir := filepath.Dir(cfgPath)

	for _, name := range []string{config.ConfigFileName, config.DefaultManifest} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	if _, _, err := run(t, "init", dir); err == nil {
		t.Error("second init should fail without --force")
	}
	if _, _, err := run(t, "init", dir, "--force"); err != nil {
		t.Errorf("init --force error: %v", err)
	}
}

func TestVerify(t *testing.T) {
	cfgPath := initSite(t)

	out, _, err := run(t, "verify", "--config", cfgPath, "--list")
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	for _, want := range []string{"4 routes", "/old-docs", "redirect /docs (replace)", "layout"} {
		if !strings.Contains(out, want) {
			t.Errorf("verify output missing %q:\n%s", want, out)
		}
	}
}

func TestVerifyInvalidManifest(t *testing.T) {
	cfgPath := initSite(t)
	bad := filepath.Join(t.TempDir(), "routes.json")
	if err := os.WriteFile(bad, []byte(`{"routes": {"/": {"redirect": "home"}}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := run(t, "verify", "--config", cfgPath, "--manifest", bad)
	if err == nil || !strings.Contains(err.Error(), errors.ManifestEntry) {
		t.Errorf("verify error = %v, want %s", err, errors.ManifestEntry)
	}
}

func TestResolve(t *testing.T) {
	cfgPath := initSite(t)

	out, _, err := run(t, "resolve", "--config", cfgPath, "/old-docs", "/docs/intro", "/nope")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	for _, want := range []string{
		"/old-docs → /docs (replace)",
		"value: <docs>Docs index</docs>",
		"redirects: /old-docs -> /docs",
		"value: <docs>Doc intro</docs>",
		"params: intro",
		"/nope (not found)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("resolve output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveJSON(t *testing.T) {
	cfgPath := initSite(t)

	out, _, err := run(t, "resolve", "--config", cfgPath, "--json", "/old-docs", "/")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	dec := json.NewDecoder(strings.NewReader(out))
	var got []server.ResolveResponse
	for dec.More() {
		var r server.ResolveResponse
		if err := dec.Decode(&r); err != nil {
			t.Fatal(err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Canonical != "/docs" || !got[0].Replace || len(got[0].Visited) != 2 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Value != "Home" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestResolveFailures(t *testing.T) {
	cfgPath := initSite(t)

	out, errOut, err := run(t, "resolve", "--config", cfgPath, "docs", "/")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 locations failed") {
		t.Errorf("resolve error = %v", err)
	}
	if !strings.Contains(errOut, errors.InvalidLocation) {
		t.Errorf("stderr = %q, want %s", errOut, errors.InvalidLocation)
	}
	if !strings.Contains(out, "value: Home") {
		t.Errorf("stdout = %q, want the successful resolution", out)
	}
}

func TestLoadConfigManifestOverride(t *testing.T) {
	cfgPath := initSite(t)

	cfg, err := loadConfig(&globalFlags{config: cfgPath, manifest: "other/routes.toml"})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	wd, _ := os.Getwd()
	if want := filepath.Join(wd, "other", "routes.toml"); cfg.ManifestLocation() != want {
		t.Errorf("ManifestLocation() = %q, want %q", cfg.ManifestLocation(), want)
	}

	cfg, err = loadConfig(&globalFlags{config: cfgPath, manifest: "s3://bucket/routes.yaml"})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.ManifestLocation() != "s3://bucket/routes.yaml" {
		t.Errorf("ManifestLocation() = %q", cfg.ManifestLocation())
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}
