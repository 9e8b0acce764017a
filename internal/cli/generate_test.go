package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubGenerateRunner swaps the generate runner for the duration of the test
// and hands back the resolved config it was called with.
func stubGenerateRunner(t *testing.T) *GenerateConfig {
	t.Helper()
	captured := &GenerateConfig{}
	orig := generateRunner
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		*captured = *cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = orig })
	return captured
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGenerate_Defaults(t *testing.T) {
	captured := stubGenerateRunner(t)

	if err := runCLI(t, "generate", "--input", "swagger.yaml"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Input != "swagger.yaml" {
		t.Errorf("input: got %q", captured.Input)
	}
	if captured.Backend != "django" {
		t.Errorf("backend: got %q", captured.Backend)
	}
	if captured.Out != "." {
		t.Errorf("out: got %q", captured.Out)
	}
	if captured.ModuleName != "core_app.core" {
		t.Errorf("module name: got %q", captured.ModuleName)
	}
	if captured.URLsFile != "urls.py" || captured.ViewsFile != "views.py" ||
		captured.SchemasFile != "schemas.py" || captured.StubsFile != "stubs.py" ||
		captured.UtilsFile != "utils.py" {
		t.Errorf("filenames: got %+v", captured)
	}
	if captured.DryRun || captured.Force || captured.Backups || captured.Verbose {
		t.Errorf("bool defaults: got %+v", captured)
	}
}

func TestGenerate_ConfigFileValues(t *testing.T) {
	captured := stubGenerateRunner(t)
	cfgPath := writeConfig(t, strings.TrimSpace(`
input: ./spec.yaml
moduleName: myproject.api
out: ./out
dryRun: true
backups: "yes"
`)+"\n")

	if err := runCLI(t, "--config", cfgPath, "generate"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Input != "./spec.yaml" {
		t.Errorf("input: got %q", captured.Input)
	}
	if captured.ModuleName != "myproject.api" {
		t.Errorf("module name: got %q", captured.ModuleName)
	}
	if captured.Out != "./out" {
		t.Errorf("out: got %q", captured.Out)
	}
	if !captured.DryRun {
		t.Errorf("expected dry-run from config")
	}
	if !captured.Backups {
		t.Errorf("expected backups from config string value")
	}
	if captured.ConfigPath != cfgPath {
		t.Errorf("config path: got %q", captured.ConfigPath)
	}
}

func TestGenerate_FlagsOverrideConfig(t *testing.T) {
	captured := stubGenerateRunner(t)
	cfgPath := writeConfig(t, "input: from-config.yaml\nout: ./from-config\n")

	if err := runCLI(t, "--config", cfgPath, "generate", "--out", "./from-flag", "--force"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Input != "from-config.yaml" {
		t.Errorf("input should come from config: got %q", captured.Input)
	}
	if captured.Out != "./from-flag" {
		t.Errorf("flag should win: got %q", captured.Out)
	}
	if !captured.Force {
		t.Errorf("expected force from flag")
	}
}

func TestGenerate_ConfigKeyNormalization(t *testing.T) {
	captured := stubGenerateRunner(t)
	// Hyphenated, underscored, and camel-case spellings all land on the
	// same fields.
	cfgPath := writeConfig(t, "input: x.yaml\nmodule-name: a.b\nurls_file: routing.py\n")

	if err := runCLI(t, "--config", cfgPath, "generate"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.ModuleName != "a.b" {
		t.Errorf("module name: got %q", captured.ModuleName)
	}
	if captured.URLsFile != "routing.py" {
		t.Errorf("urls file: got %q", captured.URLsFile)
	}
}

func TestGenerate_MissingInput(t *testing.T) {
	stubGenerateRunner(t)

	err := runCLI(t, "generate")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "--input is required") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestGenerate_BadSpecFormat(t *testing.T) {
	stubGenerateRunner(t)

	err := runCLI(t, "generate", "--input", "x.yaml", "--spec-format", "toml")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "toml") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestGenerate_BadBackend(t *testing.T) {
	stubGenerateRunner(t)

	err := runCLI(t, "generate", "--input", "x.yaml", "--backend", "flask")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestGenerate_UnknownConfigField(t *testing.T) {
	stubGenerateRunner(t)
	cfgPath := writeConfig(t, "input: x.yaml\nmystery: true\n")

	err := runCLI(t, "--config", cfgPath, "generate")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "mystery") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestGenerate_MissingConfigFile(t *testing.T) {
	stubGenerateRunner(t)

	err := runCLI(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "generate")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestValueAsBool(t *testing.T) {
	t.Parallel()
	truthy := []any{true, "true", "t", "1", "yes", "y", " YES "}
	for _, v := range truthy {
		got, err := valueAsBool(v)
		if err != nil || !got {
			t.Errorf("valueAsBool(%v): got %v, %v", v, got, err)
		}
	}
	falsy := []any{false, "false", "0", "no", "", nil}
	for _, v := range falsy {
		got, err := valueAsBool(v)
		if err != nil || got {
			t.Errorf("valueAsBool(%v): got %v, %v", v, got, err)
		}
	}
	if _, err := valueAsBool("maybe"); err == nil {
		t.Errorf("expected error for %q", "maybe")
	}
	if _, err := valueAsBool(42); err == nil {
		t.Errorf("expected error for int")
	}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"moduleName":  "modulename",
		"module-name": "modulename",
		"module_name": "modulename",
		" Module_Name ": "modulename",
	}
	for in, want := range cases {
		if got := normalizeKey(in); got != want {
			t.Errorf("normalizeKey(%q): got %q, want %q", in, got, want)
		}
	}
}
