package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2django/internal/compiler"
	"github.com/mark3labs/swagger2django/internal/emitter/djangoemitter"
	genspec "github.com/mark3labs/swagger2django/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	SpecFormat  string
	Backend     string
	Out         string
	ModuleName  string
	URLsFile    string
	ViewsFile   string
	SchemasFile string
	StubsFile   string
	UtilsFile   string
	ConfigPath  string
	Backups     bool
	DryRun      bool
	Force       bool
	Verbose     bool
}

func defaultGenerateConfig() GenerateConfig {
	names := djangoemitter.DefaultFilenames()
	return GenerateConfig{
		Backend:     string(compiler.BackendDjango),
		Out:         ".",
		ModuleName:  "core_app.core",
		URLsFile:    names.URLs,
		ViewsFile:   names.Views,
		SchemasFile: names.Schemas,
		StubsFile:   names.Stubs,
		UtilsFile:   names.Utils,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Django modules from a Swagger/OpenAPI document",
		Long: "Generate Django routing, view, schema, and stub modules from a Swagger/OpenAPI document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2django generate --input swagger.yaml --out ./core_app/core
  swagger2django --config config.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path to the Swagger/OpenAPI document")
	flags.String("spec-format", "", "Serialization of the document (yaml|json); inferred from the extension when omitted")
	flags.String("backend", "", "Target backend (django); defaults to django")
	flags.String("out", "", "Output directory for the generated modules")
	flags.String("module-name", "", "Module where the generated code will live, e.g. myproject.some_application")
	flags.String("urls-file", "", "Alternative filename for the routing module")
	flags.String("views-file", "", "Alternative filename for the views module")
	flags.String("schemas-file", "", "Alternative filename for the schemas module")
	flags.String("stubs-file", "", "Alternative filename for the stubs module")
	flags.String("utils-file", "", "Alternative filename for the utilities module")
	flags.Bool("backups", false, "Rotate existing artifacts into timestamped backups before writing")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite a non-empty output directory")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	stringFields := map[string]*string{
		"input":        &cfg.Input,
		"spec-format":  &cfg.SpecFormat,
		"backend":      &cfg.Backend,
		"out":          &cfg.Out,
		"module-name":  &cfg.ModuleName,
		"urls-file":    &cfg.URLsFile,
		"views-file":   &cfg.ViewsFile,
		"schemas-file": &cfg.SchemasFile,
		"stubs-file":   &cfg.StubsFile,
		"utils-file":   &cfg.UtilsFile,
	}
	for name, target := range stringFields {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = strings.TrimSpace(value)
	}

	boolFields := map[string]*bool{
		"backups": &cfg.Backups,
		"dry-run": &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}
	for name, target := range boolFields {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*target = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.SpecFormat = strings.ToLower(strings.TrimSpace(c.SpecFormat))
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.Out = strings.TrimSpace(c.Out)
	c.ModuleName = strings.TrimSpace(c.ModuleName)
	c.URLsFile = strings.TrimSpace(c.URLsFile)
	c.ViewsFile = strings.TrimSpace(c.ViewsFile)
	c.SchemasFile = strings.TrimSpace(c.SchemasFile)
	c.StubsFile = strings.TrimSpace(c.StubsFile)
	c.UtilsFile = strings.TrimSpace(c.UtilsFile)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	switch c.SpecFormat {
	case "", "yaml", "json":
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --spec-format %q (allowed: yaml, json)", c.SpecFormat))
	}

	if c.Backend == "" {
		c.Backend = string(compiler.BackendDjango)
	}
	if !compiler.KnownBackend(compiler.Backend(c.Backend)) {
		return newUsageError(fmt.Sprintf("generate: unsupported --backend %q (allowed: django)", c.Backend))
	}

	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	logger := newLogger(cfg.Verbose)

	// 1) Load the specification with format inference and validation.
	doc, err := genspec.Load(ctx, cfg.Input, genspec.Format(cfg.SpecFormat))
	if err != nil {
		var se *genspec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			return newUsageError(msg)
		}
		return err
	}

	// 2) Compile the document into the IR.
	ir, err := compiler.Build(doc, compiler.Backend(cfg.Backend), logger)
	if err != nil {
		return fmt.Errorf("compile spec: %w", err)
	}
	if cfg.Verbose {
		logger.Info("compiled specification",
			"classes", len(ir.Classes),
			"urls", len(ir.URLEntries),
			"schemas", len(ir.Schemas),
			"warnings", len(ir.Warnings))
	}

	specJSON, err := doc.MarshalIndentJSON()
	if err != nil {
		return fmt.Errorf("serialize spec: %w", err)
	}

	// 3) Emit the artifacts.
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := djangoemitter.Emit(ctx, ir, specJSON, djangoemitter.Options{
		OutDir:     cfg.Out,
		ModuleName: cfg.ModuleName,
		Filenames: djangoemitter.Filenames{
			URLs:    cfg.URLsFile,
			Views:   cfg.ViewsFile,
			Schemas: cfg.SchemasFile,
			Stubs:   cfg.StubsFile,
			Utils:   cfg.UtilsFile,
		},
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
		Backups: cfg.Backups,
		Verbose: cfg.Verbose,
		Logger:  logger,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		printPlan(absOut, res.Planned)
	}

	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printPlan(outDir string, planned []djangoemitter.PlannedFile) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(os.Stdout, "- %s\n", p.RelPath)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, err))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	stringFields := map[string]*string{
		"input":       &cfg.Input,
		"specformat":  &cfg.SpecFormat,
		"backend":     &cfg.Backend,
		"out":         &cfg.Out,
		"modulename":  &cfg.ModuleName,
		"urlsfile":    &cfg.URLsFile,
		"viewsfile":   &cfg.ViewsFile,
		"schemasfile": &cfg.SchemasFile,
		"stubsfile":   &cfg.StubsFile,
		"utilsfile":   &cfg.UtilsFile,
	}
	boolFields := map[string]*bool{
		"backups": &cfg.Backups,
		"dryrun":  &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if target, ok := stringFields[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*target = str
			continue
		}
		if target, ok := boolFields[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*target = val
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
