// Package djangoemitter writes the generated Django artifacts to disk.
package djangoemitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/swagger2django/internal/compiler"
	"github.com/mark3labs/swagger2django/internal/render"
)

// maxBackups bounds the number of timestamped backups kept per artifact.
const maxBackups = 5

// Filenames holds the per-artifact output filenames.
type Filenames struct {
	URLs    string
	Views   string
	Schemas string
	Stubs   string
	Utils   string
}

// DefaultFilenames returns the conventional Django module filenames.
func DefaultFilenames() Filenames {
	return Filenames{
		URLs:    "urls.py",
		Views:   "views.py",
		Schemas: "schemas.py",
		Stubs:   "stubs.py",
		Utils:   "utils.py",
	}
}

// Options controls how the emitter renders and writes the artifacts.
type Options struct {
	OutDir     string // required; target directory
	ModuleName string // module qualifier used in generated imports
	Filenames  Filenames
	Force      bool // overwrite a non-empty output directory
	DryRun     bool // plan only, write nothing
	Backups    bool // rotate existing artifacts into timestamped backups
	Verbose    bool
	Logger     *slog.Logger
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files.
type Result struct {
	Planned []PlannedFile
}

// Emit renders all five artifacts from the IR and writes them to OutDir.
// specJSON is the serialized resolved specification embedded into the
// request-handling artifact. Writes are atomic per file; a failure after some
// files were written is not rolled back.
func Emit(ctx context.Context, ir *compiler.IR, specJSON []byte, opts Options) (*Result, error) {
	_ = ctx
	if ir == nil {
		return nil, fmt.Errorf("djangoemitter: nil IR")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("djangoemitter: OutDir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	names := opts.Filenames
	if names == (Filenames{}) {
		names = DefaultFilenames()
	}

	files := map[string][]byte{}
	var err error
	if files[names.URLs], err = render.URLs(ir, opts.ModuleName); err != nil {
		return nil, fmt.Errorf("render %s: %w", names.URLs, err)
	}
	if files[names.Views], err = render.Views(ir, opts.ModuleName, specJSON); err != nil {
		return nil, fmt.Errorf("render %s: %w", names.Views, err)
	}
	if files[names.Schemas], err = render.Schemas(ir); err != nil {
		return nil, fmt.Errorf("render %s: %w", names.Schemas, err)
	}
	if files[names.Stubs], err = render.Stubs(ir, opts.ModuleName); err != nil {
		return nil, fmt.Errorf("render %s: %w", names.Stubs, err)
	}
	if files[names.Utils], err = render.Utils(); err != nil {
		return nil, fmt.Errorf("render %s: %w", names.Utils, err)
	}

	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(rels, files, opts, logger); err != nil {
			return nil, err
		}
	}

	return &Result{Planned: planned}, nil
}

func writeFiles(rels []string, files map[string][]byte, opts Options, logger *slog.Logger) error {
	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !opts.Force && !opts.Backups {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("djangoemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for _, rel := range rels {
		p := filepath.Join(abs, rel)
		if opts.Backups {
			if err := rotateBackups(p); err != nil {
				return fmt.Errorf("rotate backups for %s: %w", rel, err)
			}
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
		if opts.Verbose {
			logger.Info("wrote artifact", "path", p, "bytes", len(files[rel]))
		}
	}
	return nil
}

// rotateBackups moves an existing artifact aside as <stem>_<timestamp>.py and
// prunes the oldest backups so at most maxBackups remain.
func rotateBackups(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	matches, err := filepath.Glob(stem + "_*" + ext)
	if err != nil {
		return err
	}
	sort.Strings(matches) // timestamps sort lexically
	for len(matches) >= maxBackups {
		if err := os.Remove(matches[0]); err != nil {
			return err
		}
		matches = matches[1:]
	}

	backup := fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102T1504"), ext)
	return os.Rename(path, backup)
}
