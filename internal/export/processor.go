// Package export post-processes generated order export files.
//
// The Processor hooks the result of the CSV and XML "convert to file"
// steps. It finds the generated file in the var directory, drops the
// unwanted columns and repeated phone columns, and rewrites the file with
// every field quoted and a UTF-8 BOM so spreadsheet tools detect the
// encoding. It never fails the export: errors are logged and the original
// result is handed back unchanged.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/logging"
)

// FileResult is what the convert-to-file step returns.
type FileResult struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Rm    bool   `json:"rm"`
}

// ExcelExportFlag reports whether post-processing is enabled for a store.
type ExcelExportFlag interface {
	IsExcelExportEnabled(ctx context.Context, storeID *int) bool
}

// Reasons Enhance leaves a file untouched.
const (
	SkipNotFound = "file not found"
	SkipEmpty    = "empty file"
	SkipNoHeader = "no header"
)

// Report is the result of Enhance.
type Report struct {
	Path    string
	Skipped string
	Outcome Outcome
}

// Processor rewrites export files found in a Directory.
type Processor struct {
	dir         *Directory
	fallbackDir string
	policy      Policy
	codec       *Codec
	flags       ExcelExportFlag
}

// Options configures NewProcessor.
type Options struct {
	FallbackDir string
	Policy      Policy
	Codec       *Codec
	// Flags gates the after-hooks; nil means always enabled.
	Flags ExcelExportFlag
}

// NewProcessor returns a Processor for dir.
func NewProcessor(dir *Directory, opts Options) *Processor {
	codec := opts.Codec
	if codec == nil {
		codec = &Codec{}
	}
	return &Processor{
		dir:         dir,
		fallbackDir: opts.FallbackDir,
		policy:      opts.Policy,
		codec:       codec,
		flags:       opts.Flags,
	}
}

// AfterGetCsvFile post-processes the result of the CSV export and returns it unchanged.
func (p *Processor) AfterGetCsvFile(ctx context.Context, result any) any {
	logging.FromContext(ctx).Info("export: afterGetCsvFile called")
	return p.processResult(ctx, result)
}

// AfterGetXmlFile post-processes the result of the XML export and returns it unchanged.
func (p *Processor) AfterGetXmlFile(ctx context.Context, result any) any {
	logging.FromContext(ctx).Info("export: afterGetXmlFile called")
	return p.processResult(ctx, result)
}

func (p *Processor) processResult(ctx context.Context, result any) (out any) {
	out = result
	logger := logging.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithStack(logger, "export: post-processing panicked", fmt.Errorf("%v", r))
		}
	}()

	if p.flags != nil && !p.flags.IsExcelExportEnabled(ctx, nil) {
		logger.Debug("export: post-processing disabled")
		return out
	}

	logger.Info("export: processing export result", "result", fmt.Sprintf("%+v", result))

	path := FilePath(result)
	if path == "" {
		logger.Info("export: no valid file path found in result")
		return out
	}
	logger.Info("export: found file path", "file", path)

	if _, err := p.Enhance(ctx, path); err != nil {
		logging.ErrorWithStack(logger, "export: error enhancing order export", err, "file", path)
	}

	return out
}

// FilePath extracts the generated file path from a convert-to-file result.
// A map with a non-nil "value" entry uses it even when it is empty or not
// a string, which yields no path; "file" is only consulted without "value".
func FilePath(result any) string {
	switch r := result.(type) {
	case string:
		return r
	case FileResult:
		return r.Value
	case *FileResult:
		if r != nil {
			return r.Value
		}
	case map[string]string:
		if v, ok := r["value"]; ok {
			return v
		}
		return r["file"]
	case map[string]any:
		key := "file"
		if r["value"] != nil {
			key = "value"
		}
		v, _ := r[key].(string)
		return v
	}
	return ""
}

// Resolve finds path in the directory, first as given and then as
// <fallbackDir>/<base name>. ok is false when neither exists.
func (p *Processor) Resolve(path string) (string, bool) {
	if p.dir.IsExist(path) {
		return path, true
	}
	alt := filepath.Join(p.fallbackDir, filepath.Base(path))
	if p.dir.IsExist(alt) {
		return alt, true
	}
	return alt, false
}

// Enhance rewrites the export file at path in place. A missing, empty or
// headerless file is skipped without error.
func (p *Processor) Enhance(ctx context.Context, path string) (Report, error) {
	logger := logging.WithFields(ctx, "file", path)
	logger.Info("export: starting enhanceOrderExport")

	full, ok := p.Resolve(path)
	if !ok {
		logger.Info("export: file does not exist", "fallback", full)
		return Report{Path: path, Skipped: SkipNotFound}, nil
	}
	logger.Info("export: using file path", "path", full)

	content, err := p.dir.ReadFile(full)
	if err != nil {
		return Report{Path: full}, err
	}
	logger.Info("export: file content length", "bytes", len(content))

	rewritten, outcome, err := p.policy.Rewrite(content, p.codec)
	switch {
	case errors.Is(err, ErrEmptyFile):
		logger.Info("export: empty file content")
		return Report{Path: full, Skipped: SkipEmpty}, nil
	case errors.Is(err, ErrNoHeader):
		logger.Info("export: empty CSV file or no header")
		return Report{Path: full, Skipped: SkipNoHeader}, nil
	case err != nil:
		return Report{Path: full}, fmt.Errorf("rewrite %s: %w", full, err)
	}

	logOutcome(logger, outcome)

	if err := p.dir.WriteFile(full, rewritten); err != nil {
		return Report{Path: full, Outcome: outcome}, err
	}

	if outcome.Changed() {
		logger.Info("export: successfully removed unwanted columns and fixed encoding", "rows", outcome.Rows)
	} else {
		logger.Info("export: successfully fixed encoding", "rows", outcome.Rows)
	}

	return Report{Path: full, Outcome: outcome}, nil
}

func logOutcome(logger *slog.Logger, o Outcome) {
	logger.Info("export: original header", "columns", strings.Join(o.OriginalHeader, ", "))
	logger.Info("export: computed columns present",
		"has_governorate", o.HasGovernorate,
		"has_products_ordered", o.HasProductsOrdered,
	)
	for i, idx := range o.RemovedIndexes {
		logger.Info("export: marking for removal", "column", o.Removed[i], "index", idx)
	}
	if o.DuplicatePhones > 0 {
		logger.Info("export: removing duplicate phone columns", "count", o.DuplicatePhones)
	}
	if !o.Changed() {
		logger.Info("export: no unwanted columns found, fixing encoding only")
	}
}
