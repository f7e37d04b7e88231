package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/events"
	"github.com/JonMunkholm/orderenhancer/internal/export"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
	"github.com/JonMunkholm/orderenhancer/internal/observer"
	"github.com/JonMunkholm/orderenhancer/internal/settings"
)

// ErrExportNotFound is returned when an export file does not exist.
var ErrExportNotFound = errors.New("export not found")

// Service provides the order grid and export operations.
type Service struct {
	cfg       *config.Config
	querier   database.Querier
	dialect   database.Dialect
	flags     *settings.Helper
	events    *events.Manager
	augmenter *grid.Augmenter
	dir       *export.Directory
	exportDir string
	processor *export.Processor
	limiter   *ExportLimiter
	columns   []ExportColumn
}

// Options configures NewService.
type Options struct {
	// Settings replaces the core_config_data lookup; nil reads the database.
	Settings settings.Source

	// Columns replaces DefaultExportColumns.
	Columns []ExportColumn
}

// NewService wires the settings store, the grid plugins and observers, and
// the export post-processor for one store database.
func NewService(q database.Querier, d database.Dialect, cfg *config.Config, opts Options) (*Service, error) {
	source := opts.Settings
	if source == nil {
		source = settings.NewDBSource(q, d, cfg.Database.TablePrefix)
	}
	helper := settings.NewHelper(settings.NewStore(source, cfg.Features))

	dir, err := export.NewDirectory(cfg.Export.VarDir)
	if err != nil {
		return nil, err
	}
	if cfg.Export.FallbackDir != "" {
		if err := dir.EnsureDir(cfg.Export.FallbackDir); err != nil {
			return nil, err
		}
	}

	codec, err := export.NewCodec(cfg.Export.LegacyCharset)
	if err != nil {
		return nil, err
	}

	manager := events.NewManager()
	observer.NewGovernorateFilter(helper).Register(manager)

	columns := opts.Columns
	if len(columns) == 0 {
		columns = DefaultExportColumns
	}

	processor := export.NewProcessor(dir, export.Options{
		FallbackDir: cfg.Export.FallbackDir,
		Policy: export.Policy{
			UnwantedColumns: cfg.Export.UnwantedColumns,
			PhoneColumn:     cfg.Export.PhoneColumn,
		},
		Codec: codec,
		Flags: helper,
	})

	return &Service{
		cfg:       cfg,
		querier:   q,
		dialect:   d,
		flags:     helper,
		events:    manager,
		augmenter: grid.NewAugmenter(helper, cfg.Grid.Placeholder, cfg.Grid.Separator),
		dir:       dir,
		exportDir: cfg.Export.FallbackDir,
		processor: processor,
		limiter:   NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime),
		columns:   columns,
	}, nil
}

// Processor returns the export post-processor.
func (s *Service) Processor() *export.Processor { return s.processor }

// Events returns the event manager grid loads dispatch to.
func (s *Service) Events() *events.Manager { return s.events }

// NewCollection prepares an order grid collection for storeID with the
// computed-column plugin attached.
func (s *Service) NewCollection(storeID *int) *grid.Collection {
	return grid.NewCollection(s.querier, s.dialect, grid.CollectionOptions{
		TablePrefix: s.cfg.Database.TablePrefix,
		Events:      s.events,
		Plugins:     []grid.BeforeLoadPlugin{s.augmenter},
		StoreID:     storeID,
	})
}

// LoadGrid returns one page of the order grid for the store in ctx.
func (s *Service) LoadGrid(ctx context.Context, page int) (*GridPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d", page)
	}

	storeID := StoreIDFromContext(ctx)
	c := s.NewCollection(storeID)
	c.SetPage(page, s.cfg.Grid.PageSize)

	rows, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("order grid loaded", "page", page, "rows", len(rows))

	return &GridPage{
		Page:     page,
		PageSize: s.cfg.Grid.PageSize,
		StoreID:  storeID,
		Columns:  gridColumns(c, rows),
		Rows:     rows,
	}, nil
}

// gridColumns lists the selected aliases in order. A select without
// aliases (main_table.* only) falls back to the sorted keys of the first row.
func gridColumns(c *grid.Collection, rows []grid.Row) []string {
	var cols []string
	for _, col := range c.Select().ColumnList() {
		if col.Alias != "" {
			cols = append(cols, col.Alias)
		}
	}
	if len(cols) > 0 || len(rows) == 0 {
		return cols
	}

	for k := range rows[0] {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

// Flags returns the effective feature flags for the store in ctx.
func (s *Service) Flags(ctx context.Context) map[string]bool {
	return s.flags.Flags(ctx, StoreIDFromContext(ctx))
}

// RewriteExport runs the post-processor on an existing file in the var directory.
func (s *Service) RewriteExport(ctx context.Context, path string) (export.Report, error) {
	report, err := s.processor.Enhance(ctx, path)
	if err != nil {
		return report, err
	}
	if report.Skipped == export.SkipNotFound {
		return report, fmt.Errorf("%w: %s", ErrExportNotFound, path)
	}
	return report, nil
}

// OpenExport returns the content of a generated export by file name.
func (s *Service) OpenExport(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid export name %q", name)
	}

	path := filepath.Join(s.exportDir, name)
	if !s.dir.IsExist(path) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}
	return s.dir.ReadFile(path)
}

// ExportLimiterStatus returns the current export concurrency state.
func (s *Service) ExportLimiterStatus() ExportLimiterStatus {
	return s.limiter.Status()
}

// WaitForExports blocks until running exports finish or ctx is done.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
