package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"

	"github.com/JonMunkholm/orderenhancer/internal/export"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
	"github.com/google/uuid"
)

// ExportGridCsv writes the full order grid to a CSV file and runs the CSV
// after-hook on the result.
func (s *Service) ExportGridCsv(ctx context.Context) (export.FileResult, error) {
	return s.Export(ctx, FormatCSV)
}

// ExportGridXml writes the full order grid for the XML export. The file is
// produced by the same row writer as the CSV export and gets the XML after-hook.
func (s *Service) ExportGridXml(ctx context.Context) (export.FileResult, error) {
	return s.Export(ctx, FormatXML)
}

// Export loads every grid row for the store in ctx, writes them to
// <export dir>/<uuid>.<format> and hands the file result to the matching
// after-hook.
func (s *Service) Export(ctx context.Context, format Format) (export.FileResult, error) {
	if format != FormatCSV && format != FormatXML {
		return export.FileResult{}, fmt.Errorf("unknown export format %q", format)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return export.FileResult{}, err
	}
	defer s.limiter.Release()

	logger := logging.WithFields(ctx, "format", format, "client_ip", ClientIPFromContext(ctx))

	c := s.NewCollection(StoreIDFromContext(ctx))
	c.SetPage(1, 0)
	rows, err := c.Load(ctx)
	if err != nil {
		return export.FileResult{}, err
	}

	data, err := s.renderRows(rows)
	if err != nil {
		return export.FileResult{}, err
	}

	name := filepath.Join(s.exportDir, uuid.NewString()+"."+string(format))
	if err := s.dir.WriteFile(name, data); err != nil {
		return export.FileResult{}, fmt.Errorf("write export: %w", err)
	}
	logger.Info("order grid export written", "file", name, "rows", len(rows), "bytes", len(data))

	result := export.FileResult{Type: "filename", Value: name, Rm: true}

	var out any
	if format == FormatXML {
		out = s.processor.AfterGetXmlFile(ctx, result)
	} else {
		out = s.processor.AfterGetCsvFile(ctx, result)
	}
	if r, ok := out.(export.FileResult); ok {
		result = r
	}

	return result, nil
}

// renderRows writes the export header and one record per grid row.
func (s *Service) renderRows(rows []grid.Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(s.columns))
	for i, col := range s.columns {
		header[i] = col.Label
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}

	record := make([]string, len(s.columns))
	for _, row := range rows {
		for i, col := range s.columns {
			record[i] = row.String(col.Column)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write export row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	return buf.Bytes(), nil
}
