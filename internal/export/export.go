// Package export writes grid rows to a spreadsheet with the portal branding:
// logo across the first four rows, a bold title, then the column headers and
// data.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultLogoURL is the branding image embedded in every workbook.
const DefaultLogoURL = "https://nanodiagnostics.com/wp-content/uploads/2020/04/nano-dx-203x70-1.png"

const (
	titleRow    = 5
	headerRow   = 7
	firstData   = 8
	titleSize   = 16
	maxSheet    = 31
	logoTimeout = 10 * time.Second
	maxLogo     = 2 << 20
)

// Meta names the output.
type Meta struct {
	Filename  string
	Header    string
	Sheetname string
}

// Options configure an Exporter.
type Options struct {
	LogoURL string
	HTTP    *http.Client
	Logger  *log.Logger
}

// Exporter writes .xlsx files into a directory. The logo is downloaded on the
// first export that succeeds in fetching it and reused afterwards.
type Exporter struct {
	dir     string
	logoURL string
	http    *http.Client
	logger  *log.Logger

	mu   sync.Mutex
	logo []byte
}

// New returns an Exporter writing into dir.
func New(dir string, opts Options) *Exporter {
	e := &Exporter{
		dir:     dir,
		logoURL: opts.LogoURL,
		http:    opts.HTTP,
		logger:  opts.Logger,
	}
	if e.logoURL == "" {
		e.logoURL = DefaultLogoURL
	}
	if e.http == nil {
		e.http = &http.Client{Timeout: logoTimeout}
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Export writes rows under headers to <dir>/<filename>.xlsx and returns the
// path.
func (e *Exporter) Export(ctx context.Context, rows [][]any, headers []string, meta Meta) (string, error) {
	name := safeFilename(meta.Filename)
	if name == "" {
		return "", errors.New("export: filename is required")
	}
	sheet := sheetName(meta.Sheetname)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", fmt.Errorf("export: name sheet: %w", err)
	}

	if logo, err := e.fetchLogo(ctx); err != nil {
		e.logger.Printf("export logo unavailable: %v", err)
	} else if err := f.AddPictureFromBytes(sheet, "A1", &excelize.Picture{
		Extension: ".png",
		File:      logo,
		Format:    &excelize.GraphicOptions{AltText: "logo", LockAspectRatio: true},
	}); err != nil {
		e.logger.Printf("export logo rejected: %v", err)
	}

	if err := writeTitle(f, sheet, meta.Header, len(headers)); err != nil {
		return "", err
	}
	if err := writeHeaders(f, sheet, headers); err != nil {
		return "", err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, firstData+i)
		if err != nil {
			return "", fmt.Errorf("export: row %d: %w", i, err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", fmt.Errorf("export: write row %d: %w", i, err)
		}
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	path := filepath.Join(e.dir, name+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("export: save %s: %w", path, err)
	}
	return path, nil
}

func writeTitle(f *excelize.File, sheet, title string, width int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: titleSize}})
	if err != nil {
		return fmt.Errorf("export: title style: %w", err)
	}
	cell, _ := excelize.CoordinatesToCellName(1, titleRow)
	if err := f.SetCellValue(sheet, cell, strings.ToUpper(title)); err != nil {
		return fmt.Errorf("export: title: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return fmt.Errorf("export: title style: %w", err)
	}
	if width > 1 {
		last, _ := excelize.CoordinatesToCellName(width, titleRow)
		if err := f.MergeCell(sheet, cell, last); err != nil {
			return fmt.Errorf("export: merge title: %w", err)
		}
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) error {
	if len(headers) == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return fmt.Errorf("export: headers: %w", err)
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(h) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
	}
	return nil
}

func (e *Exporter) fetchLogo(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.logo != nil {
		return e.logo, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.logoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logo %s returned status %d", e.logoURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogo))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("logo is empty")
	}
	e.logo = data
	return data, nil
}

func safeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\x00", "")
	return replacer.Replace(name)
}

// sheetName lower-cases the name and strips what spreadsheet apps reject.
func sheetName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > maxSheet {
		name = string(r[:maxSheet])
	}
	if name == "" {
		return "sheet1"
	}
	return name
}
