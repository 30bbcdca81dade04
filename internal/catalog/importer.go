package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/angelmondragon/stn-picking/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// CSV header names of the master catalog export.
const (
	colProductCode = "CombiBarCode+MRP"
	colName        = "SBF"
	colBrandForm   = "BrandForm"
	colCategory    = "category"
	colBrand       = "brand"
	colUPC         = "UPC"
	colMRP         = "MRP"
	colSLP         = "SLP"
	colRLP         = "RLP"
	colUnits       = "Units"

	maxReportedImportErrors = 10
	previewRows             = 5
	lookupChunk             = 500
)

// ImportOptions controls a catalog import.
type ImportOptions struct {
	// Clear deactivates every existing product before the upsert.
	Clear bool
}

// ImportRowError describes one rejected CSV row.
type ImportRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ImportStats summarises an import run.
type ImportStats struct {
	TotalRows      int              `json:"totalRows"`
	ParsedProducts int              `json:"parsedProducts"`
	Inserted       int              `json:"inserted"`
	Updated        int              `json:"updated"`
	Deactivated    int64            `json:"deactivated"`
	ErrorCount     int              `json:"errors"`
	Errors         []ImportRowError `json:"errorDetails"`
}

// ImportPreview shows the header and first rows of a file without writing.
type ImportPreview struct {
	Headers   []string            `json:"headers"`
	TotalRows int                 `json:"totalRows"`
	Sample    []map[string]string `json:"sample"`
}

type rowError struct {
	line int
	err  error
}

func (e rowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.line, e.err)
}

type parsedCatalog struct {
	headers   []string
	totalRows int
	products  []models.Product
	rowErrs   error
}

// ImportProducts upserts the catalog from a master CSV export.
func (s *service) ImportProducts(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportStats, error) {
	parsed, err := parseCatalogCSV(r)
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{
		TotalRows:      parsed.totalRows,
		ParsedProducts: len(parsed.products),
		Errors:         []ImportRowError{},
	}
	for _, e := range multierr.Errors(parsed.rowErrs) {
		stats.ErrorCount++
		if len(stats.Errors) >= maxReportedImportErrors {
			continue
		}
		var re rowError
		if errors.As(e, &re) {
			stats.Errors = append(stats.Errors, ImportRowError{Line: re.line, Error: re.err.Error()})
		}
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if opts.Clear {
			n, err := repo.DeactivateAllProducts(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear catalog")
			}
			stats.Deactivated = n
		}

		existing := 0
		for start := 0; start < len(parsed.products); start += lookupChunk {
			end := min(start+lookupChunk, len(parsed.products))
			codes := make([]string, 0, end-start)
			for _, p := range parsed.products[start:end] {
				codes = append(codes, p.ProductCode)
			}
			found, err := repo.FindProductsByCodes(ctx, codes)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load existing products")
			}
			existing += len(found)
		}

		if err := repo.UpsertProducts(ctx, parsed.products); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert products")
		}
		stats.Updated = existing
		stats.Inserted = len(parsed.products) - existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"total_rows": stats.TotalRows,
		"parsed":     stats.ParsedProducts,
		"inserted":   stats.Inserted,
		"updated":    stats.Updated,
		"row_errors": stats.ErrorCount,
	})
	s.logg.Info(ctx, "catalog import completed")
	return stats, nil
}

// PreviewImport returns the headers and first rows of a catalog CSV.
func PreviewImport(r io.Reader) (*ImportPreview, error) {
	reader := newCSVReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "CSV file is empty or unreadable")
	}
	headers = trimAll(headers)

	preview := &ImportPreview{Headers: headers, Sample: []map[string]string{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		preview.TotalRows++
		if err != nil || len(preview.Sample) >= previewRows {
			continue
		}
		preview.Sample = append(preview.Sample, rowMap(headers, record))
	}
	return preview, nil
}

func parseCatalogCSV(r io.Reader) (*parsedCatalog, error) {
	reader := newCSVReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "CSV file is empty or unreadable")
	}
	headers = trimAll(headers)
	if !contains(headers, colProductCode) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "CSV header must include %q", colProductCode)
	}

	out := &parsedCatalog{headers: headers}
	seen := make(map[string]struct{})
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			out.totalRows++
			out.rowErrs = multierr.Append(out.rowErrs, rowError{line: line, err: err})
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		out.totalRows++

		product, err := productFromRow(rowMap(headers, record))
		if err != nil {
			out.rowErrs = multierr.Append(out.rowErrs, rowError{line: line, err: err})
			continue
		}
		if product == nil {
			continue
		}
		if _, dup := seen[product.ProductCode]; dup {
			continue
		}
		seen[product.ProductCode] = struct{}{}
		out.products = append(out.products, *product)
	}
	if len(out.products) == 0 && out.rowErrs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "CSV file is empty or has no data rows")
	}
	return out, nil
}

// productFromRow maps one CSV row; rows without a product code are skipped with (nil, nil).
func productFromRow(row map[string]string) (*models.Product, error) {
	code := strings.ToUpper(row[colProductCode])
	if code == "" {
		return nil, nil
	}

	scannable, mrpSuffix, _ := strings.Cut(code, "_")

	mrp, err := parseDecimal(row[colMRP], colMRP)
	if err != nil {
		return nil, err
	}
	if mrp.IsZero() && mrpSuffix != "" {
		if fromCode, err := decimal.NewFromString(mrpSuffix); err == nil {
			mrp = fromCode
		}
	}
	slp, err := parseDecimal(row[colSLP], colSLP)
	if err != nil {
		return nil, err
	}
	rlp, err := parseDecimal(row[colRLP], colRLP)
	if err != nil {
		return nil, err
	}

	units := 1
	if raw := row[colUnits]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", colUnits, raw)
		}
		if n > 0 {
			units = n
		}
	}

	name := row[colName]
	if name == "" {
		name = "Unknown Product"
	}
	barcode := code

	return &models.Product{
		ProductCode:        code,
		ProductName:        name,
		Variant:            optional(row[colBrandForm]),
		Barcode:            &barcode,
		OriginalBarcode:    optional(scannable),
		HasPhysicalBarcode: true,
		Category:           optional(row[colCategory]),
		Brand:              optional(row[colBrand]),
		BrandForm:          optional(row[colBrandForm]),
		MRP:                &mrp,
		SLP:                &slp,
		RLP:                &rlp,
		UPC:                optional(row[colUPC]),
		Units:              &units,
		IsActive:           true,
	}, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	return reader
}

func parseDecimal(raw, column string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", column, raw)
	}
	return d, nil
}

func rowMap(headers, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			row[h] = strings.TrimSpace(record[i])
		} else {
			row[h] = ""
		}
	}
	return row
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
