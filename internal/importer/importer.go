// Package importer разбирает файлы закупок (CSV, XLSX) в строки для записи в базу.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/alumtrack/internal/domain/purchases"
)

var ErrUnsupportedFormat = errors.New("file must be CSV or Excel (.xlsx)")

// RowError ошибка в конкретной строке файла (нумерация как в редакторе, с 1).
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

const (
	colAlloy = iota
	colPurity
	colQty
	colPrice
	colDate
	colSupplier
	colNotes
	colCount
)

var columnNames = [colCount]string{"alloy_type", "purity", "quantity_kg", "price_per_kg", "purchase_date", "supplier", "notes"}

// headerAliases допустимые заголовки колонок (в нижнем регистре).
var headerAliases = [colCount][]string{
	colAlloy:    {"alloy_type", "alloy", "grade", "material", "марка", "сплав"},
	colPurity:   {"purity", "purity_pct", "чистота"},
	colQty:      {"quantity_kg", "quantity", "qty", "kg", "количество"},
	colPrice:    {"price_per_kg", "price", "unit_price", "цена"},
	colDate:     {"purchase_date", "date", "дата"},
	colSupplier: {"supplier", "vendor", "поставщик"},
	colNotes:    {"notes", "note", "comment", "комментарий"},
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "2006/01/02", time.RFC3339, "2006-01-02 15:04:05"}

// Parse выбирает разбор по расширению файла.
func Parse(filename string, data []byte) ([]purchases.Input, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(data)
	case ".xlsx":
		return ParseXLSX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func ParseCSV(data []byte) ([]purchases.Input, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = DetectDelimiter(data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}

func ParseXLSX(data []byte) ([]purchases.Input, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	// сырые значения: даты приходят серийным номером, а не по формату ячейки
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

// DetectDelimiter выбирает разделитель, дающий одинаковое число колонок в строках.
func DetectDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = d
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil || len(rows) == 0 || len(rows[0]) < 2 {
			continue
		}
		score := 0
		for _, row := range rows {
			if len(row) == len(rows[0]) {
				score++
			}
		}
		if w := score*10 + len(rows[0]); w > bestScore {
			best, bestScore = d, w
		}
	}
	return best
}

// mapColumns возвращает индекс каждой колонки в заголовке, -1, если колонки нет.
func mapColumns(header []string) ([colCount]int, error) {
	var idx [colCount]int
	for i := range idx {
		idx[i] = -1
	}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for c, aliases := range headerAliases {
			if idx[c] != -1 {
				continue
			}
			for _, a := range aliases {
				if name == a {
					idx[c] = i
					break
				}
			}
		}
	}

	var missing []string
	for c := colAlloy; c <= colDate; c++ {
		if idx[c] == -1 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRows(rows [][]string) ([]purchases.Input, error) {
	if len(rows) < 1 {
		return nil, errors.New("file is empty")
	}
	idx, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	out := []purchases.Input{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		in, err := parseRow(row, idx)
		if err != nil {
			return nil, &RowError{Row: i + 2, Err: err}
		}
		out = append(out, in)
	}
	return out, nil
}

func parseRow(row []string, idx [colCount]int) (purchases.Input, error) {
	cell := func(c int) string {
		if idx[c] < 0 || idx[c] >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx[c]])
	}

	var (
		in  purchases.Input
		err error
	)
	in.AlloyType = cell(colAlloy)
	if in.Purity, err = parseNumber(columnNames[colPurity], cell(colPurity)); err != nil {
		return in, err
	}
	if in.QuantityKg, err = parseNumber(columnNames[colQty], cell(colQty)); err != nil {
		return in, err
	}
	if in.PricePerKg, err = parseNumber(columnNames[colPrice], cell(colPrice)); err != nil {
		return in, err
	}
	if in.PurchaseDate, err = ParseDate(cell(colDate)); err != nil {
		return in, err
	}
	if s := cell(colSupplier); s != "" {
		in.Supplier = &s
	}
	if s := cell(colNotes); s != "" {
		in.Notes = &s
	}

	in.Normalize()
	return in, in.Validate()
}

func parseNumber(field, s string) (float64, error) {
	s = strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), ",", ".")
	if s == "" {
		return 0, fmt.Errorf("%s is empty", field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", field, s)
	}
	return v, nil
}

// ParseDate понимает обычные форматы дат и серийный номер Excel.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("purchase_date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("purchase_date: unrecognized date %q", s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
