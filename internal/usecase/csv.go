package usecase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	ExportFileName    = "products.csv"
	ExportContentType = "text/csv"
)

// csvColumns — фиксированный порядок колонок экспорта.
var csvColumns = []string{"id", "name", "unit", "category", "brand", "stock", "status", "image"}

// csvMediaTypes — MIME-типы, под которыми браузеры отправляют CSV.
var csvMediaTypes = map[string]struct{}{
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
}

// CSVProductRow — строка импорта после нормализации.
type CSVProductRow struct {
	Line     int
	Name     string
	Unit     *string
	Category *string
	Brand    *string
	Stock    int64
	Status   *string
	Image    *string
}

func (r *CSVProductRow) toDomain() *domain.Product {
	return domain.NewProduct(r.Name, r.Unit, r.Category, r.Brand, r.Stock, r.Status, r.Image)
}

// IsCSVUpload отклоняет файл, только если и MIME-тип, и расширение не CSV.
func IsCSVUpload(fileName, contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, ok := csvMediaTypes[strings.ToLower(mediaType)]; ok {
			return true
		}
	}

	return strings.EqualFold(filepath.Ext(fileName), ".csv")
}

// EncodeProductsCSV пишет заголовок и строки товаров. NULL выводится пустой строкой,
// поля с запятой, кавычкой или переводом строки заключаются в кавычки.
func EncodeProductsCSV(w io.Writer, products []domain.Product) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvColumns); err != nil {
		return err
	}

	for i := range products {
		pr := &products[i]
		record := []string{
			strconv.FormatInt(pr.ID, 10),
			pr.Name,
			deref(pr.Unit),
			deref(pr.Category),
			deref(pr.Brand),
			strconv.FormatInt(pr.Stock, 10),
			deref(pr.Status),
			deref(pr.Image),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ParseProductsCSV читает CSV с заголовком, колонки сопоставляются по имени.
// Поддерживает UTF-8 (с BOM и без) и UTF-16 с BOM. Пустой файл или только заголовок — пустой результат.
func ParseProductsCSV(r io.Reader) ([]CSVProductRow, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", e.ErrCSVParse, err)
	}

	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := colIndex[key]; !exists {
			colIndex[key] = i
		}
	}

	var rows []CSVProductRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrCSVParse, err)
		}

		line, _ := reader.FieldPos(0)
		get := func(col string) string {
			idx, ok := colIndex[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		rows = append(rows, CSVProductRow{
			Line:     line,
			Name:     get("name"),
			Unit:     optionalString(get("unit")),
			Category: optionalString(get("category")),
			Brand:    optionalString(get("brand")),
			Stock:    parseStock(get("stock")),
			Status:   optionalString(get("status")),
			Image:    optionalString(get("image")),
		})
	}

	return rows, nil
}

// parseStock возвращает 0 для пустых, нечисловых и отрицательных значений.
// Значения вида "12.0" из табличных редакторов усекаются до целого.
func parseStock(s string) int64 {
	if s == "" {
		return 0
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0
	}

	return int64(f)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
