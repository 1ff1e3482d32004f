package usecase

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"golang.org/x/text/encoding/unicode"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	products := []domain.Product{
		{ID: 2, Name: "Acme, Inc.", Brand: strPtr(`The "Best"`), Stock: 5, Category: strPtr("tools")},
		{ID: 1, Name: "Plain", Stock: 0},
	}

	var buf bytes.Buffer
	if err := EncodeProductsCSV(&buf, products); err != nil {
		t.Fatalf("EncodeProductsCSV: %v", err)
	}

	header, _, _ := strings.Cut(buf.String(), "\n")
	if header != "id,name,unit,category,brand,stock,status,image" {
		t.Fatalf("unexpected header %q", header)
	}

	rows, err := ParseProductsCSV(&buf)
	if err != nil {
		t.Fatalf("ParseProductsCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "Acme, Inc." || rows[0].Brand == nil || *rows[0].Brand != `The "Best"` || rows[0].Stock != 5 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Unit != nil || rows[1].Category != nil {
		t.Fatalf("expected empty fields to be NULL: %+v", rows[1])
	}
}

func TestParseProductsCSVHeaderByName(t *testing.T) {
	input := "Stock, NAME ,brand\n7,Hammer,Acme\n"

	rows, err := ParseProductsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseProductsCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Hammer" || rows[0].Stock != 7 || *rows[0].Brand != "Acme" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseProductsCSVWithBOM(t *testing.T) {
	input := "\ufeffname,stock\nNails,3\n"

	rows, err := ParseProductsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseProductsCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Nails" {
		t.Fatalf("BOM not stripped from header: %+v", rows)
	}
}

func TestParseProductsCSVUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("name,stock\nScrews,12\n"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rows, err := ParseProductsCSV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseProductsCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Screws" || rows[0].Stock != 12 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseProductsCSVEmpty(t *testing.T) {
	for _, input := range []string{"", "name,stock\n"} {
		rows, err := ParseProductsCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseProductsCSV(%q): %v", input, err)
		}
		if len(rows) != 0 {
			t.Fatalf("expected no rows for %q, got %d", input, len(rows))
		}
	}
}

func TestParseProductsCSVMalformed(t *testing.T) {
	_, err := ParseProductsCSV(strings.NewReader("name,stock\n\"unterminated,1\n"))
	if !errors.Is(err, e.ErrCSVParse) {
		t.Fatalf("expected ErrCSVParse, got %v", err)
	}
}

func TestParseStock(t *testing.T) {
	tests := map[string]int64{
		"":      0,
		"12":    12,
		"-4":    0,
		"abc":   0,
		"12.0":  12,
		"7.9":   7,
		"NaN":   0,
		"1e400": 0,
	}

	for in, want := range tests {
		if got := parseStock(in); got != want {
			t.Errorf("parseStock(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestIsCSVUpload(t *testing.T) {
	tests := []struct {
		file, contentType string
		want              bool
	}{
		{file: "a.csv", contentType: "application/octet-stream", want: true},
		{file: "a.txt", contentType: "text/csv; charset=utf-8", want: true},
		{file: "a.bin", contentType: "application/vnd.ms-excel", want: true},
		{file: "A.CSV", contentType: "", want: true},
		{file: "a.json", contentType: "application/json", want: false},
	}

	for _, tt := range tests {
		if got := IsCSVUpload(tt.file, tt.contentType); got != tt.want {
			t.Errorf("IsCSVUpload(%q, %q) = %v, want %v", tt.file, tt.contentType, got, tt.want)
		}
	}
}
