package infra

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// MaxUploadBytes caps reservation exports accepted by the upload endpoint.
const MaxUploadBytes = 10 << 20

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")

// ReadMatrix turns an uploaded CSV or XLSX export into a cell matrix. Only the
// first worksheet of a workbook is read.
func ReadMatrix(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
		if err != nil {
			return nil, err
		}
		if len(data) > MaxUploadBytes {
			return nil, fmt.Errorf("file exceeds %d bytes", MaxUploadBytes)
		}
		return ReadCSV(data)
	case ".xlsx":
		return readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadCSV decodes a platform export. Spanish exports are often Windows-1252
// with ';' separators, so both the charset and the delimiter are detected.
func ReadCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		data = decoded
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// detectDelimiter picks the most frequent of , ; and tab on the first line,
// ignoring quoted sections.
func detectDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	counts := map[rune]int{}
	quoted := false
	for _, ch := range line {
		switch {
		case ch == '"':
			quoted = !quoted
		case !quoted && (ch == ',' || ch == ';' || ch == '\t'):
			counts[ch]++
		}
	}
	best := ','
	for _, d := range []rune{';', '\t'} {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("xlsx has no worksheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
