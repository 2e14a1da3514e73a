package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// ErrEmptyCSV is returned when the upload has no header row.
var ErrEmptyCSV = errors.New("CSV file is empty")

// IngredientCSVRecord は材料CSVの1行を表します。
type IngredientCSVRecord struct {
	ID     string
	Name   string
	Amount string
	Unit   string
	Type   string
}

// ParseIngredientCSV は name,amount,unit[,type][,id] ヘッダー付きの材料CSVを解析します。
// 読み取れない行と名前が空の行は警告を出してスキップします。
func ParseIngredientCSV(r io.Reader, charset string) ([]IngredientCSVRecord, error) {
	decoded, err := Decode(r, charset)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(SkipBOM(decoded))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex, err := getColIndex(header, []string{"name", "amount", "unit"})
	if err != nil {
		return nil, err
	}

	records := []IngredientCSVRecord{}
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			zap.L().Warn("skipping unreadable ingredient CSV row", zap.Int("line", line), zap.Error(err))
			continue
		}

		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		name := get("name")
		if name == "" {
			zap.L().Warn("skipping ingredient CSV row without name", zap.Int("line", line))
			continue
		}

		records = append(records, IngredientCSVRecord{
			ID:     get("id"),
			Name:   name,
			Amount: get("amount"),
			Unit:   get("unit"),
			Type:   get("type"),
		})
	}

	return records, nil
}
