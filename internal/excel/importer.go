package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/example/prepbot/internal/quiz"
	"github.com/example/prepbot/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	CategoryColumn    string // Column with the category
	DifficultyColumn  string // Column with the difficulty
	QuestionColumn    string // Column with the question text
	OptionAColumn     string // Columns with the four answer options
	OptionBColumn     string
	OptionCColumn     string
	OptionDColumn     string
	AnswerColumn      string // Column with the correct answer (A-D or 0-3)
	ExplanationColumn string
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		CategoryColumn:    "A",
		DifficultyColumn:  "B",
		QuestionColumn:    "C",
		OptionAColumn:     "D",
		OptionBColumn:     "E",
		OptionCColumn:     "F",
		OptionDColumn:     "G",
		AnswerColumn:      "H",
		ExplanationColumn: "I",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Added          int
	Skipped        int
	Errors         []string
}

// ImportQuestions loads quiz questions from an Excel or CSV file into the bank
func ImportQuestions(bank *quiz.Bank, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(bank, config)
	}

	return importFromExcel(bank, config)
}

// importFromExcel imports questions from an Excel file
func importFromExcel(bank *quiz.Bank, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}

		result.TotalProcessed++

		if err := processRow(bank, row, config, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports questions from a CSV file. CSV files have no named
// columns, so fields are taken positionally in the default column order.
func importFromCSV(bank *quiz.Bank, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	positional := DefaultImportConfig()

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		if rowNum < config.StartRow {
			continue
		}

		result.TotalProcessed++

		if err := processRow(bank, row, positional, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// processRow builds a question from one row and adds it to the bank
func processRow(bank *quiz.Bank, row []string, config ImportConfig, result *ImportResult) error {
	cell := func(column string) string {
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	category, err := models.ParseCategory(cell(config.CategoryColumn))
	if err != nil {
		return err
	}

	difficulty, err := models.ParseDifficulty(cell(config.DifficultyColumn))
	if err != nil {
		return err
	}

	answer, err := parseAnswer(cell(config.AnswerColumn))
	if err != nil {
		return err
	}

	q := models.QuizQuestion{
		ID:         "import_" + uuid.New().String()[:8],
		Category:   category,
		Difficulty: difficulty,
		Question:   cell(config.QuestionColumn),
		Options: []string{
			cell(config.OptionAColumn),
			cell(config.OptionBColumn),
			cell(config.OptionCColumn),
			cell(config.OptionDColumn),
		},
		CorrectAnswer: answer,
		Explanation:   cell(config.ExplanationColumn),
		Source:        filepath.Base(config.FilePath),
	}

	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("question is missing one or more options")
		}
	}

	if err := bank.Add(q); err != nil {
		return err
	}

	result.Added++
	return nil
}

// parseAnswer accepts either a letter A-D or a numeric index 0-3
func parseAnswer(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "A", "0":
		return 0, nil
	case "B", "1":
		return 1, nil
	case "C", "2":
		return 2, nil
	case "D", "3":
		return 3, nil
	}
	return 0, fmt.Errorf("invalid answer %q: want A-D or 0-3", s)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
