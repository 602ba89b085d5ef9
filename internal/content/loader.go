package content

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/prepbot/internal/quiz"
	"github.com/example/prepbot/pkg/models"
)

// LoadFile reads one question-bank JSON file: an array of questions
func LoadFile(path string) ([]models.QuizQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %v", err)
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", filepath.Base(path), err)
	}
	return questions, nil
}

// LoadDirectory loads every *.json file in dir into the bank. Malformed
// questions are logged and skipped rather than aborting the load; the
// content corpus is external data and individual bad entries must not take
// the quiz system down. Returns the number of questions stored.
func LoadDirectory(dir string, bank *quiz.Bank) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read question directory: %v", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		questions, err := LoadFile(path)
		if err != nil {
			log.Printf("Skipping question file %s: %v", entry.Name(), err)
			continue
		}

		added, errs := bank.AddAll(questions)
		for _, addErr := range errs {
			log.Printf("Rejected question from %s: %v", entry.Name(), addErr)
		}
		total += added
	}

	if total == 0 {
		return 0, fmt.Errorf("no usable questions found in %s", dir)
	}
	return total, nil
}
