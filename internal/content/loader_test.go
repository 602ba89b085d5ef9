package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/prepbot/internal/quiz"
)

const validBank = `[
  {
    "id": "ga_001",
    "category": "general_awareness",
    "difficulty": "easy",
    "question": "Which river is the longest in the world?",
    "options": ["Amazon", "Nile", "Yangtze", "Mississippi"],
    "correct_answer": 1,
    "explanation": "The Nile is generally considered the longest river.",
    "tags": ["geography"]
  },
  {
    "id": "qa_001",
    "category": "quantitative_aptitude",
    "difficulty": "medium",
    "question": "What is 15 percent of 240?",
    "options": ["36", "32", "40", "38"],
    "correct_answer": 0,
    "explanation": "15 percent of 240 is 36.",
    "tags": ["percentage"]
  }
]`

// One valid entry, one with a bad answer index, one with too few options
const partiallyValidBank = `[
  {
    "id": "ok_1",
    "category": "general_intelligence",
    "difficulty": "easy",
    "question": "Find the next number: 2, 4, 8, 16, ...",
    "options": ["24", "30", "32", "36"],
    "correct_answer": 2,
    "explanation": "Each term doubles the previous one.",
    "tags": ["series"]
  },
  {
    "id": "bad_index",
    "category": "general_intelligence",
    "difficulty": "easy",
    "question": "Broken question",
    "options": ["a", "b", "c", "d"],
    "correct_answer": 7,
    "explanation": "Out of range answer.",
    "tags": []
  },
  {
    "id": "bad_options",
    "category": "general_intelligence",
    "difficulty": "easy",
    "question": "Broken question",
    "options": ["a", "b"],
    "correct_answer": 0,
    "explanation": "Too few options.",
    "tags": []
  }
]`

func writeFile(t *testing.T, dir, name, data string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "general.json", validBank)
	writeFile(t, dir, "notes.txt", "not a bank")

	bank := quiz.NewBank()
	total, err := LoadDirectory(dir, bank)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("loaded %d questions, want 2", total)
	}
	if _, ok := bank.Get("ga_001"); !ok {
		t.Error("ga_001 missing from bank")
	}
}

func TestLoadDirectorySkipsInvalidQuestions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mixed.json", partiallyValidBank)

	bank := quiz.NewBank()
	total, err := LoadDirectory(dir, bank)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("loaded %d questions, want 1", total)
	}
	if _, ok := bank.Get("bad_index"); ok {
		t.Error("invalid question entered the bank")
	}
}

func TestLoadDirectorySkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", "{not json")
	writeFile(t, dir, "good.json", validBank)

	bank := quiz.NewBank()
	total, err := LoadDirectory(dir, bank)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("loaded %d questions, want 2", total)
	}
}

func TestLoadDirectoryEmpty(t *testing.T) {
	dir := t.TempDir()
	bank := quiz.NewBank()
	if _, err := LoadDirectory(dir, bank); err == nil {
		t.Error("empty directory did not fail")
	}
}
