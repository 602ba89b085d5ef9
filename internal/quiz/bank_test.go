package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/example/prepbot/pkg/models"
)

func makeQuestion(id string, cat models.Category, diff models.Difficulty) models.QuizQuestion {
	return models.QuizQuestion{
		ID:            id,
		Category:      cat,
		Difficulty:    diff,
		Question:      "What is the answer to " + id + "?",
		Options:       []string{"first", "second", "third", "fourth"},
		CorrectAnswer: 1,
		Explanation:   "The second option is correct.",
		Tags:          []string{"test"},
	}
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestBankRejectsInvalidQuestions(t *testing.T) {
	bank := NewBank()
	tests := []struct {
		name   string
		mutate func(*models.QuizQuestion)
	}{
		{"empty prompt", func(q *models.QuizQuestion) { q.Question = "" }},
		{"mixed category", func(q *models.QuizQuestion) { q.Category = models.Mixed }},
		{"bad difficulty", func(q *models.QuizQuestion) { q.Difficulty = "impossible" }},
		{"three options", func(q *models.QuizQuestion) { q.Options = q.Options[:3] }},
		{"answer out of range", func(q *models.QuizQuestion) { q.CorrectAnswer = 4 }},
		{"no explanation", func(q *models.QuizQuestion) { q.Explanation = "" }},
	}
	for _, tt := range tests {
		q := makeQuestion("bad", models.GeneralAwareness, models.Easy)
		tt.mutate(&q)
		if err := bank.Add(q); err == nil {
			t.Errorf("%s: question accepted", tt.name)
		}
	}
	if bank.Len() != 0 {
		t.Errorf("bank has %d questions, want 0", bank.Len())
	}
}

func TestBankRejectsDuplicateIDs(t *testing.T) {
	bank := NewBank()
	if err := bank.Add(makeQuestion("q1", models.GeneralAwareness, models.Easy)); err != nil {
		t.Fatal(err)
	}
	if err := bank.Add(makeQuestion("q1", models.QuantitativeAptitude, models.Hard)); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestSelectByCategoryAndDifficulty(t *testing.T) {
	bank := NewBank()
	for i := 0; i < 5; i++ {
		mustAdd(t, bank, makeQuestion(fmt.Sprintf("ga-easy-%d", i), models.GeneralAwareness, models.Easy))
		mustAdd(t, bank, makeQuestion(fmt.Sprintf("qa-hard-%d", i), models.QuantitativeAptitude, models.Hard))
	}

	selected, err := bank.Select(models.GeneralAwareness, models.Easy, 3, testRNG())
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 3 {
		t.Fatalf("got %d questions, want 3", len(selected))
	}
	seen := make(map[string]bool)
	for _, q := range selected {
		if q.Category != models.GeneralAwareness || q.Difficulty != models.Easy {
			t.Errorf("question %s does not match filter", q.ID)
		}
		if seen[q.ID] {
			t.Errorf("question %s selected twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelectMixedDrawsAllCategories(t *testing.T) {
	bank := NewBank()
	mustAdd(t, bank, makeQuestion("a", models.GeneralAwareness, models.Easy))
	mustAdd(t, bank, makeQuestion("b", models.QuantitativeAptitude, models.Easy))
	mustAdd(t, bank, makeQuestion("c", models.EnglishComprehension, models.Easy))

	selected, err := bank.Select(models.Mixed, models.Easy, 3, testRNG())
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 3 {
		t.Fatalf("got %d questions, want 3", len(selected))
	}
}

func TestSelectBackfillsWhenShort(t *testing.T) {
	bank := NewBank()
	mustAdd(t, bank, makeQuestion("easy-1", models.GeneralAwareness, models.Easy))
	mustAdd(t, bank, makeQuestion("hard-1", models.GeneralAwareness, models.Hard))
	mustAdd(t, bank, makeQuestion("hard-2", models.QuantitativeAptitude, models.Hard))

	selected, err := bank.Select(models.GeneralAwareness, models.Easy, 3, testRNG())
	if err != nil {
		t.Fatal(err)
	}
	if len(selected) != 3 {
		t.Fatalf("got %d questions, want 3 after backfill", len(selected))
	}
}

func TestSelectEmptyBank(t *testing.T) {
	bank := NewBank()
	_, err := bank.Select(models.Mixed, models.Easy, 5, testRNG())
	if !errors.Is(err, ErrInsufficientQuestions) {
		t.Errorf("err = %v, want ErrInsufficientQuestions", err)
	}
}

func TestRandomQuestionsFiltersCategories(t *testing.T) {
	bank := NewBank()
	for i := 0; i < 4; i++ {
		mustAdd(t, bank, makeQuestion(fmt.Sprintf("ga-%d", i), models.GeneralAwareness, models.Easy))
		mustAdd(t, bank, makeQuestion(fmt.Sprintf("ec-%d", i), models.EnglishComprehension, models.Medium))
	}

	questions := bank.RandomQuestions(3, []models.Category{models.GeneralAwareness}, testRNG())
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	for _, q := range questions {
		if q.Category != models.GeneralAwareness {
			t.Errorf("unexpected category %s", q.Category)
		}
	}
}

func mustAdd(t *testing.T, bank *Bank, q models.QuizQuestion) {
	t.Helper()
	if err := bank.Add(q); err != nil {
		t.Fatal(err)
	}
}
