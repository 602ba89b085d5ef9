package spaced_repetition

import (
	"testing"
	"time"

	"github.com/example/prepbot/pkg/models"
)

func TestStatsAggregation(t *testing.T) {
	adv := NewAdvisor(New())

	fresh := dueRecord("n1", models.ItemVocabulary, 0, 2.5)
	fresh.Stage = models.StageNew

	learning := dueRecord("l1", models.ItemGrammar, 1, 2.3)
	learning.Stage = models.StageLearning
	learning.TotalReviews = 2
	learning.CorrectReviews = 1

	mastered := dueRecord("m1", models.ItemIdiom, 0, 2.8)
	mastered.Stage = models.StageMastered
	mastered.NextReviewAt = testNow.Add(20 * 24 * time.Hour)
	mastered.TotalReviews = 8
	mastered.CorrectReviews = 7

	stats := adv.Stats([]models.ProgressRecord{fresh, learning, mastered}, testNow)

	if stats.TotalItems != 3 {
		t.Errorf("total = %d, want 3", stats.TotalItems)
	}
	if stats.NewItems != 1 || stats.LearningItems != 1 || stats.MasteredItems != 1 {
		t.Errorf("stage counts = %+v", stats)
	}
	if stats.DueItems != 2 {
		t.Errorf("due = %d, want 2", stats.DueItems)
	}
	assertFloat(t, "accuracy", stats.AccuracyRate, 8.0/10.0)
}

func TestStatsEmptyProgress(t *testing.T) {
	adv := NewAdvisor(New())
	stats := adv.Stats(nil, testNow)
	if stats.TotalItems != 0 || stats.AccuracyRate != 0 {
		t.Errorf("stats = %+v, want zero values", stats)
	}
}

func TestSuggestPlanSplitsWhenOverloaded(t *testing.T) {
	adv := NewAdvisor(New())

	var progress []models.ProgressRecord
	for i := 0; i < 30; i++ {
		progress = append(progress, dueRecord(string(rune('a'+i)), models.ItemVocabulary, 1, 2.5))
	}

	plan := adv.SuggestPlan(progress, 20, testNow)
	if plan.CurrentDue != 30 {
		t.Errorf("current due = %d, want 30", plan.CurrentDue)
	}
	want := []models.RecommendedSession{
		{Type: models.SessionReview, Items: 10},
		{Type: models.SessionNew, Items: 5},
		{Type: models.SessionWeakAreas, Items: 5},
	}
	if len(plan.RecommendedSessions) != 3 {
		t.Fatalf("sessions = %v", plan.RecommendedSessions)
	}
	for i, s := range want {
		if plan.RecommendedSessions[i] != s {
			t.Errorf("session %d = %+v, want %+v", i, plan.RecommendedSessions[i], s)
		}
	}
}

func TestSuggestPlanSingleMixedSession(t *testing.T) {
	adv := NewAdvisor(New())
	progress := []models.ProgressRecord{
		dueRecord("a", models.ItemVocabulary, 1, 2.5),
		dueRecord("b", models.ItemGrammar, 1, 2.5),
	}

	plan := adv.SuggestPlan(progress, 20, testNow)
	if len(plan.RecommendedSessions) != 1 {
		t.Fatalf("sessions = %v", plan.RecommendedSessions)
	}
	got := plan.RecommendedSessions[0]
	if got.Type != models.SessionMixed || got.Items != 2 {
		t.Errorf("session = %+v, want mixed with 2 items", got)
	}
}

func TestSuggestPlanFocusAreas(t *testing.T) {
	adv := NewAdvisor(New())

	hard := dueRecord("h1", models.ItemGrammar, 2, 1.4)
	hard.TotalReviews = 10
	hard.CorrectReviews = 2

	hard2 := dueRecord("h2", models.ItemGrammar, 1, 1.5)
	hard2.TotalReviews = 8
	hard2.CorrectReviews = 2

	easy := dueRecord("e1", models.ItemVocabulary, 1, 2.8)
	easy.TotalReviews = 10
	easy.CorrectReviews = 9

	plan := adv.SuggestPlan([]models.ProgressRecord{hard, hard2, easy}, 20, testNow)
	if len(plan.FocusAreas) != 1 {
		t.Fatalf("focus areas = %v", plan.FocusAreas)
	}
	if plan.FocusAreas[0] != "grammar (2 items)" {
		t.Errorf("focus area = %q", plan.FocusAreas[0])
	}
}

func TestSuggestPlanDifficultyAdjustment(t *testing.T) {
	adv := NewAdvisor(New())

	record := func(total, correct int) []models.ProgressRecord {
		rec := dueRecord("x", models.ItemVocabulary, 0, 2.5)
		rec.TotalReviews = total
		rec.CorrectReviews = correct
		return []models.ProgressRecord{rec}
	}

	tests := []struct {
		name     string
		progress []models.ProgressRecord
		want     models.DifficultyAdjustment
	}{
		{"high accuracy", record(20, 19), models.AdjustIncrease},
		{"low accuracy", record(20, 9), models.AdjustDecrease},
		{"middling accuracy", record(20, 15), models.AdjustMaintain},
		{"no reviews", record(0, 0), models.AdjustMaintain},
	}
	for _, tt := range tests {
		plan := adv.SuggestPlan(tt.progress, 20, testNow)
		if plan.DifficultyAdjustment != tt.want {
			t.Errorf("%s: adjustment = %s, want %s", tt.name, plan.DifficultyAdjustment, tt.want)
		}
	}
}

func TestExportSnapshot(t *testing.T) {
	adv := NewAdvisor(New())

	rec := dueRecord("item-1", models.ItemVocabulary, 1, 2.4)
	rec.TotalReviews = 4
	rec.CorrectReviews = 3
	last := testNow.Add(-2 * 24 * time.Hour)
	rec.LastReviewedAt = &last

	export := adv.Export(42, []models.ProgressRecord{rec}, testNow)
	if export.UserID != 42 {
		t.Errorf("user id = %d", export.UserID)
	}
	if export.Statistics.TotalItems != 1 {
		t.Errorf("stats = %+v", export.Statistics)
	}
	if _, ok := export.Records["item-1"]; !ok {
		t.Error("record missing from export")
	}
	retention, ok := export.Retention["item-1"]
	if !ok {
		t.Fatal("retention missing from export")
	}
	if retention <= 0.1 || retention >= 0.95 {
		t.Errorf("retention = %v outside expected band", retention)
	}
}
