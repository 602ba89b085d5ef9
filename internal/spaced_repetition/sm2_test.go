package spaced_repetition

import (
	"math"
	"testing"
	"time"

	"github.com/example/prepbot/pkg/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func newRecord(stage models.LearningStage, interval, ease float64, reps int) *models.ProgressRecord {
	return &models.ProgressRecord{
		ItemID:          "item-1",
		ItemType:        models.ItemVocabulary,
		Interval:        interval,
		EaseFactor:      ease,
		Repetitions:     reps,
		Stage:           stage,
		NextReviewAt:    testNow,
		DifficultyLevel: 1.0,
	}
}

func TestComputeNextRejectsInvalidGrade(t *testing.T) {
	sm := New()
	rec := sm.InitializeItem("x", models.ItemVocabulary, testNow)
	for _, grade := range []int{-1, 6, 42} {
		if _, err := sm.ComputeNext(rec, grade, testNow); err != ErrInvalidGrade {
			t.Errorf("grade %d: err = %v, want ErrInvalidGrade", grade, err)
		}
	}
}

func TestFailAlwaysDemotesToLearning(t *testing.T) {
	sm := New()
	tests := []struct {
		name string
		rec  *models.ProgressRecord
	}{
		{"from new", newRecord(models.StageNew, 1, 2.5, 0)},
		{"from learning", newRecord(models.StageLearning, 1, 2.5, 1)},
		{"from review", newRecord(models.StageReview, 10, 2.1, 4)},
		{"from mastered", newRecord(models.StageMastered, 30, 2.8, 9)},
	}
	for _, tt := range tests {
		for grade := 0; grade < 3; grade++ {
			result, err := sm.ComputeNext(tt.rec, grade, testNow)
			if err != nil {
				t.Fatalf("%s grade %d: %v", tt.name, grade, err)
			}
			if result.Stage != models.StageLearning {
				t.Errorf("%s grade %d: stage = %s, want learning", tt.name, grade, result.Stage)
			}
			if result.Repetitions != 0 {
				t.Errorf("%s grade %d: repetitions = %d, want 0", tt.name, grade, result.Repetitions)
			}
		}
	}
}

func TestFailIntervalDependsOnStage(t *testing.T) {
	sm := New()

	// Items still in the new stage drop to the first sub-day learning step
	result, err := sm.ComputeNext(newRecord(models.StageNew, 1, 2.5, 0), 1, testNow)
	if err != nil {
		t.Fatal(err)
	}
	assertFloat(t, "new fail interval", result.Interval, 1.0/(24*60))

	// Items past the learning phase come back tomorrow
	result, err = sm.ComputeNext(newRecord(models.StageReview, 15, 2.2, 5), 2, testNow)
	if err != nil {
		t.Fatal(err)
	}
	assertFloat(t, "review fail interval", result.Interval, 1)
}

func TestEaseFactorNeverBelowFloor(t *testing.T) {
	sm := New()
	rec := sm.InitializeItem("x", models.ItemGrammar, testNow)
	now := testNow
	// Alternate passes and hard failures for many cycles
	for i := 0; i < 50; i++ {
		grade := 0
		if i%2 == 0 {
			grade = 3
		}
		updated, err := sm.UpdateProgress(rec, grade, 0, now)
		if err != nil {
			t.Fatal(err)
		}
		if updated.EaseFactor < 1.3 {
			t.Fatalf("cycle %d: ease factor %v below 1.3", i, updated.EaseFactor)
		}
		rec = updated
		now = updated.NextReviewAt
	}
}

func TestPassFromNewEntersLearning(t *testing.T) {
	sm := New()
	result, err := sm.ComputeNext(newRecord(models.StageNew, 1, 2.5, 0), 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != models.StageLearning {
		t.Errorf("stage = %s, want learning", result.Stage)
	}
	if result.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1", result.Repetitions)
	}
	assertFloat(t, "interval", result.Interval, 1.0/(24*60))
	assertFloat(t, "ease", result.EaseFactor, 2.5)
}

func TestLearningGraduation(t *testing.T) {
	sm := New()

	// One successful step already taken; the second pass exhausts the
	// two default steps and graduates the item
	result, err := sm.ComputeNext(newRecord(models.StageLearning, 1.0/(24*60), 2.5, 1), 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != models.StageReview {
		t.Errorf("stage = %s, want review", result.Stage)
	}
	assertFloat(t, "graduation interval", result.Interval, 1)
	if result.Repetitions != 2 {
		t.Errorf("repetitions = %d, want 2", result.Repetitions)
	}
}

func TestLearningIntermediateStep(t *testing.T) {
	sm := New()
	sm.LearningSteps = []float64{1, 10, 30}

	result, err := sm.ComputeNext(newRecord(models.StageLearning, 1.0/(24*60), 2.5, 1), 3, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != models.StageLearning {
		t.Errorf("stage = %s, want learning", result.Stage)
	}
	assertFloat(t, "second step", result.Interval, 10.0/(24*60))
}

func TestReviewIntervalLadder(t *testing.T) {
	sm := New()

	// First two post-graduation repetitions are fixed at 1 and 6 days,
	// independent of the ease factor
	for _, ease := range []float64{1.3, 2.5, 3.0} {
		r1, err := sm.ComputeNext(newRecord(models.StageReview, 1, ease, 0), 4, testNow)
		if err != nil {
			t.Fatal(err)
		}
		assertFloat(t, "first review interval", r1.Interval, 1)

		r2, err := sm.ComputeNext(newRecord(models.StageReview, 1, ease, 1), 4, testNow)
		if err != nil {
			t.Fatal(err)
		}
		assertFloat(t, "second review interval", r2.Interval, 6)
	}

	// Third and later repetitions grow by the ease factor, rounded up
	r3, err := sm.ComputeNext(newRecord(models.StageReview, 6, 2.5, 2), 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	assertFloat(t, "third review interval", r3.Interval, 15)
}

func TestEasyBonusAppliedAtGradeFive(t *testing.T) {
	sm := New()
	rec := newRecord(models.StageReview, 6, 2.5, 2)

	grade4, err := sm.ComputeNext(rec, 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	grade5, err := sm.ComputeNext(rec, 5, testNow)
	if err != nil {
		t.Fatal(err)
	}
	assertFloat(t, "grade 4 interval", grade4.Interval, 15)
	assertFloat(t, "grade 5 interval", grade5.Interval, math.Ceil(15*1.3))
}

func TestMasteryPromotion(t *testing.T) {
	sm := New()

	// ceil(12 * 2.0) = 24 >= 21 promotes to mastered
	result, err := sm.ComputeNext(newRecord(models.StageReview, 12, 2.0, 5), 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != models.StageMastered {
		t.Errorf("stage = %s, want mastered", result.Stage)
	}

	// ceil(5 * 2.0) = 10 < 21 stays in review
	result, err = sm.ComputeNext(newRecord(models.StageReview, 5, 2.0, 5), 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stage != models.StageReview {
		t.Errorf("stage = %s, want review", result.Stage)
	}
}

func TestEaseUpdateFollowsSM2(t *testing.T) {
	sm := New()
	rec := newRecord(models.StageReview, 6, 2.5, 2)

	tests := []struct {
		grade int
		want  float64
	}{
		{5, 2.6},
		{4, 2.5},
		{3, 2.36},
	}
	for _, tt := range tests {
		result, err := sm.ComputeNext(rec, tt.grade, testNow)
		if err != nil {
			t.Fatal(err)
		}
		assertFloat(t, "ease after grade", result.EaseFactor, tt.want)
	}
}

func TestNextReviewAtMatchesInterval(t *testing.T) {
	sm := New()
	result, err := sm.ComputeNext(newRecord(models.StageReview, 1, 2.5, 1), 4, testNow)
	if err != nil {
		t.Fatal(err)
	}
	want := testNow.Add(6 * 24 * time.Hour)
	if !result.NextReviewAt.Equal(want) {
		t.Errorf("next review = %v, want %v", result.NextReviewAt, want)
	}
}

func TestUpdateProgressPassThenFail(t *testing.T) {
	sm := New()
	fresh := sm.InitializeItem("q1", models.ItemQuizQuestion, testNow)

	afterPass, err := sm.UpdateProgress(fresh, 4, 0, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if afterPass.Stage != models.StageLearning {
		t.Errorf("after pass: stage = %s, want learning", afterPass.Stage)
	}
	if afterPass.TotalReviews != 1 || afterPass.CorrectReviews != 1 {
		t.Errorf("after pass: reviews = %d/%d, want 1/1", afterPass.CorrectReviews, afterPass.TotalReviews)
	}

	afterFail, err := sm.UpdateProgress(afterPass, 2, 0, afterPass.NextReviewAt)
	if err != nil {
		t.Fatal(err)
	}
	if afterFail.Stage != models.StageLearning {
		t.Errorf("after fail: stage = %s, want learning", afterFail.Stage)
	}
	if afterFail.Repetitions != 0 {
		t.Errorf("after fail: repetitions = %d, want 0", afterFail.Repetitions)
	}
	if afterFail.EaseFactor >= afterPass.EaseFactor {
		t.Errorf("after fail: ease %v not below %v", afterFail.EaseFactor, afterPass.EaseFactor)
	}
	if afterFail.CorrectReviews != 1 || afterFail.TotalReviews != 2 {
		t.Errorf("after fail: reviews = %d/%d, want 1/2", afterFail.CorrectReviews, afterFail.TotalReviews)
	}

	// The original record must be untouched
	if fresh.TotalReviews != 0 || fresh.Stage != models.StageNew {
		t.Errorf("input record mutated: %+v", fresh)
	}
}

func TestHistoryBounded(t *testing.T) {
	sm := New()
	rec := sm.InitializeItem("q1", models.ItemIdiom, testNow)
	now := testNow
	for i := 0; i < models.MaxReviewHistory+10; i++ {
		updated, err := sm.UpdateProgress(rec, 4, 1.5, now)
		if err != nil {
			t.Fatal(err)
		}
		rec = updated
		now = now.Add(time.Hour)
	}
	if len(rec.History) != models.MaxReviewHistory {
		t.Errorf("history length = %d, want %d", len(rec.History), models.MaxReviewHistory)
	}
}

func TestDifficultyLevelAdjustment(t *testing.T) {
	sm := New()

	t.Run("too few reviews leaves difficulty alone", func(t *testing.T) {
		rec := sm.InitializeItem("a", models.ItemVocabulary, testNow)
		updated, err := sm.UpdateProgress(rec, 5, 0, testNow)
		if err != nil {
			t.Fatal(err)
		}
		updated, err = sm.UpdateProgress(updated, 5, 0, testNow)
		if err != nil {
			t.Fatal(err)
		}
		assertFloat(t, "difficulty", updated.DifficultyLevel, 1.0)
	})

	t.Run("high grades lower difficulty", func(t *testing.T) {
		rec := sm.InitializeItem("b", models.ItemVocabulary, testNow)
		var err error
		for i := 0; i < 3; i++ {
			rec, err = sm.UpdateProgress(rec, 5, 0, testNow)
			if err != nil {
				t.Fatal(err)
			}
		}
		assertFloat(t, "difficulty", rec.DifficultyLevel, 0.9)
	})

	t.Run("low grades raise difficulty", func(t *testing.T) {
		rec := sm.InitializeItem("c", models.ItemVocabulary, testNow)
		var err error
		for i := 0; i < 4; i++ {
			rec, err = sm.UpdateProgress(rec, 1, 0, testNow)
			if err != nil {
				t.Fatal(err)
			}
		}
		// Adjusted on reviews 3 and 4
		assertFloat(t, "difficulty", rec.DifficultyLevel, 1.4)
	})
}

func TestRetentionPrediction(t *testing.T) {
	sm := New()

	fresh := sm.InitializeItem("x", models.ItemGeneralKnowledge, testNow)
	assertFloat(t, "fresh retention", sm.Retention(fresh, testNow), 0.5)

	reviewed := newRecord(models.StageReview, 6, 2.4, 3)
	last := testNow.Add(-5 * 24 * time.Hour)
	reviewed.LastReviewedAt = &last
	reviewed.TotalReviews = 3
	got := sm.Retention(reviewed, testNow)
	want := 2.4 / 3.0 * math.Exp(-0.5)
	assertFloat(t, "reviewed retention", got, want)

	// Long-neglected items bottom out at 0.1
	longAgo := testNow.Add(-200 * 24 * time.Hour)
	reviewed.LastReviewedAt = &longAgo
	assertFloat(t, "floor", sm.Retention(reviewed, testNow), 0.1)
}
