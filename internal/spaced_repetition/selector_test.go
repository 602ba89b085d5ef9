package spaced_repetition

import (
	"reflect"
	"testing"
	"time"

	"github.com/example/prepbot/pkg/models"
)

func dueRecord(id string, itemType models.ItemType, overdueDays int, ease float64) models.ProgressRecord {
	return models.ProgressRecord{
		ItemID:       id,
		ItemType:     itemType,
		Stage:        models.StageReview,
		EaseFactor:   ease,
		NextReviewAt: testNow.Add(-time.Duration(overdueDays) * 24 * time.Hour),
	}
}

func TestDueItemsFiltersAndSorts(t *testing.T) {
	sel := NewSelector(New())
	progress := []models.ProgressRecord{
		dueRecord("future", models.ItemVocabulary, 0, 2.5),
		dueRecord("overdue-hard", models.ItemVocabulary, 5, 1.3),
		dueRecord("overdue-easy", models.ItemVocabulary, 5, 2.8),
		dueRecord("barely-due", models.ItemVocabulary, 0, 2.5),
	}
	progress[0].NextReviewAt = testNow.Add(24 * time.Hour)

	items := sel.DueItems(progress, 0, nil, testNow)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for _, item := range items {
		if item.ItemID == "future" {
			t.Error("item not yet due was returned")
		}
	}
	for i := 1; i < len(items); i++ {
		if items[i].Priority > items[i-1].Priority {
			t.Errorf("items not sorted by descending priority: %v before %v",
				items[i-1].Priority, items[i].Priority)
		}
	}
	if items[0].ItemID != "overdue-hard" {
		t.Errorf("hardest overdue item should rank first, got %s", items[0].ItemID)
	}
}

func TestDueItemsPriorityAndOverdue(t *testing.T) {
	sel := NewSelector(New())
	progress := []models.ProgressRecord{dueRecord("a", models.ItemIdiom, 4, 2.0)}

	items := sel.DueItems(progress, 0, nil, testNow)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].DaysOverdue != 4 {
		t.Errorf("days overdue = %d, want 4", items[0].DaysOverdue)
	}
	// priority = daysOverdue + (3.0 - ease)
	assertFloat(t, "priority", items[0].Priority, 5.0)
	// no reviews yet: moderate difficulty
	assertFloat(t, "difficulty", items[0].DifficultyScore, 1.0)
}

func TestDueItemsRespectsMaxItems(t *testing.T) {
	sel := NewSelector(New())
	var progress []models.ProgressRecord
	for i := 0; i < 10; i++ {
		progress = append(progress, dueRecord(string(rune('a'+i)), models.ItemVocabulary, i, 2.5))
	}

	items := sel.DueItems(progress, 3, nil, testNow)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	// Default cap applies when no limit is given
	items = sel.DueItems(progress, 0, nil, testNow)
	if len(items) > DefaultMaxReviews {
		t.Fatalf("got %d items, want at most %d", len(items), DefaultMaxReviews)
	}
}

func TestDueItemsTypeFilter(t *testing.T) {
	sel := NewSelector(New())
	progress := []models.ProgressRecord{
		dueRecord("v1", models.ItemVocabulary, 1, 2.5),
		dueRecord("g1", models.ItemGrammar, 1, 2.5),
		dueRecord("i1", models.ItemIdiom, 1, 2.5),
	}

	items := sel.DueItems(progress, 0, []models.ItemType{models.ItemGrammar, models.ItemIdiom}, testNow)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, item := range items {
		if item.ItemType == models.ItemVocabulary {
			t.Errorf("filtered-out type returned: %s", item.ItemID)
		}
	}
}

func TestDueItemsIdempotent(t *testing.T) {
	sel := NewSelector(New())
	progress := []models.ProgressRecord{
		dueRecord("a", models.ItemVocabulary, 2, 2.0),
		dueRecord("b", models.ItemGrammar, 2, 2.0),
		dueRecord("c", models.ItemIdiom, 7, 1.5),
	}

	first := sel.DueItems(progress, 0, nil, testNow)
	second := sel.DueItems(progress, 0, nil, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ:\n%v\n%v", first, second)
	}
	// Equal priorities keep input order (stable sort)
	if first[1].ItemID != "a" || first[2].ItemID != "b" {
		t.Errorf("ties not in input order: %v", first)
	}
}

func TestSessionItemsFilters(t *testing.T) {
	sel := NewSelector(New())

	fresh := dueRecord("new-item", models.ItemVocabulary, 0, 2.5)
	fresh.Stage = models.StageNew

	learning := dueRecord("learning-item", models.ItemGrammar, 1, 2.5)
	learning.Stage = models.StageLearning

	weak := dueRecord("weak-item", models.ItemIdiom, 1, 1.4)
	weak.Stage = models.StageReview
	weak.TotalReviews = 10
	weak.CorrectReviews = 3

	progress := []models.ProgressRecord{fresh, learning, weak}

	newItems := sel.SessionItems(progress, models.SessionNew, 10, testNow)
	if len(newItems) != 1 || newItems[0].ItemID != "new-item" {
		t.Errorf("new session = %v", newItems)
	}

	reviewItems := sel.SessionItems(progress, models.SessionReview, 10, testNow)
	if len(reviewItems) != 2 {
		t.Errorf("review session has %d items, want 2", len(reviewItems))
	}

	weakItems := sel.SessionItems(progress, models.SessionWeakAreas, 10, testNow)
	if len(weakItems) != 1 || weakItems[0].ItemID != "weak-item" {
		t.Errorf("weak-areas session = %v", weakItems)
	}

	mixed := sel.SessionItems(progress, models.SessionMixed, 10, testNow)
	if len(mixed) != 3 {
		t.Errorf("mixed session has %d items, want 3", len(mixed))
	}
}
