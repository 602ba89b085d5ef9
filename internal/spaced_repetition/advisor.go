package spaced_repetition

import (
	"fmt"
	"time"

	"github.com/example/prepbot/pkg/models"
)

// Advisor derives daily study recommendations from aggregated progress.
// It depends only on the selector and scheduler outputs.
type Advisor struct {
	sm2      *SM2
	selector *Selector
}

// NewAdvisor creates an advisor over the given scheduler
func NewAdvisor(sm2 *SM2) *Advisor {
	return &Advisor{sm2: sm2, selector: NewSelector(sm2)}
}

// Stats aggregates a user's progress records into learning statistics
func (a *Advisor) Stats(userProgress []models.ProgressRecord, now time.Time) models.LearningStats {
	var stats models.LearningStats
	var correct int

	for i := range userProgress {
		rec := &userProgress[i]
		stats.TotalItems++
		stats.TotalReviews += rec.TotalReviews
		correct += rec.CorrectReviews

		switch rec.Stage {
		case models.StageNew:
			stats.NewItems++
		case models.StageLearning:
			stats.LearningItems++
		case models.StageReview:
			stats.ReviewItems++
		case models.StageMastered:
			stats.MasteredItems++
		}

		if !rec.NextReviewAt.After(now) {
			stats.DueItems++
		}
	}

	if stats.TotalReviews > 0 {
		stats.AccuracyRate = float64(correct) / float64(stats.TotalReviews)
	}
	return stats
}

// focusThreshold marks an item type as a focus area when due items of that
// type score above it
const focusThreshold = 1.2

// SuggestPlan builds a personalized daily plan: how many items are due, how
// to split them into sessions, which item types need attention, and whether
// quiz difficulty should change.
func (a *Advisor) SuggestPlan(userProgress []models.ProgressRecord, targetItemsPerDay int, now time.Time) models.StudyPlan {
	stats := a.Stats(userProgress, now)
	due := a.selector.DueItems(userProgress, 0, nil, now)

	plan := models.StudyPlan{
		DailyTarget:          targetItemsPerDay,
		CurrentDue:           len(due),
		DifficultyAdjustment: models.AdjustMaintain,
	}

	// Weak types in first-seen order so repeated calls give identical plans
	weakCounts := make(map[models.ItemType]int)
	var weakOrder []models.ItemType
	for _, item := range due {
		if item.DifficultyScore <= focusThreshold {
			continue
		}
		if _, seen := weakCounts[item.ItemType]; !seen {
			weakOrder = append(weakOrder, item.ItemType)
		}
		weakCounts[item.ItemType]++
	}
	for _, t := range weakOrder {
		plan.FocusAreas = append(plan.FocusAreas, fmt.Sprintf("%s (%d items)", t, weakCounts[t]))
	}

	if stats.DueItems > targetItemsPerDay {
		plan.RecommendedSessions = []models.RecommendedSession{
			{Type: models.SessionReview, Items: targetItemsPerDay / 2},
			{Type: models.SessionNew, Items: targetItemsPerDay / 4},
			{Type: models.SessionWeakAreas, Items: targetItemsPerDay / 4},
		}
	} else {
		size := targetItemsPerDay
		if stats.DueItems < size {
			size = stats.DueItems
		}
		plan.RecommendedSessions = []models.RecommendedSession{
			{Type: models.SessionMixed, Items: size},
		}
	}

	if stats.AccuracyRate > 0.9 {
		plan.DifficultyAdjustment = models.AdjustIncrease
	} else if stats.AccuracyRate < 0.6 {
		plan.DifficultyAdjustment = models.AdjustDecrease
	}

	return plan
}

// Export snapshots a user's learning data for analysis, including a
// per-item retention prediction
func (a *Advisor) Export(userID int64, userProgress []models.ProgressRecord, now time.Time) models.ProgressExport {
	export := models.ProgressExport{
		UserID:     userID,
		ExportDate: now,
		Statistics: a.Stats(userProgress, now),
		Records:    make(map[string]models.ProgressRecord, len(userProgress)),
		Retention:  make(map[string]float64, len(userProgress)),
	}
	for i := range userProgress {
		rec := userProgress[i]
		export.Records[rec.ItemID] = rec
		export.Retention[rec.ItemID] = a.sm2.Retention(&rec, now)
	}
	return export
}
