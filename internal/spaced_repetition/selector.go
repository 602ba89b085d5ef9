package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/prepbot/pkg/models"
)

// DefaultMaxReviews bounds a single review session when the caller passes no limit
const DefaultMaxReviews = 50

// Selector ranks a user's progress records by urgency and produces a
// bounded working set for a review session
type Selector struct {
	sm2 *SM2
}

// NewSelector creates a selector backed by the given scheduler parameters
func NewSelector(sm2 *SM2) *Selector {
	return &Selector{sm2: sm2}
}

// DueItems returns the records due at now, ranked by descending priority and
// truncated to maxItems (DefaultMaxReviews when maxItems <= 0). When
// itemTypes is non-empty only those types are considered. The sort is
// stable, so ties keep the iteration order of userProgress.
func (s *Selector) DueItems(userProgress []models.ProgressRecord, maxItems int, itemTypes []models.ItemType, now time.Time) []models.ReviewItem {
	if maxItems <= 0 {
		maxItems = DefaultMaxReviews
	}

	var wanted map[models.ItemType]bool
	if len(itemTypes) > 0 {
		wanted = make(map[models.ItemType]bool, len(itemTypes))
		for _, t := range itemTypes {
			wanted[t] = true
		}
	}

	var due []models.ReviewItem
	for i := range userProgress {
		rec := &userProgress[i]
		if wanted != nil && !wanted[rec.ItemType] {
			continue
		}
		if rec.NextReviewAt.After(now) {
			continue
		}

		daysOverdue := int(now.Sub(rec.NextReviewAt).Hours() / 24)
		if daysOverdue < 0 {
			daysOverdue = 0
		}

		due = append(due, models.ReviewItem{
			ItemID:          rec.ItemID,
			ItemType:        rec.ItemType,
			Stage:           rec.Stage,
			Priority:        priority(daysOverdue, rec.EaseFactor),
			DaysOverdue:     daysOverdue,
			DifficultyScore: s.sm2.DifficultyScore(rec),
		})
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Priority > due[j].Priority
	})

	if len(due) > maxItems {
		due = due[:maxItems]
	}
	return due
}

// SessionItems returns due items filtered for a typed review session:
// new items only, items in active rotation, the user's weak spots, or an
// unfiltered mix.
func (s *Selector) SessionItems(userProgress []models.ProgressRecord, sessionType models.SessionType, maxItems int, now time.Time) []models.ReviewItem {
	due := s.DueItems(userProgress, maxItems, nil, now)

	var filtered []models.ReviewItem
	switch sessionType {
	case models.SessionNew:
		for _, item := range due {
			if item.Stage == models.StageNew {
				filtered = append(filtered, item)
			}
		}
	case models.SessionReview:
		for _, item := range due {
			if item.Stage == models.StageLearning || item.Stage == models.StageReview {
				filtered = append(filtered, item)
			}
		}
	case models.SessionWeakAreas:
		for _, item := range due {
			if item.DifficultyScore > 1.0 {
				filtered = append(filtered, item)
			}
		}
	default: // mixed
		filtered = due
	}

	if maxItems > 0 && len(filtered) > maxItems {
		filtered = filtered[:maxItems]
	}
	return filtered
}

// priority scores urgency: the most overdue and hardest items first
func priority(daysOverdue int, easeFactor float64) float64 {
	return math.Max(float64(daysOverdue)+(3.0-easeFactor), 0)
}
