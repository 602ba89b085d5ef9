package models

import (
	"fmt"
	"time"
)

// ItemType classifies a piece of study material tracked by spaced repetition
type ItemType string

const (
	ItemVocabulary       ItemType = "vocabulary"
	ItemIdiom            ItemType = "idiom"
	ItemGrammar          ItemType = "grammar"
	ItemQuizQuestion     ItemType = "quiz_question"
	ItemGeneralKnowledge ItemType = "general_knowledge"
	ItemCurrentAffairs   ItemType = "current_affairs"
)

// IsValid reports whether t is one of the known item types
func (t ItemType) IsValid() bool {
	switch t {
	case ItemVocabulary, ItemIdiom, ItemGrammar, ItemQuizQuestion, ItemGeneralKnowledge, ItemCurrentAffairs:
		return true
	}
	return false
}

// ParseItemType converts a stored string back into an ItemType
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown item type: %q", s)
	}
	return t, nil
}

// LearningStage is an item's position in the new -> learning -> review -> mastered lifecycle.
// Stages only move forward except on failed recall, which demotes to learning.
type LearningStage string

const (
	StageNew      LearningStage = "new"
	StageLearning LearningStage = "learning"
	StageReview   LearningStage = "review"
	StageMastered LearningStage = "mastered"
)

// IsValid reports whether s is one of the known stages
func (s LearningStage) IsValid() bool {
	switch s {
	case StageNew, StageLearning, StageReview, StageMastered:
		return true
	}
	return false
}

// ParseLearningStage converts a stored string back into a LearningStage
func ParseLearningStage(v string) (LearningStage, error) {
	s := LearningStage(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown learning stage: %q", v)
	}
	return s, nil
}

// ReviewEntry is one historical review of an item
type ReviewEntry struct {
	Date             time.Time `json:"date"`
	Grade            int       `json:"grade"`
	ResponseTime     float64   `json:"response_time,omitempty"` // Seconds, 0 when unknown
	PreviousInterval float64   `json:"previous_interval"`
	NewInterval      float64   `json:"new_interval"`
}

// MaxReviewHistory bounds the per-item review history kept in a progress record
const MaxReviewHistory = 20

// ProgressRecord tracks a user's spaced-repetition state for one item.
// Interval is measured in days (fractional during the learning phase).
type ProgressRecord struct {
	ItemID          string        `json:"item_id" db:"item_id"`
	ItemType        ItemType      `json:"item_type" db:"item_type"`
	Interval        float64       `json:"interval" db:"interval_days"`
	EaseFactor      float64       `json:"ease_factor" db:"ease_factor"`
	Repetitions     int           `json:"repetitions" db:"repetitions"`
	Stage           LearningStage `json:"stage" db:"stage"`
	NextReviewAt    time.Time     `json:"next_review_at" db:"next_review_at"`
	LastReviewedAt  *time.Time    `json:"last_reviewed_at" db:"last_reviewed_at"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	TotalReviews    int           `json:"total_reviews" db:"total_reviews"`
	CorrectReviews  int           `json:"correct_reviews" db:"correct_reviews"`
	DifficultyLevel float64       `json:"difficulty_level" db:"difficulty_level"`
	History         []ReviewEntry `json:"review_history" db:"-"` // Last MaxReviewHistory reviews
}

// Accuracy returns the fraction of correct reviews (0 if never reviewed)
func (p *ProgressRecord) Accuracy() float64 {
	if p.TotalReviews == 0 {
		return 0
	}
	return float64(p.CorrectReviews) / float64(p.TotalReviews)
}

// Clone returns a deep copy so the scheduler can work on a value
// while the caller keeps the original until the result is installed
func (p *ProgressRecord) Clone() *ProgressRecord {
	dup := *p
	if p.LastReviewedAt != nil {
		t := *p.LastReviewedAt
		dup.LastReviewedAt = &t
	}
	if p.History != nil {
		dup.History = make([]ReviewEntry, len(p.History))
		copy(dup.History, p.History)
	}
	return &dup
}

// AppendReview adds an entry to the review history, trimming to the bound
func (p *ProgressRecord) AppendReview(entry ReviewEntry) {
	p.History = append(p.History, entry)
	if len(p.History) > MaxReviewHistory {
		p.History = p.History[len(p.History)-MaxReviewHistory:]
	}
}
