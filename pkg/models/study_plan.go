package models

import "time"

// ReviewItem is a due progress record ranked for a review session.
// It is built on the fly by the selector and never persisted.
type ReviewItem struct {
	ItemID          string
	ItemType        ItemType
	Stage           LearningStage
	Priority        float64
	DaysOverdue     int
	DifficultyScore float64
}

// LearningStats aggregates a user's progress records
type LearningStats struct {
	TotalItems    int     `json:"total_items"`
	NewItems      int     `json:"new_items"`
	LearningItems int     `json:"learning_items"`
	ReviewItems   int     `json:"review_items"`
	MasteredItems int     `json:"mastered_items"`
	DueItems      int     `json:"due_items"`
	TotalReviews  int     `json:"total_reviews"`
	AccuracyRate  float64 `json:"accuracy_rate"`
}

// SessionType selects which due items a review session draws from
type SessionType string

const (
	SessionNew       SessionType = "new"
	SessionReview    SessionType = "review"
	SessionWeakAreas SessionType = "weak_areas"
	SessionMixed     SessionType = "mixed"
)

// RecommendedSession is one study block in a daily plan
type RecommendedSession struct {
	Type  SessionType `json:"type"`
	Items int         `json:"items"`
}

// DifficultyAdjustment suggests how a user should tune quiz difficulty
type DifficultyAdjustment string

const (
	AdjustIncrease DifficultyAdjustment = "increase"
	AdjustDecrease DifficultyAdjustment = "decrease"
	AdjustMaintain DifficultyAdjustment = "maintain"
)

// StudyPlan is the advisor's daily recommendation for a user
type StudyPlan struct {
	DailyTarget          int                  `json:"daily_target"`
	CurrentDue           int                  `json:"current_due"`
	RecommendedSessions  []RecommendedSession `json:"recommended_sessions"`
	FocusAreas           []string             `json:"focus_areas"`
	DifficultyAdjustment DifficultyAdjustment `json:"difficulty_adjustment"`
}

// ProgressExport is a snapshot of a user's learning data for analysis
type ProgressExport struct {
	UserID     int64                     `json:"user_id"`
	ExportDate time.Time                 `json:"export_date"`
	Statistics LearningStats             `json:"statistics"`
	Records    map[string]ProgressRecord `json:"learning_progress"`
	Retention  map[string]float64        `json:"retention_analysis"`
}
