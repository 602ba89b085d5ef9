package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/prepbot/pkg/models"
)

// ProgressRepository handles database operations for spaced-repetition
// progress records
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// progressRow mirrors one user_progress row. Enum columns are stored as
// strings and parsed back explicitly; the review history is a JSON blob.
type progressRow struct {
	ID              int64        `db:"id"`
	UserID          int64        `db:"user_id"`
	ItemID          string       `db:"item_id"`
	ItemType        string       `db:"item_type"`
	Interval        float64      `db:"interval_days"`
	EaseFactor      float64      `db:"ease_factor"`
	Repetitions     int          `db:"repetitions"`
	Stage           string       `db:"stage"`
	NextReviewAt    time.Time    `db:"next_review_at"`
	LastReviewedAt  sql.NullTime `db:"last_reviewed_at"`
	TotalReviews    int          `db:"total_reviews"`
	CorrectReviews  int          `db:"correct_reviews"`
	DifficultyLevel float64      `db:"difficulty_level"`
	ReviewHistory   string       `db:"review_history"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func (r *progressRow) toRecord() (*models.ProgressRecord, error) {
	itemType, err := models.ParseItemType(r.ItemType)
	if err != nil {
		return nil, err
	}
	stage, err := models.ParseLearningStage(r.Stage)
	if err != nil {
		return nil, err
	}

	rec := &models.ProgressRecord{
		ItemID:          r.ItemID,
		ItemType:        itemType,
		Interval:        r.Interval,
		EaseFactor:      r.EaseFactor,
		Repetitions:     r.Repetitions,
		Stage:           stage,
		NextReviewAt:    r.NextReviewAt,
		CreatedAt:       r.CreatedAt,
		TotalReviews:    r.TotalReviews,
		CorrectReviews:  r.CorrectReviews,
		DifficultyLevel: r.DifficultyLevel,
	}
	if r.LastReviewedAt.Valid {
		t := r.LastReviewedAt.Time
		rec.LastReviewedAt = &t
	}
	if r.ReviewHistory != "" {
		if err := json.Unmarshal([]byte(r.ReviewHistory), &rec.History); err != nil {
			return nil, fmt.Errorf("corrupt review history for item %s: %v", r.ItemID, err)
		}
	}
	return rec, nil
}

// LoadProgress returns all progress records for a user keyed by item id
func (r *ProgressRepository) LoadProgress(userID int64) (map[string]models.ProgressRecord, error) {
	var rows []progressRow
	err := DB.Select(&rows, "SELECT * FROM user_progress WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user progress: %v", err)
	}

	progress := make(map[string]models.ProgressRecord, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			// Unreadable rows are skipped, not fatal: one bad record must
			// not lock a user out of their reviews
			log.Printf("Skipping progress row for user %d: %v", userID, err)
			continue
		}
		progress[rec.ItemID] = *rec
	}
	return progress, nil
}

// GetByItem returns the progress record for a single item
func (r *ProgressRepository) GetByItem(userID int64, itemID string) (*models.ProgressRecord, error) {
	var row progressRow
	err := DB.Get(&row, "SELECT * FROM user_progress WHERE user_id = $1 AND item_id = $2", userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for item %s: %v", itemID, err)
	}
	return row.toRecord()
}

// SaveProgress inserts or updates a progress record
func (r *ProgressRepository) SaveProgress(userID int64, rec *models.ProgressRecord) error {
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("failed to encode review history: %v", err)
	}

	var lastReviewed sql.NullTime
	if rec.LastReviewedAt != nil {
		lastReviewed = sql.NullTime{Time: *rec.LastReviewedAt, Valid: true}
	}

	if isSQLite() {
		_, err = DB.Exec(`
			INSERT INTO user_progress (
				user_id, item_id, item_type, interval_days, ease_factor, repetitions,
				stage, next_review_at, last_reviewed_at, total_reviews,
				correct_reviews, difficulty_level, review_history, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT(user_id, item_id) DO UPDATE SET
				item_type = excluded.item_type,
				interval_days = excluded.interval_days,
				ease_factor = excluded.ease_factor,
				repetitions = excluded.repetitions,
				stage = excluded.stage,
				next_review_at = excluded.next_review_at,
				last_reviewed_at = excluded.last_reviewed_at,
				total_reviews = excluded.total_reviews,
				correct_reviews = excluded.correct_reviews,
				difficulty_level = excluded.difficulty_level,
				review_history = excluded.review_history,
				updated_at = CURRENT_TIMESTAMP`,
			userID, rec.ItemID, string(rec.ItemType), rec.Interval, rec.EaseFactor,
			rec.Repetitions, string(rec.Stage), rec.NextReviewAt, lastReviewed,
			rec.TotalReviews, rec.CorrectReviews, rec.DifficultyLevel,
			string(history), rec.CreatedAt,
		)
	} else {
		_, err = DB.Exec(`
			INSERT INTO user_progress (
				user_id, item_id, item_type, interval_days, ease_factor, repetitions,
				stage, next_review_at, last_reviewed_at, total_reviews,
				correct_reviews, difficulty_level, review_history, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (user_id, item_id) DO UPDATE SET
				item_type = EXCLUDED.item_type,
				interval_days = EXCLUDED.interval_days,
				ease_factor = EXCLUDED.ease_factor,
				repetitions = EXCLUDED.repetitions,
				stage = EXCLUDED.stage,
				next_review_at = EXCLUDED.next_review_at,
				last_reviewed_at = EXCLUDED.last_reviewed_at,
				total_reviews = EXCLUDED.total_reviews,
				correct_reviews = EXCLUDED.correct_reviews,
				difficulty_level = EXCLUDED.difficulty_level,
				review_history = EXCLUDED.review_history,
				updated_at = NOW()`,
			userID, rec.ItemID, string(rec.ItemType), rec.Interval, rec.EaseFactor,
			rec.Repetitions, string(rec.Stage), rec.NextReviewAt, lastReviewed,
			rec.TotalReviews, rec.CorrectReviews, rec.DifficultyLevel,
			string(history), rec.CreatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to save progress for item %s: %v", rec.ItemID, err)
	}
	return nil
}

// Delete removes a progress record
func (r *ProgressRepository) Delete(userID int64, itemID string) error {
	_, err := DB.Exec("DELETE FROM user_progress WHERE user_id = $1 AND item_id = $2", userID, itemID)
	return err
}

// CountDue returns how many items a user has waiting for review
func (r *ProgressRepository) CountDue(userID int64) (int, error) {
	var count int
	var query string
	if isSQLite() {
		query = "SELECT COUNT(*) FROM user_progress WHERE user_id = $1 AND next_review_at <= datetime('now')"
	} else {
		query = "SELECT COUNT(*) FROM user_progress WHERE user_id = $1 AND next_review_at <= NOW()"
	}
	if err := DB.Get(&count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count due items: %v", err)
	}
	return count, nil
}
