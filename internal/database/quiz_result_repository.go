package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/prepbot/pkg/models"
)

// QuizResultRepository handles database operations for completed quizzes
type QuizResultRepository struct{}

// NewQuizResultRepository creates a new repository instance
func NewQuizResultRepository() *QuizResultRepository {
	return &QuizResultRepository{}
}

type quizResultRow struct {
	ID              int64     `db:"id"`
	SessionID       string    `db:"session_id"`
	UserID          int64     `db:"user_id"`
	TotalQuestions  int       `db:"total_questions"`
	CorrectAnswers  int       `db:"correct_answers"`
	ScorePercentage float64   `db:"score_percentage"`
	TimeTaken       float64   `db:"time_taken"`
	Category        string    `db:"category"`
	Difficulty      string    `db:"difficulty"`
	WeakAreas       string    `db:"weak_areas"`
	StrongAreas     string    `db:"strong_areas"`
	CompletedAt     time.Time `db:"completed_at"`
}

func (r *quizResultRow) toResult() (*models.QuizResult, error) {
	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return nil, err
	}
	difficulty, err := models.ParseDifficulty(r.Difficulty)
	if err != nil {
		return nil, err
	}

	result := &models.QuizResult{
		SessionID:       r.SessionID,
		UserID:          r.UserID,
		TotalQuestions:  r.TotalQuestions,
		CorrectAnswers:  r.CorrectAnswers,
		ScorePercentage: r.ScorePercentage,
		TimeTaken:       r.TimeTaken,
		Category:        category,
		Difficulty:      difficulty,
		CompletedAt:     r.CompletedAt,
	}
	if r.WeakAreas != "" {
		if err := json.Unmarshal([]byte(r.WeakAreas), &result.WeakAreas); err != nil {
			return nil, fmt.Errorf("corrupt weak areas for session %s: %v", r.SessionID, err)
		}
	}
	if r.StrongAreas != "" {
		if err := json.Unmarshal([]byte(r.StrongAreas), &result.StrongAreas); err != nil {
			return nil, fmt.Errorf("corrupt strong areas for session %s: %v", r.SessionID, err)
		}
	}
	return result, nil
}

// Create stores a completed quiz result
func (r *QuizResultRepository) Create(result *models.QuizResult) error {
	weak, err := json.Marshal(result.WeakAreas)
	if err != nil {
		return fmt.Errorf("failed to encode weak areas: %v", err)
	}
	strong, err := json.Marshal(result.StrongAreas)
	if err != nil {
		return fmt.Errorf("failed to encode strong areas: %v", err)
	}

	_, err = DB.Exec(`
		INSERT INTO quiz_results (
			session_id, user_id, total_questions, correct_answers,
			score_percentage, time_taken, category, difficulty,
			weak_areas, strong_areas, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		result.SessionID, result.UserID, result.TotalQuestions,
		result.CorrectAnswers, result.ScorePercentage, result.TimeTaken,
		string(result.Category), string(result.Difficulty),
		string(weak), string(strong), result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save quiz result: %v", err)
	}
	return nil
}

// GetUserHistory returns a user's most recent quiz results
func (r *QuizResultRepository) GetUserHistory(userID int64, limit int) ([]models.QuizResult, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []quizResultRow
	err := DB.Select(&rows, `
		SELECT * FROM quiz_results
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz history: %v", err)
	}

	results := make([]models.QuizResult, 0, len(rows))
	for i := range rows {
		result, err := rows[i].toResult()
		if err != nil {
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// GetWeeklyLeaderboard ranks users by average score over the last 7 days
func (r *QuizResultRepository) GetWeeklyLeaderboard(limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var query string
	if isSQLite() {
		query = `
			SELECT user_id,
				COUNT(*) AS quizzes,
				MAX(score_percentage) AS best_score,
				AVG(score_percentage) AS avg_score
			FROM quiz_results
			WHERE completed_at >= datetime('now', '-7 days')
			GROUP BY user_id
			ORDER BY avg_score DESC
			LIMIT $1`
	} else {
		query = `
			SELECT user_id,
				COUNT(*) AS quizzes,
				MAX(score_percentage) AS best_score,
				AVG(score_percentage) AS avg_score
			FROM quiz_results
			WHERE completed_at >= NOW() - INTERVAL '7 days'
			GROUP BY user_id
			ORDER BY avg_score DESC
			LIMIT $1`
	}

	var entries []models.LeaderboardEntry
	if err := DB.Select(&entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %v", err)
	}
	return entries, nil
}

// PurgeOlderThan deletes quiz results past the retention window and
// returns the number removed
func (r *QuizResultRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := DB.Exec("DELETE FROM quiz_results WHERE completed_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge quiz results: %v", err)
	}
	return res.RowsAffected()
}
