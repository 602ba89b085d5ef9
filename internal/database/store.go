package database

import "github.com/example/prepbot/pkg/models"

// Store bundles the repositories behind the progress-store boundary the
// quiz engine consumes
type Store struct {
	Progress *ProgressRepository
	Results  *QuizResultRepository
}

// NewStore creates a store over the shared connection
func NewStore() *Store {
	return &Store{
		Progress: NewProgressRepository(),
		Results:  NewQuizResultRepository(),
	}
}

// LoadProgress returns all progress records for a user keyed by item id
func (s *Store) LoadProgress(userID int64) (map[string]models.ProgressRecord, error) {
	return s.Progress.LoadProgress(userID)
}

// SaveProgress inserts or updates one progress record
func (s *Store) SaveProgress(userID int64, record *models.ProgressRecord) error {
	return s.Progress.SaveProgress(userID, record)
}

// SaveQuizResult stores a completed quiz result
func (s *Store) SaveQuizResult(result *models.QuizResult) error {
	return s.Results.Create(result)
}
