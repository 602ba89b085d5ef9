package models

import (
	"fmt"
	"time"
)

// Category groups quiz questions by exam section
type Category string

const (
	QuantitativeAptitude Category = "quantitative_aptitude"
	GeneralIntelligence  Category = "general_intelligence"
	GeneralAwareness     Category = "general_awareness"
	EnglishComprehension Category = "english_comprehension"
	// Mixed selects questions from every category
	Mixed Category = "mixed"
)

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case QuantitativeAptitude, GeneralIntelligence, GeneralAwareness, EnglishComprehension, Mixed:
		return true
	}
	return false
}

// ParseCategory converts a stored string back into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown quiz category: %q", s)
	}
	return c, nil
}

// ItemType maps a question category onto the item type used for its
// spaced-repetition progress record
func (c Category) ItemType() ItemType {
	switch c {
	case GeneralAwareness:
		return ItemGeneralKnowledge
	case EnglishComprehension:
		return ItemGrammar
	default:
		return ItemQuizQuestion
	}
}

// Difficulty is the declared difficulty of a quiz question
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// IsValid reports whether d is one of the known difficulties
func (d Difficulty) IsValid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// ParseDifficulty converts a stored string back into a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown quiz difficulty: %q", s)
	}
	return d, nil
}

// QuestionOptions is the number of answer options every question carries
const QuestionOptions = 4

// QuizQuestion is one multiple-choice question. Immutable once loaded.
type QuizQuestion struct {
	ID            string     `json:"id"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correct_answer"` // Index into Options
	Explanation   string     `json:"explanation"`
	Tags          []string   `json:"tags"`
	Source        string     `json:"source,omitempty"`
}

// Validate checks that a question is well formed enough to be served
func (q *QuizQuestion) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if q.Question == "" {
		return fmt.Errorf("question %s has an empty prompt", q.ID)
	}
	if !q.Category.IsValid() || q.Category == Mixed {
		return fmt.Errorf("question %s has invalid category %q", q.ID, q.Category)
	}
	if !q.Difficulty.IsValid() {
		return fmt.Errorf("question %s has invalid difficulty %q", q.ID, q.Difficulty)
	}
	if len(q.Options) != QuestionOptions {
		return fmt.Errorf("question %s has %d options, want %d", q.ID, len(q.Options), QuestionOptions)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %s has correct answer %d out of range", q.ID, q.CorrectAnswer)
	}
	if q.Explanation == "" {
		return fmt.Errorf("question %s has no explanation", q.ID)
	}
	return nil
}

// QuizSession is one in-progress quiz attempt. The question order is fixed
// at creation; CurrentQuestion, Score and Answers advance as the user plays.
type QuizSession struct {
	SessionID       string         `json:"session_id"`
	UserID          int64          `json:"user_id"`
	Questions       []QuizQuestion `json:"questions"`
	CurrentQuestion int            `json:"current_question"`
	Score           int            `json:"score"`
	Answers         []*int         `json:"answers"` // nil until the question is answered
	TimePerQuestion []float64      `json:"time_per_question"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	Category        Category       `json:"category"`
	Difficulty      Difficulty     `json:"difficulty"`
}

// Completed reports whether every question has been answered
func (s *QuizSession) Completed() bool {
	return s.CurrentQuestion >= len(s.Questions)
}

// AnswerFeedback is returned after each submitted answer
type AnswerFeedback struct {
	QuestionID         string       `json:"question_id"`
	Correct            bool         `json:"correct"`
	CorrectAnswer      int          `json:"correct_answer"`
	Explanation        string       `json:"explanation"`
	CurrentScore       int          `json:"current_score"`
	QuestionsCompleted int          `json:"questions_completed"`
	TotalQuestions     int          `json:"total_questions"`
	QuizCompleted      bool         `json:"quiz_completed"`
	FinalResult        *QuizResult  `json:"final_result,omitempty"`
	NextQuestion       *QuizQuestion `json:"-"`
}

// QuizResult is the immutable summary produced once a session completes
type QuizResult struct {
	SessionID       string     `json:"session_id" db:"session_id"`
	UserID          int64      `json:"user_id" db:"user_id"`
	TotalQuestions  int        `json:"total_questions" db:"total_questions"`
	CorrectAnswers  int        `json:"correct_answers" db:"correct_answers"`
	ScorePercentage float64    `json:"score_percentage" db:"score_percentage"`
	TimeTaken       float64    `json:"time_taken" db:"time_taken"` // Seconds
	Category        Category   `json:"category" db:"category"`
	Difficulty      Difficulty `json:"difficulty" db:"difficulty"`
	WeakAreas       []string   `json:"weak_areas" db:"-"`
	StrongAreas     []string   `json:"strong_areas" db:"-"`
	Recommendations []string   `json:"recommendations" db:"-"`
	CompletedAt     time.Time  `json:"completed_at" db:"completed_at"`
}

// LeaderboardEntry is one row of the weekly quiz leaderboard
type LeaderboardEntry struct {
	UserID    int64   `json:"user_id" db:"user_id"`
	Quizzes   int     `json:"quizzes" db:"quizzes"`
	BestScore float64 `json:"best_score" db:"best_score"`
	AvgScore  float64 `json:"avg_score" db:"avg_score"`
}
