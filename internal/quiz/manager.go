package quiz

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/prepbot/internal/spaced_repetition"
	"github.com/example/prepbot/pkg/models"
	"github.com/google/uuid"
)

// ProgressStore persists per-item progress and finished quiz results.
// Implementations live behind this boundary; the manager never blocks a
// session lock on them.
type ProgressStore interface {
	LoadProgress(userID int64) (map[string]models.ProgressRecord, error)
	SaveProgress(userID int64, record *models.ProgressRecord) error
	SaveQuizResult(result *models.QuizResult) error
}

// DefaultQuestionCount is used when a quiz is requested without a size
const DefaultQuestionCount = 10

// DefaultSessionTTL is how long an untouched session may linger before the
// cleanup job evicts it
const DefaultSessionTTL = 30 * time.Minute

// sessionEntry pairs a session with its own lock so answers for one session
// are serialized without stalling unrelated users. touched holds the unix
// nanos of the last activity and is accessed atomically: answers update it
// under the session lock while eviction reads it under the registry lock.
type sessionEntry struct {
	mu      sync.Mutex
	session *models.QuizSession
	touched int64
}

// Manager owns the lifecycle of in-progress quizzes: question selection,
// per-question timing, scoring, result synthesis, and the feedback of quiz
// outcomes into spaced repetition.
type Manager struct {
	bank  *Bank
	sm2   *spaced_repetition.SM2
	store ProgressStore

	mu       sync.RWMutex // guards sessions and byUser
	sessions map[string]*sessionEntry
	byUser   map[int64]string

	rngMu sync.Mutex
	rng   *rand.Rand

	ttl time.Duration
	now func() time.Time
}

// NewManager creates a quiz session manager over the given bank, scheduler
// and store
func NewManager(bank *Bank, sm2 *spaced_repetition.SM2, store ProgressStore) *Manager {
	return &Manager{
		bank:     bank,
		sm2:      sm2,
		store:    store,
		sessions: make(map[string]*sessionEntry),
		byUser:   make(map[int64]string),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
}

// CreateSession starts a quiz for the user. Only one active session per
// user is permitted; a second request fails with ErrDuplicateSession until
// the first completes or is evicted.
func (m *Manager) CreateSession(userID int64, category models.Category, difficulty models.Difficulty, questionCount int) (*models.QuizSession, error) {
	if !category.IsValid() || !difficulty.IsValid() {
		return nil, ErrInvalidFilter
	}
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}

	m.rngMu.Lock()
	questions, err := m.bank.Select(category, difficulty, questionCount, m.rng)
	m.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &models.QuizSession{
		SessionID:  newSessionID(userID, now),
		UserID:     userID,
		Questions:  questions,
		Answers:    make([]*int, len(questions)),
		StartTime:  now,
		Category:   category,
		Difficulty: difficulty,
	}

	m.mu.Lock()
	if _, active := m.byUser[userID]; active {
		m.mu.Unlock()
		return nil, ErrDuplicateSession
	}
	m.sessions[session.SessionID] = &sessionEntry{session: session, touched: now.UnixNano()}
	m.byUser[userID] = session.SessionID
	m.mu.Unlock()

	log.Printf("Created quiz session %s for user %d (%d questions)", session.SessionID, userID, len(questions))
	return session, nil
}

// CurrentQuestion returns the question the session is waiting on
func (m *Manager) CurrentQuestion(sessionID string) (*models.QuizQuestion, int, int, error) {
	entry, err := m.lookup(sessionID)
	if err != nil {
		return nil, 0, 0, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	if s.Completed() {
		return nil, 0, 0, ErrSessionComplete
	}
	q := s.Questions[s.CurrentQuestion]
	return &q, s.CurrentQuestion + 1, len(s.Questions), nil
}

// SubmitAnswer records the answer for the session's current question,
// advances the session and returns per-question feedback. On the last
// question it finalizes the session, synthesizes the result and feeds every
// question's outcome into spaced repetition (grade 5 correct, grade 2
// incorrect). A persistence failure is reported wrapped in ErrPersistence
// alongside the completed feedback; in-memory results are unaffected.
func (m *Manager) SubmitAnswer(sessionID string, answer int) (*models.AnswerFeedback, error) {
	entry, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	s := entry.session
	if s.Completed() {
		entry.mu.Unlock()
		return nil, ErrSessionComplete
	}
	question := s.Questions[s.CurrentQuestion]
	if answer < 0 || answer >= len(question.Options) {
		entry.mu.Unlock()
		return nil, ErrInvalidAnswer
	}

	now := m.now()
	atomic.StoreInt64(&entry.touched, now.UnixNano())

	// Time attributable to this question alone
	elapsed := now.Sub(s.StartTime).Seconds()
	for _, t := range s.TimePerQuestion {
		elapsed -= t
	}
	if elapsed < 0 {
		elapsed = 0
	}
	s.TimePerQuestion = append(s.TimePerQuestion, elapsed)

	a := answer
	s.Answers[s.CurrentQuestion] = &a
	correct := answer == question.CorrectAnswer
	if correct {
		s.Score++
	}
	s.CurrentQuestion++

	feedback := &models.AnswerFeedback{
		QuestionID:         question.ID,
		Correct:            correct,
		CorrectAnswer:      question.CorrectAnswer,
		Explanation:        question.Explanation,
		CurrentScore:       s.Score,
		QuestionsCompleted: s.CurrentQuestion,
		TotalQuestions:     len(s.Questions),
	}

	if !s.Completed() {
		next := s.Questions[s.CurrentQuestion]
		feedback.NextQuestion = &next
		entry.mu.Unlock()
		return feedback, nil
	}

	end := now
	s.EndTime = &end
	result := m.synthesizeResult(s)
	feedback.QuizCompleted = true
	feedback.FinalResult = result
	// Snapshot what the boundary calls need before releasing the lock;
	// the session leaves the registry and is no longer shared after this.
	finished := s
	entry.mu.Unlock()

	m.mu.Lock()
	delete(m.sessions, finished.SessionID)
	delete(m.byUser, finished.UserID)
	m.mu.Unlock()

	if err := m.recordOutcome(finished, result); err != nil {
		return feedback, err
	}
	return feedback, nil
}

// AbandonSession removes a user's active session so a new one can start
func (m *Manager) AbandonSession(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return false
	}
	delete(m.sessions, id)
	delete(m.byUser, userID)
	return true
}

// ActiveSession returns the id of the user's active session, if any
func (m *Manager) ActiveSession(userID int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUser[userID]
	return id, ok
}

// EvictStale drops sessions untouched for longer than the TTL and returns
// how many were removed. Run periodically by the job scheduler.
func (m *Manager) EvictStale() int {
	cutoff := m.now().Add(-m.ttl).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, entry := range m.sessions {
		if atomic.LoadInt64(&entry.touched) < cutoff {
			delete(m.sessions, id)
			delete(m.byUser, entry.session.UserID)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("Evicted %d stale quiz sessions", evicted)
	}
	return evicted
}

func (m *Manager) lookup(sessionID string) (*sessionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

// synthesizeResult builds the immutable summary for a finished session.
// Caller holds the session lock.
func (m *Manager) synthesizeResult(s *models.QuizSession) *models.QuizResult {
	result := &models.QuizResult{
		SessionID:       s.SessionID,
		UserID:          s.UserID,
		TotalQuestions:  len(s.Questions),
		CorrectAnswers:  s.Score,
		ScorePercentage: float64(s.Score) / float64(len(s.Questions)) * 100,
		TimeTaken:       s.EndTime.Sub(s.StartTime).Seconds(),
		Category:        s.Category,
		Difficulty:      s.Difficulty,
		CompletedAt:     *s.EndTime,
	}

	type perf struct{ correct, total int }
	byCategory := make(map[models.Category]*perf)
	var order []models.Category
	for i, q := range s.Questions {
		p, ok := byCategory[q.Category]
		if !ok {
			p = &perf{}
			byCategory[q.Category] = p
			order = append(order, q.Category)
		}
		p.total++
		if s.Answers[i] != nil && *s.Answers[i] == q.CorrectAnswer {
			p.correct++
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, cat := range order {
		p := byCategory[cat]
		pct := float64(p.correct) / float64(p.total) * 100
		switch {
		case pct < 60:
			result.WeakAreas = append(result.WeakAreas, displayName(cat))
		case pct >= 80:
			result.StrongAreas = append(result.StrongAreas, displayName(cat))
		}
	}

	result.Recommendations = recommendations(result.ScorePercentage, result.WeakAreas)
	return result
}

// recommendations maps the score into one of four bands and appends the
// weak-area listing
func recommendations(scorePercentage float64, weakAreas []string) []string {
	var recs []string
	switch {
	case scorePercentage < 40:
		recs = append(recs,
			"Focus on fundamental concepts and start with basic topics.",
			"Spend more time on practice questions daily.")
	case scorePercentage < 60:
		recs = append(recs,
			"Good progress! Focus on weak areas for improvement.",
			"Practice time management for better performance.")
	case scorePercentage < 80:
		recs = append(recs,
			"Excellent work! Fine-tune your weak areas.",
			"Work on balancing speed and accuracy.")
	default:
		recs = append(recs,
			"Outstanding performance! Keep up the excellent work.",
			"Consider attempting harder difficulty levels.")
	}
	if len(weakAreas) > 0 {
		recs = append(recs, "Focus areas: "+strings.Join(weakAreas, ", "))
	}
	return recs
}

// recordOutcome feeds every answered question into spaced repetition and
// persists the result. Quiz answers are themselves spaced-repetition items:
// a correct answer counts as grade 5, an incorrect one as grade 2.
func (m *Manager) recordOutcome(s *models.QuizSession, result *models.QuizResult) error {
	now := m.now()

	progress, err := m.store.LoadProgress(s.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var failed []string
	for i, q := range s.Questions {
		grade := 2
		if s.Answers[i] != nil && *s.Answers[i] == q.CorrectAnswer {
			grade = 5
		}

		record, ok := progress[q.ID]
		rec := &record
		if !ok {
			rec = m.sm2.InitializeItem(q.ID, q.Category.ItemType(), now)
		}

		responseTime := 0.0
		if i < len(s.TimePerQuestion) {
			responseTime = s.TimePerQuestion[i]
		}
		updated, err := m.sm2.UpdateProgress(rec, grade, responseTime, now)
		if err != nil {
			return err
		}
		if err := m.store.SaveProgress(s.UserID, updated); err != nil {
			failed = append(failed, q.ID)
		}
	}

	if err := m.store.SaveQuizResult(result); err != nil {
		failed = append(failed, "result")
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrPersistence, strings.Join(failed, ", "))
	}
	return nil
}

// displayName renders a category for user-facing listings
// ("general_awareness" -> "General Awareness")
func displayName(c models.Category) string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func newSessionID(userID int64, now time.Time) string {
	return fmt.Sprintf("quiz_%d_%s_%s", userID, now.Format("20060102_150405"), uuid.NewString()[:8])
}
