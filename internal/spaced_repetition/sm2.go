package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/prepbot/pkg/models"
)

// SM2 implements a SuperMemo-2 derived algorithm with explicit learning
// stages. All methods are pure computations over the inputs; callers own
// locking and persistence.
type SM2 struct {
	// Минимальная оценка, которая считается успешным ответом
	PassThreshold int
	// Easiness factor floor per SM-2
	EaseFloor float64
	// Easiness factor assigned to freshly initialized items
	DefaultEase float64
	// Interval (days) at which an item graduates to mastered
	MasteryThreshold float64
	// Learning phase step sizes in minutes
	LearningSteps []float64
	// Interval (days) granted on graduating the learning phase
	GraduationInterval float64
	// Multiplier applied to the interval on a grade-5 answer
	EasyBonus float64
}

// New creates an SM2 scheduler with the default parameters
func New() *SM2 {
	return &SM2{
		PassThreshold:      3,
		EaseFloor:          1.3,
		DefaultEase:        2.5,
		MasteryThreshold:   21,
		LearningSteps:      []float64{1, 10},
		GraduationInterval: 1,
		EasyBonus:          1.3,
	}
}

// Result is the scheduling outcome of a single review
type Result struct {
	Interval     float64 // Days until next review
	EaseFactor   float64
	Repetitions  int
	Stage        models.LearningStage
	NextReviewAt time.Time
}

// branchKey identifies one cell of the (outcome, stage) branch matrix
type branchKey struct {
	pass  bool
	stage models.LearningStage
}

// branchFunc computes the scheduling outcome for one branch. It receives the
// pre-review state and must not mutate the record.
type branchFunc func(sm *SM2, rec *models.ProgressRecord, grade int) Result

// branches keeps the branch matrix auditable cell by cell instead of
// burying it in nested conditionals. Fail branches win over stage dispatch:
// ComputeNext selects on (grade >= PassThreshold, stage).
var branches = map[branchKey]branchFunc{
	{pass: false, stage: models.StageNew}:      (*SM2).failFromNew,
	{pass: false, stage: models.StageLearning}: (*SM2).failFromLater,
	{pass: false, stage: models.StageReview}:   (*SM2).failFromLater,
	{pass: false, stage: models.StageMastered}: (*SM2).failFromLater,
	{pass: true, stage: models.StageNew}:       (*SM2).passFromNew,
	{pass: true, stage: models.StageLearning}:  (*SM2).passFromLearning,
	{pass: true, stage: models.StageReview}:    (*SM2).passFromReview,
	{pass: true, stage: models.StageMastered}:  (*SM2).passFromReview,
}

// ComputeNext applies one review with the given grade (0-5) to the record's
// current state and returns the next interval, ease factor, repetition count,
// stage and review time. The record itself is left untouched.
func (sm *SM2) ComputeNext(rec *models.ProgressRecord, grade int, now time.Time) (Result, error) {
	if grade < 0 || grade > 5 {
		return Result{}, ErrInvalidGrade
	}
	stage := rec.Stage
	if !stage.IsValid() {
		stage = models.StageNew
	}
	branch := branches[branchKey{pass: grade >= sm.PassThreshold, stage: stage}]
	result := branch(sm, rec, grade)
	result.NextReviewAt = now.Add(daysToDuration(result.Interval))
	return result, nil
}

// failFromNew handles a failed recall of an item never answered correctly:
// the item enters the learning phase at the first sub-day step.
func (sm *SM2) failFromNew(rec *models.ProgressRecord, grade int) Result {
	return Result{
		Interval:    sm.firstLearningStep(),
		EaseFactor:  math.Max(rec.EaseFactor-0.2, sm.EaseFloor),
		Repetitions: 0,
		Stage:       models.StageLearning,
	}
}

// failFromLater handles a failed recall from any later stage: demote to
// learning, reset repetitions and penalize the ease factor.
func (sm *SM2) failFromLater(rec *models.ProgressRecord, grade int) Result {
	return Result{
		Interval:    1,
		EaseFactor:  math.Max(rec.EaseFactor-0.2, sm.EaseFloor),
		Repetitions: 0,
		Stage:       models.StageLearning,
	}
}

// passFromNew moves a freshly exposed item into the learning phase.
// The ease factor is not adjusted until the item graduates.
func (sm *SM2) passFromNew(rec *models.ProgressRecord, grade int) Result {
	return Result{
		Interval:    sm.firstLearningStep(),
		EaseFactor:  rec.EaseFactor,
		Repetitions: rec.Repetitions + 1,
		Stage:       models.StageLearning,
	}
}

// passFromLearning advances through the configured learning steps and
// graduates to the review phase once they are exhausted.
func (sm *SM2) passFromLearning(rec *models.ProgressRecord, grade int) Result {
	reps := rec.Repetitions + 1
	if reps >= len(sm.LearningSteps) {
		return Result{
			Interval:    sm.GraduationInterval,
			EaseFactor:  rec.EaseFactor,
			Repetitions: reps,
			Stage:       models.StageReview,
		}
	}
	return Result{
		Interval:    sm.LearningSteps[reps-1] / (24 * 60),
		EaseFactor:  rec.EaseFactor,
		Repetitions: reps,
		Stage:       models.StageLearning,
	}
}

// passFromReview is the classic SM-2 path: fixed 1 and 6 day intervals for
// the first two post-graduation repetitions, then interval * ease, with the
// easy bonus on grade 5 and promotion to mastered at the threshold.
func (sm *SM2) passFromReview(rec *models.ProgressRecord, grade int) Result {
	reps := rec.Repetitions + 1

	var interval float64
	switch reps {
	case 1:
		interval = 1
	case 2:
		interval = 6
	default:
		interval = math.Ceil(rec.Interval * rec.EaseFactor)
	}
	if grade == 5 {
		interval = math.Ceil(interval * sm.EasyBonus)
	}

	stage := models.StageReview
	if interval >= sm.MasteryThreshold {
		stage = models.StageMastered
	}

	q := float64(grade)
	ease := rec.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	ease = math.Max(ease, sm.EaseFloor)

	return Result{
		Interval:    interval,
		EaseFactor:  ease,
		Repetitions: reps,
		Stage:       stage,
	}
}

func (sm *SM2) firstLearningStep() float64 {
	return sm.LearningSteps[0] / (24 * 60)
}

// InitializeItem creates the progress record for a user's first exposure to
// an item. The item is immediately due.
func (sm *SM2) InitializeItem(itemID string, itemType models.ItemType, now time.Time) *models.ProgressRecord {
	return &models.ProgressRecord{
		ItemID:          itemID,
		ItemType:        itemType,
		Interval:        1,
		EaseFactor:      sm.DefaultEase,
		Repetitions:     0,
		Stage:           models.StageNew,
		NextReviewAt:    now,
		CreatedAt:       now,
		DifficultyLevel: 1.0,
	}
}

// UpdateProgress applies one graded review to a copy of the record and
// returns the updated copy: scheduling state, review counters, bounded
// history and the smoothed difficulty level. responseTime is in seconds,
// 0 when unknown.
func (sm *SM2) UpdateProgress(rec *models.ProgressRecord, grade int, responseTime float64, now time.Time) (*models.ProgressRecord, error) {
	result, err := sm.ComputeNext(rec, grade, now)
	if err != nil {
		return nil, err
	}

	updated := rec.Clone()
	updated.AppendReview(models.ReviewEntry{
		Date:             now,
		Grade:            grade,
		ResponseTime:     responseTime,
		PreviousInterval: rec.Interval,
		NewInterval:      result.Interval,
	})

	updated.Interval = result.Interval
	updated.EaseFactor = result.EaseFactor
	updated.Repetitions = result.Repetitions
	updated.Stage = result.Stage
	updated.NextReviewAt = result.NextReviewAt
	reviewedAt := now
	updated.LastReviewedAt = &reviewedAt
	updated.TotalReviews++
	if grade >= sm.PassThreshold {
		updated.CorrectReviews++
	}

	sm.updateDifficulty(updated)
	return updated, nil
}

// updateDifficulty recomputes the smoothed difficulty level from the
// trailing five grades. Fewer than three history entries leave it unchanged.
func (sm *SM2) updateDifficulty(rec *models.ProgressRecord) {
	if len(rec.History) < 3 {
		return
	}
	recent := rec.History
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	sum := 0.0
	for _, entry := range recent {
		sum += float64(entry.Grade)
	}
	avg := sum / float64(len(recent))

	if avg >= 4.5 {
		rec.DifficultyLevel = math.Max(0.5, rec.DifficultyLevel-0.1)
	} else if avg < 3.0 {
		rec.DifficultyLevel = math.Min(2.0, rec.DifficultyLevel+0.2)
	}
}

// Retention predicts the probability the user still recalls the item,
// from the ease factor and the time since the last review
func (sm *SM2) Retention(rec *models.ProgressRecord, now time.Time) float64 {
	if rec.TotalReviews == 0 {
		return 0.5
	}
	days := 0.0
	if rec.LastReviewedAt != nil {
		days = now.Sub(*rec.LastReviewedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
	}
	retention := rec.EaseFactor / 3.0 * math.Exp(-days/10.0)
	return math.Max(0.1, math.Min(0.95, retention))
}

// DifficultyScore rates how hard an item is for the user on a 0.1-2.0 scale.
// Items with no reviews yet score a moderate 1.0.
func (sm *SM2) DifficultyScore(rec *models.ProgressRecord) float64 {
	if rec.TotalReviews == 0 {
		return 1.0
	}
	difficulty := (1 - rec.Accuracy()) + (3.0-rec.EaseFactor)/2.0
	return math.Max(0.1, math.Min(2.0, difficulty))
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
