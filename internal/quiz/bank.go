package quiz

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/example/prepbot/pkg/models"
)

// Bank holds the immutable question corpus grouped by category. Questions
// are validated on the way in; a served question never changes afterwards.
type Bank struct {
	mu         sync.RWMutex
	byCategory map[models.Category][]models.QuizQuestion
	byID       map[string]models.QuizQuestion
}

// NewBank creates an empty question bank
func NewBank() *Bank {
	return &Bank{
		byCategory: make(map[models.Category][]models.QuizQuestion),
		byID:       make(map[string]models.QuizQuestion),
	}
}

// Add validates and stores a question. Duplicate ids are rejected.
func (b *Bank) Add(q models.QuizQuestion) error {
	if err := q.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.byID[q.ID]; exists {
		return fmt.Errorf("duplicate question id %s", q.ID)
	}
	b.byID[q.ID] = q
	b.byCategory[q.Category] = append(b.byCategory[q.Category], q)
	return nil
}

// AddAll adds questions one by one and returns the number stored plus the
// validation errors of the rejected ones
func (b *Bank) AddAll(questions []models.QuizQuestion) (int, []error) {
	var errs []error
	added := 0
	for _, q := range questions {
		if err := b.Add(q); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
	}
	return added, errs
}

// Len returns the total number of questions in the bank
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}

// Get returns a question by id
func (b *Bank) Get(id string) (models.QuizQuestion, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.byID[id]
	return q, ok
}

// Select picks count questions for a quiz: first the questions matching the
// requested category (every category for mixed) and exact difficulty, then,
// if those do not suffice, a backfill from the rest of the bank regardless
// of difficulty. Sampling is uniform without replacement. Returns
// ErrInsufficientQuestions when the bank is empty for the request.
func (b *Bank) Select(category models.Category, difficulty models.Difficulty, count int, rng *rand.Rand) ([]models.QuizQuestion, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var pool []models.QuizQuestion
	inPool := make(map[string]bool)
	appendMatch := func(q models.QuizQuestion) {
		pool = append(pool, q)
		inPool[q.ID] = true
	}

	if category == models.Mixed {
		for _, questions := range b.byCategory {
			for _, q := range questions {
				if q.Difficulty == difficulty {
					appendMatch(q)
				}
			}
		}
	} else {
		for _, q := range b.byCategory[category] {
			if q.Difficulty == difficulty {
				appendMatch(q)
			}
		}
	}

	if len(pool) < count {
		for _, questions := range b.byCategory {
			for _, q := range questions {
				if !inPool[q.ID] {
					appendMatch(q)
				}
			}
		}
	}

	if len(pool) == 0 {
		return nil, ErrInsufficientQuestions
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool, nil
}

// RandomQuestions returns up to count random questions, optionally limited
// to the given categories. Used for daily practice broadcasts.
func (b *Bank) RandomQuestions(count int, categories []models.Category, rng *rand.Rand) []models.QuizQuestion {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var wanted map[models.Category]bool
	if len(categories) > 0 {
		wanted = make(map[models.Category]bool, len(categories))
		for _, c := range categories {
			wanted[c] = true
		}
	}

	var pool []models.QuizQuestion
	for cat, questions := range b.byCategory {
		if wanted != nil && !wanted[cat] {
			continue
		}
		pool = append(pool, questions...)
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}
