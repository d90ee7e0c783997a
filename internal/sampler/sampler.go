package sampler

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/maltedev/motor-catalog-collector/internal/models"
)

// Dedupe keeps one entry per code. The last occurrence of a code wins; the
// output is ordered by each code's first appearance.
func Dedupe(entries []models.RawProductEntry) ([]models.RawProductEntry, error) {
	position := make(map[string]int, len(entries))
	unique := make([]models.RawProductEntry, 0, len(entries))

	for i, entry := range entries {
		code, ok := entry.Code()
		if !ok {
			return nil, fmt.Errorf("entry %d: %w", i, models.ErrMissingCode)
		}

		if pos, seen := position[code]; seen {
			unique[pos] = entry
			continue
		}

		position[code] = len(unique)
		unique = append(unique, entry)
	}

	return unique, nil
}

type Sampler struct {
	rand *rand.Rand
}

// New returns a Sampler drawing from src. Pass a seeded source for
// reproducible samples.
func New(src rand.Source) *Sampler {
	return &Sampler{rand: rand.New(src)}
}

func NewDefault() *Sampler {
	now := uint64(time.Now().UnixNano())
	return New(rand.NewPCG(now, now>>17|1))
}

// Sample picks min(k, len(entries)) entries uniformly at random without
// replacement. The input slice is not modified.
func (s *Sampler) Sample(entries []models.RawProductEntry, k int) []models.RawProductEntry {
	if k <= 0 || len(entries) == 0 {
		return []models.RawProductEntry{}
	}
	if k > len(entries) {
		k = len(entries)
	}

	pool := make([]models.RawProductEntry, len(entries))
	copy(pool, entries)

	for i := 0; i < k; i++ {
		j := i + s.rand.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:k]
}
