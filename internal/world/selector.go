package world

import (
	"math/rand"

	"github.com/runnerlab/terrainstream/internal/data"
)

// Selector picks the template for the next slot from a non-empty set.
// slot is the quantized index of the position being filled.
type Selector interface {
	Select(templates []*data.Template, slot int64) *data.Template
}

// RandomSelector is the default policy: a uniform choice over the full set.
type RandomSelector struct {
	rng *rand.Rand
}

// NewRandomSelector uses rng, or a time-seeded source when rng is nil.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &RandomSelector{rng: rng}
}

func (s *RandomSelector) Select(templates []*data.Template, _ int64) *data.Template {
	return templates[s.rng.Intn(len(templates))]
}

// CycleSelector walks the set in catalog order, keyed on the slot index.
// Used for deterministic demo streams and tests.
type CycleSelector struct{}

func (CycleSelector) Select(templates []*data.Template, slot int64) *data.Template {
	n := int64(len(templates))
	return templates[((slot%n)+n)%n]
}
