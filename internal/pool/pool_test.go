package pool

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type segment struct {
	template string
	serial   int
}

func newCountingPool() (*Pool[segment], *int) {
	built := 0
	p := New[segment](func(key string) segment {
		built++
		return segment{template: key, serial: built}
	}, nil)
	return p, &built
}

func assertConserved(t *testing.T, p *Pool[segment], key string) {
	t.Helper()
	st := p.Stats(key)
	assert.Equal(t, st.Constructed, st.Active+st.Pooled, "conservation for %q", key)
	assert.Equal(t, st.Pooled, len(p.free[key]))
}

func TestAcquireConstructsOnEmptyBucket(t *testing.T) {
	p, built := newCountingPool()

	inst := p.Acquire("flat")
	require.NotNil(t, inst)
	assert.Equal(t, "flat", inst.Key())
	assert.True(t, inst.Active())
	assert.Equal(t, "flat", inst.Value.template)
	assert.Equal(t, 1, *built)
	assert.Equal(t, Stats{Constructed: 1, Active: 1}, p.Stats("flat"))
	assertConserved(t, p, "flat")
}

func TestAcquireReleaseCycleConstructsOnce(t *testing.T) {
	p, built := newCountingPool()

	var first *Instance[segment]
	for i := 0; i < 50; i++ {
		inst := p.Acquire("gap")
		if first == nil {
			first = inst
		}
		assert.Same(t, first, inst)
		require.NoError(t, p.Release(inst))
		assertConserved(t, p, "gap")
	}
	assert.Equal(t, 1, *built)
	assert.Equal(t, Stats{Constructed: 1, Pooled: 1}, p.Stats("gap"))
}

func TestReacquiredInstanceIsNeverStillActive(t *testing.T) {
	p, _ := newCountingPool()

	a := p.Acquire("hill")
	b := p.Acquire("hill")
	require.NoError(t, p.Release(a))

	c := p.Acquire("hill")
	assert.Same(t, a, c)
	assert.NotSame(t, b, c)
	assert.True(t, c.Active())
	assert.Empty(t, p.free["hill"])
	assertConserved(t, p, "hill")
}

func TestBucketsAreKeyedByTemplate(t *testing.T) {
	p, built := newCountingPool()

	a := p.Acquire("a")
	require.NoError(t, p.Release(a))

	b := p.Acquire("b")
	assert.NotSame(t, a, b)
	assert.Equal(t, "b", b.Key())
	assert.Equal(t, 2, *built)
	assert.Equal(t, 1, p.Stats("a").Pooled)
	assert.ElementsMatch(t, []string{"a", "b"}, p.Keys())
	assert.Equal(t, Stats{Constructed: 2, Active: 1, Pooled: 1}, p.Totals())
}

func TestDoubleReleaseRejected(t *testing.T) {
	p, _ := newCountingPool()

	inst := p.Acquire("spike")
	require.NoError(t, p.Release(inst))
	after := p.Stats("spike")

	err := p.Release(inst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRelease))

	var ire *InvalidReleaseError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, "spike", ire.Key)
	assert.Equal(t, inst.ID(), ire.ID)

	assert.Equal(t, after, p.Stats("spike"))
	assert.Len(t, p.free["spike"], 1)
}

func TestForeignReleaseRejected(t *testing.T) {
	p, _ := newCountingPool()
	other, _ := newCountingPool()

	foreign := other.Acquire("flat")
	err := p.Release(foreign)
	assert.ErrorIs(t, err, ErrInvalidRelease)
	assert.Equal(t, Stats{}, p.Stats("flat"))
	assert.True(t, foreign.Active())

	assert.ErrorIs(t, p.Release(nil), ErrInvalidRelease)
}

func TestConstructedNeverDecreases(t *testing.T) {
	p, _ := newCountingPool()

	var live []*Instance[segment]
	prev := 0
	for round := 0; round < 5; round++ {
		for i := 0; i < round+2; i++ {
			live = append(live, p.Acquire("k"))
		}
		for len(live) > 1 {
			require.NoError(t, p.Release(live[len(live)-1]))
			live = live[:len(live)-1]
		}
		st := p.Stats("k")
		assert.GreaterOrEqual(t, st.Constructed, prev)
		prev = st.Constructed
		assertConserved(t, p, "k")
	}
}

func TestMetricsTrackReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	p, _ := newCountingPool()
	p.WithMetrics(m, "main")

	inst := p.Acquire("flat")
	require.NoError(t, p.Release(inst))
	p.Acquire("flat")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.constructed.WithLabelValues("main", "flat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reused.WithLabelValues("main", "flat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.released.WithLabelValues("main", "flat")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pooled.WithLabelValues("main", "flat")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}
