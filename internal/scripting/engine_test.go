package scripting

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/runnerlab/terrainstream/internal/data"
	"github.com/runnerlab/terrainstream/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templates(t *testing.T) []*data.Template {
	t.Helper()
	c, err := data.NewTemplateCatalog([]data.Template{{Key: "flat"}, {Key: "gap"}, {Key: "hill"}}, nil)
	require.NoError(t, err)
	return c.All()
}

func TestScriptChoosesByKey(t *testing.T) {
	s, err := NewSelectorFromSource(`
function select_template(keys, slot)
  if slot % 4 == 3 then
    return "gap"
  end
  return keys[1]
end
`, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	defer s.Close()

	tpls := templates(t)
	var got []string
	for slot := int64(0); slot < 8; slot++ {
		got = append(got, s.Select(tpls, slot).Key)
	}
	assert.Equal(t, []string{"flat", "flat", "flat", "gap", "flat", "flat", "flat", "gap"}, got)
	assert.Zero(t, s.Fallbacks())
}

func TestScriptChoosesByIndexWithSeededRand(t *testing.T) {
	src := `function select_template(keys, slot) return terrain_rand(#keys) end`
	a, err := NewSelectorFromSource(src, rand.New(rand.NewSource(5)), nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSelectorFromSource(src, rand.New(rand.NewSource(5)), nil)
	require.NoError(t, err)
	defer b.Close()

	tpls := templates(t)
	for slot := int64(0); slot < 20; slot++ {
		assert.Same(t, a.Select(tpls, slot), b.Select(tpls, slot))
	}
	assert.Zero(t, a.Fallbacks())
}

func TestBadResultsFallBack(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing function", `x = 1`},
		{"unknown key", `function select_template() return "lava" end`},
		{"index out of range", `function select_template() return 9 end`},
		{"wrong type", `function select_template() return {} end`},
		{"runtime error", `function select_template() error("boom") end`},
	}
	tpls := templates(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSelectorFromSource(tt.src, rand.New(rand.NewSource(3)), nil)
			require.NoError(t, err)
			defer s.Close()

			got := s.Select(tpls, 0)
			require.NotNil(t, got)
			assert.Contains(t, tpls, got)
			assert.Equal(t, 1, s.Fallbacks())
		})
	}
}

func TestNewSelectorFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "select.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function select_template(keys) return keys[#keys] end`), 0o644))

	s, err := NewSelector(path, nil, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "hill", s.Select(templates(t), 0).Key)

	_, err = NewSelector(filepath.Join(t.TempDir(), "missing.lua"), nil, nil)
	assert.Error(t, err)

	_, err = NewSelectorFromSource(`function (`, nil, nil)
	assert.Error(t, err)
}

func TestSelectorDrivesTracker(t *testing.T) {
	c, err := data.NewTemplateCatalog([]data.Template{{Key: "flat"}, {Key: "gap"}}, []string{"flat"})
	require.NoError(t, err)
	s, err := NewSelectorFromSource(`function select_template(keys, slot) return "gap" end`, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	lane, err := world.NewLane(world.TrackerConfig{Lane: "main", SegmentWidth: 1}, world.LaneOptions{
		Catalog:  c,
		Viewport: world.NewScrollCamera(0, 4, 0),
		Selector: s,
	})
	require.NoError(t, err)

	var keys []string
	for _, seg := range lane.Tracker.Placements() {
		keys = append(keys, seg.Key())
	}
	assert.Equal(t, []string{"flat", "gap", "gap", "gap"}, keys)
}
