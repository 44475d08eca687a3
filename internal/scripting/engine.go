package scripting

import (
	"fmt"
	"math/rand"

	"github.com/runnerlab/terrainstream/internal/data"
	"github.com/runnerlab/terrainstream/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// selectFn is the global a selection script must define:
//
//	function select_template(keys, slot) -> key (string) or index (1-based)
const selectFn = "select_template"

// Selector is a world.Selector backed by a gopher-lua VM. Scripts see the
// candidate keys in catalog order and the slot being filled, and may call
// terrain_rand(n) for a seeded integer in [1, n]. A missing function, a
// script error or an unknown result falls back to a uniform random pick.
//
// Single-goroutine access only (game loop).
type Selector struct {
	vm       *lua.LState
	rng      *rand.Rand
	fallback *world.RandomSelector
	log      *zap.Logger

	keys      *lua.LTable
	keysFor   []*data.Template
	fallbacks int
}

// NewSelector loads the selection script at path.
func NewSelector(path string, rng *rand.Rand, log *zap.Logger) (*Selector, error) {
	s := newSelector(rng, log)
	if err := s.vm.DoFile(path); err != nil {
		s.vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s.log.Debug("loaded lua selector", zap.String("file", path))
	return s, nil
}

// NewSelectorFromSource loads a selection script held in memory.
func NewSelectorFromSource(src string, rng *rand.Rand, log *zap.Logger) (*Selector, error) {
	s := newSelector(rng, log)
	if err := s.vm.DoString(src); err != nil {
		s.vm.Close()
		return nil, fmt.Errorf("load selector source: %w", err)
	}
	return s, nil
}

func newSelector(rng *rand.Rand, log *zap.Logger) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	s := &Selector{
		vm:       vm,
		rng:      rng,
		fallback: world.NewRandomSelector(rng),
		log:      log,
	}
	vm.SetGlobal("terrain_rand", vm.NewFunction(s.luaRand))
	return s
}

// terrain_rand(n) returns an integer in [1, n].
func (s *Selector) luaRand(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 1 {
		L.ArgError(1, "n must be >= 1")
		return 0
	}
	L.Push(lua.LNumber(s.rng.Intn(n) + 1))
	return 1
}

// Select implements world.Selector.
func (s *Selector) Select(templates []*data.Template, slot int64) *data.Template {
	fn := s.vm.GetGlobal(selectFn)
	if fn == lua.LNil {
		return s.fall("lua function select_template not found", slot, templates)
	}

	if err := s.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, s.keyTable(templates), lua.LNumber(slot)); err != nil {
		s.log.Error("lua select_template error", zap.Error(err))
		return s.fall("", slot, templates)
	}

	result := s.vm.Get(-1)
	s.vm.Pop(1)

	switch v := result.(type) {
	case lua.LString:
		key := data.NormalizeKey(string(v))
		for _, t := range templates {
			if t.Key == key {
				return t
			}
		}
		return s.fall(fmt.Sprintf("lua select_template returned unknown key %q", key), slot, templates)
	case lua.LNumber:
		i := int(v)
		if i >= 1 && i <= len(templates) {
			return templates[i-1]
		}
		return s.fall(fmt.Sprintf("lua select_template returned index %d out of range", i), slot, templates)
	default:
		return s.fall("lua select_template returned "+result.Type().String(), slot, templates)
	}
}

// keyTable returns a Lua array of the candidate keys, rebuilt only when the
// template slice changes.
func (s *Selector) keyTable(templates []*data.Template) *lua.LTable {
	if s.keys != nil && sameTemplates(s.keysFor, templates) {
		return s.keys
	}
	t := s.vm.CreateTable(len(templates), 0)
	for _, tpl := range templates {
		t.Append(lua.LString(tpl.Key))
	}
	s.keys = t
	s.keysFor = templates
	return t
}

func sameTemplates(a, b []*data.Template) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Selector) fall(msg string, slot int64, templates []*data.Template) *data.Template {
	if msg != "" {
		s.log.Warn(msg, zap.Int64("slot", slot))
	}
	s.fallbacks++
	return s.fallback.Select(templates, slot)
}

// Fallbacks counts selections that did not come from the script.
func (s *Selector) Fallbacks() int { return s.fallbacks }

// Close releases the Lua VM.
func (s *Selector) Close() {
	s.vm.Close()
}
