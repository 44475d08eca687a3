package system

import (
	"time"

	coresys "github.com/runnerlab/terrainstream/internal/core/system"
	"github.com/runnerlab/terrainstream/internal/world"
)

// CameraSystem scrolls the shared camera by one tick's worth of movement
// before any lane samples it. Phase 0 (Input).
type CameraSystem struct {
	cam *world.ScrollCamera
}

func NewCameraSystem(cam *world.ScrollCamera) *CameraSystem {
	return &CameraSystem{cam: cam}
}

func (s *CameraSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CameraSystem) Update(dt time.Duration) {
	s.cam.Advance(dt)
}
