package acquire

import (
	"errors"
	"sync"
)

var (
	// ErrCameraNotGranted indicates capture was attempted before the
	// permission result was reported.
	ErrCameraNotGranted = errors.New("camera permission has not been granted")

	// ErrCameraDenied indicates a recorded denial. Denial is terminal for
	// the session: the gate never asks again.
	ErrCameraDenied = errors.New("camera permission denied")
)

type cameraState int

const (
	cameraUnasked cameraState = iota
	cameraGranted
	cameraDenied
)

// CameraGate records the outcome of the one camera permission prompt.
// Once a denial is reported every later capture fails locally, so the user
// is never re-prompted within the session.
type CameraGate struct {
	mu    sync.Mutex
	state cameraState
}

// Report records the permission prompt outcome. A denial is sticky: a later
// grant report is ignored until the session is recreated, mirroring
// browser-level permission persistence.
func (g *CameraGate) Report(granted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == cameraDenied {
		return
	}
	if granted {
		g.state = cameraGranted
	} else {
		g.state = cameraDenied
	}
}

// Check returns nil when capture is allowed, ErrCameraDenied after a
// recorded denial, and ErrCameraNotGranted before any report.
func (g *CameraGate) Check() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case cameraGranted:
		return nil
	case cameraDenied:
		return ErrCameraDenied
	default:
		return ErrCameraNotGranted
	}
}

// Denied reports whether the terminal denial state was reached.
func (g *CameraGate) Denied() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == cameraDenied
}
