package accel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager handles backend selection and lifecycle. Candidates are probed in
// priority order: opencl, then occa, then the simulator. The simulator is
// always compiled in, so selection cannot come up empty unless a specific
// backend was requested.
type Manager struct {
	backend Backend
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewManager creates a manager and selects a backend. preferred names the
// backend to use ("opencl", "occa", "sim"); empty means pick the first
// available.
func NewManager(logger *zap.Logger, preferred string) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{logger: logger}
	if err := m.selectAndInitialize(preferred); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) selectAndInitialize(preferred string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, candidate := range m.candidates() {
		if preferred != "" && candidate.Name() != preferred {
			continue
		}
		if !candidate.Available() {
			if preferred != "" {
				return fmt.Errorf("backend %q is not available in this build", preferred)
			}
			continue
		}
		if err := candidate.Initialize(); err != nil {
			if preferred != "" {
				return fmt.Errorf("initialize backend %q: %w", preferred, err)
			}
			m.logger.Warn("backend failed to initialize, trying next",
				zap.String("backend", candidate.Name()), zap.Error(err))
			_ = candidate.Cleanup()
			continue
		}
		m.backend = candidate
		m.logger.Info("backend selected", zap.String("backend", candidate.Name()))
		return nil
	}

	if preferred != "" {
		if KnownBackend(preferred) {
			return fmt.Errorf("backend %q not built into this binary", preferred)
		}
		return fmt.Errorf("unknown backend %q", preferred)
	}
	return fmt.Errorf("no usable backend")
}

// KnownBackend reports whether name is a backend this codebase can provide,
// compiled in or not.
func KnownBackend(name string) bool {
	switch name {
	case "opencl", "occa", "sim":
		return true
	}
	return false
}

// candidates returns every compiled-in backend in priority order. The
// tagged tryCreate constructors return nil when their runtime was not built
// in.
func (m *Manager) candidates() []Backend {
	var out []Backend
	if b := m.tryCreateOpenCLBackend(); b != nil {
		out = append(out, b)
	}
	if b := m.tryCreateOCCABackend(); b != nil {
		out = append(out, b)
	}
	out = append(out, NewSimBackend(m.logger))
	return out
}

// Backend returns the selected backend.
func (m *Manager) Backend() Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backend
}

// BackendName returns the selected backend name, or "none".
func (m *Manager) BackendName() string {
	b := m.Backend()
	if b == nil {
		return "none"
	}
	return b.Name()
}

// IsAccelerated reports whether a hardware runtime was selected rather than
// the simulator.
func (m *Manager) IsAccelerated() bool {
	b := m.Backend()
	if b == nil {
		return false
	}
	_, isSim := b.(*SimBackend)
	return !isSim
}

// DeviceInfos enumerates every device of every platform of the selected
// backend.
func (m *Manager) DeviceInfos() ([]DeviceInfo, error) {
	b := m.Backend()
	if b == nil {
		return nil, fmt.Errorf("no backend available")
	}
	platforms, err := b.Platforms()
	if err != nil {
		return nil, err
	}
	var infos []DeviceInfo
	for _, p := range platforms {
		devices, err := p.Devices(DeviceAll)
		if err != nil {
			continue
		}
		for _, d := range devices {
			infos = append(infos, d.Info())
		}
	}
	return infos, nil
}

// Cleanup releases the selected backend.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		if err := m.backend.Cleanup(); err != nil {
			return err
		}
		m.backend = nil
	}
	return nil
}
