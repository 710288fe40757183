//go:build !opencl
// +build !opencl

package accel

// tryCreateOpenCLBackend returns nil when the opencl build tag is NOT
// present.
func (m *Manager) tryCreateOpenCLBackend() Backend {
	return nil
}
