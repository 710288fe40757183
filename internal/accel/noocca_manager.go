//go:build !occa
// +build !occa

package accel

// tryCreateOCCABackend returns nil when the occa build tag is NOT present.
func (m *Manager) tryCreateOCCABackend() Backend {
	return nil
}
