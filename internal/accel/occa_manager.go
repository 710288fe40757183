//go:build occa
// +build occa

package accel

// tryCreateOCCABackend creates the OCCA backend when the occa build tag is
// present.
func (m *Manager) tryCreateOCCABackend() Backend {
	return NewOCCABackend(m.logger)
}
