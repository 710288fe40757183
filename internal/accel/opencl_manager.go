//go:build opencl
// +build opencl

package accel

// tryCreateOpenCLBackend creates the OpenCL backend when the opencl build
// tag is present.
func (m *Manager) tryCreateOpenCLBackend() Backend {
	return NewOpenCLBackend(m.logger)
}
