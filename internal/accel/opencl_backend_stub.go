//go:build !opencl
// +build !opencl

package accel

import (
	"errors"

	"go.uber.org/zap"
)

// ErrOpenCLNotBuilt reports a binary compiled without OpenCL support.
var ErrOpenCLNotBuilt = errors.New("opencl support requires building with '-tags opencl'")

// OpenCLBackend is a stub type when OpenCL support is not compiled in.
type OpenCLBackend struct {
	logger *zap.Logger
}

func NewOpenCLBackend(logger *zap.Logger) *OpenCLBackend {
	return &OpenCLBackend{logger: logger}
}

func (b *OpenCLBackend) Name() string { return "opencl" }

func (b *OpenCLBackend) Available() bool { return false }

func (b *OpenCLBackend) Initialize() error { return ErrOpenCLNotBuilt }

func (b *OpenCLBackend) Platforms() ([]Platform, error) { return nil, ErrOpenCLNotBuilt }

func (b *OpenCLBackend) Cleanup() error { return nil }
