//go:build !occa
// +build !occa

package accel

import (
	"errors"

	"go.uber.org/zap"
)

// ErrOCCANotBuilt reports a binary compiled without OCCA support.
var ErrOCCANotBuilt = errors.New("occa support requires building with '-tags occa'")

// OCCABackend is a stub type when OCCA support is not compiled in.
type OCCABackend struct {
	logger *zap.Logger
}

func NewOCCABackend(logger *zap.Logger) *OCCABackend {
	return &OCCABackend{logger: logger}
}

func (b *OCCABackend) Name() string { return "occa" }

func (b *OCCABackend) Available() bool { return false }

func (b *OCCABackend) Initialize() error { return ErrOCCANotBuilt }

func (b *OCCABackend) Platforms() ([]Platform, error) { return nil, ErrOCCANotBuilt }

func (b *OCCABackend) Cleanup() error { return nil }
