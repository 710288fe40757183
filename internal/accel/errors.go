package accel

import (
	"errors"
	"fmt"
)

// Sentinel errors for each stage of the offload pipeline. Backends wrap these
// with runtime detail; callers classify failures with errors.Is.
var (
	ErrPlatformUnavailable = errors.New("no compute platform available")
	ErrDeviceUnavailable   = errors.New("no compute device available")
	ErrContextCreation     = errors.New("context creation failed")
	ErrQueueCreation       = errors.New("command queue creation failed")
	ErrBufferAllocation    = errors.New("buffer allocation failed")
	ErrCompile             = errors.New("program build failed")
	ErrKernelCreation      = errors.New("kernel creation failed")
	ErrArgumentBinding     = errors.New("kernel argument binding failed")
	ErrLaunch              = errors.New("kernel launch failed")
	ErrReadback            = errors.New("device readback failed")
	ErrReleased            = errors.New("object already released")
)

// BuildError reports a failed program compilation. Log carries the compiler
// diagnostics verbatim; the host does not interpret them.
type BuildError struct {
	Device string
	Log    string
}

func (e *BuildError) Error() string {
	if e.Device == "" {
		return "program build failed"
	}
	return fmt.Sprintf("program build failed on %s", e.Device)
}

func (e *BuildError) Unwrap() error { return ErrCompile }
