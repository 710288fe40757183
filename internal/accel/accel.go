// Package accel defines the boundary between the host program and a compute
// accelerator. It models the accelerator the way the OpenCL runtime exposes
// it: platforms contain devices, a device owns contexts, and a context owns
// command queues, memory buffers, programs and kernels. Backends implement
// the model over a real runtime (OpenCL, OCCA) or over the in-process
// simulator, and the Manager selects between them at startup.
package accel

// DeviceType classifies a compute device.
type DeviceType string

const (
	DeviceCPU         DeviceType = "cpu"
	DeviceGPU         DeviceType = "gpu"
	DeviceAccelerator DeviceType = "accelerator"
	// DeviceAll matches every device a platform exposes.
	DeviceAll DeviceType = "all"
)

// MemFlag declares how a kernel accesses a buffer. The flags describe intent;
// backends may use them for placement but are not required to fault on
// mismatched access.
type MemFlag uint32

const (
	MemReadWrite MemFlag = 1 << iota
	MemReadOnly
	MemWriteOnly
)

func (f MemFlag) String() string {
	switch f {
	case MemReadWrite:
		return "read-write"
	case MemReadOnly:
		return "read-only"
	case MemWriteOnly:
		return "write-only"
	}
	return "unknown"
}

// DeviceInfo describes a compute device for selection, logging and the
// devices listing.
type DeviceInfo struct {
	Name             string     `json:"name"`
	Vendor           string     `json:"vendor"`
	Version          string     `json:"version"`
	Type             DeviceType `json:"type"`
	ComputeUnits     int        `json:"computeUnits"`
	MaxWorkGroupSize int        `json:"maxWorkGroupSize"`
	GlobalMemory     int64      `json:"globalMemory"` // in bytes
}

// Backend is a compute runtime the offload pipeline can run against.
//
// Implementation notes:
//   - Available must be a cheap probe without heavy initialization; the
//     Manager uses it to pick a backend.
//   - Initialize is called once before first use and Cleanup once after
//     last use.
//   - A Backend must tolerate concurrent use of distinct contexts. Objects
//     created from one context are not safe for concurrent use unless the
//     backend documents otherwise.
type Backend interface {
	// Name identifies the backend ("opencl", "occa", "sim").
	Name() string

	// Available reports whether the runtime can be used in this process.
	Available() bool

	// Initialize prepares the backend for use.
	Initialize() error

	// Platforms enumerates the compute platforms the runtime exposes.
	// An empty result is reported as an error wrapping ErrPlatformUnavailable.
	Platforms() ([]Platform, error)

	// Cleanup releases everything the backend holds.
	Cleanup() error
}

// Platform is a vendor implementation of the runtime, grouping devices.
type Platform interface {
	Name() string
	Vendor() string

	// Devices lists the platform devices matching t.
	// An empty result is reported as an error wrapping ErrDeviceUnavailable.
	Devices(t DeviceType) ([]Device, error)
}

// Device is a single compute device on a platform.
type Device interface {
	Name() string
	Info() DeviceInfo

	// CreateContext opens a resource scope on the device. Failures wrap
	// ErrContextCreation.
	CreateContext() (Context, error)
}

// Context owns queues, buffers and programs created on one device.
type Context interface {
	// CreateQueue creates an in-order command queue. Commands complete in
	// submission order; there is no out-of-order execution.
	CreateQueue() (Queue, error)

	// CreateBuffer allocates size bytes of device memory.
	CreateBuffer(flags MemFlag, size int64) (Buffer, error)

	// CreateProgram wraps kernel source text. The program is not compiled
	// until Build is called.
	CreateProgram(source string) (Program, error)

	// Release frees the context. Objects already created from it stay
	// valid until released themselves.
	Release() error
}

// Queue is an in-order command queue. Enqueued commands execute in FIFO
// order. A command that faults during execution poisons the queue: the
// failure surfaces at the next blocking operation or Finish, and every
// later submission fails with the same error.
type Queue interface {
	// EnqueueWrite copies len(data) bytes from host memory into b starting
	// at offset zero. With blocking set the call returns after the copy
	// completed; otherwise it returns once the command is queued and data
	// must stay untouched until the queue drains. Failures wrap
	// ErrBufferAllocation.
	EnqueueWrite(b Buffer, data []byte, blocking bool) error

	// EnqueueRead copies len(data) bytes from b into host memory. With
	// blocking set, data holds the result when the call returns. Failures
	// wrap ErrReadback.
	EnqueueRead(b Buffer, data []byte, blocking bool) error

	// EnqueueNDRange launches k over a 1-D index space of global work-items
	// grouped into work-groups of local items. global[0] must be divisible
	// by local[0]. Failures wrap ErrLaunch.
	EnqueueNDRange(k Kernel, global, local []int) error

	// Finish blocks until every enqueued command has completed and returns
	// the queue error if a command faulted.
	Finish() error

	Release() error
}

// Buffer is a region of device memory.
type Buffer interface {
	Size() int64
	Flags() MemFlag
	Release() error
}

// Program is kernel source bound to one context.
type Program interface {
	// Build compiles the source for the context device. On failure the
	// returned error unwraps to ErrCompile and carries the compiler
	// diagnostics as a *BuildError.
	Build() error

	// BuildLog returns the diagnostics of the last Build, empty when the
	// build succeeded or never ran.
	BuildLog() string

	// CreateKernel instantiates the named entry point of a built program.
	// Failures wrap ErrKernelCreation.
	CreateKernel(name string) (Kernel, error)

	Release() error
}

// Kernel is a callable entry point with positional arguments.
type Kernel interface {
	Name() string

	// SetArg binds arg to position index. Buffers are bound by reference;
	// scalar values are captured at bind time. Failures wrap
	// ErrArgumentBinding.
	SetArg(index int, arg any) error

	Release() error
}
