//go:build occa
// +build occa

package accel

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/notargets/gocca"
	"go.uber.org/zap"
)

type occaModeSpec struct {
	mode  string
	props string
	typ   DeviceType
}

// occaModes are probed in preference order. Each available mode is exposed
// as one platform with one device.
var occaModes = []occaModeSpec{
	{"CUDA", `{"mode": "CUDA", "device_id": 0}`, DeviceGPU},
	{"HIP", `{"mode": "HIP", "device_id": 0}`, DeviceGPU},
	{"OpenCL", `{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`, DeviceGPU},
	{"OpenMP", `{"mode": "OpenMP"}`, DeviceCPU},
	{"Serial", `{"mode": "Serial"}`, DeviceCPU},
}

// OCCABackend implements the accelerator boundary over the OCCA runtime
// through gocca. Kernels are OKL source; the index space is handed to the
// kernel as two trailing int arguments, global size then work-group size.
type OCCABackend struct {
	logger      *zap.Logger
	initialized bool

	mu        sync.Mutex
	probed    bool
	available []int // indices into occaModes
}

// NewOCCABackend creates the OCCA backend.
func NewOCCABackend(logger *zap.Logger) *OCCABackend {
	return &OCCABackend{logger: logger}
}

func (b *OCCABackend) Name() string { return "occa" }

func (b *OCCABackend) Available() bool {
	return len(b.availableModes()) > 0
}

func (b *OCCABackend) Initialize() error {
	if b.initialized {
		return nil
	}
	modes := b.availableModes()
	if len(modes) == 0 {
		return fmt.Errorf("%w: no occa mode usable", ErrPlatformUnavailable)
	}
	b.initialized = true
	names := make([]string, 0, len(modes))
	for _, i := range modes {
		names = append(names, occaModes[i].mode)
	}
	b.logger.Info("occa backend initialized", zap.Strings("modes", names))
	return nil
}

func (b *OCCABackend) Cleanup() error {
	b.initialized = false
	return nil
}

// availableModes probes each OCCA mode once by creating and freeing a
// device.
func (b *OCCABackend) availableModes() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.probed {
		return b.available
	}
	b.probed = true
	for i, m := range occaModes {
		dev, err := gocca.NewDevice(m.props)
		if err != nil {
			continue
		}
		dev.Free()
		b.available = append(b.available, i)
	}
	return b.available
}

func (b *OCCABackend) Platforms() ([]Platform, error) {
	modes := b.availableModes()
	if len(modes) == 0 {
		return nil, fmt.Errorf("%w: no occa mode usable", ErrPlatformUnavailable)
	}
	platforms := make([]Platform, 0, len(modes))
	for _, i := range modes {
		platforms = append(platforms, &occaPlatform{spec: occaModes[i]})
	}
	return platforms, nil
}

type occaPlatform struct {
	spec occaModeSpec
}

func (p *occaPlatform) Name() string   { return "OCCA/" + p.spec.mode }
func (p *occaPlatform) Vendor() string { return "OCCA" }

func (p *occaPlatform) Devices(t DeviceType) ([]Device, error) {
	if t != DeviceAll && t != p.spec.typ {
		return nil, fmt.Errorf("%w: platform %s has no %s device", ErrDeviceUnavailable, p.Name(), t)
	}
	return []Device{&occaDevice{spec: p.spec}}, nil
}

type occaDevice struct {
	spec occaModeSpec
}

func (d *occaDevice) Name() string {
	return fmt.Sprintf("OCCA %s device", d.spec.mode)
}

func (d *occaDevice) Info() DeviceInfo {
	info := DeviceInfo{
		Name:             d.Name(),
		Vendor:           "OCCA",
		Version:          d.spec.mode,
		Type:             d.spec.typ,
		MaxWorkGroupSize: 1024,
	}
	if d.spec.typ == DeviceCPU {
		info.ComputeUnits = runtime.NumCPU()
	}
	return info
}

func (d *occaDevice) CreateContext() (Context, error) {
	dev, err := gocca.NewDevice(d.spec.props)
	if err != nil {
		return nil, fmt.Errorf("%w: occa %s: %v", ErrContextCreation, d.spec.mode, err)
	}
	return &occaContext{dev: dev, name: d.Name()}, nil
}

type occaContext struct {
	dev  *gocca.OCCADevice
	name string

	mu       sync.Mutex
	released bool
}

func (c *occaContext) isReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *occaContext) CreateQueue() (Queue, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrQueueCreation, ErrReleased)
	}
	// OCCA devices expose one implicit in-order stream.
	return &occaQueue{dev: c.dev}, nil
}

func (c *occaContext) CreateBuffer(flags MemFlag, size int64) (Buffer, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrBufferAllocation, ErrReleased)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %d", ErrBufferAllocation, size)
	}
	mem := c.dev.Malloc(size, nil, nil)
	if mem == nil {
		return nil, fmt.Errorf("%w: occa malloc of %d bytes failed", ErrBufferAllocation, size)
	}
	return &occaBuffer{mem: mem, size: size, flags: flags}, nil
}

func (c *occaContext) CreateProgram(source string) (Program, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrCompile, ErrReleased)
	}
	return &occaProgram{dev: c.dev, device: c.name, source: source}, nil
}

func (c *occaContext) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	c.dev.Free()
	return nil
}

type occaBuffer struct {
	mem   *gocca.OCCAMemory
	size  int64
	flags MemFlag

	mu       sync.Mutex
	released bool
}

func (b *occaBuffer) Size() int64    { return b.size }
func (b *occaBuffer) Flags() MemFlag { return b.flags }

func (b *occaBuffer) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

func (b *occaBuffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.released = true
	b.mem.Free()
	return nil
}

// occaQueue maps queue commands onto the device's implicit stream. Memory
// copies in gocca are synchronous, so the blocking flag has no extra work
// to do; ordering is preserved either way.
type occaQueue struct {
	dev *gocca.OCCADevice

	mu       sync.Mutex
	released bool
}

func (q *occaQueue) EnqueueWrite(b Buffer, data []byte, blocking bool) error {
	ob, ok := b.(*occaBuffer)
	if !ok {
		return fmt.Errorf("%w: buffer does not belong to the occa backend", ErrBufferAllocation)
	}
	if ob.isReleased() {
		return fmt.Errorf("%w: %w", ErrBufferAllocation, ErrReleased)
	}
	if int64(len(data)) > ob.size {
		return fmt.Errorf("%w: write of %d bytes exceeds buffer size %d", ErrBufferAllocation, len(data), ob.size)
	}
	if len(data) == 0 {
		return nil
	}
	ob.mem.CopyFrom(unsafe.Pointer(&data[0]), int64(len(data)))
	return nil
}

func (q *occaQueue) EnqueueRead(b Buffer, data []byte, blocking bool) error {
	ob, ok := b.(*occaBuffer)
	if !ok {
		return fmt.Errorf("%w: buffer does not belong to the occa backend", ErrReadback)
	}
	if ob.isReleased() {
		return fmt.Errorf("%w: %w", ErrReadback, ErrReleased)
	}
	if int64(len(data)) > ob.size {
		return fmt.Errorf("%w: read of %d bytes exceeds buffer size %d", ErrReadback, len(data), ob.size)
	}
	if len(data) == 0 {
		return nil
	}
	ob.mem.CopyTo(unsafe.Pointer(&data[0]), int64(len(data)))
	return nil
}

func (q *occaQueue) EnqueueNDRange(k Kernel, global, local []int) error {
	okern, ok := k.(*occaKernel)
	if !ok {
		return fmt.Errorf("%w: kernel does not belong to the occa backend", ErrLaunch)
	}
	if len(global) != 1 || len(local) != 1 {
		return fmt.Errorf("%w: only 1-D index spaces are supported", ErrLaunch)
	}
	g, l := global[0], local[0]
	if g <= 0 || l <= 0 {
		return fmt.Errorf("%w: non-positive index space %dx%d", ErrLaunch, g, l)
	}
	if g%l != 0 {
		return fmt.Errorf("%w: global size %d not divisible by work-group size %d", ErrLaunch, g, l)
	}
	args, err := okern.snapshotArgs()
	if err != nil {
		return err
	}
	args = append(args, int32(g), int32(l))
	if err := okern.kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return nil
}

func (q *occaQueue) Finish() error {
	q.dev.Finish()
	return nil
}

func (q *occaQueue) Release() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.released {
		return nil
	}
	q.released = true
	q.dev.Finish()
	return nil
}

var oklEntryRe = regexp.MustCompile(`@kernel\s+void\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// occaProgram builds every @kernel entry point of the OKL source eagerly so
// compile diagnostics surface at Build, matching the pipeline's compile
// step.
type occaProgram struct {
	dev    *gocca.OCCADevice
	device string
	source string

	mu       sync.Mutex
	built    bool
	log      string
	kernels  map[string]*gocca.OCCAKernel
	released bool
}

func (p *occaProgram) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return fmt.Errorf("%w: %w", ErrCompile, ErrReleased)
	}
	if p.built {
		return nil
	}

	matches := oklEntryRe.FindAllStringSubmatch(p.source, -1)
	if len(matches) == 0 {
		p.log = "error: no @kernel entry point found in source"
		return &BuildError{Device: p.device, Log: p.log}
	}

	kernels := make(map[string]*gocca.OCCAKernel, len(matches))
	var diags []string
	for _, m := range matches {
		name := m[1]
		kern, err := p.dev.BuildKernelFromString(p.source, name, nil)
		if err != nil {
			diags = append(diags, fmt.Sprintf("error: entry point '%s': %v", name, err))
			continue
		}
		kernels[name] = kern
	}
	if len(diags) > 0 {
		for _, k := range kernels {
			k.Free()
		}
		p.log = strings.Join(diags, "\n")
		return &BuildError{Device: p.device, Log: p.log}
	}

	p.kernels = kernels
	p.built = true
	p.log = ""
	return nil
}

func (p *occaProgram) BuildLog() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

func (p *occaProgram) CreateKernel(name string) (Kernel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, fmt.Errorf("%w: %w", ErrKernelCreation, ErrReleased)
	}
	if !p.built {
		return nil, fmt.Errorf("%w: program not built", ErrKernelCreation)
	}
	kern, ok := p.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: no kernel %q in program", ErrKernelCreation, name)
	}
	return &occaKernel{kernel: kern, name: name}, nil
}

func (p *occaProgram) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	for _, k := range p.kernels {
		k.Free()
	}
	p.kernels = nil
	return nil
}

type occaKernel struct {
	kernel *gocca.OCCAKernel
	name   string

	mu       sync.Mutex
	args     []any
	set      []bool
	released bool
}

func (k *occaKernel) Name() string { return k.name }

func (k *occaKernel) SetArg(index int, arg any) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return fmt.Errorf("%w: %w", ErrArgumentBinding, ErrReleased)
	}
	if index < 0 {
		return fmt.Errorf("%w: negative argument index %d", ErrArgumentBinding, index)
	}
	switch v := arg.(type) {
	case *occaBuffer:
		if v.isReleased() {
			return fmt.Errorf("%w: argument %d: %w", ErrArgumentBinding, index, ErrReleased)
		}
	case int, int32, int64, float32, float64:
	default:
		return fmt.Errorf("%w: unsupported argument type %T", ErrArgumentBinding, arg)
	}

	for len(k.args) <= index {
		k.args = append(k.args, nil)
		k.set = append(k.set, false)
	}
	k.args[index] = arg
	k.set[index] = true
	return nil
}

// snapshotArgs resolves bound arguments for a launch, mapping buffers to
// their device memory.
func (k *occaKernel) snapshotArgs() ([]any, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, ErrReleased)
	}
	args := make([]any, len(k.args))
	for i, a := range k.args {
		if !k.set[i] {
			return nil, fmt.Errorf("%w: argument %d not set", ErrLaunch, i)
		}
		if ob, ok := a.(*occaBuffer); ok {
			if ob.isReleased() {
				return nil, fmt.Errorf("%w: argument %d: %w", ErrLaunch, i, ErrReleased)
			}
			args[i] = ob.mem
			continue
		}
		args[i] = a
	}
	return args, nil
}

func (k *occaKernel) Release() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.released = true
	// The program owns the underlying occa kernel and frees it.
	return nil
}
