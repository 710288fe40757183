package accel

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

const (
	simMaxWorkGroupSize = 1024
	simQueueDepth       = 64
)

// SimBackend models the accelerator in process. It keeps the semantics the
// pipeline depends on: an in-order command queue, byte addressed buffers and
// work-group parallel kernel dispatch. Programs are "compiled" by matching
// their entry points against registered native kernels, so pipelines run
// unchanged on hosts without an accelerator runtime.
type SimBackend struct {
	logger      *zap.Logger
	initialized bool
}

// NewSimBackend creates the simulator backend.
func NewSimBackend(logger *zap.Logger) *SimBackend {
	return &SimBackend{logger: logger}
}

func (s *SimBackend) Name() string { return "sim" }

// Available always holds for the simulator.
func (s *SimBackend) Available() bool { return true }

func (s *SimBackend) Initialize() error {
	if s.initialized {
		return nil
	}
	s.initialized = true
	s.logger.Info("simulator backend initialized",
		zap.Int("computeUnits", runtime.NumCPU()))
	return nil
}

func (s *SimBackend) Cleanup() error {
	s.initialized = false
	return nil
}

func (s *SimBackend) Platforms() ([]Platform, error) {
	return []Platform{&simPlatform{logger: s.logger}}, nil
}

type simPlatform struct {
	logger *zap.Logger
}

func (p *simPlatform) Name() string   { return "Simulator" }
func (p *simPlatform) Vendor() string { return "accelforge" }

func (p *simPlatform) Devices(t DeviceType) ([]Device, error) {
	if t != DeviceAll && t != DeviceCPU {
		return nil, fmt.Errorf("%w: platform %s has no %s device", ErrDeviceUnavailable, p.Name(), t)
	}
	return []Device{&simDevice{logger: p.logger}}, nil
}

type simDevice struct {
	logger *zap.Logger
}

func (d *simDevice) Name() string {
	return fmt.Sprintf("Simulated CPU (%s)", runtime.GOARCH)
}

func (d *simDevice) Info() DeviceInfo {
	info := DeviceInfo{
		Name:             d.Name(),
		Vendor:           "accelforge",
		Version:          runtime.Version(),
		Type:             DeviceCPU,
		ComputeUnits:     runtime.NumCPU(),
		MaxWorkGroupSize: simMaxWorkGroupSize,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.GlobalMemory = int64(vm.Total)
	}
	return info
}

func (d *simDevice) CreateContext() (Context, error) {
	return &simContext{device: d}, nil
}

type simContext struct {
	device *simDevice

	mu       sync.Mutex
	released bool
}

func (c *simContext) isReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *simContext) CreateQueue() (Queue, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrQueueCreation, ErrReleased)
	}
	q := &simQueue{ops: make(chan *simOp, simQueueDepth)}
	q.wg.Add(1)
	go q.worker()
	return q, nil
}

func (c *simContext) CreateBuffer(flags MemFlag, size int64) (Buffer, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrBufferAllocation, ErrReleased)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %d", ErrBufferAllocation, size)
	}
	// Backing store is allocated in int32 words so native kernels can view
	// buffer bytes as aligned words.
	words := make([]int32, (size+3)/4)
	return &simBuffer{
		words: words,
		data:  Int32Bytes(words)[:size],
		flags: flags,
	}, nil
}

func (c *simContext) CreateProgram(source string) (Program, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrCompile, ErrReleased)
	}
	return &simProgram{source: source, device: c.device.Name()}, nil
}

// Release is idempotent. Objects already created from the context stay
// usable until released themselves.
func (c *simContext) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	return nil
}

type simBuffer struct {
	words    []int32
	data     []byte
	flags    MemFlag
	released atomic.Bool
}

func (b *simBuffer) Size() int64    { return int64(len(b.data)) }
func (b *simBuffer) Flags() MemFlag { return b.flags }

func (b *simBuffer) Release() error {
	b.released.Store(true)
	return nil
}

// simOp is one queued command. done is buffered so the worker never blocks
// handing back a result nobody waits for.
type simOp struct {
	fn   func() error
	done chan error
}

// simQueue executes commands on a single worker goroutine in submission
// order. The first failing command poisons the queue; later submissions and
// blocking waits observe that error.
type simQueue struct {
	ops chan *simOp
	wg  sync.WaitGroup

	// senders counts submissions between the released check and the channel
	// send, so Release can wait for them before closing ops.
	senders sync.WaitGroup

	mu       sync.Mutex
	fault    error
	released bool
}

func (q *simQueue) worker() {
	defer q.wg.Done()
	for op := range q.ops {
		err := q.faultErr()
		if err == nil {
			err = q.runOp(op)
			if err != nil {
				q.setFault(err)
			}
		}
		op.done <- err
	}
}

func (q *simQueue) runOp(op *simOp) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: execution fault: %v", ErrLaunch, r)
		}
	}()
	return op.fn()
}

func (q *simQueue) faultErr() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fault
}

func (q *simQueue) setFault(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fault == nil {
		q.fault = err
	}
}

func (q *simQueue) submit(fn func() error, blocking bool) error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return ErrReleased
	}
	if q.fault != nil {
		err := q.fault
		q.mu.Unlock()
		return err
	}
	q.senders.Add(1)
	q.mu.Unlock()

	// The send happens outside the lock: the worker takes the same lock to
	// record a fault, and a sender blocked on a full channel while holding
	// it would deadlock the queue.
	op := &simOp{fn: fn, done: make(chan error, 1)}
	q.ops <- op
	q.senders.Done()

	if !blocking {
		return nil
	}
	return <-op.done
}

func (q *simQueue) EnqueueWrite(b Buffer, data []byte, blocking bool) error {
	sb, ok := b.(*simBuffer)
	if !ok {
		return fmt.Errorf("%w: buffer does not belong to the simulator", ErrBufferAllocation)
	}
	if sb.released.Load() {
		return fmt.Errorf("%w: %w", ErrBufferAllocation, ErrReleased)
	}
	if int64(len(data)) > sb.Size() {
		return fmt.Errorf("%w: write of %d bytes exceeds buffer size %d", ErrBufferAllocation, len(data), sb.Size())
	}
	return q.submit(func() error {
		if sb.released.Load() {
			return fmt.Errorf("%w: %w", ErrBufferAllocation, ErrReleased)
		}
		copy(sb.data, data)
		return nil
	}, blocking)
}

func (q *simQueue) EnqueueRead(b Buffer, data []byte, blocking bool) error {
	sb, ok := b.(*simBuffer)
	if !ok {
		return fmt.Errorf("%w: buffer does not belong to the simulator", ErrReadback)
	}
	if sb.released.Load() {
		return fmt.Errorf("%w: %w", ErrReadback, ErrReleased)
	}
	if int64(len(data)) > sb.Size() {
		return fmt.Errorf("%w: read of %d bytes exceeds buffer size %d", ErrReadback, len(data), sb.Size())
	}
	return q.submit(func() error {
		if sb.released.Load() {
			return fmt.Errorf("%w: %w", ErrReadback, ErrReleased)
		}
		copy(data, sb.data[:len(data)])
		return nil
	}, blocking)
}

func (q *simQueue) EnqueueNDRange(k Kernel, global, local []int) error {
	sk, ok := k.(*simKernel)
	if !ok {
		return fmt.Errorf("%w: kernel does not belong to the simulator", ErrLaunch)
	}
	if sk.released.Load() {
		return fmt.Errorf("%w: %w", ErrLaunch, ErrReleased)
	}
	if len(global) != 1 || len(local) != 1 {
		return fmt.Errorf("%w: only 1-D index spaces are supported", ErrLaunch)
	}
	g, l := global[0], local[0]
	if g <= 0 || l <= 0 {
		return fmt.Errorf("%w: non-positive index space %dx%d", ErrLaunch, g, l)
	}
	if l > simMaxWorkGroupSize {
		return fmt.Errorf("%w: work-group size %d exceeds device limit %d", ErrLaunch, l, simMaxWorkGroupSize)
	}
	if g%l != 0 {
		return fmt.Errorf("%w: global size %d not divisible by work-group size %d", ErrLaunch, g, l)
	}
	args, err := sk.snapshotArgs()
	if err != nil {
		return err
	}
	native := sk.native
	return q.submit(func() error {
		groups := g / l
		var wg sync.WaitGroup
		var mu sync.Mutex
		var first error
		for grp := 0; grp < groups; grp++ {
			wg.Add(1)
			go func(grp int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						mu.Lock()
						if first == nil {
							first = fmt.Errorf("%w: work-group %d fault: %v", ErrLaunch, grp, r)
						}
						mu.Unlock()
					}
				}()
				for lid := 0; lid < l; lid++ {
					native(WorkItem{Global: grp*l + lid, Local: lid, Group: grp}, args)
				}
			}(grp)
		}
		wg.Wait()
		return first
	}, false)
}

func (q *simQueue) Finish() error {
	return q.submit(func() error { return nil }, true)
}

// Release drains pending commands and stops the worker. Release is
// idempotent.
func (q *simQueue) Release() error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return nil
	}
	q.released = true
	q.mu.Unlock()
	// In-flight submissions passed the released check before it was set;
	// wait them out so the channel is never closed under a sender.
	q.senders.Wait()
	close(q.ops)
	q.wg.Wait()
	return nil
}

var kernelEntryRe = regexp.MustCompile(`__kernel\s+void\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)

type simEntry struct {
	native NativeKernel
	arity  int
}

// countParams counts the parameters of a kernel signature's parameter list.
func countParams(list string) int {
	list = strings.TrimSpace(list)
	if list == "" || list == "void" {
		return 0
	}
	return strings.Count(list, ",") + 1
}

// simProgram compiles by scanning the source for __kernel entry points and
// binding each to its registered native implementation.
type simProgram struct {
	source string
	device string

	mu       sync.Mutex
	built    bool
	log      string
	entries  map[string]simEntry
	released bool
}

func (p *simProgram) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return fmt.Errorf("%w: %w", ErrCompile, ErrReleased)
	}
	if p.built {
		return nil
	}

	matches := kernelEntryRe.FindAllStringSubmatch(p.source, -1)
	if len(matches) == 0 {
		p.log = "error: no __kernel entry point found in source"
		return &BuildError{Device: p.device, Log: p.log}
	}

	entries := make(map[string]simEntry, len(matches))
	var diags []string
	for _, m := range matches {
		name := m[1]
		native, ok := NativeFor(name)
		if !ok {
			diags = append(diags, fmt.Sprintf("error: entry point '%s': no native implementation registered", name))
			continue
		}
		entries[name] = simEntry{native: native, arity: countParams(m[2])}
	}
	if len(diags) > 0 {
		p.log = strings.Join(diags, "\n")
		return &BuildError{Device: p.device, Log: p.log}
	}

	p.entries = entries
	p.built = true
	p.log = ""
	return nil
}

func (p *simProgram) BuildLog() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

func (p *simProgram) CreateKernel(name string) (Kernel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, fmt.Errorf("%w: %w", ErrKernelCreation, ErrReleased)
	}
	if !p.built {
		return nil, fmt.Errorf("%w: program not built", ErrKernelCreation)
	}
	entry, ok := p.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: no kernel %q in program", ErrKernelCreation, name)
	}
	return &simKernel{name: name, native: entry.native, arity: entry.arity}, nil
}

func (p *simProgram) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	return nil
}

type simKernel struct {
	name   string
	native NativeKernel
	arity  int

	mu       sync.Mutex
	args     []any
	set      []bool
	released atomic.Bool
}

func (k *simKernel) Name() string { return k.name }

func (k *simKernel) SetArg(index int, arg any) error {
	if k.released.Load() {
		return fmt.Errorf("%w: %w", ErrArgumentBinding, ErrReleased)
	}
	if index < 0 {
		return fmt.Errorf("%w: negative argument index %d", ErrArgumentBinding, index)
	}
	if index >= k.arity {
		return fmt.Errorf("%w: argument index %d out of range for kernel with %d arguments", ErrArgumentBinding, index, k.arity)
	}
	switch v := arg.(type) {
	case *simBuffer:
		if v.released.Load() {
			return fmt.Errorf("%w: argument %d: %w", ErrArgumentBinding, index, ErrReleased)
		}
	case int, int32, int64, uint32, uint64, float32, float64:
	default:
		return fmt.Errorf("%w: unsupported argument type %T", ErrArgumentBinding, arg)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for len(k.args) <= index {
		k.args = append(k.args, nil)
		k.set = append(k.set, false)
	}
	k.args[index] = arg
	k.set[index] = true
	return nil
}

// snapshotArgs resolves the bound arguments for a launch. Every declared
// argument must be set. Buffers are replaced by their backing bytes so
// native kernels address device memory directly.
func (k *simKernel) snapshotArgs() ([]any, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	args := make([]any, k.arity)
	for i := 0; i < k.arity; i++ {
		if i >= len(k.args) || !k.set[i] {
			return nil, fmt.Errorf("%w: argument %d not set", ErrLaunch, i)
		}
		if sb, ok := k.args[i].(*simBuffer); ok {
			if sb.released.Load() {
				return nil, fmt.Errorf("%w: argument %d: %w", ErrLaunch, i, ErrReleased)
			}
			args[i] = sb.data
			continue
		}
		args[i] = k.args[i]
	}
	return args, nil
}

func (k *simKernel) Release() error {
	k.released.Store(true)
	return nil
}
