//go:build opencl
// +build opencl

package accel

/*
#cgo CFLAGS: -DCL_TARGET_OPENCL_VERSION=300 -DCL_USE_DEPRECATED_OPENCL_1_2_APIS
#cgo darwin LDFLAGS: -framework OpenCL
#cgo !darwin LDFLAGS: -lOpenCL

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// OpenCLBackend implements the accelerator boundary over the system OpenCL
// runtime.
type OpenCLBackend struct {
	logger      *zap.Logger
	initialized bool
	available   bool
}

// NewOpenCLBackend creates the OpenCL backend and probes the runtime.
func NewOpenCLBackend(logger *zap.Logger) *OpenCLBackend {
	b := &OpenCLBackend{logger: logger}

	var n C.cl_uint
	status := C.clGetPlatformIDs(0, nil, &n)
	if status != C.CL_SUCCESS || n == 0 {
		logger.Warn("opencl runtime not usable",
			zap.String("status", clStatusString(status)), zap.Uint32("platforms", uint32(n)))
		b.available = false
	} else {
		b.available = true
	}
	return b
}

func (b *OpenCLBackend) Name() string { return "opencl" }

func (b *OpenCLBackend) Available() bool { return b.available }

func (b *OpenCLBackend) Initialize() error {
	if !b.available {
		return fmt.Errorf("%w: opencl runtime not usable", ErrPlatformUnavailable)
	}
	if b.initialized {
		return nil
	}
	b.initialized = true
	b.logger.Info("opencl backend initialized")
	return nil
}

func (b *OpenCLBackend) Cleanup() error {
	b.initialized = false
	return nil
}

func (b *OpenCLBackend) Platforms() ([]Platform, error) {
	var n C.cl_uint
	if status := C.clGetPlatformIDs(0, nil, &n); status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clGetPlatformIDs: %s", ErrPlatformUnavailable, clStatusString(status))
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: runtime reports zero platforms", ErrPlatformUnavailable)
	}
	ids := make([]C.cl_platform_id, n)
	if status := C.clGetPlatformIDs(n, &ids[0], nil); status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clGetPlatformIDs: %s", ErrPlatformUnavailable, clStatusString(status))
	}
	platforms := make([]Platform, 0, n)
	for _, id := range ids {
		platforms = append(platforms, &openclPlatform{id: id})
	}
	return platforms, nil
}

type openclPlatform struct {
	id C.cl_platform_id
}

func (p *openclPlatform) Name() string {
	return platformInfoString(p.id, C.CL_PLATFORM_NAME)
}

func (p *openclPlatform) Vendor() string {
	return platformInfoString(p.id, C.CL_PLATFORM_VENDOR)
}

func (p *openclPlatform) Devices(t DeviceType) ([]Device, error) {
	clType := clDeviceType(t)
	var n C.cl_uint
	status := C.clGetDeviceIDs(p.id, clType, 0, nil, &n)
	if status == C.CL_DEVICE_NOT_FOUND || (status == C.CL_SUCCESS && n == 0) {
		return nil, fmt.Errorf("%w: platform %s has no %s device", ErrDeviceUnavailable, p.Name(), t)
	}
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clGetDeviceIDs: %s", ErrDeviceUnavailable, clStatusString(status))
	}
	ids := make([]C.cl_device_id, n)
	if status := C.clGetDeviceIDs(p.id, clType, n, &ids[0], nil); status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clGetDeviceIDs: %s", ErrDeviceUnavailable, clStatusString(status))
	}
	devices := make([]Device, 0, n)
	for _, id := range ids {
		devices = append(devices, &openclDevice{id: id})
	}
	return devices, nil
}

type openclDevice struct {
	id C.cl_device_id
}

func (d *openclDevice) Name() string {
	return deviceInfoString(d.id, C.CL_DEVICE_NAME)
}

func (d *openclDevice) Info() DeviceInfo {
	var units C.cl_uint
	C.clGetDeviceInfo(d.id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(units)), unsafe.Pointer(&units), nil)
	var maxWG C.size_t
	C.clGetDeviceInfo(d.id, C.CL_DEVICE_MAX_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(maxWG)), unsafe.Pointer(&maxWG), nil)
	var globalMem C.cl_ulong
	C.clGetDeviceInfo(d.id, C.CL_DEVICE_GLOBAL_MEM_SIZE, C.size_t(unsafe.Sizeof(globalMem)), unsafe.Pointer(&globalMem), nil)
	var clType C.cl_device_type
	C.clGetDeviceInfo(d.id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(clType)), unsafe.Pointer(&clType), nil)

	return DeviceInfo{
		Name:             d.Name(),
		Vendor:           deviceInfoString(d.id, C.CL_DEVICE_VENDOR),
		Version:          deviceInfoString(d.id, C.CL_DEVICE_VERSION),
		Type:             deviceTypeFromCL(clType),
		ComputeUnits:     int(units),
		MaxWorkGroupSize: int(maxWG),
		GlobalMemory:     int64(globalMem),
	}
}

func (d *openclDevice) CreateContext() (Context, error) {
	var status C.cl_int
	id := d.id
	ctx := C.clCreateContext(nil, 1, &id, nil, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clCreateContext: %s", ErrContextCreation, clStatusString(status))
	}
	return &openclContext{ctx: ctx, device: d}, nil
}

type openclContext struct {
	ctx    C.cl_context
	device *openclDevice

	mu       sync.Mutex
	released bool
}

func (c *openclContext) isReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *openclContext) CreateQueue() (Queue, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrQueueCreation, ErrReleased)
	}
	var status C.cl_int
	q := C.clCreateCommandQueueWithProperties(c.ctx, c.device.id, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clCreateCommandQueueWithProperties: %s", ErrQueueCreation, clStatusString(status))
	}
	return &openclQueue{queue: q}, nil
}

func (c *openclContext) CreateBuffer(flags MemFlag, size int64) (Buffer, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrBufferAllocation, ErrReleased)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: non-positive size %d", ErrBufferAllocation, size)
	}
	var status C.cl_int
	mem := C.clCreateBuffer(c.ctx, clMemFlags(flags), C.size_t(size), nil, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clCreateBuffer(%d bytes): %s", ErrBufferAllocation, size, clStatusString(status))
	}
	return &openclBuffer{mem: mem, size: size, flags: flags}, nil
}

func (c *openclContext) CreateProgram(source string) (Program, error) {
	if c.isReleased() {
		return nil, fmt.Errorf("%w: %w", ErrCompile, ErrReleased)
	}
	csource := C.CString(source)
	defer C.free(unsafe.Pointer(csource))

	var status C.cl_int
	prog := C.clCreateProgramWithSource(c.ctx, 1, &csource, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clCreateProgramWithSource: %s", ErrCompile, clStatusString(status))
	}
	return &openclProgram{prog: prog, device: c.device}, nil
}

func (c *openclContext) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	if status := C.clReleaseContext(c.ctx); status != C.CL_SUCCESS {
		return fmt.Errorf("clReleaseContext: %s", clStatusString(status))
	}
	return nil
}

type openclBuffer struct {
	mem   C.cl_mem
	size  int64
	flags MemFlag

	mu       sync.Mutex
	released bool
}

func (b *openclBuffer) Size() int64    { return b.size }
func (b *openclBuffer) Flags() MemFlag { return b.flags }

func (b *openclBuffer) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

func (b *openclBuffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.released = true
	if status := C.clReleaseMemObject(b.mem); status != C.CL_SUCCESS {
		return fmt.Errorf("clReleaseMemObject: %s", clStatusString(status))
	}
	return nil
}

// openclQueue wraps an in-order command queue. Host slices handed to
// non-blocking transfers are pinned until Finish or Release so the runtime
// may keep reading or writing them after the enqueue returns.
type openclQueue struct {
	queue C.cl_command_queue

	mu       sync.Mutex
	pinner   runtime.Pinner
	pinned   bool
	released bool
}

func (q *openclQueue) pin(p unsafe.Pointer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pinner.Pin(p)
	q.pinned = true
}

func (q *openclQueue) unpinAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pinned {
		q.pinner.Unpin()
		q.pinned = false
	}
}

func (q *openclQueue) EnqueueWrite(b Buffer, data []byte, blocking bool) error {
	ob, ok := b.(*openclBuffer)
	if !ok {
		return fmt.Errorf("%w: buffer does not belong to the opencl backend", ErrBufferAllocation)
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
	ptr := unsafe.Pointer(&data[0])
	if !blocking {
		q.pin(ptr)
	}
	status := C.clEnqueueWriteBuffer(q.queue, ob.mem, clBool(blocking), 0, C.size_t(len(data)), ptr, 0, nil, nil)
	if status != C.CL_SUCCESS {
		return fmt.Errorf("%w: clEnqueueWriteBuffer: %s", ErrBufferAllocation, clStatusString(status))
	}
	return nil
}

func (q *openclQueue) EnqueueRead(b Buffer, data []byte, blocking bool) error {
	ob, ok := b.(*openclBuffer)
	if !ok {
		return fmt.Errorf("%w: buffer does not belong to the opencl backend", ErrReadback)
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
	ptr := unsafe.Pointer(&data[0])
	if !blocking {
		q.pin(ptr)
	}
	status := C.clEnqueueReadBuffer(q.queue, ob.mem, clBool(blocking), 0, C.size_t(len(data)), ptr, 0, nil, nil)
	if status != C.CL_SUCCESS {
		return fmt.Errorf("%w: clEnqueueReadBuffer: %s", ErrReadback, clStatusString(status))
	}
	return nil
}

func (q *openclQueue) EnqueueNDRange(k Kernel, global, local []int) error {
	okern, ok := k.(*openclKernel)
	if !ok {
		return fmt.Errorf("%w: kernel does not belong to the opencl backend", ErrLaunch)
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
	gws := C.size_t(g)
	lws := C.size_t(l)
	status := C.clEnqueueNDRangeKernel(q.queue, okern.kernel, 1, nil, &gws, &lws, 0, nil, nil)
	if status != C.CL_SUCCESS {
		return fmt.Errorf("%w: clEnqueueNDRangeKernel: %s", ErrLaunch, clStatusString(status))
	}
	return nil
}

func (q *openclQueue) Finish() error {
	status := C.clFinish(q.queue)
	q.unpinAll()
	if status != C.CL_SUCCESS {
		return fmt.Errorf("%w: clFinish: %s", ErrLaunch, clStatusString(status))
	}
	return nil
}

func (q *openclQueue) Release() error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return nil
	}
	q.released = true
	q.mu.Unlock()

	C.clFinish(q.queue)
	q.unpinAll()
	if status := C.clReleaseCommandQueue(q.queue); status != C.CL_SUCCESS {
		return fmt.Errorf("clReleaseCommandQueue: %s", clStatusString(status))
	}
	return nil
}

type openclProgram struct {
	prog   C.cl_program
	device *openclDevice

	mu       sync.Mutex
	log      string
	released bool
}

func (p *openclProgram) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return fmt.Errorf("%w: %w", ErrCompile, ErrReleased)
	}
	id := p.device.id
	status := C.clBuildProgram(p.prog, 1, &id, nil, nil, nil)
	if status == C.CL_SUCCESS {
		p.log = ""
		return nil
	}
	p.log = p.buildLog()
	if status == C.CL_BUILD_PROGRAM_FAILURE {
		return &BuildError{Device: p.device.Name(), Log: p.log}
	}
	return fmt.Errorf("%w: clBuildProgram: %s", ErrCompile, clStatusString(status))
}

func (p *openclProgram) buildLog() string {
	var size C.size_t
	if status := C.clGetProgramBuildInfo(p.prog, p.device.id, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size); status != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if status := C.clGetProgramBuildInfo(p.prog, p.device.id, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
}

func (p *openclProgram) BuildLog() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

func (p *openclProgram) CreateKernel(name string) (Kernel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, fmt.Errorf("%w: %w", ErrKernelCreation, ErrReleased)
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var status C.cl_int
	kernel := C.clCreateKernel(p.prog, cname, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clCreateKernel(%q): %s", ErrKernelCreation, name, clStatusString(status))
	}
	return &openclKernel{kernel: kernel, name: name}, nil
}

func (p *openclProgram) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	if status := C.clReleaseProgram(p.prog); status != C.CL_SUCCESS {
		return fmt.Errorf("clReleaseProgram: %s", clStatusString(status))
	}
	return nil
}

type openclKernel struct {
	kernel C.cl_kernel
	name   string

	mu       sync.Mutex
	released bool
}

func (k *openclKernel) Name() string { return k.name }

func (k *openclKernel) SetArg(index int, arg any) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return fmt.Errorf("%w: %w", ErrArgumentBinding, ErrReleased)
	}
	if index < 0 {
		return fmt.Errorf("%w: negative argument index %d", ErrArgumentBinding, index)
	}

	var status C.cl_int
	switch v := arg.(type) {
	case *openclBuffer:
		if v.isReleased() {
			return fmt.Errorf("%w: argument %d: %w", ErrArgumentBinding, index, ErrReleased)
		}
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(v.mem)), unsafe.Pointer(&v.mem))
	case int:
		cv := C.cl_int(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	case int32:
		cv := C.cl_int(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	case uint32:
		cv := C.cl_uint(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	case int64:
		cv := C.cl_long(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	case uint64:
		cv := C.cl_ulong(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	case float32:
		cv := C.cl_float(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	case float64:
		cv := C.cl_double(v)
		status = C.clSetKernelArg(k.kernel, C.cl_uint(index), C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
	default:
		return fmt.Errorf("%w: unsupported argument type %T", ErrArgumentBinding, arg)
	}
	if status != C.CL_SUCCESS {
		return fmt.Errorf("%w: clSetKernelArg(%d): %s", ErrArgumentBinding, index, clStatusString(status))
	}
	return nil
}

func (k *openclKernel) Release() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return nil
	}
	k.released = true
	if status := C.clReleaseKernel(k.kernel); status != C.CL_SUCCESS {
		return fmt.Errorf("clReleaseKernel: %s", clStatusString(status))
	}
	return nil
}

func clBool(b bool) C.cl_bool {
	if b {
		return C.CL_TRUE
	}
	return C.CL_FALSE
}

func clMemFlags(f MemFlag) C.cl_mem_flags {
	switch f {
	case MemReadOnly:
		return C.CL_MEM_READ_ONLY
	case MemWriteOnly:
		return C.CL_MEM_WRITE_ONLY
	default:
		return C.CL_MEM_READ_WRITE
	}
}

func clDeviceType(t DeviceType) C.cl_device_type {
	switch t {
	case DeviceCPU:
		return C.CL_DEVICE_TYPE_CPU
	case DeviceGPU:
		return C.CL_DEVICE_TYPE_GPU
	case DeviceAccelerator:
		return C.CL_DEVICE_TYPE_ACCELERATOR
	default:
		return C.CL_DEVICE_TYPE_ALL
	}
}

func deviceTypeFromCL(t C.cl_device_type) DeviceType {
	switch {
	case t&C.CL_DEVICE_TYPE_GPU != 0:
		return DeviceGPU
	case t&C.CL_DEVICE_TYPE_CPU != 0:
		return DeviceCPU
	case t&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return DeviceAccelerator
	}
	return DeviceAll
}

func platformInfoString(id C.cl_platform_id, param C.cl_platform_info) string {
	var size C.size_t
	if status := C.clGetPlatformInfo(id, param, 0, nil, &size); status != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if status := C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
}

func deviceInfoString(id C.cl_device_id, param C.cl_device_info) string {
	var size C.size_t
	if status := C.clGetDeviceInfo(id, param, 0, nil, &size); status != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if status := C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil); status != C.CL_SUCCESS {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(&buf[0])))
}

// clStatusString converts an OpenCL status code to a readable name.
func clStatusString(status C.cl_int) string {
	switch status {
	case C.CL_SUCCESS:
		return "CL_SUCCESS"
	case C.CL_DEVICE_NOT_FOUND:
		return "CL_DEVICE_NOT_FOUND"
	case C.CL_DEVICE_NOT_AVAILABLE:
		return "CL_DEVICE_NOT_AVAILABLE"
	case C.CL_COMPILER_NOT_AVAILABLE:
		return "CL_COMPILER_NOT_AVAILABLE"
	case C.CL_MEM_OBJECT_ALLOCATION_FAILURE:
		return "CL_MEM_OBJECT_ALLOCATION_FAILURE"
	case C.CL_OUT_OF_RESOURCES:
		return "CL_OUT_OF_RESOURCES"
	case C.CL_OUT_OF_HOST_MEMORY:
		return "CL_OUT_OF_HOST_MEMORY"
	case C.CL_BUILD_PROGRAM_FAILURE:
		return "CL_BUILD_PROGRAM_FAILURE"
	case C.CL_INVALID_VALUE:
		return "CL_INVALID_VALUE"
	case C.CL_INVALID_DEVICE:
		return "CL_INVALID_DEVICE"
	case C.CL_INVALID_CONTEXT:
		return "CL_INVALID_CONTEXT"
	case C.CL_INVALID_QUEUE_PROPERTIES:
		return "CL_INVALID_QUEUE_PROPERTIES"
	case C.CL_INVALID_COMMAND_QUEUE:
		return "CL_INVALID_COMMAND_QUEUE"
	case C.CL_INVALID_MEM_OBJECT:
		return "CL_INVALID_MEM_OBJECT"
	case C.CL_INVALID_BINARY:
		return "CL_INVALID_BINARY"
	case C.CL_INVALID_BUILD_OPTIONS:
		return "CL_INVALID_BUILD_OPTIONS"
	case C.CL_INVALID_PROGRAM:
		return "CL_INVALID_PROGRAM"
	case C.CL_INVALID_PROGRAM_EXECUTABLE:
		return "CL_INVALID_PROGRAM_EXECUTABLE"
	case C.CL_INVALID_KERNEL_NAME:
		return "CL_INVALID_KERNEL_NAME"
	case C.CL_INVALID_KERNEL_DEFINITION:
		return "CL_INVALID_KERNEL_DEFINITION"
	case C.CL_INVALID_KERNEL:
		return "CL_INVALID_KERNEL"
	case C.CL_INVALID_ARG_INDEX:
		return "CL_INVALID_ARG_INDEX"
	case C.CL_INVALID_ARG_VALUE:
		return "CL_INVALID_ARG_VALUE"
	case C.CL_INVALID_ARG_SIZE:
		return "CL_INVALID_ARG_SIZE"
	case C.CL_INVALID_KERNEL_ARGS:
		return "CL_INVALID_KERNEL_ARGS"
	case C.CL_INVALID_WORK_DIMENSION:
		return "CL_INVALID_WORK_DIMENSION"
	case C.CL_INVALID_WORK_GROUP_SIZE:
		return "CL_INVALID_WORK_GROUP_SIZE"
	case C.CL_INVALID_WORK_ITEM_SIZE:
		return "CL_INVALID_WORK_ITEM_SIZE"
	case C.CL_INVALID_GLOBAL_OFFSET:
		return "CL_INVALID_GLOBAL_OFFSET"
	case C.CL_INVALID_EVENT_WAIT_LIST:
		return "CL_INVALID_EVENT_WAIT_LIST"
	case C.CL_INVALID_OPERATION:
		return "CL_INVALID_OPERATION"
	case C.CL_INVALID_BUFFER_SIZE:
		return "CL_INVALID_BUFFER_SIZE"
	default:
		return fmt.Sprintf("CL error %d", int(status))
	}
}
