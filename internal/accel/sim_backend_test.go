package accel

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Natives used by the tests. Each entry point name is unique to this
// package so registration cannot collide with production kernels.
var (
	orderMu    sync.Mutex
	orderTrace []string

	// gateRelease holds the test_gate kernel until closed.
	gateRelease chan struct{}
)

const (
	testAddSource = `
__kernel void test_add(__global const int *A, __global const int *B, __global int *C) {
    int idx = get_global_id(0);
    C[idx] = A[idx] + B[idx];
}
`
	testMarkSource    = `__kernel void test_mark(const int tag) { }`
	testPanicSource   = `__kernel void test_panic(const int x) { }`
	testGateSource    = `__kernel void test_gate(const int x) { }`
	testScaleSource   = `__kernel void test_scale(__global int *V, const int factor) { }`
	testScalarsSource = `__kernel void test_scalars(int a, int b, int c, int d, int e, int f, int g) { }`
)

func init() {
	RegisterNative("test_add", func(item WorkItem, args []any) {
		a := BytesInt32(args[0].([]byte))
		b := BytesInt32(args[1].([]byte))
		c := BytesInt32(args[2].([]byte))
		c[item.Global] = a[item.Global] + b[item.Global]
	})
	RegisterNative("test_mark", func(item WorkItem, args []any) {
		tag := args[0].(int32)
		orderMu.Lock()
		orderTrace = append(orderTrace, fmt.Sprintf("kernel_%d", tag))
		orderMu.Unlock()
	})
	RegisterNative("test_panic", func(item WorkItem, args []any) {
		panic("deliberate fault")
	})
	RegisterNative("test_gate", func(item WorkItem, args []any) {
		<-gateRelease
		panic("deliberate fault after gate")
	})
	RegisterNative("test_scale", func(item WorkItem, args []any) {
		v := BytesInt32(args[0].([]byte))
		factor := args[1].(int32)
		v[item.Global] *= factor
	})
	RegisterNative("test_scalars", func(item WorkItem, args []any) {})
}

func newTestContext(t *testing.T) Context {
	t.Helper()
	backend := NewSimBackend(zap.NewNop())
	require.NoError(t, backend.Initialize())

	platforms, err := backend.Platforms()
	require.NoError(t, err)
	require.Len(t, platforms, 1)

	devices, err := platforms[0].Devices(DeviceAll)
	require.NoError(t, err)
	require.NotEmpty(t, devices)

	ctx, err := devices[0].CreateContext()
	require.NoError(t, err)
	return ctx
}

func TestSimBackend_Initialize(t *testing.T) {
	backend := NewSimBackend(zap.NewNop())

	// The simulator is always available
	assert.True(t, backend.Available())
	assert.Equal(t, "sim", backend.Name())

	err := backend.Initialize()
	assert.NoError(t, err)
	assert.True(t, backend.initialized)

	// Double initialization is idempotent
	err = backend.Initialize()
	assert.NoError(t, err)

	err = backend.Cleanup()
	assert.NoError(t, err)
	assert.False(t, backend.initialized)
}

func TestSimBackend_DeviceInfo(t *testing.T) {
	backend := NewSimBackend(zap.NewNop())
	require.NoError(t, backend.Initialize())

	platforms, err := backend.Platforms()
	require.NoError(t, err)
	require.Len(t, platforms, 1)
	assert.Equal(t, "Simulator", platforms[0].Name())

	devices, err := platforms[0].Devices(DeviceAll)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	info := devices[0].Info()
	assert.Contains(t, info.Name, "CPU")
	assert.Equal(t, DeviceCPU, info.Type)
	assert.Greater(t, info.ComputeUnits, 0)
	assert.Equal(t, simMaxWorkGroupSize, info.MaxWorkGroupSize)
	assert.Greater(t, info.GlobalMemory, int64(0))

	// The simulator has no GPU devices to offer
	_, err = platforms[0].Devices(DeviceGPU)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestSimBackend_VectorAddPipeline(t *testing.T) {
	testCases := []struct {
		name      string
		length    int
		workgroup int
		fillA     int32
		fillB     int32
	}{
		{name: "default shape", length: 2048, workgroup: 256, fillA: 1, fillB: 1},
		{name: "single group", length: 16, workgroup: 16, fillA: 3, fillB: 4},
		{name: "many small groups", length: 64, workgroup: 8, fillA: -2, fillB: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t)
			defer ctx.Release()

			queue, err := ctx.CreateQueue()
			require.NoError(t, err)
			defer queue.Release()

			a := make([]int32, tc.length)
			b := make([]int32, tc.length)
			c := make([]int32, tc.length)
			for i := range a {
				a[i] = tc.fillA
				b[i] = tc.fillB
			}

			size := int64(tc.length) * 4
			bufA, err := ctx.CreateBuffer(MemReadOnly, size)
			require.NoError(t, err)
			defer bufA.Release()
			bufB, err := ctx.CreateBuffer(MemReadOnly, size)
			require.NoError(t, err)
			defer bufB.Release()
			bufC, err := ctx.CreateBuffer(MemWriteOnly, size)
			require.NoError(t, err)
			defer bufC.Release()

			require.NoError(t, queue.EnqueueWrite(bufA, Int32Bytes(a), false))
			require.NoError(t, queue.EnqueueWrite(bufB, Int32Bytes(b), false))

			program, err := ctx.CreateProgram(testAddSource)
			require.NoError(t, err)
			defer program.Release()
			require.NoError(t, program.Build())

			kernel, err := program.CreateKernel("test_add")
			require.NoError(t, err)
			defer kernel.Release()

			require.NoError(t, kernel.SetArg(0, bufA))
			require.NoError(t, kernel.SetArg(1, bufB))
			require.NoError(t, kernel.SetArg(2, bufC))

			require.NoError(t, queue.EnqueueNDRange(kernel, []int{tc.length}, []int{tc.workgroup}))
			require.NoError(t, queue.EnqueueRead(bufC, Int32Bytes(c), true))

			want := tc.fillA + tc.fillB
			for i, got := range c {
				require.Equal(t, want, got, "element %d", i)
			}
		})
	}
}

func TestSimBackend_QueueOrdering(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	queue, err := ctx.CreateQueue()
	require.NoError(t, err)
	defer queue.Release()

	program, err := ctx.CreateProgram(testMarkSource)
	require.NoError(t, err)
	defer program.Release()
	require.NoError(t, program.Build())

	orderMu.Lock()
	orderTrace = nil
	orderMu.Unlock()

	// Launch three single-item kernels without blocking in between. The
	// queue must run them in submission order.
	for tag := int32(1); tag <= 3; tag++ {
		kernel, err := program.CreateKernel("test_mark")
		require.NoError(t, err)
		require.NoError(t, kernel.SetArg(0, tag))
		require.NoError(t, queue.EnqueueNDRange(kernel, []int{1}, []int{1}))
		kernel.Release()
	}
	require.NoError(t, queue.Finish())

	orderMu.Lock()
	defer orderMu.Unlock()
	assert.Equal(t, []string{"kernel_1", "kernel_2", "kernel_3"}, orderTrace)
}

func TestSimBackend_BlockingReadWaitsForKernel(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	queue, err := ctx.CreateQueue()
	require.NoError(t, err)
	defer queue.Release()

	const n = 128
	v := make([]int32, n)
	for i := range v {
		v[i] = 7
	}

	buf, err := ctx.CreateBuffer(MemReadWrite, n*4)
	require.NoError(t, err)
	defer buf.Release()

	program, err := ctx.CreateProgram(testScaleSource)
	require.NoError(t, err)
	defer program.Release()
	require.NoError(t, program.Build())

	kernel, err := program.CreateKernel("test_scale")
	require.NoError(t, err)
	defer kernel.Release()
	require.NoError(t, kernel.SetArg(0, buf))
	require.NoError(t, kernel.SetArg(1, int32(3)))

	require.NoError(t, queue.EnqueueWrite(buf, Int32Bytes(v), false))
	require.NoError(t, queue.EnqueueNDRange(kernel, []int{n}, []int{32}))

	// The blocking read must observe the kernel's writes even though the
	// upload and launch never blocked.
	out := make([]int32, n)
	require.NoError(t, queue.EnqueueRead(buf, Int32Bytes(out), true))
	for i, got := range out {
		require.Equal(t, int32(21), got, "element %d", i)
	}
}

func TestSimBackend_DispatchValidation(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	queue, err := ctx.CreateQueue()
	require.NoError(t, err)
	defer queue.Release()

	buf, err := ctx.CreateBuffer(MemReadWrite, 1024)
	require.NoError(t, err)
	defer buf.Release()

	program, err := ctx.CreateProgram(testScaleSource)
	require.NoError(t, err)
	defer program.Release()
	require.NoError(t, program.Build())

	newKernel := func(t *testing.T, bindAll bool) Kernel {
		kernel, err := program.CreateKernel("test_scale")
		require.NoError(t, err)
		if bindAll {
			require.NoError(t, kernel.SetArg(0, buf))
			require.NoError(t, kernel.SetArg(1, int32(2)))
		}
		return kernel
	}

	testCases := []struct {
		name    string
		global  []int
		local   []int
		bindAll bool
		errText string
	}{
		{name: "non-divisible sizes", global: []int{100}, local: []int{33}, bindAll: true, errText: "not divisible"},
		{name: "zero local size", global: []int{64}, local: []int{0}, bindAll: true, errText: "non-positive"},
		{name: "negative global size", global: []int{-64}, local: []int{8}, bindAll: true, errText: "non-positive"},
		{name: "two dimensional space", global: []int{8, 8}, local: []int{2, 2}, bindAll: true, errText: "1-D"},
		{name: "oversized work-group", global: []int{4096}, local: []int{2048}, bindAll: true, errText: "device limit"},
		{name: "unbound arguments", global: []int{64}, local: []int{8}, bindAll: false, errText: "not set"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kernel := newKernel(t, tc.bindAll)
			defer kernel.Release()

			err := queue.EnqueueNDRange(kernel, tc.global, tc.local)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLaunch)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}

	// The rejected launches must not have poisoned the queue.
	assert.NoError(t, queue.Finish())
}

func TestSimBackend_BuildFailures(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	t.Run("no entry point", func(t *testing.T) {
		program, err := ctx.CreateProgram("int not_a_kernel;")
		require.NoError(t, err)
		defer program.Release()

		err = program.Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCompile)

		var buildErr *BuildError
		require.ErrorAs(t, err, &buildErr)
		assert.Contains(t, buildErr.Log, "no __kernel entry point")
		assert.Equal(t, buildErr.Log, program.BuildLog())
	})

	t.Run("unregistered entry point", func(t *testing.T) {
		program, err := ctx.CreateProgram(`__kernel void test_no_such_native(int x) { }`)
		require.NoError(t, err)
		defer program.Release()

		err = program.Build()
		require.Error(t, err)

		var buildErr *BuildError
		require.ErrorAs(t, err, &buildErr)
		assert.Contains(t, buildErr.Log, "test_no_such_native")
	})

	t.Run("kernel before build", func(t *testing.T) {
		program, err := ctx.CreateProgram(testAddSource)
		require.NoError(t, err)
		defer program.Release()

		_, err = program.CreateKernel("test_add")
		assert.ErrorIs(t, err, ErrKernelCreation)
	})

	t.Run("unknown kernel name", func(t *testing.T) {
		program, err := ctx.CreateProgram(testAddSource)
		require.NoError(t, err)
		defer program.Release()
		require.NoError(t, program.Build())

		_, err = program.CreateKernel("missing")
		assert.ErrorIs(t, err, ErrKernelCreation)
	})
}

func TestSimBackend_QueuePoisoning(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	queue, err := ctx.CreateQueue()
	require.NoError(t, err)
	defer queue.Release()

	program, err := ctx.CreateProgram(testPanicSource)
	require.NoError(t, err)
	defer program.Release()
	require.NoError(t, program.Build())

	kernel, err := program.CreateKernel("test_panic")
	require.NoError(t, err)
	defer kernel.Release()
	require.NoError(t, kernel.SetArg(0, int32(0)))

	// The launch itself is asynchronous and succeeds.
	require.NoError(t, queue.EnqueueNDRange(kernel, []int{8}, []int{8}))

	// The fault surfaces at the next blocking point.
	err = queue.Finish()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLaunch)
	assert.Contains(t, err.Error(), "deliberate fault")

	// Every later submission observes the same sticky error.
	buf, err := ctx.CreateBuffer(MemReadWrite, 64)
	require.NoError(t, err)
	defer buf.Release()
	err = queue.EnqueueWrite(buf, make([]byte, 64), false)
	assert.ErrorIs(t, err, ErrLaunch)
}

// A command faulting while the ops channel is full and a submitter is
// blocked on it must still surface at the next blocking point instead of
// wedging the queue.
func TestSimBackend_FaultWithFullQueueDoesNotDeadlock(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	queue, err := ctx.CreateQueue()
	require.NoError(t, err)
	defer queue.Release()

	program, err := ctx.CreateProgram(testGateSource)
	require.NoError(t, err)
	defer program.Release()
	require.NoError(t, program.Build())

	kernel, err := program.CreateKernel("test_gate")
	require.NoError(t, err)
	defer kernel.Release()
	require.NoError(t, kernel.SetArg(0, int32(0)))

	buf, err := ctx.CreateBuffer(MemReadWrite, 4)
	require.NoError(t, err)
	defer buf.Release()
	data := make([]byte, 4)

	gateRelease = make(chan struct{})

	// The worker blocks inside the gated kernel...
	require.NoError(t, queue.EnqueueNDRange(kernel, []int{1}, []int{1}))

	// ...while submissions fill the ops channel completely...
	for i := 0; i < simQueueDepth; i++ {
		require.NoError(t, queue.EnqueueWrite(buf, data, false))
	}

	// ...and one more submitter blocks on the full channel.
	extraDone := make(chan error, 1)
	go func() { extraDone <- queue.EnqueueWrite(buf, data, false) }()

	// Now the executing kernel faults.
	close(gateRelease)

	finished := make(chan error, 1)
	go func() { finished <- queue.Finish() }()

	select {
	case err := <-finished:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLaunch)
	case <-time.After(5 * time.Second):
		t.Fatal("queue hung after a fault with a full ops channel")
	}

	select {
	case <-extraDone:
	case <-time.After(5 * time.Second):
		t.Fatal("blocked submission never completed after the fault")
	}
}

func TestSimBackend_ReleaseSemantics(t *testing.T) {
	ctx := newTestContext(t)

	queue, err := ctx.CreateQueue()
	require.NoError(t, err)

	buf, err := ctx.CreateBuffer(MemReadWrite, 64)
	require.NoError(t, err)

	t.Run("released buffer rejects transfers", func(t *testing.T) {
		require.NoError(t, buf.Release())
		err := queue.EnqueueWrite(buf, make([]byte, 64), true)
		assert.ErrorIs(t, err, ErrBufferAllocation)
		assert.ErrorIs(t, err, ErrReleased)

		err = queue.EnqueueRead(buf, make([]byte, 64), true)
		assert.ErrorIs(t, err, ErrReadback)
		assert.ErrorIs(t, err, ErrReleased)
	})

	t.Run("released context rejects creation", func(t *testing.T) {
		require.NoError(t, ctx.Release())
		_, err := ctx.CreateQueue()
		assert.ErrorIs(t, err, ErrQueueCreation)
		assert.ErrorIs(t, err, ErrReleased)

		_, err = ctx.CreateBuffer(MemReadOnly, 64)
		assert.ErrorIs(t, err, ErrBufferAllocation)

		_, err = ctx.CreateProgram(testAddSource)
		assert.ErrorIs(t, err, ErrCompile)
	})

	t.Run("release is idempotent", func(t *testing.T) {
		assert.NoError(t, ctx.Release())
		assert.NoError(t, buf.Release())
		assert.NoError(t, queue.Release())
		assert.NoError(t, queue.Release())
	})

	t.Run("released queue rejects submissions", func(t *testing.T) {
		err := queue.Finish()
		assert.ErrorIs(t, err, ErrReleased)
	})
}

func TestSimBackend_ArgumentBinding(t *testing.T) {
	ctx := newTestContext(t)
	defer ctx.Release()

	program, err := ctx.CreateProgram(testScaleSource)
	require.NoError(t, err)
	defer program.Release()
	require.NoError(t, program.Build())

	kernel, err := program.CreateKernel("test_scale")
	require.NoError(t, err)
	defer kernel.Release()

	t.Run("unsupported type", func(t *testing.T) {
		err := kernel.SetArg(0, "not a kernel argument")
		assert.ErrorIs(t, err, ErrArgumentBinding)
	})

	t.Run("negative index", func(t *testing.T) {
		err := kernel.SetArg(-1, int32(1))
		assert.ErrorIs(t, err, ErrArgumentBinding)
	})

	t.Run("released buffer", func(t *testing.T) {
		buf, err := ctx.CreateBuffer(MemReadWrite, 64)
		require.NoError(t, err)
		require.NoError(t, buf.Release())

		err = kernel.SetArg(0, buf)
		assert.ErrorIs(t, err, ErrArgumentBinding)
		assert.ErrorIs(t, err, ErrReleased)
	})

	t.Run("index beyond declared arguments", func(t *testing.T) {
		err := kernel.SetArg(2, int32(1))
		assert.ErrorIs(t, err, ErrArgumentBinding)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("scalar types accepted", func(t *testing.T) {
		scalars, err := ctx.CreateProgram(testScalarsSource)
		require.NoError(t, err)
		defer scalars.Release()
		require.NoError(t, scalars.Build())

		sk, err := scalars.CreateKernel("test_scalars")
		require.NoError(t, err)
		defer sk.Release()

		for i, v := range []any{int(1), int32(1), int64(1), uint32(1), uint64(1), float32(1), float64(1)} {
			assert.NoError(t, sk.SetArg(i, v))
		}
	})
}

func BenchmarkSimVectorAdd(b *testing.B) {
	backend := NewSimBackend(zap.NewNop())
	if err := backend.Initialize(); err != nil {
		b.Fatal(err)
	}
	platforms, _ := backend.Platforms()
	devices, _ := platforms[0].Devices(DeviceAll)
	ctx, err := devices[0].CreateContext()
	if err != nil {
		b.Fatal(err)
	}
	defer ctx.Release()

	queue, err := ctx.CreateQueue()
	if err != nil {
		b.Fatal(err)
	}
	defer queue.Release()

	const n = 2048
	a := make([]int32, n)
	v := make([]int32, n)
	c := make([]int32, n)
	for i := range a {
		a[i] = 1
		v[i] = 1
	}

	bufA, _ := ctx.CreateBuffer(MemReadOnly, n*4)
	bufB, _ := ctx.CreateBuffer(MemReadOnly, n*4)
	bufC, _ := ctx.CreateBuffer(MemWriteOnly, n*4)
	defer bufA.Release()
	defer bufB.Release()
	defer bufC.Release()

	program, err := ctx.CreateProgram(testAddSource)
	if err != nil {
		b.Fatal(err)
	}
	defer program.Release()
	if err := program.Build(); err != nil {
		b.Fatal(err)
	}
	kernel, err := program.CreateKernel("test_add")
	if err != nil {
		b.Fatal(err)
	}
	defer kernel.Release()

	kernel.SetArg(0, bufA)
	kernel.SetArg(1, bufB)
	kernel.SetArg(2, bufC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		queue.EnqueueWrite(bufA, Int32Bytes(a), false)
		queue.EnqueueWrite(bufB, Int32Bytes(v), false)
		queue.EnqueueNDRange(kernel, []int{n}, []int{256})
		if err := queue.EnqueueRead(bufC, Int32Bytes(c), true); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(n*b.N)/b.Elapsed().Seconds(), "elems/s")
}
