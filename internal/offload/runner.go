// Package offload drives the host/device pipeline: allocate, upload, compile,
// dispatch, read back, release. One Runner executes one linear sequence per
// Run call against the backend selected at startup.
package offload

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/internal/accel"
	"github.com/accelforge/vecadd/internal/attest"
	"github.com/accelforge/vecadd/internal/config"
	"github.com/accelforge/vecadd/internal/kernels"
	"github.com/accelforge/vecadd/internal/metrics"
)

// PhaseTimings records how long each pipeline phase took. Launch covers the
// dispatch submission only; the device finishes the kernel before the
// blocking readback returns, so Readback includes the wait.
type PhaseTimings struct {
	Upload   time.Duration `json:"upload"`
	Compile  time.Duration `json:"compile"`
	Launch   time.Duration `json:"launch"`
	Readback time.Duration `json:"readback"`
	Total    time.Duration `json:"total"`
}

// Report describes one completed run.
type Report struct {
	RunID         string              `json:"runId"`
	Backend       string              `json:"backend"`
	Platform      string              `json:"platform"`
	Device        string              `json:"device"`
	Length        int                 `json:"length"`
	WorkgroupSize int                 `json:"workgroupSize"`
	WorkGroups    int                 `json:"workGroups"`
	Result        []int32             `json:"-"`
	Timings       PhaseTimings        `json:"timings"`
	Verified      bool                `json:"verified"`
	Attestation   *attest.Attestation `json:"attestation,omitempty"`
}

// Runner executes the offload pipeline.
type Runner struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend accel.Backend
	key     *ecdsa.PrivateKey
}

// NewRunner creates a runner bound to the manager's selected backend.
func NewRunner(cfg *config.Config, log *zap.Logger, manager *accel.Manager) *Runner {
	return newRunner(cfg, log, manager.Backend())
}

func newRunner(cfg *config.Config, log *zap.Logger, backend accel.Backend) *Runner {
	return &Runner{
		cfg:     cfg,
		logger:  log.Named("runner"),
		backend: backend,
	}
}

// AttestWith sets the key used to sign reports when attestation is enabled.
func (r *Runner) AttestWith(key *ecdsa.PrivateKey) {
	r.key = key
}

// release frees a device resource best-effort. Release failures are reported
// but never fail the run.
func (r *Runner) release(resource string, release func() error) {
	if err := release(); err != nil {
		r.logger.Warn("resource release failed",
			zap.String("resource", resource), zap.Error(err))
	}
}

func (r *Runner) phase(name string, d time.Duration) {
	// Fractional milliseconds; phases on the simulator are routinely sub-ms.
	metrics.PhaseDuration.WithLabelValues(name).Observe(d.Seconds() * 1000)
	r.logger.Debug("phase complete", zap.String("phase", name), zap.Duration("duration", d))
}

// Run executes the pipeline once and returns the run report. On any failed
// device call the error propagates up with the matching accel sentinel
// wrapped in; resources created before the failure are still released.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.backend == nil {
		return nil, fmt.Errorf("%w: no backend selected", accel.ErrPlatformUnavailable)
	}
	if r.cfg.Attest && r.key == nil {
		return nil, errors.New("attestation enabled but no key loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := r.cfg.Vector.Length
	wg := r.cfg.Vector.WorkgroupSize
	runID := uuid.NewString()
	log := r.logger.With(zap.String("runId", runID), zap.String("backend", r.backend.Name()))

	metrics.VectorLength.Set(float64(n))
	metrics.WorkgroupSize.Set(float64(wg))

	status := "failure"
	started := time.Now()
	defer func() {
		metrics.RunsTotal.WithLabelValues(r.backend.Name(), status).Inc()
		metrics.RunDuration.Observe(time.Since(started).Seconds() * 1000)
	}()

	log.Info("starting offload run",
		zap.Int("length", n),
		zap.Int("workgroupSize", wg),
		zap.Int("workGroups", n/wg))

	// Host vectors. A and B carry the fill constants; C is written by the
	// device only.
	hostA := make([]int32, n)
	hostB := make([]int32, n)
	hostC := make([]int32, n)
	for i := range hostA {
		hostA[i] = r.cfg.Vector.FillA
		hostB[i] = r.cfg.Vector.FillB
	}

	// Platform and device discovery: first platform, first device of any
	// type, the canonical selection.
	platforms, err := r.backend.Platforms()
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: backend %s exposes no platforms", accel.ErrPlatformUnavailable, r.backend.Name())
	}
	platform := platforms[0]
	log.Debug("platform selected", zap.String("platform", platform.Name()), zap.String("vendor", platform.Vendor()))

	devices, err := platform.Devices(accel.DeviceAll)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: platform %s exposes no devices", accel.ErrDeviceUnavailable, platform.Name())
	}
	device := devices[0]
	log.Debug("device selected", zap.String("device", device.Name()))

	devCtx, err := device.CreateContext()
	if err != nil {
		return nil, err
	}
	defer r.release("context", devCtx.Release)

	queue, err := devCtx.CreateQueue()
	if err != nil {
		return nil, err
	}
	defer r.release("queue", queue.Release)

	bufBytes := int64(n) * 4
	bufA, err := devCtx.CreateBuffer(accel.MemReadOnly, bufBytes)
	if err != nil {
		return nil, err
	}
	defer r.release("buffer A", bufA.Release)
	bufB, err := devCtx.CreateBuffer(accel.MemReadOnly, bufBytes)
	if err != nil {
		return nil, err
	}
	defer r.release("buffer B", bufB.Release)
	bufC, err := devCtx.CreateBuffer(accel.MemWriteOnly, bufBytes)
	if err != nil {
		return nil, err
	}
	defer r.release("buffer C", bufC.Release)

	// Non-blocking uploads. The two writes target independent regions; the
	// queue's FIFO order is the only synchronization the pipeline needs.
	uploadStart := time.Now()
	if err := queue.EnqueueWrite(bufA, accel.Int32Bytes(hostA), false); err != nil {
		return nil, err
	}
	if err := queue.EnqueueWrite(bufB, accel.Int32Bytes(hostB), false); err != nil {
		return nil, err
	}
	metrics.TransferredBytes.WithLabelValues("upload").Add(float64(2 * bufBytes))
	uploadDur := time.Since(uploadStart)
	r.phase("upload", uploadDur)

	compileStart := time.Now()
	program, err := devCtx.CreateProgram(kernels.SourceFor(r.backend.Name()))
	if err != nil {
		return nil, err
	}
	defer r.release("program", program.Release)
	if err := program.Build(); err != nil {
		var buildErr *accel.BuildError
		if errors.As(err, &buildErr) {
			log.Error("kernel build failed", zap.String("buildLog", buildErr.Log))
		}
		return nil, err
	}
	compileDur := time.Since(compileStart)
	r.phase("compile", compileDur)

	kernel, err := program.CreateKernel(kernels.VecAdd)
	if err != nil {
		return nil, err
	}
	defer r.release("kernel", kernel.Release)

	for i, buf := range []accel.Buffer{bufA, bufB, bufC} {
		if err := kernel.SetArg(i, buf); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Config validation already rejected a non-divisible length; revalidate
	// at the dispatch boundary so a hand-built config cannot slip through.
	if n%wg != 0 {
		return nil, fmt.Errorf("%w: global size %d not divisible by work-group size %d", accel.ErrLaunch, n, wg)
	}
	launchStart := time.Now()
	if err := queue.EnqueueNDRange(kernel, []int{n}, []int{wg}); err != nil {
		return nil, err
	}
	metrics.KernelLaunches.WithLabelValues(r.backend.Name()).Inc()
	launchDur := time.Since(launchStart)
	r.phase("launch", launchDur)

	// A single blocking read is the synchronization point: it returns only
	// after the uploads and the kernel completed in queue order.
	readStart := time.Now()
	if err := queue.EnqueueRead(bufC, accel.Int32Bytes(hostC), true); err != nil {
		return nil, err
	}
	metrics.TransferredBytes.WithLabelValues("download").Add(float64(bufBytes))
	readDur := time.Since(readStart)
	r.phase("readback", readDur)

	report := &Report{
		RunID:         runID,
		Backend:       r.backend.Name(),
		Platform:      platform.Name(),
		Device:        device.Name(),
		Length:        n,
		WorkgroupSize: wg,
		WorkGroups:    n / wg,
		Result:        hostC,
	}

	if r.cfg.Verify {
		if err := r.verify(log, hostC); err != nil {
			return nil, err
		}
		report.Verified = true
	}

	if r.cfg.Attest {
		digest := attest.Digest(runID, kernels.VecAdd, n, wg, accel.Int32Bytes(hostC))
		attestation, err := attest.Sign(r.key, digest)
		if err != nil {
			return nil, fmt.Errorf("sign run report: %w", err)
		}
		report.Attestation = attestation
		log.Info("run attested",
			zap.String("address", attestation.Address),
			zap.String("digest", attestation.Digest))
	}

	report.Timings = PhaseTimings{
		Upload:   uploadDur,
		Compile:  compileDur,
		Launch:   launchDur,
		Readback: readDur,
		Total:    time.Since(started),
	}

	status = "success"
	log.Info("offload run complete", zap.Duration("duration", report.Timings.Total))
	return report, nil
}

// verify recomputes the expected vector on the host and compares every
// element. Mismatch positions are sampled into the log.
func (r *Runner) verify(log *zap.Logger, result []int32) error {
	const mismatchSamples = 5

	expected := r.cfg.Vector.FillA + r.cfg.Vector.FillB
	if len(result) != r.cfg.Vector.Length {
		return fmt.Errorf("verification failed: result has %d elements, want %d", len(result), r.cfg.Vector.Length)
	}

	mismatches := 0
	for i, got := range result {
		if got == expected {
			continue
		}
		if mismatches < mismatchSamples {
			log.Warn("result mismatch",
				zap.Int("index", i),
				zap.Int32("got", got),
				zap.Int32("want", expected))
		}
		mismatches++
	}
	if mismatches > 0 {
		return fmt.Errorf("verification failed: %d of %d elements mismatched", mismatches, len(result))
	}
	log.Debug("result verified", zap.Int32("expected", expected))
	return nil
}
