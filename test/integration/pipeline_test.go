//go:build integration

package integration

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/internal/accel"
	"github.com/accelforge/vecadd/internal/config"
	"github.com/accelforge/vecadd/internal/offload"
)

// TestPipelineEndToEnd assembles the application the way the CLI does and
// drives one full offload run through the selected backend.
func TestPipelineEndToEnd(t *testing.T) {
	var report *offload.Report

	app := fxtest.New(t,
		fx.Provide(
			config.Default,
			zap.NewNop,
			func(log *zap.Logger, cfg *config.Config) (*accel.Manager, error) {
				return accel.NewManager(log, cfg.Backend)
			},
			offload.NewRunner,
		),
		fx.Invoke(func(lc fx.Lifecycle, runner *offload.Runner, manager *accel.Manager) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					var err error
					report, err = runner.Run(ctx)
					return err
				},
				OnStop: func(context.Context) error {
					return manager.Cleanup()
				},
			})
		}),
	)

	app.RequireStart().RequireStop()

	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2048, report.Length)
	assert.Equal(t, 8, report.WorkGroups)
	assert.True(t, report.Verified)

	require.Len(t, report.Result, 2048)
	for i, got := range report.Result {
		if got != 2 {
			t.Fatalf("element %d = %d, want 2", i, got)
		}
	}
}

// TestPrintedOutputIsIdempotent runs the pipeline twice and compares the
// printed result byte for byte.
func TestPrintedOutputIsIdempotent(t *testing.T) {
	cfg := config.Default()
	manager, err := accel.NewManager(zap.NewNop(), cfg.Backend)
	require.NoError(t, err)
	defer func() { _ = manager.Cleanup() }()

	runner := offload.NewRunner(cfg, zap.NewNop(), manager)

	var first, second bytes.Buffer
	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, offload.WriteVector(&first, report.Result))

	report, err = runner.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, offload.WriteVector(&second, report.Result))

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, 2048, bytes.Count(first.Bytes(), []byte("\n")))
}

// TestUnknownBackendIsRejected checks that pinning a backend the binary does
// not know fails selection instead of silently falling back.
func TestUnknownBackendIsRejected(t *testing.T) {
	_, err := accel.NewManager(zap.NewNop(), "cuda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}
