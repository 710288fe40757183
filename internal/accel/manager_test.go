package accel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewManager(t *testing.T) {
	manager, err := NewManager(zap.NewNop(), "")
	require.NoError(t, err)

	// Without accelerator build tags the simulator is selected
	assert.NotNil(t, manager.Backend())
	assert.Equal(t, "sim", manager.BackendName())
	assert.False(t, manager.IsAccelerated())

	err = manager.Cleanup()
	assert.NoError(t, err)
	assert.Nil(t, manager.Backend())
	assert.Equal(t, "none", manager.BackendName())
}

func TestNewManager_Preferred(t *testing.T) {
	manager, err := NewManager(zap.NewNop(), "sim")
	require.NoError(t, err)
	defer manager.Cleanup()

	assert.Equal(t, "sim", manager.BackendName())
}

func TestNewManager_UnknownBackend(t *testing.T) {
	_, err := NewManager(zap.NewNop(), "vulkan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestNewManager_NotBuiltBackend(t *testing.T) {
	// opencl is a known name but requires its build tag
	if b := (&Manager{logger: zap.NewNop()}).tryCreateOpenCLBackend(); b != nil {
		t.Skip("opencl compiled in")
	}
	_, err := NewManager(zap.NewNop(), "opencl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not built into this binary")
}

func TestManager_DeviceInfos(t *testing.T) {
	manager, err := NewManager(zap.NewNop(), "")
	require.NoError(t, err)
	defer manager.Cleanup()

	infos, err := manager.DeviceInfos()
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	assert.NotEmpty(t, infos[0].Name)
}

func TestKnownBackend(t *testing.T) {
	assert.True(t, KnownBackend("sim"))
	assert.True(t, KnownBackend("opencl"))
	assert.True(t, KnownBackend("occa"))
	assert.False(t, KnownBackend("cuda"))
	assert.False(t, KnownBackend(""))
}

func TestManager_NilLogger(t *testing.T) {
	manager, err := NewManager(nil, "")
	require.NoError(t, err)
	defer manager.Cleanup()
	assert.NotNil(t, manager.Backend())
}
