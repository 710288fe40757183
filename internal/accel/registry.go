package accel

import (
	"fmt"
	"sync"
)

// WorkItem carries the index-space coordinates of one kernel invocation,
// mirroring get_global_id, get_local_id and get_group_id.
type WorkItem struct {
	Global int
	Local  int
	Group  int
}

// NativeKernel executes one work-item of a simulated kernel. Buffer
// arguments arrive as the raw backing bytes in binding order; scalar
// arguments arrive as the bound value. Out of range access panics and
// poisons the queue the launch ran on.
type NativeKernel func(item WorkItem, args []any)

var (
	nativesMu sync.RWMutex
	natives   = map[string]NativeKernel{}
)

// RegisterNative binds a native implementation to a kernel entry point name.
// The simulator backend executes the native when a program declaring that
// entry point is built. Registering the same name twice panics.
func RegisterNative(name string, k NativeKernel) {
	nativesMu.Lock()
	defer nativesMu.Unlock()
	if k == nil {
		panic("accel: RegisterNative with nil kernel")
	}
	if _, dup := natives[name]; dup {
		panic(fmt.Sprintf("accel: RegisterNative called twice for %q", name))
	}
	natives[name] = k
}

// NativeFor looks up the registered native implementation for an entry
// point name.
func NativeFor(name string) (NativeKernel, bool) {
	nativesMu.RLock()
	defer nativesMu.RUnlock()
	k, ok := natives[name]
	return k, ok
}
