// Package kernels ships the device kernel sources embedded in the binary,
// one dialect per backend family, plus the native implementations the
// simulator executes for them.
package kernels

import (
	_ "embed"

	"github.com/accelforge/vecadd/internal/accel"
)

// VecAdd is the entry point name of the element-wise vector addition
// kernel: C[i] = A[i] + B[i] over int32 elements.
const VecAdd = "vecadd"

// VecAddCL is the OpenCL C source, used by the opencl backend and parsed
// by the simulator.
//
//go:embed vecadd.cl
var VecAddCL string

// VecAddOKL is the OKL source for the occa backend. OKL kernels declare two
// trailing int parameters, global size then work-group size, which the occa
// backend supplies at launch.
//
//go:embed vecadd.okl
var VecAddOKL string

// SourceFor returns the kernel source dialect the named backend compiles.
func SourceFor(backend string) string {
	if backend == "occa" {
		return VecAddOKL
	}
	return VecAddCL
}

func init() {
	accel.RegisterNative(VecAdd, func(item accel.WorkItem, args []any) {
		a := accel.BytesInt32(args[0].([]byte))
		b := accel.BytesInt32(args[1].([]byte))
		c := accel.BytesInt32(args[2].([]byte))
		c[item.Global] = a[item.Global] + b[item.Global]
	})
}
