package accel

import "unsafe"

// Int32Bytes reinterprets v as its backing bytes without copying. The view
// aliases v; it is valid as long as v is.
func Int32Bytes(v []int32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

// BytesInt32 reinterprets b as int32 words without copying. len(b) must be a
// multiple of 4 and the backing array must be int32 aligned, which holds for
// buffer storage handed to native kernels.
func BytesInt32(b []byte) []int32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), len(b)/4)
}
