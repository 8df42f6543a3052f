package main

import "unsafe"

func ptrAddr(p unsafe.Pointer) uintptr { return uintptr(p) }

func ptrFromAddr(addr uintptr) unsafe.Pointer { return unsafe.Pointer(addr) } //nolint:govet // bench harness only, not a retained conversion
