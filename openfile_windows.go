//go:build windows

package main

import (
	"syscall"
	"unsafe"
)

var (
	shell32           = syscall.NewLazyDLL("shell32.dll")
	procShellExecuteW = shell32.NewProc("ShellExecuteW")
)

// openFile opens path with its default application.
func openFile(path string) error {
	operationUTF16, err := syscall.UTF16PtrFromString("open")
	if err != nil {
		return err
	}
	pathUTF16, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return err
	}

	ret, _, callErr := procShellExecuteW.Call(
		0,
		uintptr(unsafe.Pointer(operationUTF16)),
		uintptr(unsafe.Pointer(pathUTF16)),
		0,
		0,
		1, // SW_SHOWNORMAL
	)

	// ShellExecute returns a value > 32 on success
	if ret <= 32 {
		if errno, ok := callErr.(syscall.Errno); ok && errno != 0 {
			return errno
		}
		return syscall.Errno(ret)
	}
	return nil
}
