//go:build windows

package engine

import (
	"syscall"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

var (
	dwmapi                    = syscall.NewLazyDLL("dwmapi.dll")
	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")
)

const (
	dwmwaUseImmersiveDarkMode = 20
	dwmwaBorderColor          = 34
	dwmwaCaptionColor         = 35
)

// decorate darkens the title bar and tints caption and border with the
// scene's clear color.
func decorate(window *glfw.Window, clear [3]float32) {
	hwnd := window.GetWin32Window()
	if hwnd == nil {
		return
	}
	setAttribute := func(attr uintptr, value uint32) {
		procDwmSetWindowAttribute.Call(
			uintptr(unsafe.Pointer(hwnd)),
			attr,
			uintptr(unsafe.Pointer(&value)),
			unsafe.Sizeof(value),
		)
	}

	setAttribute(dwmwaUseImmersiveDarkMode, 1)
	r, g, b := clear[0], clear[1], clear[2]
	colorBGR := uint32(uint8(b*255))<<16 | uint32(uint8(g*255))<<8 | uint32(uint8(r*255))
	setAttribute(dwmwaBorderColor, colorBGR)
	setAttribute(dwmwaCaptionColor, colorBGR)
}
