package vkframe

import (
	"log/slog"
	"sync/atomic"
)

var (
	logger  atomic.Pointer[slog.Logger]
	discard = slog.New(slog.DiscardHandler)
)

// SetLogger configures the logger used by vkframe. By default nothing is
// logged. Pass nil to restore the silent default.
//
// Log levels used by vkframe:
//   - [slog.LevelDebug]: handle creation, swapchain recreation details
//   - [slog.LevelInfo]: device selection, swapchain creation
//   - [slog.LevelWarn]: suboptimal presents, skipped frames, fallbacks
//
// Drivers that accept a logger (driver/vulkan does) receive it when a
// Graphics is created.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// Logger returns the current logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return discard
}

// propagateLogger hands the vkframe logger to drv if it takes one.
func propagateLogger(drv any) {
	if ls, ok := drv.(interface{ SetLogger(*slog.Logger) }); ok {
		ls.SetLogger(Logger())
	}
}
