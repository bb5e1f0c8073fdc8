package logx

import (
	"os"
	"sync/atomic"
)

var def atomic.Pointer[Logger]

func init() {
	l := New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
	def.Store(&l)
}

// Default returns the process-wide logger.
func Default() Logger { return *def.Load() }

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) { def.Store(&l) }

func Debug(msg string, keysAndValues ...any) { Default().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)  { Default().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)  { Default().Warn(msg, keysAndValues...) }
func Error(msg string, keysAndValues ...any) { Default().Error(msg, keysAndValues...) }

func With(keyValues ...any) Logger { return Default().With(keyValues...) }
