package sloghelper

import (
	"log/slog"
	"sync/atomic"
)

// A slog.Leveler that can be changed while loggers are using it, for
// example when debug logging is switched on from the command line.
type Leveler struct {
	level int32
}

func NewLeveler(level slog.Level) *Leveler {
	l := &Leveler{}
	l.SetLevel(level)
	return l
}

func (l *Leveler) Level() slog.Level {
	return slog.Level(atomic.LoadInt32(&l.level))
}

func (l *Leveler) SetLevel(level slog.Level) {
	atomic.StoreInt32(&l.level, int32(level))
}
