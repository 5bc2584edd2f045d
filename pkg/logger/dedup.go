package logger

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Deduper collapses identical consecutive messages into one entry carrying
// a repeat count. A pending message is written when a different message
// arrives or after flushDelay without repeats.
type Deduper struct {
	mu         sync.Mutex
	logger     *zap.Logger
	lastMsg    string
	count      int
	flushDelay time.Duration
	timer      *time.Timer
}

func NewDeduper(l *zap.Logger, flushDelay time.Duration) *Deduper {
	return &Deduper{logger: l, flushDelay: flushDelay}
}

var dedup = NewDeduper(zap.NewNop(), 2*time.Second)

// SetDefault routes the package-level Dedup to l.
func SetDefault(l *zap.Logger) {
	dedup.mu.Lock()
	defer dedup.mu.Unlock()
	dedup.flush()
	dedup.logger = l
}

// Dedup logs through the default deduper.
func Dedup(format string, args ...any) {
	dedup.Logf(format, args...)
}

func (d *Deduper) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()

	if msg == d.lastMsg {
		d.count++
	} else {
		d.flush()
		d.lastMsg = msg
		d.count = 1
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.flushDelay, d.Flush)
}

// Flush writes the pending message, if any.
func (d *Deduper) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flush()
}

func (d *Deduper) flush() {
	if d.count == 0 {
		return
	}
	if d.count == 1 {
		d.logger.Info(d.lastMsg)
	} else {
		d.logger.Info(d.lastMsg, zap.Int("repeated", d.count))
	}
	d.count = 0
	d.lastMsg = ""
}
