// services/hal/internal/gpioirq/irq_worker.go
package gpioirq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"icmd-go/services/hal/internal/halcore"
)

// Event is delivered from the worker to the HAL service.
type Event struct {
	DevID string
	Level bool // after inversion
	Edge  halcore.Edge
	TS    time.Time
}

type Worker struct {
	// Written by ISR; MUST NOT block the ISR:
	isrQ chan isrEvent
	// Consumed by the HAL service:
	outQ chan Event

	mu     sync.RWMutex
	inputs map[string]*watch // devID -> watch

	drops atomic.Uint32 // ISR drop counter
}

type isrEvent struct {
	devID string
	level bool // captured in ISR
}

type watch struct {
	edge      halcore.Edge
	debounce  time.Duration
	invert    bool
	lastLevel bool
	lastEvent time.Time
	cancelIRQ func()
}

func New(isrBuf, outBuf int) *Worker {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	if outBuf <= 0 {
		outBuf = 64
	}
	return &Worker{
		isrQ:   make(chan isrEvent, isrBuf),
		outQ:   make(chan Event, outBuf),
		inputs: map[string]*watch{},
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.isrQ:
				w.handleISR(ev)
			}
		}
	}()
}

func (w *Worker) Events() <-chan Event { return w.outQ }

// RegisterInput arms pin for devID and returns its cancel function.
// EdgeNone registers nothing.
func (w *Worker) RegisterInput(devID string, pin halcore.IRQPin, edge halcore.Edge, debounceMS int, invert bool) (func(), error) {
	if edge == halcore.EdgeNone {
		return func() {}, nil
	}
	// Initial logical level, so that edge detection compares like-for-like.
	level := pin.Get() != invert
	wh := &watch{
		edge:      edge,
		debounce:  time.Duration(debounceMS) * time.Millisecond,
		invert:    invert,
		lastLevel: level,
	}

	// ISR handler: fast register read + non-blocking channel send.
	handler := func() {
		select {
		case w.isrQ <- isrEvent{devID: devID, level: pin.Get()}:
		default:
			w.drops.Add(1)
		}
	}
	if err := pin.SetIRQ(edge, handler); err != nil {
		return nil, err
	}
	wh.cancelIRQ = func() { _ = pin.ClearIRQ() }

	w.mu.Lock()
	w.inputs[devID] = wh
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		if cur, ok := w.inputs[devID]; ok && cur == wh {
			cur.cancelIRQ()
			delete(w.inputs, devID)
		}
		w.mu.Unlock()
	}, nil
}

func (w *Worker) handleISR(ev isrEvent) {
	w.mu.RLock()
	wh := w.inputs[ev.devID]
	w.mu.RUnlock()
	if wh == nil {
		return
	}
	level := ev.level != wh.invert
	now := time.Now()

	if !wh.lastEvent.IsZero() && now.Sub(wh.lastEvent) < wh.debounce {
		return
	}

	var e halcore.Edge
	switch {
	case !wh.lastLevel && level:
		e = halcore.EdgeRising
	case wh.lastLevel && !level:
		e = halcore.EdgeFalling
	}
	if wh.edge != halcore.EdgeBoth && e != wh.edge {
		// single-edge IRQs fire only on their edge; trust the hardware
		e = wh.edge
	}

	if e != halcore.EdgeNone {
		select {
		case w.outQ <- Event{DevID: ev.devID, Level: level, Edge: e, TS: now}:
		default:
			// drop to protect system if consumer is slow
		}
	}

	wh.lastLevel = level
	wh.lastEvent = now
}

func (w *Worker) ISRDrops() uint32 { return w.drops.Load() }
