// services/hal/internal/worker/measure_worker.go
package worker

import (
	"context"
	"errors"
	"time"

	"icmd-go/services/hal/internal/halcore"
	"icmd-go/services/hal/internal/util"
)

// MeasureWorker runs the split-phase Trigger/Collect cycle for every device
// on one bus, one call at a time.
type MeasureWorker struct {
	cfg  halcore.WorkerConfig
	reqQ chan halcore.MeasureReq
	sink chan<- halcore.Result // fan-in sink owned by service

	pending  map[string]*collectItem // devID -> in-flight item
	rerun    map[string]bool         // prio request seen while in flight
	collects []*collectItem
	timer    *time.Timer
}

type collectItem struct {
	id      string
	adaptor halcore.Adaptor
	due     time.Time
	retries int
}

func New(cfg halcore.WorkerConfig, sink chan<- halcore.Result) *MeasureWorker {
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 100 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 15 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 6
	}
	if cfg.InputQueueSize <= 0 {
		cfg.InputQueueSize = 16
	}
	return &MeasureWorker{
		cfg:     cfg,
		reqQ:    make(chan halcore.MeasureReq, cfg.InputQueueSize),
		sink:    sink,
		pending: map[string]*collectItem{},
		rerun:   map[string]bool{},
		timer:   time.NewTimer(time.Hour),
	}
}

// Submit queues req without blocking. Prio requests wait briefly for room.
func (w *MeasureWorker) Submit(req halcore.MeasureReq) bool {
	select {
	case w.reqQ <- req:
		return true
	default:
	}
	if !req.Prio {
		return false
	}
	select {
	case w.reqQ <- req:
		return true
	case <-time.After(5 * time.Millisecond):
		return false
	}
}

func (w *MeasureWorker) Start(ctx context.Context) {
	if !w.timer.Stop() {
		util.DrainTimer(w.timer)
	}
	go w.loop(ctx)
}

func (w *MeasureWorker) loop(ctx context.Context) {
	for {
		if next := w.minDue(); next.IsZero() {
			util.ResetTimer(w.timer, time.Hour)
		} else {
			util.ResetTimer(w.timer, time.Until(next))
		}
		select {
		case <-ctx.Done():
			return
		case req := <-w.reqQ:
			w.accept(ctx, req)
		case <-w.timer.C:
			w.collectDue(ctx, time.Now())
		}
	}
}

func (w *MeasureWorker) accept(ctx context.Context, req halcore.MeasureReq) {
	if _, busy := w.pending[req.ID]; busy {
		if req.Prio {
			w.rerun[req.ID] = true
		}
		return
	}
	it := &collectItem{id: req.ID, adaptor: req.Adaptor}
	if err := w.trigger(ctx, it); err != nil {
		w.emit(ctx, halcore.Result{ID: req.ID, Err: err})
		return
	}
	w.pending[req.ID] = it
	w.collects = append(w.collects, it)
}

func (w *MeasureWorker) trigger(ctx context.Context, it *collectItem) error {
	tctx, cancel := context.WithTimeout(ctx, w.cfg.TriggerTimeout)
	after, err := it.adaptor.Trigger(tctx)
	cancel()
	if err != nil {
		return err
	}
	it.retries = 0
	it.due = time.Now().Add(after)
	return nil
}

func (w *MeasureWorker) collectDue(ctx context.Context, now time.Time) {
	keep := w.collects[:0]
	for _, it := range w.collects {
		if now.Before(it.due) {
			keep = append(keep, it)
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CollectTimeout)
		s, err := it.adaptor.Collect(cctx)
		cancel()
		switch {
		case err == nil:
			delete(w.pending, it.id)
			delete(w.rerun, it.id)
			w.emit(ctx, halcore.Result{ID: it.id, Sample: s})
		case errors.Is(err, halcore.ErrNotReady) && it.retries < w.cfg.MaxRetries:
			it.retries++
			it.due = now.Add(w.cfg.RetryBackoff)
			keep = append(keep, it)
		default:
			delete(w.pending, it.id)
			w.emit(ctx, halcore.Result{ID: it.id, Err: err})
			// A read_now that arrived during a failing cycle gets a fresh one.
			if w.rerun[it.id] {
				delete(w.rerun, it.id)
				if w.trigger(ctx, it) == nil {
					w.pending[it.id] = it
					keep = append(keep, it)
				}
			}
		}
	}
	w.collects = keep
}

func (w *MeasureWorker) emit(ctx context.Context, r halcore.Result) {
	select {
	case w.sink <- r:
	case <-ctx.Done():
	}
}

func (w *MeasureWorker) minDue() time.Time {
	var earliest time.Time
	for _, it := range w.collects {
		if earliest.IsZero() || it.due.Before(earliest) {
			earliest = it.due
		}
	}
	return earliest
}
