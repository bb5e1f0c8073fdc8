package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icmd-go/services/hal/internal/halcore"
)

type fakeAdaptor struct {
	id          string
	delay       time.Duration
	collectErrs int // number of consecutive ErrNotReady before success
	failErr     error
	triggers    atomic.Int32
}

func (f *fakeAdaptor) ID() string                      { return f.id }
func (f *fakeAdaptor) Capabilities() []halcore.CapInfo { return nil }
func (f *fakeAdaptor) Trigger(ctx context.Context) (time.Duration, error) {
	f.triggers.Add(1)
	if f.failErr != nil {
		return 0, f.failErr
	}
	return f.delay, nil
}
func (f *fakeAdaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	if f.collectErrs > 0 {
		f.collectErrs--
		return nil, halcore.ErrNotReady
	}
	if f.failErr != nil {
		return nil, f.failErr
	}
	return halcore.Sample{{Kind: "counter", Payload: int64(123), TsMs: time.Now().UnixMilli()}}, nil
}
func (f *fakeAdaptor) Control(string, string, any) (any, error) { return nil, halcore.ErrUnsupported }

func recv(t *testing.T, ch <-chan halcore.Result) halcore.Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for result")
		return halcore.Result{}
	}
}

func TestMeasureWorkerSuccessWithRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 1)
	w := New(halcore.WorkerConfig{
		TriggerTimeout: 5 * time.Millisecond,
		CollectTimeout: 10 * time.Millisecond,
		RetryBackoff:   2 * time.Millisecond,
		MaxRetries:     5,
		InputQueueSize: 4,
	}, results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "enc0", delay: time.Millisecond, collectErrs: 2}
	require.True(t, w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}))

	r := recv(t, results)
	require.NoError(t, r.Err)
	require.Len(t, r.Sample, 1)
	assert.Equal(t, "counter", r.Sample[0].Kind)
}

func TestMeasureWorkerRetriesExhausted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 1)
	w := New(halcore.WorkerConfig{RetryBackoff: time.Millisecond, MaxRetries: 2}, results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "enc1", collectErrs: 10}
	require.True(t, w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}))

	r := recv(t, results)
	assert.ErrorIs(t, r.Err, halcore.ErrNotReady)
}

func TestMeasureWorkerErrorPathAndPrio(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 2)
	w := New(halcore.WorkerConfig{}, results)
	w.Start(ctx)

	boom := errors.New("boom")
	ad := &fakeAdaptor{id: "encX", delay: time.Millisecond, failErr: boom}
	require.True(t, w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}))
	require.True(t, w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad, Prio: true}))

	r := recv(t, results)
	assert.ErrorIs(t, r.Err, boom)
}

func TestMeasureWorkerDedupesInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan halcore.Result, 4)
	w := New(halcore.WorkerConfig{}, results)
	w.Start(ctx)

	ad := &fakeAdaptor{id: "enc2", delay: 30 * time.Millisecond}
	require.True(t, w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}))
	require.True(t, w.Submit(halcore.MeasureReq{ID: ad.id, Adaptor: ad}))

	r := recv(t, results)
	require.NoError(t, r.Err)
	select {
	case extra := <-results:
		t.Fatalf("unexpected second result: %+v", extra)
	case <-time.After(80 * time.Millisecond):
	}
	assert.Equal(t, int32(1), ad.triggers.Load())
}

func TestSubmitFullQueue(t *testing.T) {
	w := New(halcore.WorkerConfig{InputQueueSize: 1}, make(chan halcore.Result, 1))
	ad := &fakeAdaptor{id: "q"}
	assert.True(t, w.Submit(halcore.MeasureReq{ID: "a", Adaptor: ad}))
	assert.False(t, w.Submit(halcore.MeasureReq{ID: "b", Adaptor: ad}))
	assert.False(t, w.Submit(halcore.MeasureReq{ID: "c", Adaptor: ad, Prio: true}))
}
