package integration

import (
	"context"
	"time"

	"icmd-go/bus"
)

func recvOrTimeout(ch <-chan *bus.Message, d time.Duration) (*bus.Message, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case m := <-ch:
		return m, nil
	case <-timer.C:
		return nil, context.DeadlineExceeded
	}
}

// waitFor returns the first message on ch accepted by match.
func waitFor(ch <-chan *bus.Message, d time.Duration, match func(*bus.Message) bool) *bus.Message {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		m, err := recvOrTimeout(ch, time.Until(deadline))
		if err != nil {
			return nil
		}
		if match(m) {
			return m
		}
	}
	return nil
}

func asInt(t any) (int, bool) {
	switch v := t.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
