// services/hal/internal/devices/icmd/adaptor.go
package icmddev

import (
	"context"
	"sync"
	"time"

	"icmd-go/drivers/icmd"
	"icmd-go/errcode"
	"icmd-go/services/hal/internal/consts"
	"icmd-go/services/hal/internal/halcore"
	"icmd-go/services/hal/internal/util"
	"icmd-go/types"
	"icmd-go/x/timex"
)

// adaptor owns one chip. mu is held across every driver call so that
// read-modify-write pairs and counter reads never interleave.
type adaptor struct {
	id      string
	mu      sync.Mutex
	dev     *icmd.Device
	info    types.CounterInfo
	release func()
}

func (a *adaptor) ID() string { return a.id }

func (a *adaptor) Capabilities() []halcore.CapInfo {
	a.mu.Lock()
	m := a.dev.CachedMode()
	a.mu.Unlock()

	info := a.info
	info.Mode, info.Counters = m.String(), m.Counters()
	return []halcore.CapInfo{
		{Kind: types.KindCounter, Info: types.Info{SchemaVersion: 1, Driver: "icmd", Detail: info}},
		{Kind: types.KindCounterStatus, Info: types.Info{SchemaVersion: 1, Driver: "icmd", Detail: info}},
	}
}

// Trigger is a no-op: the counter is always live.
func (a *adaptor) Trigger(ctx context.Context) (time.Duration, error) { return 0, nil }

func (a *adaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, err := a.dev.ReadCounter()
	if err != nil {
		return nil, err
	}
	st, err := a.dev.ReadStatus()
	if err != nil {
		return nil, err
	}
	ts := timex.NowMs()
	return halcore.Sample{
		{Kind: types.KindCounter, Payload: counterValue(v), TsMs: ts},
		{Kind: types.KindCounterStatus, Payload: statusValue(st), TsMs: ts},
	}, nil
}

func (a *adaptor) Close() error {
	if a.release != nil {
		a.release()
	}
	return nil
}

func decode[T any](payload any) (T, error) {
	var v T
	if err := util.DecodeJSON(payload, &v); err != nil {
		return v, errcode.InvalidPayload
	}
	return v, nil
}

func (a *adaptor) Control(kind, method string, payload any) (any, error) {
	if kind == types.KindCounterStatus {
		if method != consts.CtrlStatus {
			return nil, halcore.ErrUnsupported
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		st, err := a.dev.ReadStatus()
		if err != nil {
			return nil, err
		}
		return statusValue(st), nil
	}
	if kind != types.KindCounter {
		return nil, halcore.ErrUnsupported
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch method {
	case consts.CtrlSetMode:
		p, err := decode[types.CounterSetMode](payload)
		if err != nil {
			return nil, err
		}
		m, err := icmd.ParseCounterMode(p.Mode)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetCounterMode(m))

	case consts.CtrlGetConfig:
		r, err := a.dev.ReadConfig()
		if err != nil {
			return nil, err
		}
		return configReply(r), nil

	case consts.CtrlSetDirection:
		p, err := decode[types.CounterSetDirection](payload)
		if err != nil {
			return nil, err
		}
		ch, err := channelArg(p.Channel)
		if err != nil {
			return nil, err
		}
		dir, err := lookup(directionNames, p.Direction)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetCountingDirection(ch, dir))

	case consts.CtrlSetIndexInversion:
		p, err := decode[types.CounterSetIndexInversion](payload)
		if err != nil {
			return nil, err
		}
		ch, err := channelArg(p.Channel)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetIndexInversion(ch, polarity(p.Inverted)))

	case consts.CtrlSetIndexClear:
		p, err := decode[types.CounterSetIndexClear](payload)
		if err != nil {
			return nil, err
		}
		ch, err := channelArg(p.Channel)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetIndexClearsCounter(ch, clearMode(p.Clears)))

	case consts.CtrlSetZMode:
		p, err := decode[types.CounterSetZMode](payload)
		if err != nil {
			return nil, err
		}
		z, err := lookup(zModeNames, p.Mode)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetIndexZMode(z))

	case consts.CtrlSetInput:
		p, err := decode[types.CounterSetInput](payload)
		if err != nil {
			return nil, err
		}
		in, err := lookup(inputNames, p.Input)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetInputMode(in))

	case consts.CtrlSetDifferential:
		p, err := decode[types.CounterSetDifferential](payload)
		if err != nil {
			return nil, err
		}
		d, err := lookup(differentialNames, p.Mode)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SetDifferentialMode(d))

	case consts.CtrlInstruction:
		p, err := decode[types.CounterInstruction](payload)
		if err != nil {
			return nil, err
		}
		in, err := instruction(p)
		if err != nil {
			return nil, err
		}
		return ok(a.dev.SendInstruction(in))

	case consts.CtrlReset:
		p, err := decode[types.CounterReset](payload)
		if err != nil {
			return nil, err
		}
		ch, err := channelArg(p.Channel)
		if err != nil {
			return nil, err
		}
		bit, _ := icmd.ResetCounter(ch)
		return ok(a.dev.SendInstruction(bit))

	case consts.CtrlIdentity:
		id, err := a.dev.CheckDevice()
		if err != nil {
			return nil, err
		}
		return types.CounterIdentity{Code: int(id), Status: id.String()}, nil

	case consts.CtrlReference:
		return register(a.dev.ReadReference())

	case consts.CtrlUpdate:
		return register(a.dev.ReadUpdate())

	case consts.CtrlTouchProbe:
		p, err := decode[types.CounterTouchProbe](payload)
		if err != nil {
			return nil, err
		}
		v, err := a.dev.ReadTouchProbe(p.Probe)
		if err != nil {
			return nil, err
		}
		return counterValue(v), nil

	case consts.CtrlStatus:
		st, err := a.dev.ReadStatus()
		if err != nil {
			return nil, err
		}
		return statusValue(st), nil
	}
	return nil, halcore.ErrUnsupported
}

func ok(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return types.OKReply{OK: true}, nil
}

func register(v uint32, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return types.CounterRegister{Value: v}, nil
}
