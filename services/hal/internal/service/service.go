// services/hal/internal/service/service.go
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"icmd-go/bus"
	"icmd-go/errcode"
	"icmd-go/services/hal/internal/consts"
	"icmd-go/services/hal/internal/gpioirq"
	"icmd-go/services/hal/internal/halcore"
	"icmd-go/services/hal/internal/halerr"
	"icmd-go/services/hal/internal/registry"
	"icmd-go/services/hal/internal/util"
	"icmd-go/services/hal/internal/worker"
	"icmd-go/types"
	"icmd-go/x/logx"
)

const (
	minPeriod   = 200 * time.Millisecond
	maxPeriod   = time.Hour
	firstSample = 200 * time.Millisecond
)

type devEntry struct {
	adaptor halcore.Adaptor
	caps    map[string]int // kind -> numeric capability id
	busID   string
}

type capKey struct {
	kind string
	id   int
}

type Service struct {
	conn  *bus.Connection
	buses halcore.SPIBusFactory
	pins  halcore.PinFactory
	log   logx.Logger

	workers map[string]*worker.MeasureWorker // busID -> worker
	results chan halcore.Result

	// GPIO IRQ support
	gpioW      *gpioirq.Worker
	gpioCancel map[string]func() // devID -> cancel function

	devices map[string]devEntry

	capToDev  map[capKey]string // (kind,id) -> devID
	nextCapID map[string]int

	devPeriod  map[string]time.Duration
	devNextDue map[string]time.Time

	timer *time.Timer
}

var (
	topicConfigHAL = bus.Topic{consts.TokConfig, consts.TokHAL}
	topicCtrl      = bus.Topic{consts.TokHAL, consts.TokCapability, "+", "+", consts.TokControl, "+"}
)

func New(conn *bus.Connection, buses halcore.SPIBusFactory, pins halcore.PinFactory, log logx.Logger) *Service {
	if log == nil {
		log = logx.Default()
	}
	return &Service{
		conn:       conn,
		buses:      buses,
		pins:       pins,
		log:        log.With("svc", "hal"),
		workers:    map[string]*worker.MeasureWorker{},
		results:    make(chan halcore.Result, 64),
		gpioW:      gpioirq.New(64, 64),
		gpioCancel: map[string]func(){},
		devices:    map[string]devEntry{},
		capToDev:   map[capKey]string{},
		nextCapID:  map[string]int{},
		devPeriod:  map[string]time.Duration{},
		devNextDue: map[string]time.Time{},
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigHAL)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.gpioW.Start(ctx)
	gpioEv := s.gpioW.Events()

	s.publishState("idle", "awaiting_config", nil)

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		util.DrainTimer(s.timer)
	}

	for {
		// arm timer
		if next := s.earliestDevDue(); next.IsZero() {
			util.ResetTimer(s.timer, time.Hour)
		} else {
			util.ResetTimer(s.timer, time.Until(next))
		}

		select {
		case <-ctx.Done():
			s.closeAll()
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.log.Warn("config rejected", "err", err)
				s.publishState("error", "config_wrong_type", err)
				continue
			}
			if err := s.applyConfig(ctx, cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-s.timer.C:
			now := time.Now()
			for devID, due := range s.devNextDue {
				if !now.Before(due) {
					s.submitMeasure(devID, false)
					s.bumpDevNext(devID, now)
				}
			}

		case r := <-s.results:
			s.handleResult(r)

		case ev := <-gpioEv:
			s.handleGPIOEvent(ev)
		}
	}
}

// decodeConfig accepts a typed HALConfig or its JSON-shaped form.
func decodeConfig(p any) (types.HALConfig, error) {
	switch v := p.(type) {
	case types.HALConfig:
		return v, nil
	case *types.HALConfig:
		if v != nil {
			return *v, nil
		}
	case nil:
	default:
		var cfg types.HALConfig
		if err := util.DecodeJSON(v, &cfg); err != nil {
			return types.HALConfig{}, err
		}
		return cfg, nil
	}
	return types.HALConfig{}, errcode.InvalidPayload
}

func (s *Service) handleControl(msg *bus.Message) {
	if len(msg.Topic) < 6 {
		return
	}
	kind, _ := msg.Topic[2].(string)
	idNum, ok := asInt(msg.Topic[3])
	if !ok || kind == "" {
		s.replyErr(msg, halerr.ErrInvalidCapAddr.Error())
		return
	}
	devID, ok := s.capToDev[capKey{kind: kind, id: idNum}]
	if !ok {
		s.replyErr(msg, halerr.ErrUnknownCap.Error())
		return
	}
	method, _ := msg.Topic[5].(string)

	switch method {
	case consts.CtrlReadNow:
		if s.submitMeasure(devID, true) {
			s.bumpDevNext(devID, time.Now())
			s.conn.Reply(msg, types.ReadNowAck{OK: true}, false)
		} else {
			s.replyErr(msg, halerr.ErrBusy.Error())
		}
	case consts.CtrlSetRate:
		if p, ok := decodeSetRate(msg.Payload); ok && p.Period > 0 {
			s.devPeriod[devID] = util.ClampDuration(p.Period, minPeriod, maxPeriod)
			s.bumpDevNext(devID, time.Now())
			s.conn.Reply(msg, types.SetRateAck{OK: true, Period: s.devPeriod[devID]}, false)
		} else {
			s.replyErr(msg, halerr.ErrInvalidPeriod.Error())
		}
	default:
		ent := s.devices[devID]
		if ent.adaptor == nil {
			s.replyErr(msg, halerr.ErrNoAdaptor.Error())
			return
		}
		res, err := ent.adaptor.Control(kind, method, msg.Payload)
		switch {
		case err == nil:
			s.conn.Reply(msg, res, false)
		case errors.Is(err, halcore.ErrUnsupported):
			s.replyErr(msg, halerr.ErrUnsupported.Error())
		default:
			s.log.Debug("control failed", "dev", devID, "method", method, "err", err)
			s.replyErr(msg, string(errcode.MapDriverErr(err)))
		}
	}
}

func decodeSetRate(p any) (types.SetRate, bool) {
	switch v := p.(type) {
	case types.SetRate:
		return v, true
	case nil:
		return types.SetRate{}, false
	}
	var raw struct {
		PeriodMs int `json:"period_ms"`
	}
	if err := util.DecodeJSON(p, &raw); err != nil {
		return types.SetRate{}, false
	}
	return types.SetRate{Period: time.Duration(raw.PeriodMs) * time.Millisecond}, true
}

func (s *Service) applyConfig(ctx context.Context, cfg types.HALConfig) error {
	seen := map[string]struct{}{}

	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		seen[d.ID] = struct{}{}

		if _, exists := s.devices[d.ID]; exists {
			continue
		}

		b, ok := registry.Lookup(d.Type)
		if !ok {
			s.log.Warn("unknown device type", "dev", d.ID, "type", d.Type, "err", halerr.ErrUnknownType)
			continue
		}

		out, err := b.Build(registry.BuildInput{
			Ctx:        ctx,
			Buses:      s.buses,
			Pins:       s.pins,
			DeviceID:   d.ID,
			Type:       d.Type,
			ParamsJSON: d.Params,
			BusRefType: d.BusRef.Type,
			BusRefID:   d.BusRef.ID,
		})
		if err != nil {
			s.log.Error("device build failed", "dev", d.ID, "type", d.Type, "code", string(errcode.MapDriverErr(err)), "err", err)
			continue
		}

		if out.BusID != "" {
			if _, ok := s.workers[out.BusID]; !ok {
				w := worker.New(halcore.WorkerConfig{}, s.results)
				w.Start(ctx)
				s.workers[out.BusID] = w
			}
		}

		ad := out.Adaptor
		entry := devEntry{adaptor: ad, busID: out.BusID, caps: map[string]int{}}

		for _, ci := range ad.Capabilities() {
			id := s.nextCapID[ci.Kind]
			s.nextCapID[ci.Kind]++

			entry.caps[ci.Kind] = id
			s.capToDev[capKey{kind: ci.Kind, id: id}] = d.ID

			s.pubRet(ci.Kind, id, consts.TokInfo, ci.Info)
			s.pubRet(ci.Kind, id, consts.TokState,
				types.CapabilityState{
					Link: types.LinkUp,
					TS:   time.Now(),
				})
		}
		s.devices[d.ID] = entry
		s.log.Info("device added", "dev", d.ID, "type", d.Type, "bus", out.BusID)

		if out.SampleEvery > 0 {
			s.devPeriod[d.ID] = util.ClampDuration(out.SampleEvery, minPeriod, maxPeriod)
			// First reading shortly after configuration.
			s.devNextDue[d.ID] = time.Now().Add(firstSample)
		}

		if out.IRQ != nil && out.IRQ.Pin != nil {
			cancel, err := s.gpioW.RegisterInput(d.ID, out.IRQ.Pin, out.IRQ.Edge, out.IRQ.DebounceMS, out.IRQ.Invert)
			if err != nil {
				s.log.Warn("irq registration failed", "dev", d.ID, "pin", out.IRQ.Pin.Number(), "err", err)
			} else {
				s.gpioCancel[d.ID] = cancel
			}
		}
	}

	// Tidy-up devices not in config
	for devID := range s.devices {
		if _, ok := seen[devID]; !ok {
			s.removeDevice(devID)
		}
	}
	return nil
}

func (s *Service) removeDevice(devID string) {
	ent := s.devices[devID]
	for kind, id := range ent.caps {
		s.pubRet(kind, id, consts.TokInfo, nil)
		s.pubRet(kind, id, consts.TokState, types.CapabilityState{Link: types.LinkDown, TS: time.Now()})
		delete(s.capToDev, capKey{kind: kind, id: id})
	}
	if cancel, ok := s.gpioCancel[devID]; ok {
		cancel()
		delete(s.gpioCancel, devID)
	}
	if c, ok := ent.adaptor.(halcore.Closer); ok {
		if err := c.Close(); err != nil {
			s.log.Warn("device close failed", "dev", devID, "err", err)
		}
	}
	delete(s.devices, devID)
	delete(s.devPeriod, devID)
	delete(s.devNextDue, devID)
	s.log.Info("device removed", "dev", devID)
}

func (s *Service) closeAll() {
	for devID, cancel := range s.gpioCancel {
		cancel()
		delete(s.gpioCancel, devID)
	}
	for devID, ent := range s.devices {
		if c, ok := ent.adaptor.(halcore.Closer); ok {
			_ = c.Close()
		}
		delete(s.devices, devID)
	}
}

// ---- measurement helpers ----

func (s *Service) submitMeasure(devID string, prio bool) bool {
	ent, ok := s.devices[devID]
	if !ok {
		return false
	}
	w := s.workers[ent.busID]
	if w == nil {
		return false
	}
	return w.Submit(halcore.MeasureReq{ID: devID, Adaptor: ent.adaptor, Prio: prio})
}

func (s *Service) bumpDevNext(devID string, from time.Time) {
	period := s.devPeriod[devID]
	if period <= 0 {
		period = minPeriod
	}
	period = util.ClampDuration(period, minPeriod, maxPeriod)
	s.devNextDue[devID] = from.Add(period)
}

func (s *Service) earliestDevDue() time.Time {
	var earliest time.Time
	for _, t := range s.devNextDue {
		if !t.IsZero() && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
	}
	return earliest
}

// ---- results ----

func (s *Service) handleResult(r halcore.Result) {
	ent, ok := s.devices[r.ID]
	if !ok {
		return
	}
	now := time.Now()

	if r.Err != nil {
		code := errcode.MapDriverErr(r.Err)
		s.log.Warn("measure failed", "dev", r.ID, "code", string(code), "err", r.Err)
		for kind, id := range ent.caps {
			s.pubRet(kind, id, consts.TokState, types.CapabilityState{
				Link:  types.LinkDegraded,
				TS:    now,
				Error: string(code),
			})
		}
		return
	}
	for _, rd := range r.Sample {
		id, ok := ent.caps[rd.Kind]
		if !ok {
			continue
		}
		s.conn.Publish(s.conn.NewMessage(
			capTopicInt(rd.Kind, id, consts.TokValue),
			rd.Payload,
			false,
		))
		s.pubRet(rd.Kind, id, consts.TokState, types.CapabilityState{Link: types.LinkUp, TS: now})
	}
}

// handleGPIOEvent runs an immediate read of the device whose alert line fired.
func (s *Service) handleGPIOEvent(ev gpioirq.Event) {
	if _, ok := s.gpioCancel[ev.DevID]; !ok {
		return
	}
	s.log.Debug("alert line", "dev", ev.DevID, "level", ev.Level)
	if s.submitMeasure(ev.DevID, true) {
		s.bumpDevNext(ev.DevID, ev.TS)
	}
}

// ---- bus helpers & utils ----

func (s *Service) publishState(level, status string, err error) {
	pl := types.HALState{Level: level, Status: status, TS: time.Now()}
	if err != nil {
		pl.Error = err.Error()
	}
	s.log.Info("hal state", "level", level, "status", status)
	s.conn.Publish(s.conn.NewMessage(bus.Topic{consts.TokHAL, consts.TokState}, pl, true))
}

func (s *Service) replyErr(req *bus.Message, code string) {
	if !req.CanReply() {
		return
	}
	if code == "" {
		code = string(errcode.Error)
	}
	s.conn.Reply(req, types.ErrorReply{OK: false, Error: code}, false)
}

func capTopicInt(kind string, id int, suffix string) bus.Topic {
	return bus.Topic{consts.TokHAL, consts.TokCapability, kind, id, suffix}
}

func (s *Service) pubRet(kind string, id int, suffix string, p any) {
	s.conn.Publish(s.conn.NewMessage(capTopicInt(kind, id, suffix), p, true))
}

func asInt(t any) (int, bool) {
	switch v := t.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
