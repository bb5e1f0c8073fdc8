package icmddev

import (
	"icmd-go/drivers/icmd"
	"icmd-go/types"
)

// Name tables for params and control payloads.

var inputNames = map[string]icmd.InputMode{
	"differential": icmd.InputDifferential,
	"ttl":          icmd.InputTTL,
}

var differentialNames = map[string]icmd.DifferentialMode{
	"rs422": icmd.DifferentialRS422,
	"lvds":  icmd.DifferentialLVDS,
}

var zModeNames = map[string]icmd.IndexZMode{
	"a1b1": icmd.ZActiveA1B1,
	"a1b0": icmd.ZActiveA1B0,
	"a0b1": icmd.ZActiveA0B1,
	"a0b0": icmd.ZActiveA0B0,
}

var directionNames = map[string]icmd.CountDirection{
	"cw":  icmd.CWPositive,
	"ccw": icmd.CCWPositive,
}

func lookup[V any](m map[string]V, s string) (V, error) {
	v, ok := m[s]
	if !ok {
		var zero V
		return zero, icmd.ErrInvalidValue
	}
	return v, nil
}

func nameOf[V comparable](m map[string]V, v V) string {
	for k, x := range m {
		if x == v {
			return k
		}
	}
	return "unknown"
}

func clearMode(b bool) icmd.ClearMode {
	if b {
		return icmd.ClearedByZ
	}
	return icmd.NotClearedByZ
}

func polarity(inverted bool) icmd.IndexPolarity {
	if inverted {
		return icmd.IndexInverted
	}
	return icmd.IndexNonInverted
}

// settingsFrom maps device params onto driver settings. Empty fields keep the
// power-on value.
func settingsFrom(p types.ICMDParams) (icmd.Settings, error) {
	s := icmd.DefaultSettings()
	var err error
	if p.CounterMode != "" {
		if s.Mode, err = icmd.ParseCounterMode(p.CounterMode); err != nil {
			return s, err
		}
	}
	if p.Input != "" {
		if s.Input, err = lookup(inputNames, p.Input); err != nil {
			return s, err
		}
	}
	if p.Differential != "" {
		if s.Differential, err = lookup(differentialNames, p.Differential); err != nil {
			return s, err
		}
	}
	if p.ZMode != "" {
		if s.ZMode, err = lookup(zModeNames, p.ZMode); err != nil {
			return s, err
		}
	}
	if len(p.Directions) > len(s.Directions) ||
		len(p.IndexInverted) > len(s.IndexInverted) ||
		len(p.IndexClears) > len(s.IndexClears) {
		return s, icmd.ErrInvalidChannel
	}
	for i, d := range p.Directions {
		if s.Directions[i], err = lookup(directionNames, d); err != nil {
			return s, err
		}
	}
	for i, inv := range p.IndexInverted {
		s.IndexInverted[i] = polarity(inv)
	}
	for i, c := range p.IndexClears {
		s.IndexClears[i] = clearMode(c)
	}
	return s, nil
}

// configReply renders the register block for get_config.
func configReply(r icmd.Registers) types.CounterConfig {
	c := types.CounterConfig{
		Mode:          r.Config0.Mode.String(),
		ZMode:         nameOf(zModeNames, r.Config1.ZMode),
		Input:         nameOf(inputNames, r.Config1.Input),
		Differential:  nameOf(differentialNames, r.Config3.Differential),
		Priority:      r.Config1.Priority,
		TouchProbeCfg: r.Config1.TouchProbeConfig,
		Mask:          r.Mask(),
		NMask:         r.Config3.NMask,
	}
	for _, d := range r.Config0.Exchange {
		c.Directions = append(c.Directions, nameOf(directionNames, d))
	}
	for _, p := range r.Config0.InvertZ {
		c.IndexInverted = append(c.IndexInverted, p == icmd.IndexInverted)
	}
	for _, m := range r.Config1.ClearByZ {
		c.IndexClears = append(c.IndexClears, m == icmd.ClearedByZ)
	}
	return c
}

// ---- value rendering ----

func counterValue(v icmd.CounterValue) types.CounterValue {
	st := v.Status()
	return types.CounterValue{
		Mode:   v.Mode().String(),
		Counts: icmd.Counts(v),
		Err:    st.Err(),
		Warn:   st.Warn(),
	}
}

var status0Names = [8]string{"tp_valid", "overflow_request", "update_valid", "reference_valid", "power_down", "zero0", "overflow0", "ab_error0"}
var status1Names = [8]string{"tp_status", "comm_collision1", "ext_warning1", "ext_error1", "power_down1", "zero1", "overflow1", "ab_error1"}
var status2Names = [8]string{"ssi_enabled", "comm_collision2", "ext_warning2", "ext_error2", "power_down2", "zero2", "overflow2", "ab_error2"}

func statusValue(s icmd.Status) types.CounterStatusValue {
	out := types.CounterStatusValue{Raw: [3]uint8{uint8(s.S0), uint8(s.S1), uint8(s.S2)}}
	for i, names := range [3][8]string{status0Names, status1Names, status2Names} {
		for bit, n := range names {
			if out.Raw[i]&(1<<bit) != 0 {
				out.Flags = append(out.Flags, n)
			}
		}
	}
	return out
}

func channelArg(ch int) (icmd.Channel, error) {
	if ch < 0 || ch > int(icmd.Channel2) {
		return 0, icmd.ErrInvalidChannel
	}
	return icmd.Channel(ch), nil
}

func instruction(p types.CounterInstruction) (icmd.Instruction, error) {
	var in icmd.Instruction
	for _, ch := range p.ResetCounters {
		c, err := channelArg(ch)
		if err != nil {
			return 0, err
		}
		bit, _ := icmd.ResetCounter(c)
		in |= bit
	}
	if p.ZeroCodification {
		in |= icmd.EnableZeroCodification
	}
	if p.LoadTouchProbe {
		in |= icmd.LoadTouchProbe
	}
	if p.Actuator0 {
		in |= icmd.Actuator0
	}
	if p.Actuator1 {
		in |= icmd.Actuator1
	}
	return in, nil
}
