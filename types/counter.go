package types

// ------------------------
// Quadrature counter (icmd)
// ------------------------

const (
	KindCounter       = "counter"
	KindCounterStatus = "counter_status"
)

// ICMDParams is the "params" object of an icmd device.
type ICMDParams struct {
	CSPin          *int     `json:"cs_pin,omitempty"`         // nil: transport drives CS
	CounterMode    string   `json:"counter_mode,omitempty"`   // e.g. "Counter0_48Bit"
	Input          string   `json:"input,omitempty"`          // "ttl" | "differential"
	Differential   string   `json:"differential,omitempty"`   // "rs422" | "lvds"
	ZMode          string   `json:"z_mode,omitempty"`         // "a1b1" | "a1b0" | "a0b1" | "a0b0"
	Directions     []string `json:"directions,omitempty"`     // per channel: "cw" | "ccw"
	IndexInverted  []bool   `json:"index_inverted,omitempty"` // channels 0,1
	IndexClears    []bool   `json:"index_clears,omitempty"`   // channels 0,1
	SampleEveryMs  int      `json:"sample_every_ms,omitempty"`
	VerifyIdentity bool     `json:"verify_identity,omitempty"`
	NErrPin        *int     `json:"nerr_pin,omitempty"`        // NERR output; a falling edge forces a read
	IRQDebounceMS  int      `json:"irq_debounce_ms,omitempty"` // 0..50
}

type CounterInfo struct {
	Chip     string `json:"chip"`
	Bus      string `json:"bus"`
	CSPin    int    `json:"cs_pin"`   // -1: transport drives CS
	NErrPin  int    `json:"nerr_pin"` // -1: not wired
	Mode     string `json:"mode"`
	Counters int    `json:"counters"`
}

// CounterValue is one reading of all active counters.
type CounterValue struct {
	Mode   string  `json:"mode"`
	Counts []int64 `json:"counts"` // Counter0 first
	Err    bool    `json:"err"`    // nERR low
	Warn   bool    `json:"warn"`   // nWARN low
}

// CounterStatusValue carries Status0..Status2 raw and as flag names.
type CounterStatusValue struct {
	Raw   [3]uint8 `json:"raw"`
	Flags []string `json:"flags,omitempty"`
}

// ---- Controls on the counter capability ----

type CounterSetMode struct {
	Mode string `json:"mode"`
}

type CounterSetDirection struct {
	Channel   int    `json:"channel"`
	Direction string `json:"direction"` // "cw" | "ccw"
}

type CounterSetIndexInversion struct {
	Channel  int  `json:"channel"`
	Inverted bool `json:"inverted"`
}

type CounterSetIndexClear struct {
	Channel int  `json:"channel"`
	Clears  bool `json:"clears"`
}

type CounterSetZMode struct {
	Mode string `json:"mode"`
}

type CounterSetInput struct {
	Input string `json:"input"`
}

type CounterSetDifferential struct {
	Mode string `json:"mode"`
}

// CounterInstruction is sent as one instruction byte.
type CounterInstruction struct {
	ResetCounters    []int `json:"reset_counters,omitempty"`
	ZeroCodification bool  `json:"zero_codification,omitempty"`
	LoadTouchProbe   bool  `json:"load_touch_probe,omitempty"`
	Actuator0        bool  `json:"actuator0,omitempty"`
	Actuator1        bool  `json:"actuator1,omitempty"`
}

type CounterReset struct {
	Channel int `json:"channel"`
}

type CounterTouchProbe struct {
	Probe int `json:"probe"` // 1 or 2
}

// ---- Control replies ----

type CounterConfig struct {
	Mode          string   `json:"mode"`
	Directions    []string `json:"directions"`
	IndexInverted []bool   `json:"index_inverted"`
	ZMode         string   `json:"z_mode"`
	IndexClears   []bool   `json:"index_clears"`
	Input         string   `json:"input"`
	Differential  string   `json:"differential"`
	Priority      uint8    `json:"priority"`
	TouchProbeCfg uint8    `json:"touch_probe_cfg"`
	Mask          uint16   `json:"mask"`
	NMask         uint8    `json:"nmask"`
}

type CounterIdentity struct {
	Code   int    `json:"code"` // 0 ok, -1..-4 first mismatch
	Status string `json:"status"`
}

type CounterRegister struct {
	Value uint32 `json:"value"` // 24 bit
}
