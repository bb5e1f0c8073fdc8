// services/hal/internal/consts/consts.go
package consts

// Top-level topics
const (
	TokConfig     = "config"
	TokHAL        = "hal"
	TokCapability = "capability"
	TokInfo       = "info"
	TokState      = "state"
	TokValue      = "value"
	TokControl    = "control"
)

// Control verbs handled by the service itself
const (
	CtrlReadNow = "read_now"
	CtrlSetRate = "set_rate"
)

// Control verbs on the counter capability
const (
	CtrlSetMode           = "set_mode"
	CtrlGetConfig         = "get_config"
	CtrlSetDirection      = "set_direction"
	CtrlSetIndexInversion = "set_index_inversion"
	CtrlSetIndexClear     = "set_index_clear"
	CtrlSetZMode          = "set_z_mode"
	CtrlSetInput          = "set_input"
	CtrlSetDifferential   = "set_differential"
	CtrlInstruction       = "instruction"
	CtrlReset             = "reset"
	CtrlIdentity          = "identity"
	CtrlReference         = "reference"
	CtrlUpdate            = "update"
	CtrlTouchProbe        = "touch_probe"
	CtrlStatus            = "status"
)

// Bus types accepted in bus_ref
const (
	BusSPI = "spi"
)
