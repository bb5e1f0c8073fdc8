package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx by WithDevice)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// cfgHost drives the simulated chip the host platform places on spi0/GP17.
const cfgHost = `{
  "hal": {
    "devices": [
      {
        "id": "enc0",
        "type": "icmd",
        "bus_ref": {"type": "spi", "id": "spi0"},
        "params": {
          "cs_pin": 17,
          "counter_mode": "Counter0_24Bit_Counter1_24Bit",
          "input": "differential",
          "differential": "rs422",
          "z_mode": "a1b1",
          "directions": ["cw", "cw"],
          "index_clears": [false, false],
          "sample_every_ms": 1000,
          "verify_identity": true
        }
      }
    ]
  },
  "heartbeat": {
    "interval": 5
  }
}`

// cfgPico: iC-MD on spi0, CS on GP17, TTL encoder inputs.
const cfgPico = `{
  "hal": {
    "devices": [
      {
        "id": "enc0",
        "type": "icmd",
        "bus_ref": {"type": "spi", "id": "spi0"},
        "params": {
          "cs_pin": 17,
          "counter_mode": "Counter0_48Bit",
          "input": "ttl",
          "sample_every_ms": 500,
          "verify_identity": true
        }
      }
    ]
  },
  "heartbeat": {
    "interval": 5
  }
}`

// cfgSpidev: the kernel drives CS on /dev/spidev0.0.
const cfgSpidev = `{
  "hal": {
    "devices": [
      {
        "id": "enc0",
        "type": "icmd",
        "bus_ref": {"type": "spi", "id": "spi0"},
        "params": {
          "counter_mode": "Counter0_32Bit_Counter1_16Bit",
          "sample_every_ms": 200,
          "verify_identity": true
        }
      }
    ]
  },
  "heartbeat": {
    "interval": 5
  }
}`

var embeddedConfigs = map[string][]byte{
	"host":   []byte(cfgHost),
	"pico":   []byte(cfgPico),
	"spidev": []byte(cfgSpidev),
}
