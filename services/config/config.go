package config

import (
	"context"
	"encoding/json"
	"errors"

	"icmd-go/bus"
	"icmd-go/x/logx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey struct{}

// WithDevice returns ctx carrying the device ID whose embedded config is published.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxKey{}, device)
}

var (
	ErrNoDevice  = errors.New("missing device ID in context")
	ErrNoConfig  = errors.New("no embedded config for device")
	ErrNotObject = errors.New("embedded config is not a JSON object")
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  logx.Logger
}

func NewConfigService(log logx.Logger) *ConfigService {
	if log == nil {
		log = logx.Default()
	}
	return &ConfigService{Name: serviceName, log: log.With("svc", serviceName)}
}

// publishConfig publishes each top-level key of the device's embedded JSON
// document as a retained "config/<key>" message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(ctxKey{}).(string)
	if device == "" {
		return ErrNoDevice
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.Join(ErrNoConfig, errors.New(device))
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.Join(ErrNotObject, err)
	}
	if m == nil {
		return ErrNotObject
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
		s.log.Debug("config published", "key", k)
	}
	s.log.Info("config loaded", "device", device, "keys", len(m))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.Error("config publish failed", "err", err)
		}
	}()
}
