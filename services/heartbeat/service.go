package heartbeat

import (
	"context"
	"time"

	"icmd-go/bus"
	"icmd-go/x/logx"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicHeartbeat       = bus.Topic{"heartbeat"}
)

const defaultInterval = time.Second

// Beat is published on "heartbeat" at every tick.
type Beat struct {
	Seq uint64    `json:"seq"`
	TS  time.Time `json:"ts"`
}

type Service struct {
	log      logx.Logger
	interval time.Duration
	seq      uint64
}

func New(log logx.Logger) *Service {
	if log == nil {
		log = logx.Default()
	}
	return &Service{log: log.With("svc", "heartbeat"), interval: defaultInterval}
}

// interval reads {"interval": seconds} from a config payload.
func interval(p any) (time.Duration, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	var secs float64
	switch v := m["interval"].(type) {
	case float64:
		secs = v
	case int:
		secs = float64(v)
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("heartbeat service stopping")
			return
		case t := <-tick.C:
			s.seq++
			conn.Publish(conn.NewMessage(topicHeartbeat, Beat{Seq: s.seq, TS: t}, false))
			s.log.Debug("heartbeat", "seq", s.seq)
		case msg := <-cfgSub.Channel():
			iv, ok := interval(msg.Payload)
			if !ok {
				s.log.Warn("heartbeat config ignored", "payload", msg.Payload)
				continue
			}
			s.interval = iv
			tick.Reset(iv)
			s.log.Info("heartbeat interval set", "interval", iv)
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.serviceLoop(ctx, conn)
}
