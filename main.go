package main

import (
	"context"
	"os"
	"os/signal"

	"icmd-go/bus"
	"icmd-go/services/config"
	"icmd-go/services/hal"
	"icmd-go/services/heartbeat"
	"icmd-go/x/logx"
	"icmd-go/x/strx"
)

func main() {
	log := logx.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	device := strx.Coalesce(os.Getenv("DEVICE"), "host")
	log.Info("bootstrapping bus", "device", device)
	b := bus.NewBus(64)

	config.NewConfigService(log).Start(config.WithDevice(ctx, device), b.NewConnection("config"))
	heartbeat.New(log).Start(ctx, b.NewConnection("heartbeat"))

	monConn := b.NewConnection("monitor")
	mon := monConn.Subscribe(bus.T("hal", "#"))
	go func() {
		defer monConn.Disconnect()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-mon.Channel():
				if !ok {
					return
				}
				log.Info("monitor", "topic", m.Topic.String(), "payload", m.Payload)
			}
		}
	}()

	hal.Run(ctx, b.NewConnection("hal"), nil, nil, log)
	log.Info("shutdown")
}
