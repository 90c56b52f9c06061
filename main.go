//go:build rp2040 || rp2350

package main

import (
	"context"
	"time"

	"cabcontrol-go/bus"
	"cabcontrol-go/platform"
	"cabcontrol-go/services/config"
	"cabcontrol-go/services/heartbeat"
	"cabcontrol-go/services/link"
	"cabcontrol-go/services/panel"
	"cabcontrol-go/types"
)

func printTopic(t bus.Topic) {
	for i, tok := range t {
		if i > 0 {
			print("/")
		}
		switch v := tok.(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "cabpanel")
	b := bus.NewBus(8)

	board, err := platform.NewBoard()
	if err != nil {
		println("[main] panel board:", err.Error())
		for {
			time.Sleep(time.Second)
		}
	}

	mon := b.NewConnection("ui")
	states := mon.Subscribe(bus.T("+", "state"))
	sections := mon.Subscribe(bus.T("panel", "section", "+"))
	go func() {
		for {
			select {
			case m := <-states.Channel():
				st, _ := m.Payload.(types.ServiceState)
				print("[monitor] ")
				printTopic(m.Topic)
				println(" ", st.Level, st.Status, st.Error)
			case m := <-sections.Channel():
				st, ok := m.Payload.(types.SectionState)
				if !ok {
					print("[monitor] cleared ")
					printTopic(m.Topic)
					println()
					continue
				}
				println("[monitor] section", st.Section, st.State)
			}
		}
	}()

	go link.Start(ctx, b.NewConnection("link"))
	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))
	svc := panel.New(b.NewConnection("panel"), board)
	svc.Start(ctx)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}
