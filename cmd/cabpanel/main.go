//go:build !tinygo

// Command cabpanel runs a cab control panel on a Linux host with the panel
// board on I2C and the layout interface on a serial port.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cabcontrol-go/bus"
	"cabcontrol-go/internal/logger"
	"cabcontrol-go/internal/monitor"
	"cabcontrol-go/platform"
	"cabcontrol-go/services/config"
	"cabcontrol-go/services/heartbeat"
	"cabcontrol-go/services/link"
	"cabcontrol-go/services/panel"
)

const drainDelay = 250 * time.Millisecond

func main() {
	cfgPath := flag.String("config", "cabpanel.yaml", "configuration file")
	i2cName := flag.String("i2c", "", "I2C bus name (empty for the first bus)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.Get(logger.ParseLevel(*level))

	file, err := config.LoadFile(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *cfgPath).Msg("config")
	}

	i2c, err := platform.OpenI2C(*i2cName)
	if err != nil {
		log.Fatal().Err(err).Str("bus", *i2cName).Msg("i2c")
	}
	defer i2c.Close()

	board, err := platform.NewExpander(i2c, platform.ExpanderConfig{})
	if err != nil {
		log.Fatal().Err(err).Msg("panel board")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The link outlives the panel so the releases sent on shutdown reach
	// the layout.
	svcCtx, cancelSvc := context.WithCancel(context.Background())
	defer cancelSvc()

	b := bus.NewBus(32)
	config.Publish(b.NewConnection("config"), file)

	go monitor.Run(svcCtx, b.NewConnection("monitor"), *log,
		bus.T("panel", "#"), bus.T("link", "state"))
	go link.Start(svcCtx, b.NewConnection("link"))
	if err := (&heartbeat.Service{}).Start(svcCtx, b.NewConnection("heartbeat")); err != nil {
		log.Fatal().Err(err).Msg("heartbeat")
	}

	log.Info().Uint16("node", file.Panel.NodeID).Int("sections", len(file.Panel.Sections)).Msg("starting panel")
	panel.New(b.NewConnection("panel"), board).Run(ctx)
	time.Sleep(drainDelay)
	log.Info().Msg("stopped")
}
