//go:build !tinygo

// Command cabsim runs two cab panels against a simulated layout bus. Keys
// press their switches and turn their knobs; -script replays a scenario
// instead.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/eiannone/keyboard"

	"cabcontrol-go/internal/logger"
)

// Keys for panels a and b: four section request switches each, then knob
// down and up.
var keymap = [2]struct {
	request  [4]rune
	down, up rune
}{
	{request: [4]rune{'1', '2', '3', '4'}, down: 'q', up: 'w'},
	{request: [4]rune{'7', '8', '9', '0'}, down: 'o', up: 'p'},
}

const knobStep = 8

func main() {
	script := flag.String("script", "", "scenario file to run instead of the keyboard")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.Get(logger.ParseLevel(*level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := newSim(*log, defaultPanels()...)
	s.start(ctx)

	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			log.Fatal().Err(err).Msg("script")
		}
		cmds, err := parseScript(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("script")
		}
		if err := s.run(ctx, cmds); err != nil {
			log.Fatal().Err(err).Msg("scenario failed")
		}
		log.Info().Int("commands", len(cmds)).Msg("scenario passed")
		return
	}

	log.Info().Msg("panel a: 1-4 sections, q/w knob; panel b: 7-0 sections, o/p knob; ctrl-c quits")
	for ctx.Err() == nil {
		char, key, err := keyboard.GetSingleKey()
		if err != nil {
			log.Fatal().Err(err).Msg("keyboard")
		}
		if key == keyboard.KeyCtrlC || key == keyboard.KeyEsc {
			return
		}
		s.key(ctx, char)
	}
}

func (s *sim) key(ctx context.Context, char rune) {
	for pi, km := range keymap {
		if pi >= len(s.panels) {
			return
		}
		p := s.panels[pi]
		for i, r := range km.request {
			if r == char {
				go p.press(ctx, 2*i)
				return
			}
		}
		switch char {
		case km.down, km.up:
			v := int(p.hw.LastReading())
			if char == km.up {
				v = min(v+knobStep, 255)
			} else {
				v = max(v-knobStep, 0)
			}
			p.hw.SetReading(uint8(v))
			s.log.Info().Str("panel", p.name).Int("reading", v).Msg("knob")
			return
		}
	}
}
