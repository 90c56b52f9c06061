package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/shlex"

	"cabcontrol-go/errcode"
)

// command is one script line:
//
//	press <panel> <switch>
//	hold <panel> <switch> on|off
//	knob <panel> <0..255>
//	wait <ms>
//	expect <panel> <section> idle|owned_by_us|owned_by_other
type command struct {
	line  int
	op    string
	panel string
	n     int
	arg   string
}

const expectTimeout = time.Second

func parseScript(r io.Reader) ([]command, error) {
	var cmds []command
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		f, err := shlex.Split(sc.Text())
		if err != nil {
			return nil, lineErr(line, err.Error())
		}
		if len(f) == 0 {
			continue
		}
		c := command{line: line, op: f[0]}
		want := map[string]int{"press": 3, "hold": 4, "knob": 3, "wait": 2, "expect": 4}[c.op]
		if want == 0 {
			return nil, lineErr(line, "unknown command "+strconv.Quote(c.op))
		}
		if len(f) != want {
			return nil, lineErr(line, c.op+" takes "+strconv.Itoa(want-1)+" arguments")
		}
		num := f[len(f)-1]
		if c.op != "wait" {
			c.panel = f[1]
			num = f[2]
		}
		if c.n, err = strconv.Atoi(num); err != nil {
			return nil, lineErr(line, "bad number "+strconv.Quote(num))
		}
		if want == 4 {
			c.arg = f[3]
		}
		cmds = append(cmds, c)
	}
	return cmds, sc.Err()
}

func lineErr(line int, msg string) error {
	return errcode.Invalid("script line "+strconv.Itoa(line), msg)
}

func (s *sim) run(ctx context.Context, cmds []command) error {
	for _, c := range cmds {
		if err := s.exec(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *sim) exec(ctx context.Context, c command) error {
	if c.op == "wait" {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(c.n) * time.Millisecond):
			return nil
		}
	}
	p, ok := s.panel(c.panel)
	if !ok {
		return lineErr(c.line, "no panel "+strconv.Quote(c.panel))
	}
	switch c.op {
	case "press":
		p.press(ctx, c.n)
	case "hold":
		p.hw.SetSwitch(c.n, c.arg == "on")
	case "knob":
		if c.n < 0 || c.n > 255 {
			return lineErr(c.line, "knob reading must be 0..255")
		}
		p.hw.SetReading(uint8(c.n))
	case "expect":
		deadline := time.Now().Add(expectTimeout)
		for {
			got := p.sectionState(c.n)
			if got == c.arg {
				s.log.Info().Str("panel", p.name).Int("section", c.n).Msg("expect " + got + " ok")
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("line %d: panel %s section %d is %q, want %q", c.line, p.name, c.n, got, c.arg)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
	return nil
}
