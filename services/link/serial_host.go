//go:build !tinygo

package link

import (
	"context"
	"io"

	"go.bug.st/serial"

	"cabcontrol-go/errcode"
	"cabcontrol-go/types"
)

func init() { SerialDial = openHostSerial }

func openHostSerial(_ context.Context, cfg types.SerialConfig) (io.ReadWriteCloser, error) {
	if cfg.Port == "" {
		return nil, errcode.Invalid("serial", "port is required on a host")
	}
	mode := &serial.Mode{
		BaudRate: int(cfg.Baud),
		DataBits: int(cfg.DataBits),
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	if cfg.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch cfg.Parity {
	case types.ParityEven:
		mode.Parity = serial.EvenParity
	case types.ParityOdd:
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, errcode.Wrap(errcode.LinkDown, "open "+cfg.Port, err)
	}
	return p, nil
}
