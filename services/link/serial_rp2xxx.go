//go:build rp2040 || rp2350

package link

import (
	"context"
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"cabcontrol-go/types"
)

func init() { SerialDial = openUART }

// uartConn adapts uartx to io.ReadWriteCloser. Close ends pending reads;
// the UART itself stays configured for the next link.
type uartConn struct {
	u      *uartx.UART
	ctx    context.Context
	cancel context.CancelFunc
}

func openUART(ctx context.Context, cfg types.SerialConfig) (io.ReadWriteCloser, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TxPin),
		RX:       machine.Pin(cfg.RxPin),
	}); err != nil {
		return nil, err
	}
	if cfg.DataBits != 0 {
		var par uartx.UARTParity
		switch cfg.Parity {
		case types.ParityEven:
			par = uartx.ParityEven
		case types.ParityOdd:
			par = uartx.ParityOdd
		default:
			par = uartx.ParityNone
		}
		stop := cfg.StopBits
		if stop == 0 {
			stop = 1
		}
		if err := u.SetFormat(cfg.DataBits, stop, par); err != nil {
			return nil, err
		}
	}
	cctx, cancel := context.WithCancel(ctx)
	return &uartConn{u: u, ctx: cctx, cancel: cancel}, nil
}

func (c *uartConn) Read(p []byte) (int, error) {
	n, err := c.u.RecvSomeContext(c.ctx, p)
	if err == nil && n == 0 {
		if err = c.ctx.Err(); err == nil {
			return 0, nil
		}
	}
	return n, err
}

func (c *uartConn) Write(p []byte) (int, error) { return c.u.Write(p) }

func (c *uartConn) Close() error {
	c.cancel()
	return nil
}
