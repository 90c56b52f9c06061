package link

import (
	"context"
	"io"
	"sync"

	"cabcontrol-go/errcode"
	"cabcontrol-go/types"
)

// Transport opens the byte stream the link runs over.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

type transportFactory func(types.LinkConfig) (Transport, error)

var (
	regMu    sync.RWMutex
	registry = map[string]transportFactory{}
)

// RegisterTransport adds a named transport.
func RegisterTransport(name string, f transportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg types.LinkConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Transport]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	switch cfg.Transport {
	case "serial":
		return newSerialTransport(cfg)
	default:
		return nil, &errcode.E{C: errcode.UnknownTransport, Op: "transport", Msg: cfg.Transport}
	}
}

// SerialDial opens a serial port. Platform files set it; tests replace it.
var SerialDial func(ctx context.Context, cfg types.SerialConfig) (io.ReadWriteCloser, error)

type serialTransport struct {
	cfg types.SerialConfig
}

func newSerialTransport(cfg types.LinkConfig) (Transport, error) {
	if cfg.Serial == nil {
		return nil, errcode.Invalid("serial transport", "requires serial config")
	}
	return &serialTransport{cfg: *cfg.Serial}, nil
}

func (s *serialTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if SerialDial == nil {
		return nil, &errcode.E{C: errcode.UnknownTransport, Op: "serial", Msg: "no dialler on this platform"}
	}
	return SerialDial(ctx, s.cfg)
}

func (s *serialTransport) String() string { return "serial" }
