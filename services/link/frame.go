package link

import (
	"io"
	"sync"

	"cabcontrol-go/errcode"
)

const (
	framePing  byte = 0x01
	framePong  byte = 0x02
	frameEvent byte = 0x10
	frameClose byte = 0x7f
)

// Frame is a type byte followed by a big-endian u16 length and payload.
type Frame struct {
	Type    byte
	Payload []byte
}

type framedReader struct{ r io.Reader }

func newFramedReader(r io.Reader) *framedReader { return &framedReader{r: r} }

func (fr *framedReader) ReadFrame() (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: hdr[0], Payload: buf}, nil
}

// framedWriter is shared by the reader (pong) and writer loops.
type framedWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func newFramedWriter(w io.Writer) *framedWriter { return &framedWriter{w: w} }

// WriteFrame sends header and payload in one Write so a frame is never
// interleaved with another.
func (fw *framedWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > 0xFFFF {
		return &errcode.E{C: errcode.InvalidPayload, Op: "write frame", Msg: "payload too large"}
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.buf = append(fw.buf[:0], f.Type, byte(len(f.Payload)>>8), byte(len(f.Payload)))
	fw.buf = append(fw.buf, f.Payload...)
	_, err := fw.w.Write(fw.buf)
	return err
}
