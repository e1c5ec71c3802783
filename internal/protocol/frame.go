package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	// LengthPrefixSize is the size of the big-endian frame length prefix
	LengthPrefixSize = 2
	// MaxFrameSize is the largest payload a frame can carry
	MaxFrameSize = 1<<16 - 1
)

var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrMalformed marks a complete frame whose payload could not be decoded
	ErrMalformed = errors.New("malformed message")
)

// WriteFrame writes payload preceded by its length in a single write
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint16(buf[:LengthPrefixSize], uint16(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame blocks until one complete frame has arrived and returns its payload
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, LengthPrefixSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint16(header)
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// Conn speaks framed messages over a byte stream
type Conn struct {
	rw       io.ReadWriter
	template *Template

	writeMu sync.Mutex
}

// NewConn wraps rw using the default message template
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw, template: MessageTemplate}
}

// Send encodes and frames m. Safe for concurrent use.
func (c *Conn) Send(m Message) error {
	payload, err := c.template.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Kind, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteFrame(c.rw, payload)
}

// Receive reads the next frame and decodes it
func (c *Conn) Receive() (Message, error) {
	payload, err := ReadFrame(c.rw)
	if err != nil {
		return Message{}, err
	}
	m, err := c.template.Decode(payload)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return m, nil
}

// Close closes the underlying stream when it supports closing
func (c *Conn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
