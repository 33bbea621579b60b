package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxPayload bounds a single frame's payload. Submissions cap content at
// 160 bytes and every record in §3 is small; this is generous headroom
// against a corrupt length prefix turning into a multi-gigabyte read.
const maxPayload = 1 << 20

// ErrShortFrame is returned when a frame is truncated before its declared
// payload length is fully read.
var ErrShortFrame = errors.New("wire: short frame")

// Frame is a decoded command-plus-payload unit. Payload is the raw
// JSON-encoded record; callers unmarshal it into the record type implied
// by Command.
type Frame struct {
	Command Command
	Payload []byte
}

// ReadFrame decodes one frame from r: one command byte, a 4-byte
// big-endian payload length, then the payload itself.
func ReadFrame(r io.Reader) (Frame, error) {
	return ReadFrameBuf(bufio.NewReader(r))
}

// ReadFrameBuf is ReadFrame over an already-buffered reader, so callers
// that need to interleave frame reads with raw liveness probes (see
// internal/session) can share one buffer across both.
func ReadFrameBuf(r *bufio.Reader) (Frame, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}

	cmd := Command(header[0])
	length := binary.BigEndian.Uint32(header[1:])
	if length > maxPayload {
		return Frame{}, fmt.Errorf("wire: payload length %d exceeds maximum", length)
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return Frame{}, ErrShortFrame
			}
			return Frame{}, err
		}
	}

	return Frame{Command: cmd, Payload: payload}, nil
}

// WriteFrame encodes and writes one frame to w.
func WriteFrame(w io.Writer, cmd Command, payload []byte) error {
	header := make([]byte, 5, 5+len(payload))
	header[0] = byte(cmd)
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	header = append(header, payload...)
	_, err := w.Write(header)
	return err
}
