package rpc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Frames are "<decimal length>#<payload>". The prefix keeps message
// boundaries explicit on a raw TCP stream without being tied to any
// particular payload encoding.

// maxFrameSize caps a single message at 1 MiB. Auth payloads are tiny;
// anything larger is a protocol violation, not a big request.
const maxFrameSize = 1 << 20

var errFrameTooLarge = errors.New("frame exceeds size limit")

func writeFrame(w *bufio.Writer, payload []byte) error {
	if len(payload) > maxFrameSize {
		return errFrameTooLarge
	}
	if _, err := fmt.Fprintf(w, "%d#", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	size := 0
	digits := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == '#' {
			if digits == 0 {
				return nil, fmt.Errorf("malformed frame: empty length prefix")
			}
			break
		}
		if b < '0' || b > '9' {
			return nil, fmt.Errorf("malformed frame: unexpected byte %q in length prefix", b)
		}
		size = size*10 + int(b-'0')
		digits++
		if size > maxFrameSize {
			return nil, errFrameTooLarge
		}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
