package protocol

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"
)

var (
	errReadTimeout = errors.New("connection idle for too long")
	errStopped     = errors.New("server stopped")
)

// Chunks splits body into consecutive slices of at most size bytes. A body
// that fits is returned as a single chunk.
func Chunks(body []byte, size int) [][]byte {
	if size <= 0 || len(body) <= size {
		return [][]byte{body}
	}
	chunks := make([][]byte, 0, (len(body)+size-1)/size)
	for start := 0; start < len(body); start += size {
		end := min(start+size, len(body))
		chunks = append(chunks, body[start:end])
	}
	return chunks
}

// WriteEnvelope writes body in chunks followed by Terminator. Each chunk is a
// separate write that returns only once the transport accepted it.
func WriteEnvelope(w io.Writer, body []byte, chunkSize int) error {
	for _, chunk := range Chunks(body, chunkSize) {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, Terminator)
	return err
}

type deadlineReader interface {
	SetReadDeadline(time.Time) error
}

// frameReader turns the envelope byte stream of one connection into command
// frames. A frame ends at the next Marker, after idleFlush passes without
// new bytes, or at EOF.
type frameReader struct {
	src         io.Reader
	conn        deadlineReader
	idleFlush   time.Duration
	readTimeout time.Duration
	quit        <-chan struct{}

	buf          []byte
	pending      bytes.Buffer
	frames       []string
	err          error
	lastActivity time.Time
}

func newFrameReader(src io.Reader, conn deadlineReader, idleFlush, readTimeout time.Duration, quit <-chan struct{}) *frameReader {
	return &frameReader{
		src:          src,
		conn:         conn,
		idleFlush:    idleFlush,
		readTimeout:  readTimeout,
		quit:         quit,
		buf:          make([]byte, 2048),
		lastActivity: time.Now(),
	}
}

// Next blocks until a complete frame is available.
func (f *frameReader) Next() (string, error) {
	for {
		if len(f.frames) > 0 {
			frame := f.frames[0]
			f.frames = f.frames[1:]
			return frame, nil
		}
		if f.err != nil {
			return "", f.err
		}

		select {
		case <-f.quit:
			f.err = errStopped
			continue
		default:
		}

		f.conn.SetReadDeadline(time.Now().Add(f.idleFlush))
		n, err := f.src.Read(f.buf)
		if n > 0 {
			f.pending.Write(f.buf[:n])
			f.lastActivity = time.Now()
			f.extract()
		}
		if err == nil {
			continue
		}

		if isTimeout(err) {
			if f.pending.Len() > 0 {
				f.flush()
				continue
			}
			if f.readTimeout > 0 && time.Since(f.lastActivity) > f.readTimeout {
				f.err = errReadTimeout
			}
			continue
		}

		f.flush()
		f.err = err
	}
}

// extract moves every command closed by a following Marker into frames.
// Newlines are part of the command text.
func (f *frameReader) extract() {
	marker := []byte(Marker)
	for {
		data := f.pending.Bytes()
		if bytes.HasPrefix(data, marker) {
			f.pending.Next(len(marker))
			continue
		}

		end := bytes.Index(data, marker)
		if end < 0 {
			return
		}
		f.push(data[:end])
		f.pending.Next(end)
	}
}

// flush turns whatever is pending into a frame.
func (f *frameReader) flush() {
	f.push(bytes.ReplaceAll(f.pending.Bytes(), []byte(Marker), nil))
	f.pending.Reset()
}

func (f *frameReader) push(frame []byte) {
	if text := string(bytes.TrimSpace(frame)); text != "" {
		f.frames = append(f.frames, text)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
