package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var errEmptyCommand = errors.New("empty command")

// Client speaks the envelope protocol. It is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	buf     []byte
	pending []byte
}

func NewClient(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn: conn,
		buf:  make([]byte, 4096),
	}, nil
}

func (c *Client) Close() {
	c.conn.Close()
}

// Send writes one command frame and reassembles the chunked response up to
// the terminator.
func (c *Client) Send(command string) (json.RawMessage, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errEmptyCommand
	}

	// The trailing Marker closes the frame so the server does not wait for
	// an idle gap.
	if _, err := io.WriteString(c.conn, Marker+command+Marker); err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}

	terminator := []byte(Terminator)
	for {
		if i := bytes.Index(c.pending, terminator); i >= 0 {
			body := make([]byte, i)
			copy(body, c.pending[:i])
			c.pending = c.pending[i+len(terminator):]
			return body, nil
		}

		n, err := c.conn.Read(c.buf)
		c.pending = append(c.pending, c.buf[:n]...)
		if err != nil {
			if bytes.Contains(c.pending, terminator) {
				continue
			}
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
	}
}
