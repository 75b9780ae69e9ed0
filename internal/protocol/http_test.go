package protocol

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHTTPCommand(t *testing.T) {
	t.Parallel()

	raw := "POST /query HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 17\r\n" +
		"\r\n" +
		"FIND * IN users\r\n" +
		"GET /again HTTP/1.1\r\nHost: localhost\r\n\r\n"

	r := bufio.NewReader(strings.NewReader(raw))

	command, req, err := readHTTPCommand(r)
	require.NoError(t, err)
	assert.Equal(t, "FIND * IN users", command)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/query", req.URL.Path)
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.False(t, closeAfter(req))

	command, req, err = readHTTPCommand(r)
	require.NoError(t, err)
	assert.Equal(t, "", command)
	assert.Equal(t, http.MethodGet, req.Method)

	_, _, err = readHTTPCommand(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadHTTPCommand_Malformed(t *testing.T) {
	t.Parallel()

	_, _, err := readHTTPCommand(bufio.NewReader(strings.NewReader("POST\r\n\r\n")))
	require.Error(t, err)
	assert.True(t, isMalformedRequest(err))
}

func TestWriteHTTPResponse(t *testing.T) {
	t.Parallel()

	req, err := http.ReadRequest(bufio.NewReader(strings.NewReader("POST / HTTP/1.1\r\nHost: x\r\nConnection: close\r\nContent-Length: 0\r\n\r\n")))
	require.NoError(t, err)
	require.True(t, closeAfter(req))

	body := []byte(`{"error":"No database initialized."}`)
	buf := new(bytes.Buffer)
	require.NoError(t, writeHTTPResponse(buf, req, body))

	resp, err := http.ReadResponse(bufio.NewReader(buf), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "errors are reported inside the body")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, int64(len(body)), resp.ContentLength)
	assert.True(t, resp.Close)

	actual, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, actual)
}
