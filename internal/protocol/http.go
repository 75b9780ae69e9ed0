package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
)

const maxRequestBody = 16 << 20

// readHTTPCommand reads one request and returns its body as command text.
func readHTTPCommand(r *bufio.Reader) (string, *http.Request, error) {
	req, err := http.ReadRequest(r)
	if err != nil {
		return "", nil, err
	}
	defer req.Body.Close()

	body, err := io.ReadAll(io.LimitReader(req.Body, maxRequestBody+1))
	if err != nil {
		return "", nil, err
	}
	if len(body) > maxRequestBody {
		return "", nil, fmt.Errorf("request body exceeds %d bytes", maxRequestBody)
	}
	return string(bytes.TrimSpace(body)), req, nil
}

// writeHTTPResponse always answers 200, errors travel inside the JSON body.
func writeHTTPResponse(w io.Writer, req *http.Request, body []byte) error {
	resp := &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Request:       req,
		Header:        make(http.Header),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Close:         closeAfter(req),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp.Write(w)
}

func closeAfter(req *http.Request) bool {
	return req == nil || req.Close
}
