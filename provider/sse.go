package provider

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

// scanEvents yields the payload of every "data:" line in an event stream.
// Other fields (event:, id:, comments) and blank lines are skipped.
func scanEvents(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			payload, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			payload = strings.TrimSpace(payload)
			if payload == "" {
				continue
			}
			if !yield(payload, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}

// statusError builds an Error from a non-2xx response, including a short
// excerpt of the body.
func statusError(providerName string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
}
