package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Stream reads the caller's event stream until ctx ends, the server closes
// the connection or fn returns an error. Comment lines (pings) are skipped.
func (c *Client) Stream(ctx context.Context, fn func(Envelope) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/quotes/events", nil, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// the shared client has a timeout, streams must not
	stream := &http.Client{Transport: c.HTTP.Transport, Jar: c.HTTP.Jar}
	res, err := stream.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	c.absorb(res)
	if res.StatusCode >= 400 {
		return decodeError(res)
	}
	return ReadEvents(res.Body, fn)
}

// ReadEvents parses a text/event-stream body. Only the data field is
// decoded; the envelope repeats id and event inside it.
func ReadEvents(r io.Reader, fn func(Envelope) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var data strings.Builder
	dispatch := func() error {
		if data.Len() == 0 {
			return nil
		}
		raw := data.String()
		data.Reset()
		var env Envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		return fn(env)
	}

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if err := dispatch(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return dispatch()
}
