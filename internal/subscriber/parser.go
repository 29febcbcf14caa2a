package subscriber

import (
	"bufio"
	"strings"
)

// frame is one decoded server-sent event. Heartbeat comments never surface
// as frames; the reader swallows them.
type frame struct {
	event string
	data  string
}

// readFrame consumes lines until it has a complete event. It returns the
// reader's error once the stream ends. Comment lines and unknown fields are
// ignored per the event-stream format; an empty accumulated frame (for
// example a lone heartbeat comment followed by its blank line) is skipped
// rather than dispatched.
func readFrame(r *bufio.Reader) (frame, error) {
	var f frame
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return frame{}, err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if f.event == "" && f.data == "" {
				continue
			}
			return f, nil
		case strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "event: "):
			f.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if f.data != "" {
				f.data += "\n"
			}
			f.data += strings.TrimPrefix(line, "data: ")
		}
	}
}
