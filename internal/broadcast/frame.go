package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/enrollhq/leadpulse/internal/domain"
)

// heartbeatFrame is a bare SSE comment. Clients that do not parse comments
// ignore it; its only job is to keep the transport and any intermediary
// proxies from timing out an idle connection.
var heartbeatFrame = []byte(": keep-alive\n\n")

// encodeFrame serializes an event into text/event-stream framing:
//
//	event: <name>\n
//	data: <json payload>\n
//	\n
func encodeFrame(event domain.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.Name(), err)
	}

	var buf bytes.Buffer
	buf.Grow(len(payload) + len(event.Name()) + 16)
	buf.WriteString("event: ")
	buf.WriteString(event.Name())
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}
