package callService

import (
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireEvent is the envelope of a server event. Only the fields the
// session loop cares about; everything else stays in the raw bytes.
type wireEvent struct {
	Type       string `json:"type"`
	CallID     string `json:"call_id"`
	ItemID     string `json:"item_id"`
	ResponseID string `json:"response_id"`
	Delta      string `json:"delta"`
	Arguments  string `json:"arguments"`
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
	Page       string `json:"page"`

	Part *struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		Transcript string `json:"transcript"`
	} `json:"part"`

	Item *struct {
		Type      string `json:"type"`
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"item"`
}

// demuxResult is what a fully reassembled event yields: either a completed
// text to scan for commands, or a direct navigation target.
type demuxResult struct {
	Text         string
	IsTranscript bool
	Page         string
}

// demultiplexer reassembles streamed fragments into complete payloads.
// Concurrent responses interleave on the wire, so fragments are keyed by
// the strongest correlation id present: call_id, then item_id, then
// response_id.
type demultiplexer struct {
	log *logrus.Logger

	mu      sync.Mutex
	buffers map[string]*strings.Builder
}

func newDemultiplexer(log *logrus.Logger) *demultiplexer {
	return &demultiplexer{
		log:     log,
		buffers: make(map[string]*strings.Builder),
	}
}

func (d *demultiplexer) correlationID(ev *wireEvent) string {
	switch {
	case ev.CallID != "":
		return ev.CallID
	case ev.ItemID != "":
		return ev.ItemID
	case ev.ResponseID != "":
		return ev.ResponseID
	default:
		return "orphan"
	}
}

func (d *demultiplexer) accumulate(ev *wireEvent, fragment string) {
	if fragment == "" {
		return
	}
	key := d.correlationID(ev)
	buf, ok := d.buffers[key]
	if !ok {
		buf = &strings.Builder{}
		d.buffers[key] = buf
	}
	buf.WriteString(fragment)
}

// complete closes out a stream: the inline full payload wins when the
// server sends one, otherwise the accumulated fragments stand in for it.
func (d *demultiplexer) complete(ev *wireEvent, inline string) string {
	key := d.correlationID(ev)
	buf, ok := d.buffers[key]
	delete(d.buffers, key)

	if inline != "" {
		return inline
	}
	if ok {
		return buf.String()
	}
	return ""
}

// Process consumes one raw server event. A nil result means the event was
// a fragment, bookkeeping, or junk; completed payloads come back as a
// demuxResult.
func (d *demultiplexer) Process(raw []byte) *demuxResult {
	var ev wireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		d.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Debug("[Demux.Process] undecodable event dropped")
		return nil
	}

	// Disconnect may reset the buffers while the session loop is still
	// draining events.
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Type {
	case "response.function_call_arguments.delta":
		d.accumulate(&ev, ev.Delta)
		return nil

	case "response.function_call_arguments.done":
		full := d.complete(&ev, ev.Arguments)
		if full == "" {
			return nil
		}
		return &demuxResult{Text: full}

	case "response.audio_transcript.delta":
		d.accumulate(&ev, ev.Delta)
		return nil

	case "response.audio_transcript.done":
		full := d.complete(&ev, ev.Transcript)
		if full == "" {
			return nil
		}
		return &demuxResult{Text: full, IsTranscript: true}

	case "response.content_part.added":
		if ev.Part != nil {
			d.accumulate(&ev, ev.Part.Text)
		}
		return nil

	case "response.content_part.done":
		var inline string
		if ev.Part != nil {
			inline = ev.Part.Text
			if inline == "" {
				inline = ev.Part.Transcript
			}
		}
		full := d.complete(&ev, inline)
		if full == "" {
			return nil
		}
		return &demuxResult{Text: full}

	case "response.output_item.added":
		// Function call items stream their arguments separately.
		return nil

	case "response.output_item.done":
		if ev.Item != nil && ev.Item.Type == "function_call" &&
			ev.Item.Name == "redirect_to_page" && ev.Item.Arguments != "" {
			return &demuxResult{Text: ev.Item.Arguments}
		}
		return nil

	case "navigation":
		if ev.Page == "" {
			return nil
		}
		return &demuxResult{Page: ev.Page}

	case "error":
		d.log.WithFields(logrus.Fields{
			"event": string(raw),
		}).Warn("[Demux.Process] server reported an error event")
		return nil

	default:
		d.log.WithFields(logrus.Fields{
			"type": ev.Type,
		}).Debug("[Demux.Process] unknown event type dropped")
		return nil
	}
}

// Reset clears all partial streams. Runs on disconnect so a new call
// never inherits half-assembled payloads.
func (d *demultiplexer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffers = make(map[string]*strings.Builder)
}
