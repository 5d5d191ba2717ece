package api

// StreamEventType identifies the type of a streaming event.
type StreamEventType string

// Delta events are emitted during streaming to convey incremental content.
const (
	EventOutputItemAdded  StreamEventType = "response.output_item.added"
	EventContentPartAdded StreamEventType = "response.content_part.added"
	EventOutputTextDelta  StreamEventType = "response.output_text.delta"
	EventOutputTextDone   StreamEventType = "response.output_text.done"
	EventContentPartDone  StreamEventType = "response.content_part.done"
	EventOutputItemDone   StreamEventType = "response.output_item.done"
)

// Lifecycle events track the state of a response.
const (
	EventResponseCreated    StreamEventType = "response.created"
	EventResponseInProgress StreamEventType = "response.in_progress"
	EventResponseCompleted  StreamEventType = "response.completed"
	EventResponseIncomplete StreamEventType = "response.incomplete"
	EventResponseFailed     StreamEventType = "response.failed"
	EventResponseCancelled  StreamEventType = "response.cancelled"
	EventError              StreamEventType = "error"
)

// StreamEvent represents a single server-sent event in a streaming response.
//
// Delta events carry the incremental text in Delta plus the logprobs of the
// tokens that produced it; the matching done event carries the final Text and
// the full logprobs array. Terminal lifecycle events embed the Response.
type StreamEvent struct {
	Type           StreamEventType    `json:"type"`
	SequenceNumber int                `json:"sequence_number"`
	Response       *Response          `json:"response,omitempty"`
	Item           *Item              `json:"item,omitempty"`
	Part           *OutputContentPart `json:"part,omitempty"`
	Delta          string             `json:"delta,omitempty"`
	Text           string             `json:"text,omitempty"`
	Logprobs       []TokenLogprob     `json:"logprobs,omitempty"`
	ItemID         string             `json:"item_id,omitempty"`
	OutputIndex    int                `json:"output_index,omitempty"`
	ContentIndex   int                `json:"content_index,omitempty"`
	Error          *APIError          `json:"error,omitempty"`
}

// IsTerminal reports whether the event ends a streaming response.
func (e *StreamEvent) IsTerminal() bool {
	switch e.Type {
	case EventResponseCompleted, EventResponseIncomplete,
		EventResponseFailed, EventResponseCancelled, EventError:
		return true
	}
	return false
}
