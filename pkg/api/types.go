package api

import "encoding/json"

// IncludeOutputTextLogprobs is the include[] value that switches on
// per-token logprobs in message output. Without it the server omits the
// logprobs arrays even when top_logprobs is set.
const IncludeOutputTextLogprobs = "message.output_text.logprobs"

// ---------------------------------------------------------------------------
// Content types
// ---------------------------------------------------------------------------

// ContentPart represents a part of user input content.
// The Type field indicates the kind of content, currently input_text.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OutputContentPart represents a part of model output content.
// The Type field indicates the kind: output_text or summary_text.
type OutputContentPart struct {
	Type        string         `json:"-"`
	Text        string         `json:"-"`
	Annotations []Annotation   `json:"-"`
	Logprobs    []TokenLogprob `json:"-"`
}

// MarshalJSON ensures annotations and logprobs are always arrays, never null.
func (p OutputContentPart) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type        string         `json:"type"`
		Text        string         `json:"text"`
		Annotations []Annotation   `json:"annotations"`
		Logprobs    []TokenLogprob `json:"logprobs"`
	}
	w := wire{
		Type:        p.Type,
		Text:        p.Text,
		Annotations: p.Annotations,
		Logprobs:    p.Logprobs,
	}
	if w.Annotations == nil {
		w.Annotations = []Annotation{}
	}
	if w.Logprobs == nil {
		w.Logprobs = []TokenLogprob{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON deserializes an OutputContentPart.
func (p *OutputContentPart) UnmarshalJSON(data []byte) error {
	type wire struct {
		Type        string         `json:"type"`
		Text        string         `json:"text"`
		Annotations []Annotation   `json:"annotations"`
		Logprobs    []TokenLogprob `json:"logprobs"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Type = w.Type
	p.Text = w.Text
	p.Annotations = w.Annotations
	p.Logprobs = w.Logprobs
	return nil
}

// Annotation represents an annotation on output text, such as a citation.
type Annotation struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// TokenLogprob holds log probability information for a single sampled token.
// Bytes carries the raw UTF-8 bytes of the token when the server reports
// them (tokens are not always valid UTF-8 on their own).
type TokenLogprob struct {
	Token       string       `json:"token"`
	Logprob     float64      `json:"logprob"`
	Bytes       []int        `json:"bytes,omitempty"`
	TopLogprobs []TopLogprob `json:"top_logprobs,omitempty"`
}

// TopLogprob holds a candidate token and its log probability.
type TopLogprob struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
	Bytes   []int   `json:"bytes,omitempty"`
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ItemType represents the type of an item in a conversation.
type ItemType string

const (
	ItemTypeMessage   ItemType = "message"
	ItemTypeReasoning ItemType = "reasoning"
)

// ItemStatus represents the processing status of an item.
type ItemStatus string

const (
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusIncomplete ItemStatus = "incomplete"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
)

// MessageData holds the data specific to a message item. Content carries
// user input parts, Output carries assistant output parts.
type MessageData struct {
	Role    MessageRole         `json:"role"`
	Content []ContentPart       `json:"content,omitempty"`
	Output  []OutputContentPart `json:"output,omitempty"`
}

// ReasoningData holds the data specific to a reasoning item.
type ReasoningData struct {
	Content string `json:"content,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Item represents a single item in a conversation: a message or a
// reasoning step.
type Item struct {
	ID     string     `json:"id"`
	Type   ItemType   `json:"type"`
	Status ItemStatus `json:"status"`

	Message   *MessageData   `json:"message,omitempty"`
	Reasoning *ReasoningData `json:"reasoning,omitempty"`
}

// itemWireBase contains fields common to all item types.
type itemWireBase struct {
	ID     string     `json:"id"`
	Type   ItemType   `json:"type"`
	Status ItemStatus `json:"status,omitempty"`
}

// MarshalJSON serializes an Item in the flat wire format used by the
// Responses API: type-specific fields sit at the top level, not nested in
// a wrapper object.
func (item Item) MarshalJSON() ([]byte, error) {
	switch item.Type {
	case ItemTypeReasoning:
		type wireReasoning struct {
			itemWireBase
			Content string `json:"content,omitempty"`
			Summary string `json:"summary,omitempty"`
		}
		w := wireReasoning{
			itemWireBase: itemWireBase{ID: item.ID, Type: item.Type, Status: item.Status},
		}
		if item.Reasoning != nil {
			w.Content = item.Reasoning.Content
			w.Summary = item.Reasoning.Summary
		}
		return json.Marshal(w)

	default:
		// Messages, and anything unknown, use the message layout.
		type wireMessage struct {
			itemWireBase
			Role    MessageRole `json:"role"`
			Content []any       `json:"content"`
		}
		w := wireMessage{
			itemWireBase: itemWireBase{ID: item.ID, Type: item.Type, Status: item.Status},
		}
		if item.Message != nil {
			w.Role = item.Message.Role
			if len(item.Message.Output) > 0 {
				for _, part := range item.Message.Output {
					w.Content = append(w.Content, part)
				}
			} else {
				for _, part := range item.Message.Content {
					w.Content = append(w.Content, part)
				}
			}
		}
		if w.Content == nil {
			w.Content = []any{}
		}
		return json.Marshal(w)
	}
}

// UnmarshalJSON deserializes an Item from the flat wire format. Assistant
// messages get their content parsed as output parts (which may carry
// logprobs), all other roles as input parts.
func (item *Item) UnmarshalJSON(data []byte) error {
	var base struct {
		ID     string     `json:"id"`
		Type   ItemType   `json:"type"`
		Status ItemStatus `json:"status"`

		Role    MessageRole     `json:"role"`
		Content json.RawMessage `json:"content"`
		Summary string          `json:"summary"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	item.ID = base.ID
	item.Type = base.Type
	item.Status = base.Status

	switch base.Type {
	case ItemTypeReasoning:
		var content string
		// Reasoning content may be a plain string on the wire.
		if len(base.Content) > 0 {
			_ = json.Unmarshal(base.Content, &content)
		}
		item.Reasoning = &ReasoningData{Content: content, Summary: base.Summary}

	case ItemTypeMessage:
		item.Message = &MessageData{Role: base.Role}
		if len(base.Content) == 0 || string(base.Content) == "null" || string(base.Content) == "[]" {
			return nil
		}
		if base.Role == RoleAssistant {
			var parts []OutputContentPart
			if err := json.Unmarshal(base.Content, &parts); err == nil && len(parts) > 0 {
				item.Message.Output = parts
			}
		} else {
			var parts []ContentPart
			if err := json.Unmarshal(base.Content, &parts); err == nil && len(parts) > 0 {
				item.Message.Content = parts
			}
		}
	}

	return nil
}

// NewUserMessage builds a completed user message item with a single
// input_text content part. This is the shape the probe sends.
func NewUserMessage(text string) Item {
	return Item{
		ID:     NewItemID(),
		Type:   ItemTypeMessage,
		Status: ItemStatusCompleted,
		Message: &MessageData{
			Role:    RoleUser,
			Content: []ContentPart{{Type: "input_text", Text: text}},
		},
	}
}

// ---------------------------------------------------------------------------
// Request and Response
// ---------------------------------------------------------------------------

// CreateResponseRequest represents the request body for POST /v1/responses.
type CreateResponseRequest struct {
	Model           string         `json:"model"`
	Input           []Item         `json:"input"`
	Instructions    string         `json:"instructions,omitempty"`
	Store           *bool          `json:"store,omitempty"`
	Stream          bool           `json:"stream,omitempty"`
	MaxOutputTokens *int           `json:"max_output_tokens,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	TopP            *float64       `json:"top_p,omitempty"`
	TopLogprobs     *int           `json:"top_logprobs,omitempty"`
	Include         []string       `json:"include,omitempty"`
	StreamOptions   *StreamOptions `json:"stream_options,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	User            string         `json:"user,omitempty"`
}

// WantsLogprobs reports whether the request asks for per-token logprobs,
// which requires both a positive top_logprobs and the include flag.
func (r *CreateResponseRequest) WantsLogprobs() bool {
	if r.TopLogprobs == nil || *r.TopLogprobs <= 0 {
		return false
	}
	for _, inc := range r.Include {
		if inc == IncludeOutputTextLogprobs {
			return true
		}
	}
	return false
}

// StreamOptions controls streaming behavior.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// ResponseStatus represents the overall status of a response.
type ResponseStatus string

const (
	ResponseStatusQueued     ResponseStatus = "queued"
	ResponseStatusInProgress ResponseStatus = "in_progress"
	ResponseStatusCompleted  ResponseStatus = "completed"
	ResponseStatusIncomplete ResponseStatus = "incomplete"
	ResponseStatusFailed     ResponseStatus = "failed"
	ResponseStatusCancelled  ResponseStatus = "cancelled"
)

// Response represents the document returned by POST /v1/responses when
// stream is false, and the payload embedded in terminal streaming events.
type Response struct {
	ID                string             `json:"id"`
	Object            string             `json:"object"`
	CreatedAt         int64              `json:"created_at"`
	CompletedAt       *int64             `json:"completed_at,omitempty"`
	Status            ResponseStatus     `json:"status"`
	IncompleteDetails *IncompleteDetails `json:"incomplete_details"`
	Model             string             `json:"model"`
	Output            []Item             `json:"output"`
	Error             *APIError          `json:"error"`
	Temperature       float64            `json:"temperature"`
	TopP              float64            `json:"top_p"`
	TopLogprobs       int                `json:"top_logprobs"`
	MaxOutputTokens   *int               `json:"max_output_tokens"`
	Usage             *Usage             `json:"usage"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
	User              string             `json:"user,omitempty"`
}

// OutputText concatenates the text of all output_text parts across all
// message output items.
func (r *Response) OutputText() string {
	var out string
	for _, item := range r.Output {
		if item.Type != ItemTypeMessage || item.Message == nil {
			continue
		}
		for _, part := range item.Message.Output {
			if part.Type == "output_text" {
				out += part.Text
			}
		}
	}
	return out
}

// OutputLogprobs collects the per-token logprobs of all output_text parts
// in output order.
func (r *Response) OutputLogprobs() []TokenLogprob {
	var probs []TokenLogprob
	for _, item := range r.Output {
		if item.Type != ItemTypeMessage || item.Message == nil {
			continue
		}
		for _, part := range item.Message.Output {
			if part.Type == "output_text" {
				probs = append(probs, part.Logprobs...)
			}
		}
	}
	return probs
}

// IncompleteDetails provides information about why a response is incomplete.
type IncompleteDetails struct {
	Reason string `json:"reason,omitempty"`
}

// Usage holds token usage information for a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ModelInfo describes a model served by the backend, as returned by
// GET /v1/models.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
