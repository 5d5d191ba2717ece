package api

import (
	"strings"
	"testing"
)

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }
func validInput() []Item          { return []Item{NewUserMessage("hi")} }

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateResponseRequest
		wantParam string // empty means valid
	}{
		{
			name: "valid logprobs request",
			req: CreateResponseRequest{
				Model:       "TinyLlama/TinyLlama-1.1B-Chat-v1.0",
				Input:       validInput(),
				TopLogprobs: intPtr(5),
				Include:     []string{IncludeOutputTextLogprobs},
			},
		},
		{
			name:      "missing model",
			req:       CreateResponseRequest{Input: validInput()},
			wantParam: "model",
		},
		{
			name:      "empty input",
			req:       CreateResponseRequest{Model: "m"},
			wantParam: "input",
		},
		{
			name: "temperature too high",
			req: CreateResponseRequest{
				Model: "m", Input: validInput(), Temperature: floatPtr(3.0),
			},
			wantParam: "temperature",
		},
		{
			name: "top_p out of range",
			req: CreateResponseRequest{
				Model: "m", Input: validInput(), TopP: floatPtr(1.5),
			},
			wantParam: "top_p",
		},
		{
			name: "negative max_output_tokens",
			req: CreateResponseRequest{
				Model: "m", Input: validInput(), MaxOutputTokens: intPtr(-1),
			},
			wantParam: "max_output_tokens",
		},
		{
			name: "top_logprobs above limit",
			req: CreateResponseRequest{
				Model: "m", Input: validInput(),
				TopLogprobs: intPtr(MaxTopLogprobs + 1),
				Include:     []string{IncludeOutputTextLogprobs},
			},
			wantParam: "top_logprobs",
		},
		{
			name: "top_logprobs without include flag",
			req: CreateResponseRequest{
				Model: "m", Input: validInput(), TopLogprobs: intPtr(3),
			},
			wantParam: "include",
		},
		{
			name: "unknown include value",
			req: CreateResponseRequest{
				Model: "m", Input: validInput(),
				Include: []string{"message.input_image.image_url"},
			},
			wantParam: "include",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req, DefaultValidationConfig())
			if tt.wantParam == "" {
				if err != nil {
					t.Fatalf("expected valid, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on param %q, got nil", tt.wantParam)
			}
			if err.Param != tt.wantParam {
				t.Errorf("error param = %q, want %q (message: %s)", err.Param, tt.wantParam, err.Message)
			}
			if err.Type != ErrorTypeInvalidRequest {
				t.Errorf("error type = %q, want invalid_request", err.Type)
			}
		})
	}
}

func TestValidateRequest_MaxInputItems(t *testing.T) {
	cfg := ValidationConfig{MaxInputItems: 2}
	req := CreateResponseRequest{
		Model: "m",
		Input: []Item{NewUserMessage("a"), NewUserMessage("b"), NewUserMessage("c")},
	}

	err := ValidateRequest(&req, cfg)
	if err == nil || err.Param != "input" {
		t.Fatalf("expected input limit error, got %v", err)
	}
	if !strings.Contains(err.Message, "2") {
		t.Errorf("message should mention the limit: %s", err.Message)
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{name: "valid message", item: NewUserMessage("hi")},
		{
			name: "valid reasoning",
			item: Item{Type: ItemTypeReasoning, Reasoning: &ReasoningData{Content: "x"}},
		},
		{name: "missing type", item: Item{}, wantErr: true},
		{
			name:    "message without data",
			item:    Item{Type: ItemTypeMessage},
			wantErr: true,
		},
		{
			name:    "message without role",
			item:    Item{Type: ItemTypeMessage, Message: &MessageData{}},
			wantErr: true,
		},
		{
			name:    "unknown type",
			item:    Item{Type: "function_call"},
			wantErr: true,
		},
		{
			name: "malformed id",
			item: Item{
				ID: "item_short", Type: ItemTypeMessage,
				Message: &MessageData{Role: RoleUser},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(&tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveStore(t *testing.T) {
	f := false
	if !ResolveStore(&CreateResponseRequest{}) {
		t.Error("store should default to true")
	}
	if ResolveStore(&CreateResponseRequest{Store: &f}) {
		t.Error("explicit store=false should resolve to false")
	}
}
