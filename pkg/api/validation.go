package api

import "fmt"

// MaxTopLogprobs is the widest top_logprobs list a request may ask for,
// matching the limit vLLM enforces on the Responses API.
const MaxTopLogprobs = 20

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxInputItems  int
	MaxContentSize int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxInputItems:  1000,
		MaxContentSize: 10 * 1024 * 1024, // 10MB
	}
}

// ValidateRequest checks a CreateResponseRequest for validity. It returns an
// *APIError describing the first validation failure, or nil if the request
// is valid.
func ValidateRequest(req *CreateResponseRequest, cfg ValidationConfig) *APIError {
	if req.Model == "" {
		return NewInvalidRequestError("model", "model is required")
	}

	if len(req.Input) == 0 {
		return NewInvalidRequestError("input", "input must contain at least one item")
	}

	if cfg.MaxInputItems > 0 && len(req.Input) > cfg.MaxInputItems {
		return NewInvalidRequestError("input",
			fmt.Sprintf("input exceeds maximum of %d items", cfg.MaxInputItems))
	}

	if req.MaxOutputTokens != nil && *req.MaxOutputTokens <= 0 {
		return NewInvalidRequestError("max_output_tokens", "max_output_tokens must be positive")
	}

	if req.Temperature != nil {
		if *req.Temperature < 0.0 || *req.Temperature > 2.0 {
			return NewInvalidRequestError("temperature", "temperature must be between 0.0 and 2.0")
		}
	}

	if req.TopP != nil {
		if *req.TopP < 0.0 || *req.TopP > 1.0 {
			return NewInvalidRequestError("top_p", "top_p must be between 0.0 and 1.0")
		}
	}

	if req.TopLogprobs != nil {
		if *req.TopLogprobs < 0 || *req.TopLogprobs > MaxTopLogprobs {
			return NewInvalidRequestError("top_logprobs",
				fmt.Sprintf("top_logprobs must be between 0 and %d", MaxTopLogprobs))
		}
		// Asking for logprobs without the include flag is almost always a
		// mistake: the server accepts the request but silently omits the
		// arrays. Reject it up front.
		if *req.TopLogprobs > 0 && !req.WantsLogprobs() {
			return NewInvalidRequestError("include",
				fmt.Sprintf("top_logprobs > 0 requires include to contain %q", IncludeOutputTextLogprobs))
		}
	}

	for _, inc := range req.Include {
		if inc != IncludeOutputTextLogprobs {
			return NewInvalidRequestError("include",
				fmt.Sprintf("unsupported include value %q", inc))
		}
	}

	for i := range req.Input {
		if apiErr := ValidateItem(&req.Input[i]); apiErr != nil {
			return apiErr
		}
	}

	return nil
}

// ValidateItem checks an Item for structural validity.
func ValidateItem(item *Item) *APIError {
	if item.ID != "" && !ValidateItemID(item.ID) {
		return NewInvalidRequestError("id", "invalid item ID format")
	}

	switch item.Type {
	case ItemTypeMessage:
		if item.Message == nil {
			return NewInvalidRequestError("message", "message field required for message type")
		}
		if item.Message.Role == "" {
			return NewInvalidRequestError("role", "message role is required")
		}
	case ItemTypeReasoning:
		if item.Reasoning == nil {
			return NewInvalidRequestError("reasoning", "reasoning field required for reasoning type")
		}
	case "":
		return NewInvalidRequestError("type", "item type is required")
	default:
		return NewInvalidRequestError("type",
			fmt.Sprintf("invalid item type %q", item.Type))
	}

	return nil
}

// ResolveStore returns the effective store value, defaulting to true when nil.
func ResolveStore(req *CreateResponseRequest) bool {
	if req.Store != nil {
		return *req.Store
	}
	return true
}
