package mockvllm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/probelab/logprobe/pkg/api"
)

// streamResponse writes the answer as the full SSE event sequence:
// response.created, response.in_progress, response.output_item.added,
// response.content_part.added, one response.output_text.delta per token,
// response.output_text.done, response.content_part.done,
// response.output_item.done, response.completed, then the [DONE] sentinel.
func (s *Server) streamResponse(w http.ResponseWriter, r *http.Request, req *api.CreateResponseRequest, tokens []api.TokenLogprob) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	seq := 0
	writeEvent := func(ev api.StreamEvent) bool {
		ev.SequenceNumber = seq
		seq++

		data, err := json.Marshal(ev)
		if err != nil {
			slog.Warn("marshaling stream event failed", "error", err.Error())
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			return false
		}
		if err := rc.Flush(); err != nil {
			return false
		}
		return true
	}

	resp := s.buildResponse(req, tokens)
	itemID := resp.Output[0].ID

	created := *resp
	created.Status = api.ResponseStatusInProgress
	created.CompletedAt = nil
	created.Output = []api.Item{}
	created.Usage = nil

	if !writeEvent(api.StreamEvent{Type: api.EventResponseCreated, Response: &created}) {
		return
	}
	if !writeEvent(api.StreamEvent{Type: api.EventResponseInProgress, Response: &created}) {
		return
	}

	openItem := api.Item{
		ID:     itemID,
		Type:   api.ItemTypeMessage,
		Status: api.ItemStatusInProgress,
		Message: &api.MessageData{
			Role: api.RoleAssistant,
		},
	}
	if !writeEvent(api.StreamEvent{
		Type:        api.EventOutputItemAdded,
		Item:        &openItem,
		OutputIndex: 0,
	}) {
		return
	}
	if !writeEvent(api.StreamEvent{
		Type:         api.EventContentPartAdded,
		Part:         &api.OutputContentPart{Type: "output_text"},
		ItemID:       itemID,
		OutputIndex:  0,
		ContentIndex: 0,
	}) {
		return
	}

	wantProbs := req.WantsLogprobs()
	for _, tok := range tokens {
		if s.cfg.TokenDelay > 0 {
			select {
			case <-time.After(s.cfg.TokenDelay):
			case <-r.Context().Done():
				return
			}
		}

		ev := api.StreamEvent{
			Type:         api.EventOutputTextDelta,
			ItemID:       itemID,
			OutputIndex:  0,
			ContentIndex: 0,
			Delta:        tok.Token,
		}
		if wantProbs {
			ev.Logprobs = []api.TokenLogprob{tok}
		}
		if !writeEvent(ev) {
			return
		}
	}

	done := api.StreamEvent{
		Type:         api.EventOutputTextDone,
		ItemID:       itemID,
		OutputIndex:  0,
		ContentIndex: 0,
		Text:         joinTokens(tokens),
	}
	if wantProbs {
		done.Logprobs = tokens
	}
	if !writeEvent(done) {
		return
	}

	finalPart := resp.Output[0].Message.Output[0]
	if !writeEvent(api.StreamEvent{
		Type:         api.EventContentPartDone,
		Part:         &finalPart,
		ItemID:       itemID,
		OutputIndex:  0,
		ContentIndex: 0,
	}) {
		return
	}
	if !writeEvent(api.StreamEvent{
		Type:        api.EventOutputItemDone,
		Item:        &resp.Output[0],
		OutputIndex: 0,
	}) {
		return
	}

	if !writeEvent(api.StreamEvent{Type: api.EventResponseCompleted, Response: resp}) {
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	rc.Flush()
}
