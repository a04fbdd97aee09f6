// Package gateway orchestrates completions: it resolves request defaults,
// drives the process runner and output classifier, and shapes results into
// the response envelopes the HTTP layer returns.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitnetd/bitnetd/internal/config"
	"github.com/bitnetd/bitnetd/internal/prompt"
	"github.com/bitnetd/bitnetd/internal/runner"
	"github.com/bitnetd/bitnetd/internal/store"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// Tagged failures surfaced to the HTTP layer.
var (
	ErrModelNotLoaded       = errors.New("model not loaded")
	ErrConversationNotFound = errors.New("conversation not found")
)

// StreamEvent is the unit of a streamed completion. A stream is a finite
// sequence of content events terminated by exactly one event with Done set
// or a non-nil Err.
type StreamEvent struct {
	Content string
	Done    bool
	Err     error
}

// Gateway is the completion orchestrator.
type Gateway struct {
	cfg       *config.Config
	runner    runner.Runner
	store     *store.Store
	modelName string
}

// New creates a Gateway.
func New(cfg *config.Config, r runner.Runner, s *store.Store) *Gateway {
	return &Gateway{
		cfg:       cfg,
		runner:    r,
		store:     s,
		modelName: filepath.Base(cfg.ModelPath),
	}
}

// ModelName returns the name of the configured model file.
func (g *Gateway) ModelName() string {
	return g.modelName
}

// CreateConversation allocates a fresh empty conversation.
func (g *Gateway) CreateConversation() string {
	return g.store.Create()
}

// Conversation returns the stored history for id.
func (g *Gateway) Conversation(id string) ([]api.Message, error) {
	msgs, ok := g.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return msgs, nil
}

// checkModel verifies a model is configured and present on disk.
func (g *Gateway) checkModel() error {
	if g.cfg.ModelPath == "" {
		return ErrModelNotLoaded
	}
	if _, err := os.Stat(g.cfg.ModelPath); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotLoaded, g.cfg.ModelPath)
	}
	return nil
}

// resolve fills absent request fields with the configured defaults so the
// runner always receives concrete parameters.
func (g *Gateway) resolve(req *api.CompletionRequest) runner.Params {
	d := g.cfg.Defaults
	p := runner.Params{
		ModelPath:   g.cfg.ModelPath,
		Prompt:      req.Prompt,
		Temperature: d.Temperature,
		TopK:        d.TopK,
		TopP:        d.TopP,
		NPredict:    d.NPredict,
		Threads:     d.Threads,
		CtxSize:     d.CtxSize,
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.TopK != nil {
		p.TopK = *req.TopK
	}
	if req.TopP != nil {
		p.TopP = *req.TopP
	}
	if req.NPredict != nil {
		p.NPredict = *req.NPredict
	}
	if req.Threads != nil {
		p.Threads = *req.Threads
	}
	if req.CtxSize != nil {
		p.CtxSize = *req.CtxSize
	}
	return p
}

func (g *Gateway) invocation(req *api.CompletionRequest, timeout time.Duration) runner.Invocation {
	return runner.Invocation{
		ExecPath:  g.cfg.ExecPath,
		Args:      runner.BuildArgs(g.resolve(req)),
		Timeout:   timeout,
		TermGrace: g.cfg.TermGrace,
	}
}

// Complete runs one blocking completion to its terminal state.
func (g *Gateway) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	if err := g.checkModel(); err != nil {
		return nil, err
	}

	h, err := g.runner.Run(ctx, g.invocation(req, g.cfg.BlockingTimeout))
	if err != nil {
		return nil, err
	}

	cls := runner.NewClassifier(req.Prompt, prompt.AssistantCue, g.cfg.NoiseMarkers)
	var chunks []string
	for line := range h.Lines() {
		if chunk, ok := cls.Feed(line); ok {
			chunks = append(chunks, chunk)
		}
	}

	disp, werr := h.Wait()
	content := runner.JoinResponse(chunks)

	switch disp {
	case runner.Completed:
	case runner.Failed:
		if content == "" {
			return nil, werr
		}
		// Usable output arrived before the abnormal exit; keep it.
		log.Printf("completion produced output before failing: %v", werr)
	default:
		return nil, werr
	}

	return &api.CompletionResponse{
		Model:      g.modelName,
		CreatedAt:  time.Now().Unix(),
		Content:    content,
		StopReason: "length",
	}, nil
}

// Stream runs one streaming completion. The returned channel yields one
// event per collected chunk and is closed after a single terminal event.
// Runner cleanup always happens before the terminal event is delivered.
// The consumer must drain the channel.
func (g *Gateway) Stream(ctx context.Context, req *api.CompletionRequest) (<-chan StreamEvent, error) {
	if err := g.checkModel(); err != nil {
		return nil, err
	}

	h, err := g.runner.Run(ctx, g.invocation(req, g.cfg.StreamTimeout))
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent)
	go func() {
		defer close(ch)

		send := func(ev StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		cls := runner.NewClassifier(req.Prompt, prompt.AssistantCue, g.cfg.NoiseMarkers)

		// Blank lines inside the answer are content; leading and trailing
		// ones are not, matching how blocking mode trims the joined result.
		// Held blanks flush only when more content arrives.
		var started bool
		var blanks []string
	lines:
		for line := range h.Lines() {
			chunk, ok := cls.Feed(line)
			if !ok {
				continue
			}
			if strings.TrimSpace(chunk) == "" {
				if started {
					blanks = append(blanks, chunk)
				}
				continue
			}
			for _, b := range blanks {
				if !send(StreamEvent{Content: b}) {
					break lines
				}
			}
			blanks = nil
			if !started {
				chunk = strings.TrimLeft(chunk, " \t")
			}
			started = true
			if !send(StreamEvent{Content: chunk}) {
				break
			}
		}

		// Drain remaining output so the runner can finish, then wait for
		// the terminal disposition before emitting the terminal event.
		for range h.Lines() {
		}
		disp, werr := h.Wait()

		if disp == runner.Completed {
			send(StreamEvent{Done: true})
			return
		}
		send(StreamEvent{Err: werr})
	}()

	return ch, nil
}
