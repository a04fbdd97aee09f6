package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitnetd/bitnetd/internal/config"
	"github.com/bitnetd/bitnetd/internal/runner"
	"github.com/bitnetd/bitnetd/internal/store"
	"github.com/bitnetd/bitnetd/pkg/api"
)

// fakeHandle replays canned output lines.
type fakeHandle struct {
	lines chan string
	disp  runner.Disposition
	err   error
}

func (f *fakeHandle) Lines() <-chan string              { return f.lines }
func (f *fakeHandle) Wait() (runner.Disposition, error) { return f.disp, f.err }

// fakeRunner records the invocation and returns a fakeHandle.
type fakeRunner struct {
	lines  []string
	disp   runner.Disposition
	err    error
	runErr error
	gotInv runner.Invocation
}

func (f *fakeRunner) Run(_ context.Context, inv runner.Invocation) (runner.Handle, error) {
	f.gotInv = inv
	if f.runErr != nil {
		return nil, f.runErr
	}
	ch := make(chan string, len(f.lines))
	for _, l := range f.lines {
		ch <- l
	}
	close(ch)
	return &fakeHandle{lines: ch, disp: f.disp, err: f.err}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()

	model := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(model, []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.ModelPath = model
	cfg.ExecPath = "/usr/bin/true"
	return cfg
}

func newTestGateway(t *testing.T, fr *fakeRunner) *Gateway {
	t.Helper()
	return New(testConfig(t), fr, store.New(0))
}

func TestCompleteExtractsResponse(t *testing.T) {
	fr := &fakeRunner{
		lines: []string{
			"llama_model_loader: loading model",
			"system_info: n_threads = 4",
			"Assistant: Hello there!",
			"eval time = 120ms",
		},
		disp: runner.Completed,
	}
	g := newTestGateway(t, fr)

	resp, err := g.Complete(context.Background(), &api.CompletionRequest{Prompt: "User: hi\nAssistant:"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "Hello there!" {
		t.Errorf("content = %q, want %q", resp.Content, "Hello there!")
	}
	if resp.Model != "model.gguf" {
		t.Errorf("model = %q", resp.Model)
	}
	if resp.StopReason != "length" {
		t.Errorf("stop_reason = %q", resp.StopReason)
	}
}

func TestCompleteResolvesDefaults(t *testing.T) {
	fr := &fakeRunner{disp: runner.Completed}
	g := newTestGateway(t, fr)

	if _, err := g.Complete(context.Background(), &api.CompletionRequest{Prompt: "p"}); err != nil {
		t.Fatal(err)
	}

	args := fr.gotInv.Args
	want := map[string]string{
		"-n": "128", "-t": "4", "-c": "2048",
		"--temp": "0.7", "--top_k": "40", "--top_p": "0.95",
	}
	for i := 0; i < len(args)-1; i++ {
		if v, ok := want[args[i]]; ok && args[i+1] != v {
			t.Errorf("flag %s = %s, want %s", args[i], args[i+1], v)
		}
	}
	if fr.gotInv.Timeout != 30*time.Second {
		t.Errorf("blocking timeout = %s, want 30s", fr.gotInv.Timeout)
	}
}

func TestCompleteOverridesDefaults(t *testing.T) {
	fr := &fakeRunner{disp: runner.Completed}
	g := newTestGateway(t, fr)

	temp := 0.1
	n := 42
	_, err := g.Complete(context.Background(), &api.CompletionRequest{
		Prompt:      "p",
		Temperature: &temp,
		NPredict:    &n,
	})
	if err != nil {
		t.Fatal(err)
	}

	args := fr.gotInv.Args
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--temp" && args[i+1] != "0.1" {
			t.Errorf("--temp = %s, want 0.1", args[i+1])
		}
		if args[i] == "-n" && args[i+1] != "42" {
			t.Errorf("-n = %s, want 42", args[i+1])
		}
	}
}

func TestCompleteModelNotLoaded(t *testing.T) {
	cfg := config.DefaultConfig()
	g := New(cfg, &fakeRunner{}, store.New(0))

	_, err := g.Complete(context.Background(), &api.CompletionRequest{Prompt: "p"})
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Errorf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestCompleteTimeoutPropagates(t *testing.T) {
	fr := &fakeRunner{
		disp: runner.TimedOut,
		err:  runner.ErrTimeout,
	}
	g := newTestGateway(t, fr)

	_, err := g.Complete(context.Background(), &api.CompletionRequest{Prompt: "p"})
	if !errors.Is(err, runner.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestCompleteNoBoundaryIsEmpty(t *testing.T) {
	fr := &fakeRunner{
		lines: []string{"llama_print: stats", "warning: something"},
		disp:  runner.Completed,
	}
	g := newTestGateway(t, fr)

	resp, err := g.Complete(context.Background(), &api.CompletionRequest{Prompt: "User: hi\nAssistant:"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "" {
		t.Errorf("expected empty content, got %q", resp.Content)
	}
}

func TestStreamTerminalEvent(t *testing.T) {
	fr := &fakeRunner{
		lines: []string{
			"Assistant: The answer",
			"is 42.",
		},
		disp: runner.Completed,
	}
	g := newTestGateway(t, fr)

	events, err := g.Stream(context.Background(), &api.CompletionRequest{Prompt: "User: q\nAssistant:"})
	if err != nil {
		t.Fatal(err)
	}

	var got []StreamEvent
	for ev := range events {
		got = append(got, ev)
	}

	if len(got) < 2 {
		t.Fatalf("expected content + terminal events, got %v", got)
	}
	last := got[len(got)-1]
	if !last.Done || last.Err != nil {
		t.Errorf("last event = %+v, want done", last)
	}
	for _, ev := range got[:len(got)-1] {
		if ev.Done || ev.Err != nil {
			t.Errorf("non-terminal event %+v marked terminal", ev)
		}
	}
	if got[0].Content != "The answer" || got[1].Content != "is 42." {
		t.Errorf("unexpected content order: %+v", got)
	}
}

func TestStreamMatchesBlockingWhitespace(t *testing.T) {
	lines := []string{
		"Assistant: First line",
		"",
		"  indented continuation",
		"",
	}
	req := func() *api.CompletionRequest {
		return &api.CompletionRequest{Prompt: "User: q\nAssistant:"}
	}

	fr := &fakeRunner{lines: lines, disp: runner.Completed}
	resp, err := newTestGateway(t, fr).Complete(context.Background(), req())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "First line\n\n  indented continuation" {
		t.Fatalf("blocking content = %q", resp.Content)
	}

	fr = &fakeRunner{lines: lines, disp: runner.Completed}
	events, err := newTestGateway(t, fr).Stream(context.Background(), req())
	if err != nil {
		t.Fatal(err)
	}
	var chunks []string
	for ev := range events {
		if !ev.Done && ev.Err == nil {
			chunks = append(chunks, ev.Content)
		}
	}

	// Interior blank and indented lines survive; leading and trailing
	// whitespace does not, same as the blocking result.
	if got := strings.Join(chunks, "\n"); got != resp.Content {
		t.Errorf("streamed content = %q, blocking content = %q", got, resp.Content)
	}
}

func TestStreamErrorTerminal(t *testing.T) {
	fr := &fakeRunner{
		lines: []string{"Assistant: partial"},
		disp:  runner.TimedOut,
		err:   runner.ErrTimeout,
	}
	g := newTestGateway(t, fr)

	events, err := g.Stream(context.Background(), &api.CompletionRequest{Prompt: "User: q\nAssistant:"})
	if err != nil {
		t.Fatal(err)
	}

	var got []StreamEvent
	for ev := range events {
		got = append(got, ev)
	}

	last := got[len(got)-1]
	if last.Err == nil {
		t.Fatalf("expected terminal error event, got %+v", last)
	}
	if !errors.Is(last.Err, runner.ErrTimeout) {
		t.Errorf("terminal error = %v, want ErrTimeout", last.Err)
	}
}

func TestStreamUsesStreamTimeout(t *testing.T) {
	fr := &fakeRunner{disp: runner.Completed}
	g := newTestGateway(t, fr)

	events, err := g.Stream(context.Background(), &api.CompletionRequest{Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}
	for range events {
	}

	if fr.gotInv.Timeout != 5*time.Minute {
		t.Errorf("stream timeout = %s, want 5m", fr.gotInv.Timeout)
	}
}
