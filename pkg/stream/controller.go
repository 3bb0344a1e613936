package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"notely-be/pkg/client"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateThinking   State = "thinking"
	StateStreaming  State = "streaming"
	StateComplete   State = "complete"
	StateError      State = "error"
)

var (
	ErrBusy           = errors.New("a generation is already running")
	ErrStreamEnded    = errors.New("stream ended before completion")
	ErrInvalidPayload = errors.New("invalid response format")
)

// ServerError carries the message of an "error" event.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// Snapshot is a consistent copy of the controller's progress.
type Snapshot struct {
	State State
	Steps []ThinkingStep
	Text  string
	Error string
}

// Controller drives one generation at a time against the SSE endpoint.
type Controller struct {
	api  *client.Client
	path string

	// OnUpdate, when set, receives a snapshot after every state change.
	OnUpdate func(Snapshot)

	mu      sync.Mutex
	state   State
	steps   []ThinkingStep
	text    strings.Builder
	lastErr string
	cancel  context.CancelFunc
}

func NewController(api *client.Client) *Controller {
	return &Controller{
		api:   api,
		path:  "/api/ai/v1/generate",
		state: StateIdle,
		steps: DefaultSteps(),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Steps() []ThinkingStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ThinkingStep(nil), c.steps...)
}

func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text.String()
}

func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State: c.state,
		Steps: append([]ThinkingStep(nil), c.steps...),
		Text:  c.text.String(),
		Error: c.lastErr,
	}
}

// update runs fn under the lock and then notifies OnUpdate outside it.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if c.OnUpdate != nil {
		c.OnUpdate(snap)
	}
}

func running(s State) bool {
	return s == StateConnecting || s == StateThinking || s == StateStreaming
}

// Cancel aborts a running generation; Generate then returns (nil, nil).
// From the error state it just returns the controller to idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	switch {
	case running(c.state) && c.cancel != nil:
		c.cancel()
		c.mu.Unlock()
	case c.state == StateError:
		c.mu.Unlock()
		c.update(func() { c.state = StateIdle })
	default:
		c.mu.Unlock()
	}
}

// Generate streams a note for prompt. A caller abort (Cancel or ctx) yields
// (nil, nil) and leaves the controller idle.
func (c *Controller) Generate(ctx context.Context, prompt string) (*GeneratedNote, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if running(c.state) {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.state = StateConnecting
	c.steps = DefaultSteps()
	c.text.Reset()
	c.lastErr = ""
	c.cancel = cancel
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if c.OnUpdate != nil {
		c.OnUpdate(snap)
	}

	note, err := c.run(runCtx, prompt)
	// A cancel that lands after the note arrived does not discard it.
	if err != nil && runCtx.Err() != nil {
		c.update(func() {
			c.state = StateIdle
			c.cancel = nil
		})
		return nil, nil
	}
	if err != nil {
		c.update(func() {
			c.state = StateError
			c.lastErr = humanize(err)
			c.cancel = nil
		})
		return nil, err
	}
	c.update(func() { c.cancel = nil })
	return note, nil
}

func (c *Controller) run(ctx context.Context, prompt string) (*GeneratedNote, error) {
	req, err := c.api.NewRequest(ctx, http.MethodPost, c.path, map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return nil, client.DecodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("malformed event: %w", err)
		}

		switch ev.Type {
		case EventThinking:
			c.update(func() {
				c.state = StateThinking
				advance(c.steps, ev.Step)
			})
		case EventChunk:
			c.update(func() {
				c.state = StateStreaming
				c.text.WriteString(ev.Content)
			})
		case EventComplete:
			var note GeneratedNote
			if len(ev.Data) == 0 || json.Unmarshal(ev.Data, &note) != nil {
				return nil, ErrInvalidPayload
			}
			c.update(func() {
				for i := range c.steps {
					c.steps[i].Status = StepCompleted
				}
				c.state = StateComplete
			})
			return &note, nil
		case EventError:
			msg := ev.Message
			if msg == "" {
				msg = "generation failed"
			}
			return nil, &ServerError{Message: msg}
		default:
			return nil, fmt.Errorf("malformed event: unknown type %q", ev.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, ErrStreamEnded
}

// advance marks id active and every step declared before it completed.
// Unknown ids leave the list untouched.
func advance(steps []ThinkingStep, id string) {
	idx := -1
	for i, s := range steps {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	for i := 0; i < idx; i++ {
		steps[i].Status = StepCompleted
	}
	if steps[idx].Status != StepCompleted {
		steps[idx].Status = StepActive
	}
}

func humanize(err error) string {
	switch {
	case errors.Is(err, client.ErrAPIKeyRequired):
		return "Add your AI provider API key in settings to use generation."
	case errors.Is(err, ErrInvalidPayload):
		return "The AI returned an invalid response format. Please try again."
	case errors.Is(err, ErrStreamEnded):
		return "The connection closed before the note was finished."
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	var ae *client.APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Generation failed: " + err.Error()
}
