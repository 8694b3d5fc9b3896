package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"google.golang.org/genai"
)

// ErrUnavailable covers transport failures, timeouts and empty output.
// Callers treat it as "no result" and fall back locally, never as a
// user-visible error.
var ErrUnavailable = errors.New("oracle unavailable")

// At most this many bubbles are taken from one oracle reply.
const maxBubbles = 2

// Oracle is the generative fallback adapter: one system instruction and
// one user utterance per call, unary request/response, bounded wait.
type Oracle struct {
	client  *genai.Client
	model   string
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewOracle creates a client against the Gemini API.
func NewOracle(ctx context.Context, apiKey, model string, timeout time.Duration) (*Oracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Oracle{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete sends the user's literal query under the given system
// instruction and returns at most two bubbles. Any transport problem or
// empty completion comes back as ErrUnavailable.
func (o *Oracle) Complete(ctx context.Context, system, user string) ([]string, error) {
	o.mu.RLock()
	closed := o.closed
	o.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("%w: client closed", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(user), config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return ParseBubbles(text), nil
}

// Close releases the client. Subsequent Complete calls fail fast.
func (o *Oracle) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
}

// ParseBubbles extracts chat bubbles from raw model output. A JSON
// object with a "bubbles" array is preferred; anything else is split on
// blank-line boundaries. Both forms are truncated to two entries.
func ParseBubbles(text string) []string {
	stripped := stripFences(text)

	var payload struct {
		Bubbles []string `json:"bubbles"`
	}
	if err := sonic.Unmarshal([]byte(stripped), &payload); err == nil && len(payload.Bubbles) > 0 {
		return clampBubbles(payload.Bubbles)
	}

	paragraphs := strings.Split(strings.ReplaceAll(stripped, "\r\n", "\n"), "\n\n")
	return clampBubbles(paragraphs)
}

func clampBubbles(raw []string) []string {
	bubbles := make([]string, 0, maxBubbles)
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		bubbles = append(bubbles, b)
		if len(bubbles) == maxBubbles {
			break
		}
	}
	return bubbles
}

// stripFences removes a surrounding markdown code fence, which models
// add despite instructions not to.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
