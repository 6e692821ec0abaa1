// Package llmtest provides deterministic stand-ins for the text generator.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/talgya/worldweaver/internal/llm"
)

// ErrScripted is the failure returned for calls matching Fake.FailOn.
var ErrScripted = errors.New("scripted generation failure")

// Call records one Generate invocation.
type Call struct {
	System    string
	Query     string
	MaxTokens int
}

// Echo answers with a token derived from the live query, so identical
// inputs always produce identical outputs.
func Echo(messages []llm.Message, _ int) (string, error) {
	h := fnv.New32a()
	for _, m := range messages {
		h.Write([]byte(m.Role))
		h.Write([]byte(m.Content))
	}
	return fmt.Sprintf("echo-%08x", h.Sum32()), nil
}

// Fake is a scriptable llm.Generator.
type Fake struct {
	// Respond produces the answer; Echo when nil.
	Respond func(messages []llm.Message, maxTokens int) (string, error)

	// FailOn makes every call whose system prompt contains one of these
	// substrings fail with ErrScripted.
	FailOn []string

	// Hold, when set, blocks each call until it is closed or receives.
	Hold chan struct{}
	// Started receives a value as each call begins, if there is room.
	Started chan struct{}

	mu    sync.Mutex
	calls []Call
}

// Generate implements llm.Generator.
func (f *Fake) Generate(ctx context.Context, messages []llm.Message, maxTokens int) (string, error) {
	call := Call{MaxTokens: maxTokens}
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			call.System = m.Content
		}
	}
	if n := len(messages); n > 0 {
		call.Query = messages[n-1].Content
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.Started != nil {
		select {
		case f.Started <- struct{}{}:
		default:
		}
	}
	if f.Hold != nil {
		select {
		case <-f.Hold:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	for _, s := range f.FailOn {
		if strings.Contains(call.System, s) {
			return "", ErrScripted
		}
	}
	if f.Respond != nil {
		return f.Respond(messages, maxTokens)
	}
	return Echo(messages, maxTokens)
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
