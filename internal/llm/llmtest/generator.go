// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"sync"
)

type Call struct {
	Instructions string
	Content      string
	Structured   bool
}

// Generator answers every call with Fn and records it.
type Generator struct {
	Fn func(Call) (string, bool)

	mu    sync.Mutex
	calls []Call
}

// Static always answers text.
func Static(text string) *Generator {
	return &Generator{Fn: func(Call) (string, bool) { return text, true }}
}

// Unavailable never answers.
func Unavailable() *Generator {
	return &Generator{Fn: func(Call) (string, bool) { return "", false }}
}

// ByMode answers plain calls with label and structured calls with payload.
func ByMode(label, payload string) *Generator {
	return &Generator{Fn: func(c Call) (string, bool) {
		if c.Structured {
			return payload, true
		}
		return label, true
	}}
}

func (g *Generator) Generate(_ context.Context, instructions, content string, structured bool) (string, bool) {
	c := Call{Instructions: instructions, Content: content, Structured: structured}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	if g.Fn == nil {
		return "", false
	}
	return g.Fn(c)
}

func (g *Generator) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
