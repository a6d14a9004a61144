package llm

import (
	"context"
	"errors"
	"time"
)

// Fixed generation parameters. Classification and extraction are deterministic tasks.
const (
	Temperature     float32 = 0.0
	MaxOutputTokens         = 2000
)

var (
	// ErrBlocked means the provider refused the prompt on safety grounds.
	ErrBlocked = errors.New("llm: response blocked by safety settings")
	// ErrNoCandidates means the provider answered without any completion.
	ErrNoCandidates = errors.New("llm: empty candidate list")
)

// CompletionRequest is a single-turn completion.
type CompletionRequest struct {
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
}

// Completer is implemented by each provider client.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Generator is the boundary the classifier and handlers depend on. A false second
// return means no response is available; no error ever crosses it.
type Generator interface {
	Generate(ctx context.Context, instructions, content string, structured bool) (string, bool)
}

// Observer receives one observation per generation call.
type Observer interface {
	ObserveGeneration(outcome string, elapsed time.Duration)
}

// Generation outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeInvalidJSON = "invalid_json"
	OutcomeBlocked     = "blocked"
	OutcomeError       = "error"
)
