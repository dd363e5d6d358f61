// Package levels holds the immutable table of puzzle levels and the
// per-process access paths that lead to them.
//
// A Registry is built once at startup and never modified afterwards, so it
// is safe to share between request goroutines without locking.
package levels

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies a level. Valid level ids form the contiguous range 1..N.
// The id N+1 is the Completed marker returned by Registry.Terminal.
type ID int

var (
	// ErrNotFound is returned when a level id has no definition
	ErrNotFound = errors.New("level not found")
	// ErrEmptyRegistry is returned when no definitions are supplied
	ErrEmptyRegistry = errors.New("registry needs at least one level")
	// ErrNonContiguous is returned when level ids do not form 1..N in order
	ErrNonContiguous = errors.New("level ids must be contiguous starting at 1")
	// ErrIncomplete is returned when a definition lacks an answer or system prompt
	ErrIncomplete = errors.New("level definition incomplete")
)

// Definition describes one level of the game.
type Definition struct {
	ID             ID
	Title          string
	SceneImage     string
	Description    string
	Answer         string
	SuccessMessage string
	Hints          []string
	SystemPrompt   string

	// FallbackReply is what the guard says when the assistant backend
	// cannot be reached.
	FallbackReply string

	// BlockedReplyMarker, when set, causes any assistant reply containing it
	// to be replaced with a neutral refusal.
	BlockedReplyMarker string
}

// Registry is a read-only lookup table of level definitions.
type Registry struct {
	defs []Definition
}

// New validates defs and builds a Registry.
// Definitions must be ordered with ids 1..N.
func New(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyRegistry
	}

	copied := make([]Definition, len(defs))
	for i, def := range defs {
		if def.ID != ID(i+1) {
			return nil, fmt.Errorf("%w: position %d has id %d", ErrNonContiguous, i, def.ID)
		}
		if strings.TrimSpace(def.Answer) == "" {
			return nil, fmt.Errorf("%w: level %d has no answer", ErrIncomplete, def.ID)
		}
		if strings.TrimSpace(def.SystemPrompt) == "" {
			return nil, fmt.Errorf("%w: level %d has no system prompt", ErrIncomplete, def.ID)
		}
		def.Hints = append([]string(nil), def.Hints...)
		copied[i] = def
	}

	return &Registry{defs: copied}, nil
}

// Get returns the definition for id.
func (r *Registry) Get(id ID) (Definition, error) {
	if id < r.First() || id > r.Last() {
		return Definition{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	def := r.defs[id-1]
	def.Hints = append([]string(nil), def.Hints...)
	return def, nil
}

// Count returns the number of levels.
func (r *Registry) Count() int {
	return len(r.defs)
}

// First returns the id of the starting level.
func (r *Registry) First() ID {
	return 1
}

// Last returns the id of the final playable level.
func (r *Registry) Last() ID {
	return ID(len(r.defs))
}

// Terminal returns the Completed marker.
func (r *Registry) Terminal() ID {
	return r.Last() + 1
}

// IsTerminal reports whether id is the Completed marker.
func (r *Registry) IsTerminal(id ID) bool {
	return id == r.Terminal()
}

// Next returns the level following id, or Terminal after the last level.
func (r *Registry) Next(id ID) ID {
	if id >= r.Last() {
		return r.Terminal()
	}
	return id + 1
}
