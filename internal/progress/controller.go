// Package progress implements the level progression state machine.
//
// States are Level 1..N and Completed. The only gameplay transition is a
// correct SubmitAnswer, which moves a session to the next level (or to
// Completed from the last level). Restart is the single operator action that
// moves a session backwards.
//
// Every operation is a pure function over a Session value: it receives the
// current state and returns the new state plus its output. Callers are
// responsible for persisting the returned Session.
package progress

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/hurricanerix/infiltrate/internal/levels"
)

// IncorrectMessage is the notice attached to a rejected answer.
const IncorrectMessage = "Incorrect answer. Try again."

var (
	// ErrNoLevelData is returned when the session points at a level that has
	// no definition. This is a configuration error, not a game state.
	ErrNoLevelData = errors.New("level data not found")
	// ErrNoPath is returned when a level has no route.
	ErrNoPath = errors.New("level path not found")
)

// Controller applies progression rules using an immutable level table and
// the per-process access paths.
type Controller struct {
	registry *levels.Registry
	paths    *levels.Paths
}

// NewController creates a Controller. Both arguments are shared read-only.
func NewController(registry *levels.Registry, paths *levels.Paths) *Controller {
	return &Controller{
		registry: registry,
		paths:    paths,
	}
}

// Registry returns the level table the controller was built with.
func (c *Controller) Registry() *levels.Registry {
	return c.registry
}

// Decision is the outcome of ResolveAccess.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// ResolveAccess decides whether s may view the requested level.
// Access is allowed when the session has reached the level. Otherwise the
// player is sent back to the route of their current level, or to the start
// if that route is unknown.
func (c *Controller) ResolveAccess(s Session, requested levels.ID) Decision {
	if s.CurrentLevel >= requested {
		return Decision{Allow: true}
	}
	path, ok := c.paths.Path(s.CurrentLevel)
	if !ok {
		path = levels.StartPath
	}
	return Decision{RedirectTo: path}
}

// EnterOptions modifies how Enter treats one-shot state.
type EnterOptions struct {
	// Restart marks a player looping back to the start. Any pending success
	// payload is discarded and no modal is shown for this render.
	Restart bool
}

// Entry is what a level view needs to render.
type Entry struct {
	Level            levels.Definition
	Success          *SuccessInfo
	Notice           *Notice
	ShowInstructions bool
}

// Enter records a visit to level id and collects the one-shot data for this
// render. Access must already be resolved. The session now views id, and
// CurrentLevel is raised to id if lower and never lowered.
func (c *Controller) Enter(s Session, id levels.ID, opts EnterOptions) (Session, Entry, error) {
	def, err := c.registry.Get(id)
	if err != nil {
		return s, Entry{}, fmt.Errorf("%w: %w", ErrNoLevelData, err)
	}

	s.Viewing = id
	if s.CurrentLevel < id {
		s.CurrentLevel = id
	}

	entry := Entry{Level: def}

	if opts.Restart {
		s.PendingSuccess.Clear()
	} else if info, ok := s.PendingSuccess.Take(); ok {
		entry.Success = &info
	}

	if notice, ok := s.Notice.Take(); ok {
		entry.Notice = &notice
	}

	if id == c.registry.First() {
		entry.ShowInstructions = !s.InstructionsSeen && !opts.Restart
		s.InstructionsSeen = true
	}

	return s, entry, nil
}

// Restart resets s to the first level. One-shot state is left for Enter to
// handle.
func (c *Controller) Restart(s Session) Session {
	s.CurrentLevel = c.registry.First()
	s.Viewing = c.registry.First()
	return s
}

// Complete is applied when the congratulations view renders. It discards any
// pending success payload so it cannot reappear later. A finished session
// now views the Completed marker.
func (c *Controller) Complete(s Session) Session {
	s.PendingSuccess.Clear()
	if c.registry.IsTerminal(s.CurrentLevel) {
		s.Viewing = s.CurrentLevel
	}
	return s
}

// Result is the outcome of SubmitAnswer.
type Result struct {
	// Accepted is true when the answer matched and the session advanced.
	Accepted bool
	// Destination is the route the player is redirected to.
	Destination string
	// Level is the level the session views after the submission.
	Level levels.ID
}

// SubmitAnswer checks submitted against the answer of the level the session
// is playing (see Session.ActiveLevel). Matching folds case and is otherwise
// exact: surrounding or inner whitespace is significant.
//
// On a match the session moves on to the next level and a success payload is
// stored for the next render, except when the next state is Completed.
// CurrentLevel is raised, never lowered, so replaying an earlier level keeps
// later progress. On a mismatch the level is unchanged and an
// incorrect-answer notice is stored. A session already at Completed is sent
// back to the congratulations view.
func (c *Controller) SubmitAnswer(s Session, submitted string) (Session, Result, error) {
	level := s.ActiveLevel()
	if c.registry.IsTerminal(level) {
		return s, Result{Destination: levels.CompletedPath, Level: level}, nil
	}

	def, err := c.registry.Get(level)
	if err != nil {
		return s, Result{}, fmt.Errorf("%w: %w", ErrNoLevelData, err)
	}

	if !AnswerMatches(submitted, def.Answer) {
		path, ok := c.paths.Path(level)
		if !ok {
			return s, Result{}, fmt.Errorf("%w: level %d", ErrNoPath, level)
		}
		s.Notice.Put(Notice{Kind: NoticeIncorrect, Message: IncorrectMessage})
		return s, Result{Destination: path, Level: level}, nil
	}

	next := c.registry.Next(level)
	path, ok := c.paths.Path(next)
	if !ok {
		return s, Result{}, fmt.Errorf("%w: level %d", ErrNoPath, next)
	}

	if c.registry.IsTerminal(next) {
		s.PendingSuccess.Clear()
	} else {
		s.PendingSuccess.Put(SuccessInfo{
			LevelCompleted: level,
			Title:          def.Title,
			Message:        def.SuccessMessage,
			NextLevel:      next,
		})
	}
	s.Viewing = next
	if s.CurrentLevel < next {
		s.CurrentLevel = next
	}

	return s, Result{Accepted: true, Destination: path, Level: next}, nil
}

// AnswerMatches reports whether submitted equals answer under Unicode case
// folding. Empty submissions never match.
func AnswerMatches(submitted, answer string) bool {
	if submitted == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(submitted) == fold.String(answer)
}
