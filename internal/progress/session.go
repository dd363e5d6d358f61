package progress

import "github.com/hurricanerix/infiltrate/internal/levels"

// NoticeKind classifies a one-shot notice shown on the next render.
type NoticeKind string

const (
	// NoticeIncorrect tells the player the submitted answer was wrong.
	NoticeIncorrect NoticeKind = "incorrect"
)

// Notice is a one-shot message displayed on the next render only.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// SuccessInfo describes a just-completed level.
type SuccessInfo struct {
	LevelCompleted levels.ID
	Title          string
	Message        string
	NextLevel      levels.ID
}

// Session is the per-player progression state.
//
// CurrentLevel is the highest level the player may access. It only grows,
// except through Restart. Viewing is the level whose page the player last
// entered; questions and answers are checked against it.
type Session struct {
	CurrentLevel     levels.ID
	Viewing          levels.ID
	PendingSuccess   Once[SuccessInfo]
	Notice           Once[Notice]
	InstructionsSeen bool
}

// NewSession returns the state of a player who has not played yet.
func NewSession() Session {
	return Session{CurrentLevel: 1, Viewing: 1}
}

// ActiveLevel returns the level the player is playing: the one being viewed,
// or CurrentLevel when no level has been entered yet.
func (s Session) ActiveLevel() levels.ID {
	if s.Viewing == 0 {
		return s.CurrentLevel
	}
	return s.Viewing
}
