package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hurricanerix/infiltrate/internal/levels"
	"github.com/hurricanerix/infiltrate/internal/progress"
)

// Boundary error bodies. These indicate a broken level table, not a game state.
const (
	msgNoLevelData = "Error: Level data not found."
	msgNoPath      = "Error: Next level path not found."
	msgRateLimited = "Too many questions. Please wait a moment."
	msgTooLong     = "That question is too long."
	msgBadForm     = "Bad request."
)

// levelView is the data rendered by level.html.
type levelView struct {
	Level            levels.Definition
	Number           int
	Total            int
	Success          *progress.SuccessInfo
	Notice           *progress.Notice
	ShowInstructions bool
}

// completedView is the data rendered by congratulations.html.
type completedView struct {
	Total int
}

// handleStart serves level 1 and resets the session to it.
// A restart (?restart=1, or arriving from the congratulations page) also
// discards any pending success payload and suppresses modals.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	restart := r.URL.Query().Get("restart") != "" ||
		strings.HasSuffix(r.Referer(), levels.CompletedPath)

	var entry progress.Entry
	var err error
	s.sessions.Update(sessionID, func(sess *progress.Session) {
		*sess = s.controller.Restart(*sess)
		*sess, entry, err = s.controller.Enter(*sess, s.registry.First(), progress.EnterOptions{Restart: restart})
	})
	if err != nil {
		s.logger.Error("Enter level 1 for session %s: %v", sessionID, err)
		writeText(w, http.StatusBadRequest, msgNoLevelData)
		return
	}

	s.renderLevel(w, entry)
}

// handleLevel serves levels 2..N at their unguessable path.
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	id, ok := s.paths.LevelForToken(chi.URLParam(r, "token"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var decision progress.Decision
	var entry progress.Entry
	var err error
	s.sessions.Update(sessionID, func(sess *progress.Session) {
		decision = s.controller.ResolveAccess(*sess, id)
		if !decision.Allow {
			return
		}
		*sess, entry, err = s.controller.Enter(*sess, id, progress.EnterOptions{})
	})

	if !decision.Allow {
		s.logger.Debug("Session %s denied level %d, redirecting", sessionID, id)
		http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
		return
	}
	if err != nil {
		s.logger.Error("Enter level %d for session %s: %v", id, sessionID, err)
		writeText(w, http.StatusBadRequest, msgNoLevelData)
		return
	}

	s.renderLevel(w, entry)
}

// handleAsk forwards ai_question to the guard of the level the session is playing
// and returns the reply as plain text.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if !s.rateLimiter.allowAsk(sessionID) {
		s.logger.Warn("Rate limit exceeded for session %s (ask)", sessionID)
		writeText(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.logger.Warn("Failed to parse ask form: %v", err)
		writeText(w, http.StatusBadRequest, msgBadForm)
		return
	}

	question := r.PostFormValue("ai_question")
	if len(question) > MaxQuestionLength {
		s.logger.Warn("Question too long for session %s: %d bytes", sessionID, len(question))
		writeText(w, http.StatusRequestEntityTooLarge, msgTooLong)
		return
	}

	// The no-op update creates the session if needed and marks it active.
	sess := s.sessions.Update(sessionID, func(*progress.Session) {})

	reply := s.assistant.Ask(r.Context(), sess.ActiveLevel(), question)
	writeText(w, http.StatusOK, reply)
}

// handleSubmit checks user_answer against the level the session is playing and
// redirects to the next destination.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn("Failed to parse answer form: %v", err)
		writeText(w, http.StatusBadRequest, msgBadForm)
		return
	}
	answer := r.PostFormValue("user_answer")

	var result progress.Result
	var err error
	s.sessions.Update(sessionID, func(sess *progress.Session) {
		*sess, result, err = s.controller.SubmitAnswer(*sess, answer)
	})

	switch {
	case errors.Is(err, progress.ErrNoLevelData):
		s.logger.Error("Submit for session %s: %v", sessionID, err)
		writeText(w, http.StatusBadRequest, msgNoLevelData)
		return
	case err != nil:
		s.logger.Error("Submit for session %s: %v", sessionID, err)
		writeText(w, http.StatusInternalServerError, msgNoPath)
		return
	}

	if result.Accepted {
		s.logger.Info("Session %s advanced to level %d", sessionID, result.Level)
	}
	http.Redirect(w, r, result.Destination, http.StatusFound)
}

// handleCongratulations serves the terminal view.
func (s *Server) handleCongratulations(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	s.sessions.Update(sessionID, func(sess *progress.Session) {
		*sess = s.controller.Complete(*sess)
	})

	s.render(w, "congratulations.html", completedView{Total: s.registry.Count()})
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) renderLevel(w http.ResponseWriter, entry progress.Entry) {
	s.render(w, "level.html", levelView{
		Level:            entry.Level,
		Number:           int(entry.Level.ID),
		Total:            s.registry.Count(),
		Success:          entry.Success,
		Notice:           entry.Notice,
		ShowInstructions: entry.ShowInstructions,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to execute template %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// writeText writes body as a plain-text response.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
