// Package wizard models the client-side portrait flow as an explicit state
// machine: one enum-tagged stage plus an event reducer. The machine is
// single-threaded by construction; only one generation request can be in
// flight because Submit is rejected while the session is generating.
package wizard

import (
	"errors"

	"server/internal/domain"
	"server/internal/preprocess"
)

// Stage enumerates the wizard stages.
type Stage string

const (
	StageUpload     Stage = "upload"
	StageStyle      Stage = "style"
	StageGenerating Stage = "generating"
	StagePreview    Stage = "preview"
)

var (
	ErrInvalidTransition = errors.New("wizard: invalid transition")
	ErrNoStyle           = errors.New("wizard: no style selected")
	ErrNoQuota           = errors.New("wizard: no generations remaining")
)

// Event is a wizard input. Each concrete event drives exactly one transition.
type Event interface{ isEvent() }

// PhotoAccepted fires once the pre-processor has validated the photo.
type PhotoAccepted struct{ Photo *preprocess.Result }

// StyleChosen records the preset selection while on the style stage.
type StyleChosen struct{ Style domain.Style }

// Submit requests generation. Valid only with a chosen style and remaining
// quota, and never while a request is already in flight.
type Submit struct{}

// Succeeded carries the orchestration result back into the machine.
type Succeeded struct {
	AttemptID    string
	GeneratedRef string
}

// Failed returns the session to the style stage, surfacing the error inline
// while keeping the uploaded photo.
type Failed struct{ Reason string }

// Regenerate loops from preview back to style, discarding only the generated
// projection. It is deliberately distinct from Submit: the source photo
// survives.
type Regenerate struct{}

// ClearPhoto discards the selected source and any selection, from any stage.
type ClearPhoto struct{}

func (PhotoAccepted) isEvent() {}
func (StyleChosen) isEvent()   {}
func (Submit) isEvent()        {}
func (Succeeded) isEvent()     {}
func (Failed) isEvent()        {}
func (Regenerate) isEvent()    {}
func (ClearPhoto) isEvent()    {}

// Session is one user's pass through the wizard.
type Session struct {
	Stage        Stage
	Photo        *preprocess.Result
	Style        domain.Style
	Remaining    int
	AttemptID    string
	GeneratedRef string
	LastError    string
}

// NewSession starts at the upload stage with the owner's remaining quota as
// reported by the server.
func NewSession(remaining int) *Session {
	return &Session{Stage: StageUpload, Remaining: remaining}
}

// CanSubmit mirrors the submit button's enabled state. The authoritative
// check still happens server-side.
func (s *Session) CanSubmit() bool {
	return s.Stage == StageStyle && s.Style != "" && s.Remaining > 0
}

// Apply advances the machine by one event. Invalid transitions leave the
// session untouched and report why.
func (s *Session) Apply(ev Event) error {
	switch e := ev.(type) {
	case PhotoAccepted:
		if s.Stage != StageUpload {
			return ErrInvalidTransition
		}
		s.Photo = e.Photo
		s.Stage = StageStyle
		return nil

	case StyleChosen:
		if s.Stage != StageStyle {
			return ErrInvalidTransition
		}
		s.Style = e.Style
		return nil

	case Submit:
		if s.Stage != StageStyle {
			return ErrInvalidTransition
		}
		if s.Style == "" {
			return ErrNoStyle
		}
		if s.Remaining <= 0 {
			return ErrNoQuota
		}
		// Optimistic decrement: the server counts the attempt as soon as the
		// record exists. A failed outcome refunds it.
		s.Remaining--
		s.LastError = ""
		s.Stage = StageGenerating
		return nil

	case Succeeded:
		if s.Stage != StageGenerating {
			return ErrInvalidTransition
		}
		s.AttemptID = e.AttemptID
		s.GeneratedRef = e.GeneratedRef
		s.Stage = StagePreview
		return nil

	case Failed:
		if s.Stage != StageGenerating {
			return ErrInvalidTransition
		}
		s.Remaining++
		s.LastError = e.Reason
		s.Stage = StageStyle
		return nil

	case Regenerate:
		if s.Stage != StagePreview {
			return ErrInvalidTransition
		}
		s.AttemptID = ""
		s.GeneratedRef = ""
		s.Stage = StageStyle
		return nil

	case ClearPhoto:
		s.Photo = nil
		s.Style = ""
		s.AttemptID = ""
		s.GeneratedRef = ""
		s.LastError = ""
		s.Stage = StageUpload
		return nil
	}
	return ErrInvalidTransition
}
