package wizard

import (
	"errors"
	"testing"

	"server/internal/domain"
	"server/internal/preprocess"
)

func photo() *preprocess.Result {
	return &preprocess.Result{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg"}
}

func sessionAt(t *testing.T, stage Stage, remaining int) *Session {
	t.Helper()
	s := NewSession(remaining)
	if stage == StageUpload {
		return s
	}
	mustApply(t, s, PhotoAccepted{Photo: photo()})
	if stage == StageStyle {
		return s
	}
	mustApply(t, s, StyleChosen{Style: domain.StyleProfessional})
	mustApply(t, s, Submit{})
	if stage == StageGenerating {
		return s
	}
	mustApply(t, s, Succeeded{AttemptID: "a1", GeneratedRef: "ref1"})
	return s
}

func mustApply(t *testing.T, s *Session, ev Event) {
	t.Helper()
	if err := s.Apply(ev); err != nil {
		t.Fatalf("apply %T: %v", ev, err)
	}
}

func TestHappyPath(t *testing.T) {
	s := NewSession(3)

	mustApply(t, s, PhotoAccepted{Photo: photo()})
	if s.Stage != StageStyle {
		t.Fatalf("stage = %s", s.Stage)
	}
	mustApply(t, s, StyleChosen{Style: domain.StyleCreative})
	if !s.CanSubmit() {
		t.Fatal("expected submit to be enabled")
	}
	mustApply(t, s, Submit{})
	if s.Stage != StageGenerating || s.Remaining != 2 {
		t.Fatalf("stage = %s, remaining = %d", s.Stage, s.Remaining)
	}
	mustApply(t, s, Succeeded{AttemptID: "a1", GeneratedRef: "ref1"})
	if s.Stage != StagePreview || s.GeneratedRef != "ref1" {
		t.Fatalf("stage = %s, ref = %q", s.Stage, s.GeneratedRef)
	}
}

func TestSubmitGuards(t *testing.T) {
	s := NewSession(1)
	mustApply(t, s, PhotoAccepted{Photo: photo()})

	if err := s.Apply(Submit{}); !errors.Is(err, ErrNoStyle) {
		t.Fatalf("submit without style: %v", err)
	}

	mustApply(t, s, StyleChosen{Style: domain.StyleAcademic})
	mustApply(t, s, Submit{})

	// Only one request in flight: a second submit is rejected outright.
	if err := s.Apply(Submit{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("submit while generating: %v", err)
	}
}

func TestSubmitRequiresQuota(t *testing.T) {
	s := NewSession(0)
	mustApply(t, s, PhotoAccepted{Photo: photo()})
	mustApply(t, s, StyleChosen{Style: domain.StyleProfessional})

	if s.CanSubmit() {
		t.Fatal("submit should be disabled without quota")
	}
	if err := s.Apply(Submit{}); !errors.Is(err, ErrNoQuota) {
		t.Fatalf("err = %v, want ErrNoQuota", err)
	}
}

func TestFailureReturnsToStyleAndRefunds(t *testing.T) {
	s := sessionAt(t, StageGenerating, 2)

	mustApply(t, s, Failed{Reason: "blocked by content policy"})
	if s.Stage != StageStyle {
		t.Fatalf("stage = %s", s.Stage)
	}
	if s.Remaining != 2 {
		t.Fatalf("remaining = %d, want refund to 2", s.Remaining)
	}
	if s.Photo == nil {
		t.Fatal("photo must survive a failed generation")
	}
	if s.LastError == "" {
		t.Fatal("error must be surfaced inline")
	}
}

func TestRegenerateKeepsPhotoClearsProjection(t *testing.T) {
	s := sessionAt(t, StagePreview, 5)

	mustApply(t, s, Regenerate{})
	if s.Stage != StageStyle {
		t.Fatalf("stage = %s", s.Stage)
	}
	if s.GeneratedRef != "" || s.AttemptID != "" {
		t.Fatal("generated projection must be cleared")
	}
	if s.Photo == nil || s.Style == "" {
		t.Fatal("photo and style selection must survive regenerate")
	}
}

func TestClearPhotoFromAnyStage(t *testing.T) {
	for _, stage := range []Stage{StageUpload, StageStyle, StageGenerating, StagePreview} {
		s := sessionAt(t, stage, 4)
		mustApply(t, s, ClearPhoto{})
		if s.Stage != StageUpload || s.Photo != nil || s.Style != "" || s.GeneratedRef != "" {
			t.Fatalf("stage %s: clear photo left residue: %+v", stage, s)
		}
	}
}

func TestNoStageSkipping(t *testing.T) {
	s := NewSession(1)

	if err := s.Apply(StyleChosen{Style: domain.StyleProfessional}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("style on upload stage: %v", err)
	}
	if err := s.Apply(Succeeded{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("succeeded on upload stage: %v", err)
	}
	if err := s.Apply(Regenerate{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("regenerate on upload stage: %v", err)
	}
}
