package benchmark

import (
	"testing"

	"github.com/luizancard/error-autopsy/internal/model"
)

func TestPace(t *testing.T) {
	tests := []struct {
		et   model.ExamType
		want float64
	}{
		{model.ExamFUVEST, 3.0},
		{model.ExamENEM, 3.0},
		{model.ExamUNICAMP, 3.5},
		{model.ExamITA, 4.0},
		{model.ExamIME, 4.0},
		{model.ExamSAT, 1.25},
		{model.ExamGeneral, 2.5},
		{model.ExamType("Hogwarts"), 2.5}, // unknown falls back to General
	}
	for _, tt := range tests {
		if got := Pace(tt.et); got != tt.want {
			t.Errorf("Pace(%s) = %v, want %v", tt.et, got, tt.want)
		}
	}
}

func TestSubjectsAlwaysPopulated(t *testing.T) {
	for _, et := range model.ExamTypes {
		if len(Subjects(et)) == 0 {
			t.Errorf("Subjects(%s) is empty", et)
		}
	}
	if got := Subjects(model.ExamGeneral); got[0] != "Matemática" {
		t.Errorf("General subjects start with %q", got[0])
	}
}

func TestSections(t *testing.T) {
	if got := Sections(model.ExamENEM); len(got) != 5 {
		t.Errorf("ENEM sections = %v, want 5 entries", got)
	}
	if got := Sections(model.ExamSAT); len(got) != 2 {
		t.Errorf("SAT sections = %v, want 2 entries", got)
	}
	if got := Sections(model.ExamFUVEST); got != nil {
		t.Errorf("FUVEST sections = %v, want nil (single block)", got)
	}
}
