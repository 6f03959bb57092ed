// Package benchmark holds the static per-exam configuration: target pace,
// subject vocabulary and mock-exam section definitions. Nothing here is
// mutable at runtime.
package benchmark

import "github.com/luizancard/error-autopsy/internal/model"

// paceBenchmarks maps each exam type to its target minutes per question.
// This is the sole denominator for pace-zone classification.
var paceBenchmarks = map[model.ExamType]float64{
	model.ExamFUVEST:  3.0,
	model.ExamENEM:    3.0,
	model.ExamUNICAMP: 3.5,
	model.ExamITA:     4.0,
	model.ExamIME:     4.0,
	model.ExamSAT:     1.25,
	model.ExamGeneral: 2.5,
}

// Pace returns the target minutes-per-question for an exam type.
// Unknown types fall back to the General benchmark.
func Pace(et model.ExamType) float64 {
	if b, ok := paceBenchmarks[et]; ok {
		return b
	}
	return paceBenchmarks[model.ExamGeneral]
}

var generalSubjects = []string{
	"Matemática", "Física", "Química", "Biologia", "História",
	"Geografia", "Português", "Literatura", "Inglês", "Redação",
}

// subjectVocab is the per-exam subject list offered as input suggestions.
// It is advisory: records with subjects outside the list are never rejected.
var subjectVocab = map[model.ExamType][]string{
	model.ExamFUVEST: {
		"Matemática", "Física", "Química", "Biologia", "História",
		"Geografia", "Português", "Literatura", "Inglês", "Redação",
	},
	model.ExamENEM: {
		"Matemática", "Ciências da Natureza", "Ciências Humanas",
		"Linguagens", "Redação",
	},
	model.ExamUNICAMP: {
		"Matemática", "Física", "Química", "Biologia", "História",
		"Geografia", "Português", "Literatura", "Inglês", "Redação",
		"Filosofia", "Sociologia",
	},
	model.ExamITA: {"Matemática", "Física", "Química", "Português", "Inglês", "Redação"},
	model.ExamIME: {"Matemática", "Física", "Química", "Português", "Inglês"},
	model.ExamSAT: {"Reading & Writing", "Math"},
}

// Subjects returns the suggested subject vocabulary for an exam type.
func Subjects(et model.ExamType) []string {
	if v, ok := subjectVocab[et]; ok {
		return v
	}
	return generalSubjects
}

// sectionDefs lists the named score sections for structured mock exams.
// Exams without an entry score as a single block.
var sectionDefs = map[model.ExamType][]string{
	model.ExamENEM: {
		"Linguagens", "Ciências Humanas", "Ciências da Natureza",
		"Matemática", "Redação",
	},
	model.ExamSAT: {"Reading & Writing", "Math"},
}

// Sections returns the breakdown section names for an exam type, or nil
// for single-block exams.
func Sections(et model.ExamType) []string {
	return sectionDefs[et]
}
