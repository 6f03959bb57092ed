package model

import "strings"

// ExamType identifies the exam a record was logged against. Each type maps
// to a pace benchmark and a subject vocabulary in the benchmark package.
type ExamType string

const (
	ExamFUVEST  ExamType = "FUVEST"
	ExamENEM    ExamType = "ENEM"
	ExamUNICAMP ExamType = "UNICAMP"
	ExamITA     ExamType = "ITA"
	ExamIME     ExamType = "IME"
	ExamSAT     ExamType = "SAT"
	ExamGeneral ExamType = "General"
)

// ExamTypes lists all exam types in display order.
var ExamTypes = []ExamType{
	ExamFUVEST, ExamENEM, ExamUNICAMP, ExamITA, ExamIME, ExamSAT, ExamGeneral,
}

// ErrorType categorizes why a mistake happened.
type ErrorType string

const (
	ErrContentGap      ErrorType = "Content Gap"
	ErrAttentionDetail ErrorType = "Attention Detail"
	ErrTimeManagement  ErrorType = "Time Management"
	ErrFatigue         ErrorType = "Fatigue"
	ErrInterpretation  ErrorType = "Interpretation"
)

// ErrorTypes lists all error types in display order.
var ErrorTypes = []ErrorType{
	ErrContentGap, ErrAttentionDetail, ErrTimeManagement, ErrFatigue, ErrInterpretation,
}

// AvoidableErrorTypes are the categories counted as avoidable mistakes on
// the dashboard: the student knew the content but lost the point anyway.
var AvoidableErrorTypes = []ErrorType{ErrAttentionDetail, ErrInterpretation}

// Difficulty is the perceived difficulty of the exercise behind a mistake.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists all difficulty levels in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Synonym tables shared by form validation, spreadsheet value resolution and
// the API. Keys are lowercased; values are canonical. Portuguese entries
// cover the labels the original spreadsheets shipped with.
var (
	errorTypeSynonyms = map[string]ErrorType{
		"careless":                    ErrAttentionDetail,
		"attention detail / careless": ErrAttentionDetail,
		"attention to detail":         ErrAttentionDetail,
		"lacuna de conteudo":          ErrContentGap,
		"lacuna de conteúdo":          ErrContentGap,
		"falta de atencao":            ErrAttentionDetail,
		"falta de atenção":            ErrAttentionDetail,
		"gestao de tempo":             ErrTimeManagement,
		"gestão de tempo":             ErrTimeManagement,
		"cansaco":                     ErrFatigue,
		"cansaço":                     ErrFatigue,
		"fadiga":                      ErrFatigue,
		"interpretacao":               ErrInterpretation,
		"interpretação":               ErrInterpretation,
	}

	difficultySynonyms = map[string]Difficulty{
		"facil":   DifficultyEasy,
		"fácil":   DifficultyEasy,
		"medio":   DifficultyMedium,
		"médio":   DifficultyMedium,
		"media":   DifficultyMedium,
		"média":   DifficultyMedium,
		"dificil": DifficultyHard,
		"difícil": DifficultyHard,
	}

	examTypeSynonyms = map[string]ExamType{
		"geral": ExamGeneral,
	}
)

// ParseExamType resolves a free-form value to a canonical exam type.
// Matching is case-insensitive and accepts known synonyms.
func ParseExamType(s string) (ExamType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, et := range ExamTypes {
		if key == strings.ToLower(string(et)) {
			return et, true
		}
	}
	if et, ok := examTypeSynonyms[key]; ok {
		return et, true
	}
	return "", false
}

// ParseErrorType resolves a free-form value to a canonical error type.
func ParseErrorType(s string) (ErrorType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, et := range ErrorTypes {
		if key == strings.ToLower(string(et)) {
			return et, true
		}
	}
	if et, ok := errorTypeSynonyms[key]; ok {
		return et, true
	}
	return "", false
}

// ParseDifficulty resolves a free-form value to a canonical difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Difficulties {
		if key == strings.ToLower(string(d)) {
			return d, true
		}
	}
	if d, ok := difficultySynonyms[key]; ok {
		return d, true
	}
	return "", false
}
