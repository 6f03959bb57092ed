// Package xlsx moves record collections in and out of multi-sheet
// spreadsheets. Export writes a fixed column schema; import reconciles
// rows back against that schema, accepting headers in either of two
// label sets and reporting a per-row accept/reject outcome.
package xlsx

import "strings"

// Sheet names of the workbook format.
const (
	SheetErrors   = "Errors"
	SheetSessions = "Sessions"
	SheetExams    = "Exams"
	SheetMetadata = "Metadata"
)

// formatVersion is written to the Metadata sheet. Version 2.0 is the
// original multi-sheet layout this format stays compatible with.
const formatVersion = "2.0"

// Legacy sheet names from older exports, accepted on import.
var sheetSynonyms = map[string]string{
	"study sessions": SheetSessions,
	"sessões":        SheetSessions,
	"sessoes":        SheetSessions,
	"mock exams":     SheetExams,
	"simulados":      SheetExams,
	"erros":          SheetErrors,
}

// field describes one column: its canonical name, the English and
// Portuguese header labels, and extra header spellings accepted on
// import. A single table drives export headers and import resolution so
// the two can never drift.
type field struct {
	name     string
	en       string
	pt       string
	synonyms []string
}

var sessionFields = []field{
	{name: "id", en: "ID", pt: "ID"},
	{name: "date", en: "Date", pt: "Data"},
	{name: "exam_type", en: "Exam Type", pt: "Vestibular"},
	{name: "subject", en: "Subject", pt: "Matéria", synonyms: []string{"materia", "disciplina"}},
	{name: "total_questions", en: "Total Questions", pt: "Total de Questões", synonyms: []string{"total de questoes", "questões", "questoes"}},
	{name: "correct_count", en: "Correct Answers", pt: "Acertos"},
	{name: "duration_minutes", en: "Duration (min)", pt: "Duração (min)", synonyms: []string{"duracao (min)", "duration", "duração"}},
}

var examFields = []field{
	{name: "id", en: "ID", pt: "ID"},
	{name: "exam_name", en: "Exam Name", pt: "Nome do Simulado", synonyms: []string{"name", "nome"}},
	{name: "exam_type", en: "Exam Type", pt: "Vestibular"},
	{name: "date", en: "Date", pt: "Data"},
	{name: "total_score", en: "Total Score", pt: "Nota Total", synonyms: []string{"nota"}},
	{name: "max_possible_score", en: "Max Score", pt: "Nota Máxima", synonyms: []string{"nota maxima", "max possible score"}},
	{name: "breakdown", en: "Breakdown", pt: "Notas por Seção", synonyms: []string{"notas por secao", "sections", "seções"}},
	{name: "notes", en: "Notes", pt: "Observações", synonyms: []string{"observacoes", "obs"}},
}

var errorFields = []field{
	{name: "id", en: "ID", pt: "ID"},
	{name: "date", en: "Date", pt: "Data"},
	{name: "subject", en: "Subject", pt: "Matéria", synonyms: []string{"materia", "disciplina"}},
	{name: "topic", en: "Topic", pt: "Tópico", synonyms: []string{"topico", "tema", "assunto"}},
	{name: "description", en: "Description", pt: "Descrição", synonyms: []string{"descricao", "notes", "obs"}},
	{name: "error_type", en: "Error Type", pt: "Tipo de Erro", synonyms: []string{"type", "tipo", "tipo de erro", "category", "categoria"}},
	{name: "difficulty", en: "Difficulty", pt: "Dificuldade", synonyms: []string{"nivel", "nível", "level"}},
	{name: "exam_type", en: "Exam Type", pt: "Vestibular"},
	{name: "session_id", en: "Session ID", pt: "ID da Sessão", synonyms: []string{"id da sessao", "session"}},
	{name: "mock_exam", en: "Mock Exam", pt: "Simulado", synonyms: []string{"mock exam id", "exam", "exam id"}},
}

// LabelSet selects the header language written on export.
type LabelSet string

const (
	LabelsEnglish    LabelSet = "en"
	LabelsPortuguese LabelSet = "pt"
)

// labels returns the header row for a schema in the chosen label set.
func labels(fields []field, set LabelSet) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if set == LabelsPortuguese {
			out[i] = f.pt
		} else {
			out[i] = f.en
		}
	}
	return out
}

// resolveHeaders maps a sheet's header row onto canonical field names.
// Both label sets, the canonical names themselves and all synonyms match
// case-insensitively. Unknown headers are ignored.
func resolveHeaders(fields []field, headerRow []string) map[string]int {
	accepted := make(map[string]string)
	for _, f := range fields {
		accepted[strings.ToLower(f.name)] = f.name
		accepted[strings.ToLower(f.en)] = f.name
		accepted[strings.ToLower(f.pt)] = f.name
		for _, syn := range f.synonyms {
			accepted[strings.ToLower(syn)] = f.name
		}
	}

	cols := make(map[string]int)
	for i, h := range headerRow {
		key := strings.ToLower(strings.TrimSpace(h))
		if name, ok := accepted[key]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	return cols
}

// canonicalSheet resolves a workbook sheet name to one of the three data
// sheets, or "" when the sheet is not part of the format.
func canonicalSheet(name string) string {
	switch name {
	case SheetErrors, SheetSessions, SheetExams:
		return name
	}
	if canon, ok := sheetSynonyms[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canon
	}
	return ""
}
