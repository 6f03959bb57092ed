// Package insight turns an error log into actionable study advice. The
// rule-based diagnosis drills down to the single subject/topic pair with
// the most errors and maps its dominant error type to a concrete tip; the
// LLM client produces a longer narrative analysis from the same counts.
package insight

import (
	"context"

	"github.com/luizancard/error-autopsy/internal/aggregate"
	"github.com/luizancard/error-autopsy/internal/i18n"
	"github.com/luizancard/error-autopsy/internal/model"
)

// Diagnosis is the outcome of the rule-based drill-down.
type Diagnosis struct {
	Subject      string          `json:"subject"`
	Topic        string          `json:"topic"`
	ErrorType    model.ErrorType `json:"error_type"`
	Count        int             `json:"count"`
	AvoidablePct float64         `json:"avoidable_pct"`
	Message      string          `json:"message"`
	Tip          string          `json:"tip"`
}

// tipIDs maps each error type to its advice message.
var tipIDs = map[model.ErrorType]string{
	model.ErrContentGap:      "TipContentGap",
	model.ErrAttentionDetail: "TipAttentionDetail",
	model.ErrTimeManagement:  "TipTimeManagement",
	model.ErrFatigue:         "TipFatigue",
	model.ErrInterpretation:  "TipInterpretation",
}

// Diagnose finds the subject/topic pair with the most errors, picks that
// pair's dominant error type and attaches the matching advice. Records
// are assumed to be pre-filtered to the period of interest. Returns a
// localized no-data message when the log is empty.
func Diagnose(ctx context.Context, errors []model.ErrorRecord) Diagnosis {
	if len(errors) == 0 {
		return Diagnosis{Message: i18n.T(ctx, "InsightNoData")}
	}

	type pair struct{ subject, topic string }
	counts := make(map[pair]map[model.ErrorType]int)
	for _, r := range errors {
		p := pair{r.Subject, r.Topic}
		if counts[p] == nil {
			counts[p] = make(map[model.ErrorType]int)
		}
		counts[p][r.ErrorType]++
	}

	var (
		best      pair
		bestTotal int
		bestType  model.ErrorType
	)
	for p, byType := range counts {
		total := 0
		var dom model.ErrorType
		domCount := -1
		for et, n := range byType {
			total += n
			// Ties break on the canonical type name for determinism.
			if n > domCount || (n == domCount && string(et) < string(dom)) {
				dom, domCount = et, n
			}
		}
		if total > bestTotal ||
			(total == bestTotal && (p.subject < best.subject ||
				(p.subject == best.subject && p.topic < best.topic))) {
			best, bestTotal, bestType = p, total, dom
		}
	}

	avoidable := float64(aggregate.AvoidableCount(errors)) / float64(len(errors)) * 100

	d := Diagnosis{
		Subject:      best.subject,
		Topic:        best.topic,
		ErrorType:    bestType,
		Count:        bestTotal,
		AvoidablePct: avoidable,
	}
	d.Message = i18n.Td(ctx, "InsightBottleneck", map[string]any{
		"Subject":   best.subject,
		"Topic":     best.topic,
		"ErrorType": string(bestType),
		"Count":     bestTotal,
	})
	if id, ok := tipIDs[bestType]; ok {
		d.Tip = i18n.T(ctx, id)
	} else {
		d.Tip = i18n.T(ctx, "TipUncategorized")
	}
	return d
}

// Summary is the aggregate view handed to the LLM for pattern analysis.
type Summary struct {
	TotalErrors int                     `json:"total_errors"`
	ByType      map[model.ErrorType]int `json:"distribution_by_type"`
	BySubject   map[string]int          `json:"distribution_by_subject"`
	ByTopic     map[string]int          `json:"distribution_by_topic"`
	ByMonth     map[string]int          `json:"timeline_by_month"`
}

// Summarize builds the distribution summary for a set of error records.
func Summarize(errors []model.ErrorRecord) Summary {
	return Summary{
		TotalErrors: len(errors),
		ByType:      aggregate.CountByErrorType(errors),
		BySubject:   aggregate.CountBySubject(errors),
		ByTopic:     aggregate.CountByTopic(errors),
		ByMonth:     aggregate.CountByMonth(errors),
	}
}
