package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Analysis is the LLM's structured assessment of the error log.
type Analysis struct {
	Diagnosis string   `json:"diagnosis"`
	Mechanism string   `json:"mechanism"`
	Protocol  []string `json:"protocol"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client. baseURL may be empty to use the default
// OpenAI endpoint, which also allows local OpenAI-compatible servers.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// AnalyzePatterns sends the distribution summary to the LLM and returns
// its structured diagnosis.
func (c *Client) AnalyzePatterns(ctx context.Context, s Summary) (*Analysis, error) {
	if s.TotalErrors == 0 {
		return nil, fmt.Errorf("no error records to analyze")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildAnalysisPrompt(s)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.5,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var result Analysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	return &result, nil
}

func buildAnalysisPrompt(s Summary) string {
	var sb strings.Builder
	sb.WriteString("You are an elite performance psychologist and exam strategist for a high-achieving student. ")
	sb.WriteString("Your goal is NOT to motivate, but to optimize the return on study time.\n\n")

	sb.WriteString("STUDENT ERROR DATA:\n")
	sb.WriteString(fmt.Sprintf("- Total Errors Logged: %d\n", s.TotalErrors))
	byType := make(map[string]int, len(s.ByType))
	for et, n := range s.ByType {
		byType[string(et)] = n
	}
	sb.WriteString("- Error Type Distribution: " + formatCounts(byType) + "\n")
	sb.WriteString("- Subject Distribution: " + formatCounts(s.BySubject) + "\n")
	sb.WriteString("- Topic Distribution: " + formatCounts(s.ByTopic) + "\n")
	sb.WriteString("- Timeline (by Month): " + formatCounts(s.ByMonth) + "\n\n")

	sb.WriteString("DIAGNOSTIC FRAMEWORK:\n")
	sb.WriteString("- High 'Content Gap': diagnosis is PASSIVE STUDYING. The student is reading, not retrieving.\n")
	sb.WriteString("- High 'Attention Detail' / 'Interpretation': diagnosis is COGNITIVE OVERLOAD or RUSHING. The student knows the content but lacks exam execution protocols.\n")
	sb.WriteString("- High 'Time Management': diagnosis is POOR TRIAGE. The student gets stuck on hard questions instead of maximizing points per minute.\n")
	sb.WriteString("- High 'Fatigue': diagnosis is BIOLOGICAL. Sleep, hydration, or decision fatigue management is failing.\n\n")

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Identify the #1 pattern holding the student back, considering subjects, topics and the monthly timeline.\n")
	sb.WriteString("- Explain in 1-2 sentences why this error happens, using terms like 'Working Memory', 'Decision Fatigue', 'Encoding Failure' or 'Illusion of Competence'.\n")
	sb.WriteString("- Give 2 strict, actionable techniques. No generic advice like 'sleep more' or 'read carefully'.\n")
	sb.WriteString("- Be brutally honest, data-driven, and specific.\n\n")

	sb.WriteString("Respond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"diagnosis": "<the #1 pattern and a brief analysis>", "mechanism": "<why this error happens>", "protocol": ["<technique 1>", "<technique 2>"]}`)
	sb.WriteString("\n")

	return sb.String()
}

// formatCounts renders a count map with stable key order so prompts are
// reproducible.
func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %d", k, m[k])
	}
	if sb.Len() == 0 {
		return "none"
	}
	return sb.String()
}
