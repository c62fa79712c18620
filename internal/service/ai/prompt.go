package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mindful-mate/backend/internal/model/chat"
	"github.com/zhouzirui/mindful-mate/backend/internal/model/emotion"
)

// historyTurns is how many past exchanges the therapeutic prompt sees.
const historyTurns = 3

// buildTherapeuticPrompt creates the system prompt carrying the emotional context.
func buildTherapeuticPrompt(a emotion.Analysis) string {
	state := string(a.PrimaryEmotion)
	if state == "" {
		state = "unknown"
	}

	var builder strings.Builder
	builder.WriteString("You are MindfulMate, a compassionate AI mental health companion. ")
	builder.WriteString(fmt.Sprintf("The user is experiencing %s and needs practical help.\n\n", state))
	builder.WriteString("EMOTIONAL CONTEXT:\n")
	builder.WriteString(fmt.Sprintf("- Detected emotion: %s (confidence: %.2f)\n", state, a.Confidence))
	builder.WriteString(fmt.Sprintf("- Risk level: %s\n", a.RiskLevel))
	if len(a.Indicators) > 0 {
		builder.WriteString("- Indicators: ")
		builder.WriteString(strings.Join(a.Indicators, "; "))
		builder.WriteString("\n")
	}
	builder.WriteString(`
Provide a helpful response that:
1. Acknowledges their feelings with empathy
2. Offers a specific technique or suggestion to help
3. Asks a follow-up question to keep supporting them

For anxiety or stress suggest breathing exercises, grounding or stress management.
For depression suggest behavioral activation, gentle activities or reaching out.
For requests for help give specific, actionable techniques.`)
	if a.RiskLevel >= emotion.RiskCrisis {
		builder.WriteString("\nThe user may be in crisis: prioritise their immediate safety and mention the 988 Suicide & Crisis Lifeline.")
	}
	builder.WriteString("\n\nRespond naturally and conversationally, not in JSON.")
	return builder.String()
}

// buildHistoryMessages turns the most recent exchanges into chat messages.
func buildHistoryMessages(history []chat.Interaction) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	start := 0
	if len(history) > historyTurns {
		start = len(history) - historyTurns
	}

	messages := make([]*schema.Message, 0, 2*(len(history)-start))
	for _, turn := range history[start:] {
		if turn.User != "" {
			messages = append(messages, schema.UserMessage(turn.User))
		}
		if turn.Assistant != "" {
			messages = append(messages, schema.AssistantMessage(turn.Assistant, nil))
		}
	}
	return messages
}

const analysisSystemPrompt = `You are an expert mental health AI analyzing emotional content.
Return only one JSON object with these fields:
{"primary_emotion": "anxious|depressed|stressed|angry|happy|calm|confused",
 "confidence": 0.85,
 "intensity": "low|medium|high",
 "risk_level": "low|medium|high|crisis",
 "crisis_indicators": ["concerning phrases"],
 "positive_indicators": ["positive elements"],
 "emotional_patterns": ["identified patterns"],
 "suggested_approach": "validation|cbt|behavioral_activation|crisis_intervention"}
Focus on accurate emotion identification, crisis risk (suicidal ideation, self-harm), cognitive patterns such as catastrophizing or hopelessness, and therapeutic needs.`

// buildAnalysisQuery embeds the text and optional session summary.
func buildAnalysisQuery(text string, summary *chat.Summary) string {
	contextText := "None"
	if summary != nil && !summary.Empty() {
		if data, err := json.Marshal(summary); err == nil {
			contextText = string(data)
		}
	}
	return fmt.Sprintf("Text to analyze: %q\n\nContext: %s", text, contextText)
}
