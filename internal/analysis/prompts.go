package analysis

import (
	"fmt"
	"strings"
)

// Analysis type constants
const (
	TypeComprehensive = "comprehensive"
	TypeQuick         = "quick"
	TypeManager1on1   = "manager_1on1"
)

// Scenario constants
const (
	ScenarioMeeting   = "meeting"
	ScenarioInterview = "interview"
)

// Interaction modes
const (
	ModeAnalysis = "analysis"
	ModeChat     = "chat"
)

// Options selects how a transcript is analyzed.
type Options struct {
	Role         string // participant, report, manager; interview: candidate, interviewer
	AnalysisType string
	Scenario     string
	Mode         string
}

// ValidType reports whether t is a known analysis type.
func ValidType(t string) bool {
	return t == TypeComprehensive || t == TypeQuick || t == TypeManager1on1
}

// ValidScenario reports whether s is a known scenario.
func ValidScenario(s string) bool {
	return s == ScenarioMeeting || s == ScenarioInterview
}

const baseSystemPrompt = `You are a Meeting Coach - an expert at analyzing meetings and providing constructive feedback.

## Your Role

Help users improve their communication and get more value from meetings by:
- Analyzing meeting transcripts objectively
- Focusing on what the user can control and improve
- Providing specific, actionable feedback
- Being conversational and supportive

## Analysis Principles

1. Analyze from the user's perspective and focus on behaviors they can change.
2. Refer to speakers neutrally (spk_0, spk_1); never assume roles or relationships.
3. Quote specific phrases from the transcript; prefer measurable observations.
4. Balance criticism with acknowledgment of strengths; frame feedback as opportunities.
5. Be comprehensive but tight - every sentence should add value.`

// SystemPrompt returns the coach system prompt for the given mode.
func SystemPrompt(mode string) string {
	switch mode {
	case ModeChat:
		return baseSystemPrompt + `

You are in an interactive session. After the initial analysis:
- Answer follow-up questions naturally
- Provide specific, actionable advice
- Offer scripts and examples when helpful
- Be concise but thorough`
	default:
		return baseSystemPrompt + `

Produce the analysis as well-structured markdown.`
	}
}

// InitialPrompt builds the first user message: the rendered transcript plus
// the analysis request shaped by the caller's role and chosen analysis type.
func InitialPrompt(transcript string, opts Options) string {
	var b strings.Builder

	perspective := ""
	switch opts.Role {
	case "report", "candidate":
		perspective = "I am the more junior person in this conversation. "
	case "manager", "interviewer":
		perspective = "I am the more senior person in this conversation. "
	}

	noun := "meeting"
	if opts.Scenario == ScenarioInterview {
		noun = "interview"
	}

	fmt.Fprintf(&b, "Here is the diarized transcript of my %s:\n\n%s\n", noun, transcript)
	fmt.Fprintf(&b, "\n%sAnalyze this %s with focus on actionable feedback to help ME improve my communication.\n", perspective, noun)
	fmt.Fprintf(&b, "Analysis type: %s\n", opts.AnalysisType)

	switch opts.AnalysisType {
	case TypeManager1on1:
		b.WriteString(`
Focus on:
- My communication effectiveness (did I speak enough/too much?)
- Quality of my questions (strategic vs tactical)
- My active listening behaviors
- Career development discussion
- Clarity of my action items
- What I can do better next time

Keep the analysis comprehensive but tight - aim for depth without redundancy.
`)
	case TypeQuick:
		b.WriteString(`
Provide:
- 3 key takeaways
- Main action items for me
- One specific suggestion for improvement
`)
	default:
		b.WriteString(`
Provide comprehensive analysis covering:
1. Meeting summary
2. My speaking patterns
3. My communication quality
4. My action items
5. Constructive feedback for me
6. Specific suggestions for next meeting

Keep it comprehensive but concise - quality over quantity.
`)
	}

	return b.String()
}
