package analysis

import (
	"strings"
	"testing"
)

func TestInitialPromptRolePerspective(t *testing.T) {
	transcript := "spk_0: hello.\n"

	junior := InitialPrompt(transcript, Options{Role: "report", AnalysisType: TypeComprehensive, Scenario: ScenarioMeeting})
	if !strings.Contains(junior, "more junior person") {
		t.Error("report role should produce the junior perspective")
	}

	senior := InitialPrompt(transcript, Options{Role: "manager", AnalysisType: TypeComprehensive, Scenario: ScenarioMeeting})
	if !strings.Contains(senior, "more senior person") {
		t.Error("manager role should produce the senior perspective")
	}

	neutral := InitialPrompt(transcript, Options{Role: "participant", AnalysisType: TypeComprehensive, Scenario: ScenarioMeeting})
	if strings.Contains(neutral, "junior") || strings.Contains(neutral, "senior") {
		t.Error("participant role should stay neutral")
	}
}

func TestInitialPromptIncludesTranscript(t *testing.T) {
	transcript := "spk_0: we agreed on the launch date.\n"
	prompt := InitialPrompt(transcript, Options{AnalysisType: TypeQuick, Scenario: ScenarioMeeting})
	if !strings.Contains(prompt, transcript) {
		t.Fatal("prompt must embed the rendered transcript")
	}
	if !strings.Contains(prompt, "3 key takeaways") {
		t.Fatal("quick analysis should ask for takeaways")
	}
}

func TestInitialPromptScenarioNoun(t *testing.T) {
	prompt := InitialPrompt("spk_0: hi.\n", Options{AnalysisType: TypeComprehensive, Scenario: ScenarioInterview})
	if !strings.Contains(prompt, "interview") {
		t.Fatal("interview scenario should name the conversation an interview")
	}
}

func TestSystemPromptModes(t *testing.T) {
	analysisPrompt := SystemPrompt(ModeAnalysis)
	chat := SystemPrompt(ModeChat)
	if analysisPrompt == chat {
		t.Fatal("modes should produce different system prompts")
	}
	for _, p := range []string{analysisPrompt, chat} {
		if !strings.Contains(p, "Meeting Coach") {
			t.Fatal("both modes share the coach identity")
		}
		if !strings.Contains(p, "spk_0") {
			t.Fatal("both modes require neutral speaker references")
		}
	}
}

func TestValidators(t *testing.T) {
	if !ValidType(TypeManager1on1) || ValidType("deep_dive") {
		t.Error("ValidType misclassifies")
	}
	if !ValidScenario(ScenarioInterview) || ValidScenario("standup") {
		t.Error("ValidScenario misclassifies")
	}
}
