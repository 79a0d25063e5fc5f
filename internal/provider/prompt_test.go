package provider

import (
	"strings"
	"testing"
)

// The refusal sentence is a contract: the platform-facing behavior for
// off-topic questions depends on the model emitting it exactly, which in turn
// depends on the instruction embedding it verbatim.
func TestSystemInstruction_ContainsRefusalVerbatim(t *testing.T) {
	if !strings.Contains(SystemInstruction, RefusalMessage) {
		t.Fatal("system instruction must embed the refusal sentence verbatim")
	}
}

func TestRefusalMessage_Bilingual(t *testing.T) {
	if !strings.Contains(RefusalMessage, "मैं केवल खेती") {
		t.Error("refusal must keep the Hindi phrasing")
	}
	if !strings.Contains(RefusalMessage, "I can only answer agriculture and farming related questions.") {
		t.Error("refusal must keep the English phrasing")
	}
}

func TestSystemInstruction_CoreRules(t *testing.T) {
	for _, want := range []string{
		"ONLY answer questions related to",
		"reply EXACTLY",
		"same language and script the user used",
		"Always give actionable advice.",
	} {
		if !strings.Contains(SystemInstruction, want) {
			t.Errorf("system instruction missing rule fragment %q", want)
		}
	}
}
