package service

import "testing"

func TestConversationInitializeSeedsPrompt(t *testing.T) {
	conv := NewConversationManager("системный промпт")
	conv.Initialize(1)
	conv.Initialize(1) // idempotent

	history := conv.History(1)
	if len(history) != 1 {
		t.Fatalf("expected only the system prompt, got %d messages", len(history))
	}
	if history[0].Role != RoleSystem || history[0].Content != "системный промпт" {
		t.Errorf("unexpected seed message: %+v", history[0])
	}
}

func TestConversationAddAndReset(t *testing.T) {
	conv := NewConversationManager("prompt")
	conv.Initialize(7)
	conv.AddUser(7, "хочу квартиру")
	conv.AddAssistant(7, "какой район?")

	if got := len(conv.History(7)); got != 3 {
		t.Fatalf("expected 3 messages, got %d", got)
	}

	conv.Reset(7)
	if got := len(conv.History(7)); got != 0 {
		t.Errorf("expected empty history after reset, got %d", got)
	}
}

func TestConversationUpsertSlot(t *testing.T) {
	conv := NewConversationManager("prompt")
	conv.Initialize(1)
	conv.AddUser(1, "вопрос")

	conv.UpsertSlot(1, "search_results", "первый дайджест")
	conv.UpsertSlot(1, "search_results", "второй дайджест")

	history := conv.History(1)
	if len(history) != 3 {
		t.Fatalf("expected slot replaced in place, got %d messages", len(history))
	}
	last := history[2]
	if last.Slot != "search_results" || last.Content != "второй дайджест" {
		t.Errorf("unexpected slot message: %+v", last)
	}
	if last.Role != RoleSystem {
		t.Errorf("slot messages must be system role, got %s", last.Role)
	}
}

func TestConversationTrimKeepsPrompt(t *testing.T) {
	conv := NewConversationManager("краткий промпт")
	conv.Initialize(1)
	for i := 0; i < 10; i++ {
		conv.AddUser(1, "одно два три четыре пять")
	}

	conv.Trim(1, 20)

	history := conv.History(1)
	if history[0].Content != "краткий промпт" {
		t.Fatal("system prompt must survive trimming")
	}
	// Budget of 20 words fits the prompt plus three five-word turns.
	if len(history) != 4 {
		t.Errorf("expected 4 surviving messages, got %d", len(history))
	}
}

func TestConversationTrimDisabled(t *testing.T) {
	conv := NewConversationManager("prompt")
	conv.Initialize(1)
	conv.AddUser(1, "сообщение")

	conv.Trim(1, 0)
	if got := len(conv.History(1)); got != 2 {
		t.Errorf("expected no trimming with zero budget, got %d messages", got)
	}
}
