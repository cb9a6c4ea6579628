package service

import (
	"strings"
	"sync"
)

// Role of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one entry of a rolling dialogue history. Slot is
// non-empty for injected context (search digests, knowledge results) that is
// replaced in place on every turn instead of accumulating.
type ConversationMessage struct {
	Role    Role
	Content string
	Slot    string
}

// ConversationManager keeps per-chat dialogue histories. It is safe for
// concurrent use across chat ids; a single chat is serialized by the caller.
type ConversationManager struct {
	mu        sync.Mutex
	prompt    string
	histories map[int64][]ConversationMessage
}

// NewConversationManager creates a manager seeding every conversation with
// the given system prompt.
func NewConversationManager(prompt string) *ConversationManager {
	return &ConversationManager{
		prompt:    prompt,
		histories: make(map[int64][]ConversationMessage),
	}
}

// Initialize creates the history for a chat if it does not exist yet.
func (m *ConversationManager) Initialize(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.histories[chatID]; !ok {
		m.histories[chatID] = []ConversationMessage{{Role: RoleSystem, Content: m.prompt}}
	}
}

// Reset drops the history for a chat.
func (m *ConversationManager) Reset(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, chatID)
}

// AddUser appends a user message.
func (m *ConversationManager) AddUser(chatID int64, content string) {
	m.add(chatID, RoleUser, content)
}

// AddAssistant appends an assistant message.
func (m *ConversationManager) AddAssistant(chatID int64, content string) {
	m.add(chatID, RoleAssistant, content)
}

func (m *ConversationManager) add(chatID int64, role Role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[chatID] = append(m.histories[chatID], ConversationMessage{Role: role, Content: content})
}

// UpsertSlot replaces the labeled slot message in place, or appends it as a
// system message when the slot is not present yet.
func (m *ConversationManager) UpsertSlot(chatID int64, slot, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.histories[chatID]
	for i := range history {
		if history[i].Slot == slot {
			history[i].Content = content
			return
		}
	}
	m.histories[chatID] = append(history, ConversationMessage{Role: RoleSystem, Content: content, Slot: slot})
}

// History returns a copy of the chat history.
func (m *ConversationManager) History(chatID int64) []ConversationMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.histories[chatID]
	out := make([]ConversationMessage, len(history))
	copy(out, history)
	return out
}

// Trim drops the oldest non-prompt messages until the history fits the token
// budget. The budget is approximated by word count, which is close enough for
// keeping requests under the model limit. The leading system prompt always
// survives.
func (m *ConversationManager) Trim(chatID int64, maxTokens int) {
	if maxTokens <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.histories[chatID]
	total := 0
	for _, msg := range history {
		total += len(strings.Fields(msg.Content))
	}
	for total > maxTokens && len(history) > 1 {
		removed := history[1]
		history = append(history[:1], history[2:]...)
		total -= len(strings.Fields(removed.Content))
	}
	m.histories[chatID] = history
}
