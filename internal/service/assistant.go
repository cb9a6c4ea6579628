package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"realty/internal/config"
	"realty/internal/utils"
)

// Slot labels for injected context. Each is replaced in place every turn so
// the history never accumulates stale digests.
const (
	slotSearchResults = "search_results"
	slotKnowledge     = "knowledge"
)

// classifierPrompt makes the mini model compress the dialogue into the
// key=value block the filter parser understands. The key set and the "пусто"
// convention must stay in sync with ParseFilterText.
const classifierPrompt = `Ты — классификатор диалога покупателя квартир во Владивостоке.
Проанализируй диалог и выведи параметры поиска строго в виде строк "ключ = значение", по одной на строку, без пояснений:
комнат = список чисел через запятую (студия = 0)
минимальная площадь = число в м²
максимальная площадь = число в м²
минимальная цена = число в рублях
максимальная цена = число в рублях
город = название города
район = название района; если названный район не существует, напиши "неправильный район"
жк = названия жилых комплексов через запятую
поиск жк = да/нет — нужен ли поиск ЖК по описанию
фраза для поиска жк = фраза для семантического поиска ЖК
весь список = да/нет — просил ли клиент полный список
сортировка цены = asc или desc
Если параметр не упоминался, пиши "пусто".`

// Assistant runs the per-turn dialogue pipeline: classify the conversation
// into a filter, resolve complex names, search the catalog, inject the digest
// and ask the main model for the user-facing reply.
type Assistant struct {
	llm       ChatClient
	conv      *ConversationManager
	search    *SearchService
	knowledge *KnowledgeService // nil when embeddings are disabled
	store     CatalogStore
	cfg       config.BotConfig
	llmCfg    config.OpenAIConfig

	mu             sync.Mutex
	messageCount   map[int64]int
	knownComplexes map[int64][]string
}

// NewAssistant wires the dialogue loop together.
func NewAssistant(
	llm ChatClient,
	conv *ConversationManager,
	search *SearchService,
	knowledge *KnowledgeService,
	store CatalogStore,
	botCfg config.BotConfig,
	llmCfg config.OpenAIConfig,
) *Assistant {
	return &Assistant{
		llm:            llm,
		conv:           conv,
		search:         search,
		knowledge:      knowledge,
		store:          store,
		cfg:            botCfg,
		llmCfg:         llmCfg,
		messageCount:   make(map[int64]int),
		knownComplexes: make(map[int64][]string),
	}
}

// Reset restarts a conversation and returns the welcome phrase.
func (a *Assistant) Reset(chatID int64) string {
	a.conv.Reset(chatID)
	a.mu.Lock()
	delete(a.messageCount, chatID)
	delete(a.knownComplexes, chatID)
	a.mu.Unlock()

	a.conv.Initialize(chatID)
	a.conv.AddAssistant(chatID, a.cfg.WelcomePhrase)
	return a.cfg.WelcomePhrase
}

// Respond handles one incoming message and returns the assistant reply. The
// filter pipeline is best-effort: its failures are logged and the turn still
// produces an answer.
func (a *Assistant) Respond(ctx context.Context, chatID int64, text string) (string, error) {
	a.conv.Initialize(chatID)

	if a.cfg.MaxMessages > 0 && a.count(chatID) >= a.cfg.MaxMessages {
		return a.cfg.LimitPhrase, nil
	}

	a.conv.AddUser(chatID, text)
	a.runFilterPipeline(ctx, chatID, text)
	a.conv.Trim(chatID, a.cfg.MaxHistoryTokens)

	reply, err := a.llm.ChatCompletion(ctx, a.llmCfg.ChatModel, toChatMessages(a.conv.History(chatID)))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	a.conv.AddAssistant(chatID, reply)
	a.incr(chatID)
	return reply, nil
}

// runFilterPipeline performs classification, filter parsing, complex-name
// resolution and catalog search, and injects the results into the history.
func (a *Assistant) runFilterPipeline(ctx context.Context, chatID int64, text string) {
	a.matchComplexAliases(ctx, chatID, text)

	directive, err := a.classify(ctx, chatID)
	if err != nil {
		log.Printf("chat %d: classification failed: %v", chatID, err)
		return
	}

	f, err := ParseFilterText(utils.StripCodeFences(directive), a.cachedComplexes(chatID))
	if err != nil {
		log.Printf("chat %d: rejecting filter: %v", chatID, err)
		return
	}

	if f.ComplexSearch && f.SearchPhrase != "" && a.knowledge != nil {
		names, digest, err := a.knowledge.SearchComplexes(ctx, f.SearchPhrase, f.City)
		if err != nil {
			log.Printf("chat %d: knowledge search failed: %v", chatID, err)
		} else {
			a.setCachedComplexes(chatID, names)
			f.ComplexNames = names
			if info, err := a.search.ComplexInfo(ctx, names); err == nil && info != "" {
				digest += "\n" + info
			}
			a.conv.UpsertSlot(chatID, slotKnowledge, digest)
		}
	}

	a.conv.UpsertSlot(chatID, slotSearchResults, a.search.Digest(ctx, f))
}

// matchComplexAliases pre-resolves complex names mentioned verbatim in the
// user message, refreshing the per-chat cache when the set changes.
func (a *Assistant) matchComplexAliases(ctx context.Context, chatID int64, text string) {
	known, err := a.store.ComplexNames(ctx)
	if err != nil {
		log.Printf("chat %d: listing complex names failed: %v", chatID, err)
		return
	}
	if matched := utils.MatchComplexNames(text, known); len(matched) > 0 {
		a.setCachedComplexes(chatID, matched)
	}
}

// classify asks the cheaper model for the key=value filter directive based on
// the trailing dialogue turns. Injected slot messages are excluded: the
// classifier reads the conversation, not its own previous output.
func (a *Assistant) classify(ctx context.Context, chatID int64) (string, error) {
	history := a.conv.History(chatID)

	msgs := []ChatMessage{{Role: string(RoleSystem), Content: classifierPrompt}}
	turns := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Slot != "" || m.Role == RoleSystem {
			continue
		}
		turns = append(turns, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	if a.cfg.ClassifierTurns > 0 && len(turns) > a.cfg.ClassifierTurns {
		turns = turns[len(turns)-a.cfg.ClassifierTurns:]
	}
	msgs = append(msgs, turns...)

	return a.llm.ChatCompletion(ctx, a.llmCfg.ClassifierModel, msgs)
}

func (a *Assistant) cachedComplexes(chatID int64) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.knownComplexes[chatID]
}

// setCachedComplexes replaces the cached resolved set for the chat. Replacing
// wholesale guarantees a stale set is never served after resolution changes.
func (a *Assistant) setCachedComplexes(chatID int64, names []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.knownComplexes[chatID] = append([]string(nil), names...)
}

func (a *Assistant) count(chatID int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.messageCount[chatID]
}

func (a *Assistant) incr(chatID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messageCount[chatID]++
}

func toChatMessages(history []ConversationMessage) []ChatMessage {
	out := make([]ChatMessage, len(history))
	for i, m := range history {
		out[i] = ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
