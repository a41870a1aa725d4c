package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/semaphore"

	"github.com/zenvahq/zenva/plugin/ai"
	"github.com/zenvahq/zenva/plugin/ai/rag"
	"github.com/zenvahq/zenva/plugin/ai/speech"
	apperr "github.com/zenvahq/zenva/server/internal/errors"
	"github.com/zenvahq/zenva/store"
)

// State is the engine's position in the turn lifecycle.
type State string

const (
	StateIdle         State = "IDLE"
	StateTranscribing State = "TRANSCRIBING"
	StateThinking     State = "THINKING"
	StateActing       State = "ACTING"
	StateSpeaking     State = "SPEAKING"
)

// Utterances longer than this are kept as voice notes so they survive beyond
// the conversation log.
const noteworthyTranscriptChars = 20

const emptyTranscriptReply = "I didn't catch that."

// historyLimit bounds how many prior messages are replayed to the model.
const historyLimit = 10

// Transcriber converts audio to text. Satisfied by speech.Transcriber.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*speech.Transcript, error)
}

// Synthesizer converts replies to audio. Satisfied by speech.Synthesizer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// MemorySource retrieves semantic context for an utterance.
type MemorySource interface {
	Retrieve(ctx context.Context, userID int32, query string) ([]*rag.Match, error)
}

// CommandInterpreter resolves an utterance into a reply and an optional
// action.
type CommandInterpreter interface {
	Interpret(ctx context.Context, utterance string, memories []*rag.Match, history []ai.Message) (*Interpretation, error)
}

// ActionDispatcher persists a resolved action.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, userID int32, action *Action) (string, error)
}

// TurnStore is the slice of the store the engine reads and writes.
type TurnStore interface {
	GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error)
	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	ListConversationMessages(ctx context.Context, find *store.FindConversationMessage) ([]*store.ConversationMessage, error)
	CreateConversationMessage(ctx context.Context, create *store.ConversationMessage) (*store.ConversationMessage, error)
	CreateVoiceNote(ctx context.Context, create *store.VoiceNote) (*store.VoiceNote, error)
}

// TurnResult is the outcome of one assistant turn.
type TurnResult struct {
	ConversationID int32
	Transcript     string
	Reply          string
	Action         *Action
	// ActionError is set when the action could not be persisted. The reply
	// is still delivered.
	ActionError error
	// Audio is the synthesized reply for voice turns. Nil when synthesis is
	// disabled or failed.
	Audio []byte
}

// Engine runs assistant turns. Turns are strictly serialized: a turn
// arriving while another is in flight is rejected rather than queued, so a
// slow provider can never build a backlog of stale replies.
type Engine struct {
	store       TurnStore
	transcriber Transcriber
	synthesizer Synthesizer
	memory      MemorySource
	interpreter CommandInterpreter
	dispatcher  ActionDispatcher
	indexer     NoteIndexer

	turnSem *semaphore.Weighted

	mu    sync.RWMutex
	state State
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTranscriber attaches a speech-to-text service.
func WithTranscriber(t Transcriber) EngineOption {
	return func(e *Engine) { e.transcriber = t }
}

// WithSynthesizer attaches a text-to-speech service.
func WithSynthesizer(s Synthesizer) EngineOption {
	return func(e *Engine) { e.synthesizer = s }
}

// WithMemory attaches semantic memory retrieval.
func WithMemory(m MemorySource) EngineOption {
	return func(e *Engine) { e.memory = m }
}

// WithInterpreter attaches the command interpreter. Without one the engine
// runs in degraded mode with canned replies.
func WithInterpreter(i CommandInterpreter) EngineOption {
	return func(e *Engine) { e.interpreter = i }
}

// WithDispatcher attaches the action dispatcher.
func WithDispatcher(d ActionDispatcher) EngineOption {
	return func(e *Engine) { e.dispatcher = d }
}

// WithIndexer attaches embedding indexing for kept transcripts.
func WithIndexer(i NoteIndexer) EngineOption {
	return func(e *Engine) { e.indexer = i }
}

// NewEngine creates an Engine.
func NewEngine(st TurnStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   st,
		turnSem: semaphore.NewWeighted(1),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// TextTurn runs one turn from typed input.
func (e *Engine) TextTurn(ctx context.Context, userID int32, conversationID int32, text string) (*TurnResult, error) {
	if userID <= 0 {
		return nil, apperr.Unauthenticated("no acting user for turn")
	}
	if !e.turnSem.TryAcquire(1) {
		return nil, apperr.Busy()
	}
	defer e.turnSem.Release(1)
	defer e.setState(StateIdle)

	return e.runTurn(ctx, userID, conversationID, text, false)
}

// VoiceTurn runs one turn from recorded audio: transcribe, interpret, act,
// and synthesize the reply.
func (e *Engine) VoiceTurn(ctx context.Context, userID int32, conversationID int32, filename string, audio io.Reader) (*TurnResult, error) {
	if userID <= 0 {
		return nil, apperr.Unauthenticated("no acting user for turn")
	}
	if e.transcriber == nil {
		return nil, apperr.TranscriptionFailed(speech.ErrTranscriptionFailed)
	}
	if !e.turnSem.TryAcquire(1) {
		return nil, apperr.Busy()
	}
	defer e.turnSem.Release(1)
	defer e.setState(StateIdle)

	e.setState(StateTranscribing)
	transcript, err := e.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrTranscriptionTimeout):
			return nil, apperr.TranscriptionTimeout(err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			return nil, apperr.TranscriptionFailed(err)
		}
	}

	return e.runTurn(ctx, userID, conversationID, transcript.Text, true)
}

func (e *Engine) runTurn(ctx context.Context, userID int32, conversationID int32, utterance string, voice bool) (*TurnResult, error) {
	started := time.Now()
	turnID := uuid.New().String()

	result := &TurnResult{Transcript: utterance}

	if utterance == "" {
		result.Reply = emptyTranscriptReply
		return result, nil
	}

	conversationID, err := e.ensureConversation(ctx, userID, conversationID, utterance)
	if err != nil {
		return nil, err
	}
	result.ConversationID = conversationID

	e.keepNoteworthyTranscript(ctx, userID, utterance, voice)

	e.setState(StateThinking)
	memories := e.retrieveMemories(ctx, userID, utterance)
	history, err := e.loadHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	interpretation, err := e.interpret(ctx, utterance, memories, history)
	if err != nil {
		return nil, err
	}
	result.Reply = interpretation.Reply
	result.Action = interpretation.Action

	if interpretation.Action != nil && e.dispatcher != nil {
		// An aborted turn must not dispatch a stale command.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.setState(StateActing)
		confirmation, err := e.dispatcher.Dispatch(ctx, userID, interpretation.Action)
		if err != nil {
			// Unauthenticated is fatal; anything else keeps the reply alive.
			var assistantErr *apperr.AssistantError
			if errors.As(err, &assistantErr) && assistantErr.Code == apperr.ErrCodeUnauthenticated {
				return nil, err
			}
			slog.Error("action dispatch failed",
				slog.String("action", string(interpretation.Action.Type)),
				slog.String("error", err.Error()))
			result.ActionError = err
		} else if result.Reply == "" {
			result.Reply = confirmation
		}
	}

	if result.Reply == "" {
		result.Reply = emptyTranscriptReply
	}

	e.logMessages(ctx, conversationID, utterance, result.Reply)

	if voice && e.synthesizer != nil {
		e.setState(StateSpeaking)
		audio, err := e.synthesizer.Synthesize(ctx, result.Reply)
		if err != nil {
			// The text reply still reaches the user.
			slog.Warn("reply synthesis failed", slog.String("error", err.Error()))
		} else {
			result.Audio = audio
		}
	}

	slog.Info("turn completed",
		slog.String("turn_id", turnID),
		slog.Int("user_id", int(userID)),
		slog.Int("conversation_id", int(conversationID)),
		slog.Bool("voice", voice),
		slog.Bool("acted", result.Action != nil),
		slog.Duration("duration", time.Since(started)))

	return result, nil
}

func (e *Engine) interpret(ctx context.Context, utterance string, memories []*rag.Match, history []ai.Message) (*Interpretation, error) {
	if e.interpreter == nil {
		// Degraded mode: no language model configured.
		return &Interpretation{Reply: degradedReply(utterance)}, nil
	}
	return e.interpreter.Interpret(ctx, utterance, memories, history)
}

// retrieveMemories degrades gracefully: a failed embedding lookup logs and
// returns no context instead of failing the turn.
func (e *Engine) retrieveMemories(ctx context.Context, userID int32, utterance string) []*rag.Match {
	if e.memory == nil {
		return nil
	}
	memories, err := e.memory.Retrieve(ctx, userID, utterance)
	if err != nil {
		slog.Warn("memory retrieval skipped",
			slog.Int("user_id", int(userID)),
			slog.String("error", err.Error()))
		return nil
	}
	return memories
}

func (e *Engine) ensureConversation(ctx context.Context, userID int32, conversationID int32, utterance string) (int32, error) {
	if conversationID > 0 {
		conversation, err := e.store.GetConversation(ctx, &store.FindConversation{
			ID:        &conversationID,
			CreatorID: &userID,
		})
		if err != nil {
			return 0, err
		}
		if conversation == nil {
			return 0, apperr.InvalidArgument("conversation not found")
		}
		return conversation.ID, nil
	}

	title := utterance
	if utf8.RuneCountInString(title) > 60 {
		title = string([]rune(title)[:60])
	}
	conversation, err := e.store.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		CreatorID: userID,
		Title:     title,
	})
	if err != nil {
		return 0, err
	}
	return conversation.ID, nil
}

// loadHistory returns the most recent messages of the conversation in
// chronological order.
func (e *Engine) loadHistory(ctx context.Context, conversationID int32) ([]ai.Message, error) {
	limit := historyLimit
	messages, err := e.store.ListConversationMessages(ctx, &store.FindConversationMessage{
		ConversationID:       &conversationID,
		OrderByCreatedTsDesc: true,
		Limit:                &limit,
	})
	if err != nil {
		return nil, err
	}

	history := make([]ai.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		role := "user"
		if m.Role == store.MessageRoleAssistant {
			role = "assistant"
		}
		history = append(history, ai.Message{Role: role, Content: m.Content})
	}
	return history, nil
}

// keepNoteworthyTranscript stores long utterances as voice notes. Failure is
// logged and never blocks the turn.
func (e *Engine) keepNoteworthyTranscript(ctx context.Context, userID int32, utterance string, voice bool) {
	if !voice || utf8.RuneCountInString(utterance) <= noteworthyTranscriptChars {
		return
	}
	note, err := e.store.CreateVoiceNote(ctx, &store.VoiceNote{
		UID:       shortuuid.New(),
		CreatorID: userID,
		Content:   utterance,
		Category:  "transcript",
	})
	if err != nil {
		slog.Warn("failed to keep transcript note", slog.String("error", err.Error()))
		return
	}
	if e.indexer != nil {
		if err := e.indexer.IndexNote(ctx, note); err != nil {
			slog.Warn("transcript note kept but not indexed",
				slog.Int("note_id", int(note.ID)),
				slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) logMessages(ctx context.Context, conversationID int32, utterance, reply string) {
	for _, entry := range []struct {
		role    store.MessageRole
		content string
	}{
		{store.MessageRoleUser, utterance},
		{store.MessageRoleAssistant, reply},
	} {
		if _, err := e.store.CreateConversationMessage(ctx, &store.ConversationMessage{
			UID:            shortuuid.New(),
			ConversationID: conversationID,
			Role:           entry.role,
			Content:        entry.content,
		}); err != nil {
			slog.Warn("failed to log conversation message", slog.String("error", err.Error()))
		}
	}
}
