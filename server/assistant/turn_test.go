package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvahq/zenva/plugin/ai"
	"github.com/zenvahq/zenva/plugin/ai/rag"
	"github.com/zenvahq/zenva/plugin/ai/speech"
	apperr "github.com/zenvahq/zenva/server/internal/errors"
	"github.com/zenvahq/zenva/store"
)

type fakeTurnStore struct {
	mu            sync.Mutex
	conversations []*store.Conversation
	messages      []*store.ConversationMessage
	notes         []*store.VoiceNote
}

func (f *fakeTurnStore) GetConversation(_ context.Context, find *store.FindConversation) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if find.ID != nil && c.ID != *find.ID {
			continue
		}
		if find.CreatorID != nil && c.CreatorID != *find.CreatorID {
			continue
		}
		return c, nil
	}
	return nil, nil
}

func (f *fakeTurnStore) CreateConversation(_ context.Context, create *store.Conversation) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	create.ID = int32(len(f.conversations) + 1)
	f.conversations = append(f.conversations, create)
	return create, nil
}

func (f *fakeTurnStore) ListConversationMessages(_ context.Context, find *store.FindConversationMessage) ([]*store.ConversationMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []*store.ConversationMessage{}
	for _, m := range f.messages {
		if find.ConversationID != nil && m.ConversationID != *find.ConversationID {
			continue
		}
		list = append(list, m)
	}
	if find.OrderByCreatedTsDesc {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func (f *fakeTurnStore) CreateConversationMessage(_ context.Context, create *store.ConversationMessage) (*store.ConversationMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	create.ID = int32(len(f.messages) + 1)
	f.messages = append(f.messages, create)
	return create, nil
}

func (f *fakeTurnStore) CreateVoiceNote(_ context.Context, create *store.VoiceNote) (*store.VoiceNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	create.ID = int32(len(f.notes) + 1)
	f.notes = append(f.notes, create)
	return create, nil
}

type fakeTranscriber struct {
	transcript *speech.Transcript
	err        error
	delay      time.Duration
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, _ string, _ io.Reader) (*speech.Transcript, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.transcript, f.err
}

type fakeSynth struct {
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return f.audio, f.err
}

type fakeMemory struct {
	matches []*rag.Match
	err     error
}

func (f *fakeMemory) Retrieve(_ context.Context, _ int32, _ string) ([]*rag.Match, error) {
	return f.matches, f.err
}

type fakeInterpreter struct {
	interpretation *Interpretation
	err            error
	cancel         context.CancelFunc
	lastMemories   []*rag.Match
	lastHistory    []ai.Message
}

func (f *fakeInterpreter) Interpret(_ context.Context, _ string, memories []*rag.Match, history []ai.Message) (*Interpretation, error) {
	f.lastMemories = memories
	f.lastHistory = history
	if f.cancel != nil {
		f.cancel()
	}
	return f.interpretation, f.err
}

type fakeDispatcher struct {
	confirmation string
	err          error
	dispatched   []*Action
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ int32, action *Action) (string, error) {
	f.dispatched = append(f.dispatched, action)
	return f.confirmation, f.err
}

func TestTextTurnRequiresUser(t *testing.T) {
	engine := NewEngine(&fakeTurnStore{})

	_, err := engine.TextTurn(context.Background(), 0, 0, "hello")
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeUnauthenticated, assistantErr.Code)
}

func TestTextTurnEmptyUtterance(t *testing.T) {
	engine := NewEngine(&fakeTurnStore{})

	result, err := engine.TextTurn(context.Background(), 1, 0, "")
	require.NoError(t, err)
	assert.Equal(t, emptyTranscriptReply, result.Reply)
	assert.Nil(t, result.Action)
}

func TestTextTurnDegradedMode(t *testing.T) {
	st := &fakeTurnStore{}
	engine := NewEngine(st)

	result, err := engine.TextTurn(context.Background(), 1, 0, "please add a task for laundry")
	require.NoError(t, err)
	assert.Equal(t, "I noted that down as a task for you.", result.Reply)

	// Both sides of the exchange are logged.
	assert.Len(t, st.messages, 2)
	assert.Equal(t, store.MessageRoleUser, st.messages[0].Role)
	assert.Equal(t, store.MessageRoleAssistant, st.messages[1].Role)
}

func TestTextTurnFullPipeline(t *testing.T) {
	st := &fakeTurnStore{}
	memory := &fakeMemory{matches: []*rag.Match{
		{Note: &store.VoiceNote{Content: "usually works out at 7am"}, Score: 0.8},
	}}
	interpreter := &fakeInterpreter{interpretation: &Interpretation{
		Reply:  "On it.",
		Action: &Action{Type: ActionCreateTask, CreateTask: &CreateTaskArgs{Title: "morning workout"}},
	}}
	dispatcher := &fakeDispatcher{confirmation: "Added."}

	engine := NewEngine(st,
		WithMemory(memory),
		WithInterpreter(interpreter),
		WithDispatcher(dispatcher),
	)

	result, err := engine.TextTurn(context.Background(), 1, 0, "schedule my workout")
	require.NoError(t, err)
	assert.Equal(t, "On it.", result.Reply)
	require.NotNil(t, result.Action)
	assert.Len(t, dispatcher.dispatched, 1)
	assert.Len(t, interpreter.lastMemories, 1)
	assert.NotZero(t, result.ConversationID)
}

func TestTextTurnMemoryFailureDegrades(t *testing.T) {
	interpreter := &fakeInterpreter{interpretation: &Interpretation{Reply: "Hi."}}
	engine := NewEngine(&fakeTurnStore{},
		WithMemory(&fakeMemory{err: ai.ErrEmbeddingUnavailable}),
		WithInterpreter(interpreter),
	)

	result, err := engine.TextTurn(context.Background(), 1, 0, "hello there")
	require.NoError(t, err)
	assert.Equal(t, "Hi.", result.Reply)
	assert.Empty(t, interpreter.lastMemories)
}

func TestTextTurnActionFailureKeepsReply(t *testing.T) {
	interpreter := &fakeInterpreter{interpretation: &Interpretation{
		Reply:  "Saving that.",
		Action: &Action{Type: ActionSaveNote, SaveNote: &SaveNoteArgs{Content: "x"}},
	}}
	dispatcher := &fakeDispatcher{err: apperr.ActionFailed("save_note", errors.New("disk full"))}

	engine := NewEngine(&fakeTurnStore{},
		WithInterpreter(interpreter),
		WithDispatcher(dispatcher),
	)

	result, err := engine.TextTurn(context.Background(), 1, 0, "note this down")
	require.NoError(t, err)
	assert.Equal(t, "Saving that.", result.Reply)
	assert.Error(t, result.ActionError)
}

func TestTextTurnSerialized(t *testing.T) {
	interpreter := &fakeInterpreter{interpretation: &Interpretation{Reply: "done"}}
	engine := NewEngine(&fakeTurnStore{}, WithInterpreter(interpreter))

	// Hold the turn slot.
	require.True(t, engine.turnSem.TryAcquire(1))
	defer engine.turnSem.Release(1)

	_, err := engine.TextTurn(context.Background(), 1, 0, "hello")
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeBusy, assistantErr.Code)
}

func TestVoiceTurnTranscribesAndSpeaks(t *testing.T) {
	st := &fakeTurnStore{}
	engine := NewEngine(st,
		WithTranscriber(&fakeTranscriber{transcript: &speech.Transcript{Text: "start a focus session for thirty minutes"}}),
		WithInterpreter(&fakeInterpreter{interpretation: &Interpretation{Reply: "Starting now."}}),
		WithSynthesizer(&fakeSynth{audio: []byte("mp3-bytes")}),
	)

	result, err := engine.VoiceTurn(context.Background(), 1, 0, "clip.wav", strings.NewReader("pcm"))
	require.NoError(t, err)
	assert.Equal(t, "start a focus session for thirty minutes", result.Transcript)
	assert.Equal(t, "Starting now.", result.Reply)
	assert.Equal(t, []byte("mp3-bytes"), result.Audio)

	// The long transcript is kept as a voice note.
	require.Len(t, st.notes, 1)
	assert.Equal(t, "transcript", st.notes[0].Category)
}

func TestVoiceTurnShortTranscriptNotKept(t *testing.T) {
	st := &fakeTurnStore{}
	engine := NewEngine(st,
		WithTranscriber(&fakeTranscriber{transcript: &speech.Transcript{Text: "hi"}}),
		WithInterpreter(&fakeInterpreter{interpretation: &Interpretation{Reply: "Hello."}}),
	)

	_, err := engine.VoiceTurn(context.Background(), 1, 0, "clip.wav", strings.NewReader("pcm"))
	require.NoError(t, err)
	assert.Empty(t, st.notes)
}

func TestVoiceTurnTimeout(t *testing.T) {
	engine := NewEngine(&fakeTurnStore{},
		WithTranscriber(&fakeTranscriber{err: speech.ErrTranscriptionTimeout}),
	)

	_, err := engine.VoiceTurn(context.Background(), 1, 0, "clip.wav", strings.NewReader("pcm"))
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeTranscriptionTimeout, assistantErr.Code)
}

func TestVoiceTurnSynthesisFailureKeepsText(t *testing.T) {
	engine := NewEngine(&fakeTurnStore{},
		WithTranscriber(&fakeTranscriber{transcript: &speech.Transcript{Text: "hello"}}),
		WithInterpreter(&fakeInterpreter{interpretation: &Interpretation{Reply: "Hey."}}),
		WithSynthesizer(&fakeSynth{err: speech.ErrSynthesisUnavailable}),
	)

	result, err := engine.VoiceTurn(context.Background(), 1, 0, "clip.wav", strings.NewReader("pcm"))
	require.NoError(t, err)
	assert.Equal(t, "Hey.", result.Reply)
	assert.Nil(t, result.Audio)
}

func TestTurnReusesConversationAndHistory(t *testing.T) {
	st := &fakeTurnStore{}
	interpreter := &fakeInterpreter{interpretation: &Interpretation{Reply: "Second reply."}}
	engine := NewEngine(st, WithInterpreter(interpreter))

	first, err := engine.TextTurn(context.Background(), 1, 0, "first message here")
	require.NoError(t, err)

	_, err = engine.TextTurn(context.Background(), 1, first.ConversationID, "and a follow up")
	require.NoError(t, err)
	// History carries the first exchange.
	require.Len(t, interpreter.lastHistory, 2)
	assert.Equal(t, "first message here", interpreter.lastHistory[0].Content)

	// A foreign conversation id is rejected.
	_, err = engine.TextTurn(context.Background(), 99, first.ConversationID, "intruder")
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeInvalidArgument, assistantErr.Code)
}

func TestTurnHistoryKeepsMostRecent(t *testing.T) {
	st := &fakeTurnStore{
		conversations: []*store.Conversation{{ID: 1, CreatorID: 1, Title: "long chat"}},
	}
	for i := 1; i <= 12; i++ {
		role := store.MessageRoleUser
		if i%2 == 0 {
			role = store.MessageRoleAssistant
		}
		st.messages = append(st.messages, &store.ConversationMessage{
			ID:             int32(i),
			ConversationID: 1,
			Role:           role,
			Content:        fmt.Sprintf("message %d", i),
		})
	}

	interpreter := &fakeInterpreter{interpretation: &Interpretation{Reply: "ok"}}
	engine := NewEngine(st, WithInterpreter(interpreter))

	_, err := engine.TextTurn(context.Background(), 1, 1, "what did we just discuss?")
	require.NoError(t, err)

	// The window holds the latest exchanges in chronological order; the
	// oldest messages fall out, never the newest.
	require.Len(t, interpreter.lastHistory, historyLimit)
	assert.Equal(t, "message 3", interpreter.lastHistory[0].Content)
	assert.Equal(t, "message 12", interpreter.lastHistory[len(interpreter.lastHistory)-1].Content)
}

func TestTurnCancelledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	interpreter := &fakeInterpreter{
		cancel: cancel,
		interpretation: &Interpretation{
			Reply:  "On it.",
			Action: &Action{Type: ActionCreateTask, CreateTask: &CreateTaskArgs{Title: "stale"}},
		},
	}
	dispatcher := &fakeDispatcher{}
	engine := NewEngine(&fakeTurnStore{},
		WithInterpreter(interpreter),
		WithDispatcher(dispatcher),
	)

	_, err := engine.TextTurn(ctx, 1, 0, "add a task")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dispatcher.dispatched)
}

func TestEngineStateReturnsToIdle(t *testing.T) {
	engine := NewEngine(&fakeTurnStore{},
		WithInterpreter(&fakeInterpreter{interpretation: &Interpretation{Reply: "ok"}}),
	)

	_, err := engine.TextTurn(context.Background(), 1, 0, "hello")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, engine.State())
}
