package assistant

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/zenvahq/zenva/server/internal/errors"
	"github.com/zenvahq/zenva/store"
)

type fakeActionStore struct {
	tasks    []*store.Task
	sessions []*store.FocusSession
	notes    []*store.VoiceNote
	err      error
}

func (f *fakeActionStore) CreateTask(_ context.Context, create *store.Task) (*store.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	create.ID = int32(len(f.tasks) + 1)
	f.tasks = append(f.tasks, create)
	return create, nil
}

func (f *fakeActionStore) CreateFocusSession(_ context.Context, create *store.FocusSession) (*store.FocusSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	create.ID = int32(len(f.sessions) + 1)
	f.sessions = append(f.sessions, create)
	return create, nil
}

func (f *fakeActionStore) CreateVoiceNote(_ context.Context, create *store.VoiceNote) (*store.VoiceNote, error) {
	if f.err != nil {
		return nil, f.err
	}
	create.ID = int32(len(f.notes) + 1)
	f.notes = append(f.notes, create)
	return create, nil
}

type fakeIndexer struct {
	indexed []*store.VoiceNote
	err     error
}

func (f *fakeIndexer) IndexNote(_ context.Context, note *store.VoiceNote) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, note)
	return nil
}

func TestDispatchRequiresUser(t *testing.T) {
	dispatcher := NewDispatcher(&fakeActionStore{}, nil)

	_, err := dispatcher.Dispatch(context.Background(), 0, &Action{
		Type:       ActionCreateTask,
		CreateTask: &CreateTaskArgs{Title: "anything"},
	})
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeUnauthenticated, assistantErr.Code)
}

func TestDispatchCreateTask(t *testing.T) {
	st := &fakeActionStore{}
	dispatcher := NewDispatcher(st, nil)

	confirmation, err := dispatcher.Dispatch(context.Background(), 7, &Action{
		Type: ActionCreateTask,
		CreateTask: &CreateTaskArgs{
			Title:    "  water the plants  ",
			Priority: "high",
			DueDate:  "2026-09-02T09:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, confirmation, "water the plants")

	require.Len(t, st.tasks, 1)
	task := st.tasks[0]
	assert.Equal(t, int32(7), task.CreatorID)
	assert.Equal(t, "water the plants", task.Title)
	assert.Equal(t, store.TaskPriorityHigh, task.Priority)
	require.NotNil(t, task.DueTs)
	assert.NotEmpty(t, task.UID)
}

func TestDispatchCreateTaskEmptyTitle(t *testing.T) {
	dispatcher := NewDispatcher(&fakeActionStore{}, nil)

	_, err := dispatcher.Dispatch(context.Background(), 7, &Action{
		Type:       ActionCreateTask,
		CreateTask: &CreateTaskArgs{Title: "   "},
	})
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeActionFailed, assistantErr.Code)
}

func TestDispatchStartFocusSessionDefaults(t *testing.T) {
	st := &fakeActionStore{}
	dispatcher := NewDispatcher(st, nil)

	confirmation, err := dispatcher.Dispatch(context.Background(), 7, &Action{
		Type:              ActionStartFocusSession,
		StartFocusSession: &StartFocusSessionArgs{},
	})
	require.NoError(t, err)
	assert.Contains(t, confirmation, "25 minute")

	require.Len(t, st.sessions, 1)
	session := st.sessions[0]
	assert.Equal(t, store.FocusSessionFocus, session.Kind)
	assert.Equal(t, int32(25), session.DurationMinutes)
	assert.NotZero(t, session.StartedTs)
}

func TestDispatchSaveNoteIndexes(t *testing.T) {
	st := &fakeActionStore{}
	indexer := &fakeIndexer{}
	dispatcher := NewDispatcher(st, indexer)

	_, err := dispatcher.Dispatch(context.Background(), 7, &Action{
		Type:     ActionSaveNote,
		SaveNote: &SaveNoteArgs{Content: "prefers tea over coffee", Category: "habits"},
	})
	require.NoError(t, err)
	require.Len(t, st.notes, 1)
	require.Len(t, indexer.indexed, 1)
	assert.Equal(t, "prefers tea over coffee", indexer.indexed[0].Content)
}

func TestDispatchSaveNoteIndexFailureIsNonFatal(t *testing.T) {
	st := &fakeActionStore{}
	dispatcher := NewDispatcher(st, &fakeIndexer{err: errors.New("embedding provider down")})

	confirmation, err := dispatcher.Dispatch(context.Background(), 7, &Action{
		Type:     ActionSaveNote,
		SaveNote: &SaveNoteArgs{Content: "still worth keeping"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, confirmation)
	assert.Len(t, st.notes, 1)
}

func TestDispatchStoreFailure(t *testing.T) {
	dispatcher := NewDispatcher(&fakeActionStore{err: errors.New("disk full")}, nil)

	_, err := dispatcher.Dispatch(context.Background(), 7, &Action{
		Type:       ActionCreateTask,
		CreateTask: &CreateTaskArgs{Title: "doomed"},
	})
	var assistantErr *apperr.AssistantError
	require.ErrorAs(t, err, &assistantErr)
	assert.Equal(t, apperr.ErrCodeActionFailed, assistantErr.Code)
}
