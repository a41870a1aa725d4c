package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	apperr "github.com/zenvahq/zenva/server/internal/errors"
	"github.com/zenvahq/zenva/store"
)

const defaultFocusMinutes = 25

// NoteIndexer indexes a saved note for semantic retrieval. Indexing failures
// are non-fatal; the note itself is already persisted.
type NoteIndexer interface {
	IndexNote(ctx context.Context, note *store.VoiceNote) error
}

// ActionStore is the slice of the store the dispatcher writes to.
type ActionStore interface {
	CreateTask(ctx context.Context, create *store.Task) (*store.Task, error)
	CreateFocusSession(ctx context.Context, create *store.FocusSession) (*store.FocusSession, error)
	CreateVoiceNote(ctx context.Context, create *store.VoiceNote) (*store.VoiceNote, error)
}

// Dispatcher persists interpreted actions, scoped to the acting user.
type Dispatcher struct {
	store   ActionStore
	indexer NoteIndexer
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher. The indexer may be nil when semantic
// search is disabled.
func NewDispatcher(st ActionStore, indexer NoteIndexer) *Dispatcher {
	return &Dispatcher{
		store:   st,
		indexer: indexer,
		now:     time.Now,
	}
}

// Dispatch executes one action for the user and returns a confirmation
// sentence. A zero user ID means the caller lost its identity mid-turn;
// nothing is written and an unauthenticated error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int32, action *Action) (string, error) {
	if userID <= 0 {
		return "", apperr.Unauthenticated("no acting user for action dispatch")
	}
	if action == nil {
		return "", nil
	}

	switch action.Type {
	case ActionCreateTask:
		return d.createTask(ctx, userID, action.CreateTask)
	case ActionStartFocusSession:
		return d.startFocusSession(ctx, userID, action.StartFocusSession)
	case ActionSaveNote:
		return d.saveNote(ctx, userID, action.SaveNote)
	default:
		return "", apperr.ActionFailed(string(action.Type), fmt.Errorf("unknown action type"))
	}
}

func (d *Dispatcher) createTask(ctx context.Context, userID int32, args *CreateTaskArgs) (string, error) {
	title := strings.TrimSpace(args.Title)
	if title == "" {
		return "", apperr.ActionFailed(string(ActionCreateTask), fmt.Errorf("empty task title"))
	}

	task := &store.Task{
		UID:         shortuuid.New(),
		CreatorID:   userID,
		Title:       title,
		Description: strings.TrimSpace(args.Description),
		Priority:    parsePriority(args.Priority),
	}
	if args.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, args.DueDate); err == nil {
			ts := due.Unix()
			task.DueTs = &ts
		} else {
			slog.Warn("ignoring unparseable due date", slog.String("due_date", args.DueDate))
		}
	}

	if _, err := d.store.CreateTask(ctx, task); err != nil {
		return "", apperr.ActionFailed(string(ActionCreateTask), err)
	}

	return fmt.Sprintf("Added %q to your tasks.", title), nil
}

func (d *Dispatcher) startFocusSession(ctx context.Context, userID int32, args *StartFocusSessionArgs) (string, error) {
	minutes := args.DurationMinutes
	if minutes <= 0 {
		minutes = defaultFocusMinutes
	}

	session := &store.FocusSession{
		UID:             shortuuid.New(),
		CreatorID:       userID,
		Kind:            parseFocusKind(args.Kind),
		DurationMinutes: int32(minutes),
		StartedTs:       d.now().Unix(),
	}
	if _, err := d.store.CreateFocusSession(ctx, session); err != nil {
		return "", apperr.ActionFailed(string(ActionStartFocusSession), err)
	}

	return fmt.Sprintf("Started a %d minute focus session.", minutes), nil
}

func (d *Dispatcher) saveNote(ctx context.Context, userID int32, args *SaveNoteArgs) (string, error) {
	content := strings.TrimSpace(args.Content)
	if content == "" {
		return "", apperr.ActionFailed(string(ActionSaveNote), fmt.Errorf("empty note content"))
	}

	note := &store.VoiceNote{
		UID:       shortuuid.New(),
		CreatorID: userID,
		Content:   content,
		Category:  strings.TrimSpace(args.Category),
	}
	created, err := d.store.CreateVoiceNote(ctx, note)
	if err != nil {
		return "", apperr.ActionFailed(string(ActionSaveNote), err)
	}

	if d.indexer != nil {
		if err := d.indexer.IndexNote(ctx, created); err != nil {
			slog.Warn("note saved but not indexed",
				slog.Int("note_id", int(created.ID)),
				slog.String("error", err.Error()))
		}
	}

	return "Saved that to your notes.", nil
}

func parsePriority(raw string) store.TaskPriority {
	switch strings.ToUpper(raw) {
	case string(store.TaskPriorityLow):
		return store.TaskPriorityLow
	case string(store.TaskPriorityHigh):
		return store.TaskPriorityHigh
	default:
		return store.TaskPriorityMedium
	}
}

func parseFocusKind(raw string) store.FocusSessionKind {
	switch strings.ToUpper(raw) {
	case string(store.FocusSessionShortBreak):
		return store.FocusSessionShortBreak
	case string(store.FocusSessionLongBreak):
		return store.FocusSessionLongBreak
	default:
		return store.FocusSessionFocus
	}
}
