package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)
	DeleteUser(ctx context.Context, delete *DeleteUser) error

	// Task model related methods.
	CreateTask(ctx context.Context, create *Task) (*Task, error)
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	UpdateTask(ctx context.Context, update *UpdateTask) error
	DeleteTask(ctx context.Context, delete *DeleteTask) error

	// Goal model related methods.
	CreateGoal(ctx context.Context, create *Goal) (*Goal, error)
	ListGoals(ctx context.Context, find *FindGoal) ([]*Goal, error)
	UpdateGoal(ctx context.Context, update *UpdateGoal) error
	DeleteGoal(ctx context.Context, delete *DeleteGoal) error

	// FocusSession model related methods.
	CreateFocusSession(ctx context.Context, create *FocusSession) (*FocusSession, error)
	ListFocusSessions(ctx context.Context, find *FindFocusSession) ([]*FocusSession, error)
	UpdateFocusSession(ctx context.Context, update *UpdateFocusSession) error
	DeleteFocusSession(ctx context.Context, delete *DeleteFocusSession) error

	// MoodEntry model related methods.
	CreateMoodEntry(ctx context.Context, create *MoodEntry) (*MoodEntry, error)
	ListMoodEntries(ctx context.Context, find *FindMoodEntry) ([]*MoodEntry, error)
	DeleteMoodEntry(ctx context.Context, delete *DeleteMoodEntry) error

	// VoiceNote model related methods.
	CreateVoiceNote(ctx context.Context, create *VoiceNote) (*VoiceNote, error)
	ListVoiceNotes(ctx context.Context, find *FindVoiceNote) ([]*VoiceNote, error)
	DeleteVoiceNote(ctx context.Context, delete *DeleteVoiceNote) error

	// NoteEmbedding model related methods.
	UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error)
	ListNoteEmbeddings(ctx context.Context, find *FindNoteEmbedding) ([]*NoteEmbedding, error)
	DeleteNoteEmbedding(ctx context.Context, noteID int32) error

	// VectorSearch performs semantic search using vector similarity.
	// Results are scoped to the requesting user and ordered by similarity.
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*NoteWithScore, error)

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// ConversationMessage model related methods.
	CreateConversationMessage(ctx context.Context, create *ConversationMessage) (*ConversationMessage, error)
	ListConversationMessages(ctx context.Context, find *FindConversationMessage) ([]*ConversationMessage, error)
}
