package store

import "context"

// Conversation is the object representing one assistant conversation thread.
type Conversation struct {
	ID        int32
	UID       string
	CreatorID int32
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64
	Title     string
}

// FindConversation is the find condition for conversation.
type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus

	Limit  *int
	Offset *int
}

// DeleteConversation is the delete request for conversation.
type DeleteConversation struct {
	ID        int32
	CreatorID int32
}

// MessageRole is the role of a conversation message.
type MessageRole string

const (
	// MessageRoleUser marks a user utterance.
	MessageRoleUser MessageRole = "USER"
	// MessageRoleAssistant marks an assistant reply.
	MessageRoleAssistant MessageRole = "ASSISTANT"
	// MessageRoleSystem marks a system record.
	MessageRoleSystem MessageRole = "SYSTEM"
)

// ConversationMessage is an append-only log entry of one interaction.
// Messages are written for audit/history and never mutated.
type ConversationMessage struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	Category       string
	CreatedTs      int64
}

// FindConversationMessage is the find condition for conversation message.
type FindConversationMessage struct {
	ID             *int32
	UID            *string
	ConversationID *int32

	// OrderByCreatedTsDesc returns newest messages first, so a Limit keeps
	// the most recent window instead of the oldest.
	OrderByCreatedTsDesc bool

	Limit  *int
	Offset *int
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation gets a conversation by find condition.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateConversationMessage(ctx context.Context, create *ConversationMessage) (*ConversationMessage, error) {
	return s.driver.CreateConversationMessage(ctx, create)
}

func (s *Store) ListConversationMessages(ctx context.Context, find *FindConversationMessage) ([]*ConversationMessage, error) {
	return s.driver.ListConversationMessages(ctx, find)
}
