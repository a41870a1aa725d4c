package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zenvahq/zenva/store"
)

type conversationResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
	Title     string `json:"title"`
}

type conversationMessageResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Category  string `json:"category,omitempty"`
	CreatedTs int64  `json:"createdTs"`
}

func convertConversation(conversation *store.Conversation) *conversationResponse {
	return &conversationResponse{
		ID:        conversation.ID,
		UID:       conversation.UID,
		CreatedTs: conversation.CreatedTs,
		UpdatedTs: conversation.UpdatedTs,
		Title:     conversation.Title,
	}
}

func convertConversationMessage(message *store.ConversationMessage) *conversationMessageResponse {
	return &conversationMessageResponse{
		ID:        message.ID,
		UID:       message.UID,
		Role:      string(message.Role),
		Content:   message.Content,
		Category:  message.Category,
		CreatedTs: message.CreatedTs,
	}
}

func (s *APIV1Service) ListConversations(c echo.Context) error {
	userID := s.currentUserID(c)
	find := &store.FindConversation{CreatorID: &userID}
	applyPagination(c, &find.Limit, &find.Offset)

	conversations, err := s.Store.ListConversations(c.Request().Context(), find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, convertConversation(conversation))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) ListConversationMessages(c echo.Context) error {
	userID := s.currentUserID(c)
	conversationID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid conversation id")
	}

	ctx := c.Request().Context()
	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &conversationID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if conversation == nil {
		return notFound(c, "conversation not found")
	}

	find := &store.FindConversationMessage{ConversationID: &conversation.ID}
	applyPagination(c, &find.Limit, &find.Offset)
	messages, err := s.Store.ListConversationMessages(ctx, find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*conversationMessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, convertConversationMessage(message))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	userID := s.currentUserID(c)
	conversationID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid conversation id")
	}

	ctx := c.Request().Context()
	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{ID: &conversationID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if conversation == nil {
		return notFound(c, "conversation not found")
	}

	if err := s.Store.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID, CreatorID: userID}); err != nil {
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
