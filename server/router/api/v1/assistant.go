package v1

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zenvahq/zenva/server/assistant"
	apperr "github.com/zenvahq/zenva/server/internal/errors"
)

const maxVoiceUploadBytes = 10 << 20 // 10 MiB

type assistantChatRequest struct {
	ConversationID int32  `json:"conversationId"`
	Text           string `json:"text"`
}

type assistantTurnResponse struct {
	ConversationID int32  `json:"conversationId"`
	Transcript     string `json:"transcript,omitempty"`
	Reply          string `json:"reply"`
	Action         string `json:"action,omitempty"`
	ActionError    string `json:"actionError,omitempty"`
	Audio          string `json:"audio,omitempty"`
}

type assistantStateResponse struct {
	State string `json:"state"`
}

func convertTurnResult(result *assistant.TurnResult) *assistantTurnResponse {
	response := &assistantTurnResponse{
		ConversationID: result.ConversationID,
		Transcript:     result.Transcript,
		Reply:          result.Reply,
	}
	if result.Action != nil {
		response.Action = string(result.Action.Type)
	}
	if result.ActionError != nil {
		response.ActionError = result.ActionError.Error()
	}
	if len(result.Audio) > 0 {
		response.Audio = base64.StdEncoding.EncodeToString(result.Audio)
	}
	return response
}

func (s *APIV1Service) AssistantChat(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &assistantChatRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	result, err := s.Engine.TextTurn(c.Request().Context(), userID, req.ConversationID, req.Text)
	if err != nil {
		return assistantError(c, err)
	}
	return c.JSON(http.StatusOK, convertTurnResult(result))
}

func (s *APIV1Service) AssistantVoice(c echo.Context) error {
	userID := s.currentUserID(c)

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return badRequest(c, "audio file is required")
	}
	if fileHeader.Size > maxVoiceUploadBytes {
		return badRequest(c, "audio file exceeds the 10 MiB limit")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return internalError(c, err)
	}
	defer file.Close()

	var conversationID int32
	if raw := c.FormValue("conversationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return badRequest(c, "invalid conversation id")
		}
		conversationID = int32(id)
	}

	result, err := s.Engine.VoiceTurn(c.Request().Context(), userID, conversationID, fileHeader.Filename, file)
	if err != nil {
		return assistantError(c, err)
	}
	return c.JSON(http.StatusOK, convertTurnResult(result))
}

func (s *APIV1Service) AssistantState(c echo.Context) error {
	return c.JSON(http.StatusOK, &assistantStateResponse{State: string(s.Engine.State())})
}

// assistantError maps turn failures onto HTTP statuses.
func assistantError(c echo.Context, err error) error {
	var turnErr *apperr.AssistantError
	if !errors.As(err, &turnErr) {
		return internalError(c, err)
	}

	status := http.StatusInternalServerError
	switch turnErr.Code {
	case apperr.ErrCodeUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.ErrCodeBusy:
		status = http.StatusConflict
	case apperr.ErrCodeInvalidArgument, apperr.ErrCodeTextTooLong:
		status = http.StatusBadRequest
	case apperr.ErrCodeTranscriptionTimeout:
		status = http.StatusGatewayTimeout
	case apperr.ErrCodeTranscriptionFailed:
		status = http.StatusUnprocessableEntity
	case apperr.ErrCodeEmbeddingUnavailable, apperr.ErrCodeInterpreterUnavailable:
		status = http.StatusServiceUnavailable
	case apperr.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	}
	return c.JSON(status, &errorResponse{Code: string(turnErr.Code), Message: turnErr.Message})
}
