package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/zenvahq/zenva/store"
)

const maxFocusSessionMinutes = 240

type startFocusSessionRequest struct {
	Kind            string `json:"kind"`
	DurationMinutes int32  `json:"durationMinutes"`
	StartedTs       *int64 `json:"startedTs"`
}

type focusSessionResponse struct {
	ID              int32  `json:"id"`
	UID             string `json:"uid"`
	CreatedTs       int64  `json:"createdTs"`
	Kind            string `json:"kind"`
	DurationMinutes int32  `json:"durationMinutes"`
	Completed       bool   `json:"completed"`
	StartedTs       int64  `json:"startedTs"`
	CompletedTs     *int64 `json:"completedTs,omitempty"`
}

func convertFocusSession(session *store.FocusSession) *focusSessionResponse {
	return &focusSessionResponse{
		ID:              session.ID,
		UID:             session.UID,
		CreatedTs:       session.CreatedTs,
		Kind:            string(session.Kind),
		DurationMinutes: session.DurationMinutes,
		Completed:       session.Completed,
		StartedTs:       session.StartedTs,
		CompletedTs:     session.CompletedTs,
	}
}

func focusSessionKindFromString(raw string) (store.FocusSessionKind, bool) {
	switch store.FocusSessionKind(strings.ToUpper(raw)) {
	case store.FocusSessionFocus, "":
		return store.FocusSessionFocus, true
	case store.FocusSessionShortBreak:
		return store.FocusSessionShortBreak, true
	case store.FocusSessionLongBreak:
		return store.FocusSessionLongBreak, true
	}
	return "", false
}

func (s *APIV1Service) StartFocusSession(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &startFocusSessionRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}

	kind, ok := focusSessionKindFromString(req.Kind)
	if !ok {
		return badRequest(c, "kind must be FOCUS, SHORT_BREAK or LONG_BREAK")
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = 25
	}
	if duration < 1 || duration > maxFocusSessionMinutes {
		return badRequest(c, "durationMinutes must be between 1 and 240")
	}
	startedTs := time.Now().Unix()
	if req.StartedTs != nil {
		startedTs = *req.StartedTs
	}

	session, err := s.Store.CreateFocusSession(c.Request().Context(), &store.FocusSession{
		UID:             shortuuid.New(),
		CreatorID:       userID,
		Kind:            kind,
		DurationMinutes: duration,
		StartedTs:       startedTs,
	})
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, convertFocusSession(session))
}

func (s *APIV1Service) ListFocusSessions(c echo.Context) error {
	userID := s.currentUserID(c)
	find := &store.FindFocusSession{CreatorID: &userID}

	if raw := c.QueryParam("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "completed must be a boolean")
		}
		find.Completed = &completed
	}
	if raw := c.QueryParam("kind"); raw != "" {
		kind, ok := focusSessionKindFromString(raw)
		if !ok {
			return badRequest(c, "kind must be FOCUS, SHORT_BREAK or LONG_BREAK")
		}
		find.Kind = &kind
	}
	if raw := c.QueryParam("startedAfter"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "startedAfter must be a unix timestamp")
		}
		find.StartedAfter = &ts
	}
	if raw := c.QueryParam("startedBefore"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "startedBefore must be a unix timestamp")
		}
		find.StartedBefore = &ts
	}
	applyPagination(c, &find.Limit, &find.Offset)

	sessions, err := s.Store.ListFocusSessions(c.Request().Context(), find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*focusSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, convertFocusSession(session))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) CompleteFocusSession(c echo.Context) error {
	userID := s.currentUserID(c)
	sessionID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid focus session id")
	}

	ctx := c.Request().Context()
	session, err := s.Store.GetFocusSession(ctx, &store.FindFocusSession{ID: &sessionID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if session == nil {
		return notFound(c, "focus session not found")
	}
	if session.Completed {
		return c.JSON(http.StatusOK, convertFocusSession(session))
	}

	completed := true
	completedTs := time.Now().Unix()
	if err := s.Store.UpdateFocusSession(ctx, &store.UpdateFocusSession{
		ID:          session.ID,
		Completed:   &completed,
		CompletedTs: &completedTs,
	}); err != nil {
		return internalError(c, err)
	}

	session.Completed = true
	session.CompletedTs = &completedTs
	return c.JSON(http.StatusOK, convertFocusSession(session))
}

func (s *APIV1Service) DeleteFocusSession(c echo.Context) error {
	userID := s.currentUserID(c)
	sessionID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid focus session id")
	}

	ctx := c.Request().Context()
	session, err := s.Store.GetFocusSession(ctx, &store.FindFocusSession{ID: &sessionID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if session == nil {
		return notFound(c, "focus session not found")
	}

	if err := s.Store.DeleteFocusSession(ctx, &store.DeleteFocusSession{ID: session.ID, CreatorID: userID}); err != nil {
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
