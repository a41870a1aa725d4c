package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/zenvahq/zenva/store"
)

type logMoodRequest struct {
	Score    int32  `json:"score"`
	Note     string `json:"note"`
	LoggedTs *int64 `json:"loggedTs"`
}

type moodEntryResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	CreatedTs int64  `json:"createdTs"`
	Score     int32  `json:"score"`
	Note      string `json:"note"`
	LoggedTs  int64  `json:"loggedTs"`
}

func convertMoodEntry(entry *store.MoodEntry) *moodEntryResponse {
	return &moodEntryResponse{
		ID:        entry.ID,
		UID:       entry.UID,
		CreatedTs: entry.CreatedTs,
		Score:     entry.Score,
		Note:      entry.Note,
		LoggedTs:  entry.LoggedTs,
	}
}

func (s *APIV1Service) LogMood(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &logMoodRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if req.Score < 1 || req.Score > 5 {
		return badRequest(c, "score must be between 1 and 5")
	}
	loggedTs := time.Now().Unix()
	if req.LoggedTs != nil {
		loggedTs = *req.LoggedTs
	}

	entry, err := s.Store.CreateMoodEntry(c.Request().Context(), &store.MoodEntry{
		UID:       shortuuid.New(),
		CreatorID: userID,
		Score:     req.Score,
		Note:      req.Note,
		LoggedTs:  loggedTs,
	})
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, convertMoodEntry(entry))
}

func (s *APIV1Service) ListMoods(c echo.Context) error {
	userID := s.currentUserID(c)
	find := &store.FindMoodEntry{CreatorID: &userID}

	if raw := c.QueryParam("loggedAfter"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "loggedAfter must be a unix timestamp")
		}
		find.LoggedAfter = &ts
	}
	if raw := c.QueryParam("loggedBefore"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "loggedBefore must be a unix timestamp")
		}
		find.LoggedBefore = &ts
	}
	applyPagination(c, &find.Limit, &find.Offset)

	entries, err := s.Store.ListMoodEntries(c.Request().Context(), find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*moodEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, convertMoodEntry(entry))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) DeleteMood(c echo.Context) error {
	userID := s.currentUserID(c)
	entryID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid mood entry id")
	}

	ctx := c.Request().Context()
	entries, err := s.Store.ListMoodEntries(ctx, &store.FindMoodEntry{ID: &entryID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if len(entries) == 0 {
		return notFound(c, "mood entry not found")
	}

	if err := s.Store.DeleteMoodEntry(ctx, &store.DeleteMoodEntry{ID: entryID, CreatorID: userID}); err != nil {
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
