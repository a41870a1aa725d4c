package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/zenvahq/zenva/store"
)

type createNoteRequest struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

type searchNotesRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float32 `json:"threshold"`
}

type noteResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	CreatedTs int64  `json:"createdTs"`
	Content   string `json:"content"`
	Summary   string `json:"summary,omitempty"`
	Category  string `json:"category,omitempty"`
}

type scoredNoteResponse struct {
	*noteResponse
	Score float32 `json:"score"`
}

func convertVoiceNote(note *store.VoiceNote) *noteResponse {
	return &noteResponse{
		ID:        note.ID,
		UID:       note.UID,
		CreatedTs: note.CreatedTs,
		Content:   note.Content,
		Summary:   note.Summary,
		Category:  note.Category,
	}
}

func (s *APIV1Service) CreateNote(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &createNoteRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return badRequest(c, "content is required")
	}

	ctx := c.Request().Context()
	note, err := s.Store.CreateVoiceNote(ctx, &store.VoiceNote{
		UID:       shortuuid.New(),
		CreatorID: userID,
		Content:   strings.TrimSpace(req.Content),
		Category:  req.Category,
	})
	if err != nil {
		return internalError(c, err)
	}

	// Indexing failures must not fail note creation; the note stays
	// searchable by listing even without an embedding.
	if s.Indexer != nil {
		if err := s.Indexer.IndexNote(ctx, note); err != nil {
			slog.Warn("failed to index note",
				slog.Int("noteID", int(note.ID)),
				slog.String("error", err.Error()))
		}
	}
	return c.JSON(http.StatusCreated, convertVoiceNote(note))
}

func (s *APIV1Service) ListNotes(c echo.Context) error {
	userID := s.currentUserID(c)
	normal := store.Normal
	find := &store.FindVoiceNote{CreatorID: &userID, RowStatus: &normal}

	if raw := c.QueryParam("category"); raw != "" {
		find.Category = &raw
	}
	applyPagination(c, &find.Limit, &find.Offset)

	notes, err := s.Store.ListVoiceNotes(c.Request().Context(), find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*noteResponse, 0, len(notes))
	for _, note := range notes {
		response = append(response, convertVoiceNote(note))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) SearchNotes(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &searchNotesRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}
	if s.Retriever == nil {
		return c.JSON(http.StatusServiceUnavailable, &errorResponse{
			Code:    "EMBEDDING_UNAVAILABLE",
			Message: "semantic search is not configured",
		})
	}

	matches, err := s.Retriever.RetrieveWith(c.Request().Context(), userID, req.Query, req.Limit, req.Threshold)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &errorResponse{
			Code:    "EMBEDDING_UNAVAILABLE",
			Message: "semantic search is temporarily unavailable",
		})
	}

	response := make([]*scoredNoteResponse, 0, len(matches))
	for _, match := range matches {
		response = append(response, &scoredNoteResponse{
			noteResponse: convertVoiceNote(match.Note),
			Score:        match.Score,
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) DeleteNote(c echo.Context) error {
	userID := s.currentUserID(c)
	noteID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid note id")
	}

	ctx := c.Request().Context()
	note, err := s.Store.GetVoiceNote(ctx, &store.FindVoiceNote{ID: &noteID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if note == nil {
		return notFound(c, "note not found")
	}

	if err := s.Store.DeleteVoiceNote(ctx, &store.DeleteVoiceNote{ID: note.ID, CreatorID: userID}); err != nil {
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
