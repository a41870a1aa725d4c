package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/zenvahq/zenva/store"
)

type createGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetTs    *int64 `json:"targetTs"`
}

type updateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	TargetTs    *int64  `json:"targetTs"`
	Progress    *int32  `json:"progress"`
}

type goalResponse struct {
	ID          int32  `json:"id"`
	UID         string `json:"uid"`
	CreatedTs   int64  `json:"createdTs"`
	UpdatedTs   int64  `json:"updatedTs"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetTs    *int64 `json:"targetTs,omitempty"`
	Progress    int32  `json:"progress"`
}

func convertGoal(goal *store.Goal) *goalResponse {
	return &goalResponse{
		ID:          goal.ID,
		UID:         goal.UID,
		CreatedTs:   goal.CreatedTs,
		UpdatedTs:   goal.UpdatedTs,
		Title:       goal.Title,
		Description: goal.Description,
		TargetTs:    goal.TargetTs,
		Progress:    goal.Progress,
	}
}

func (s *APIV1Service) CreateGoal(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &createGoalRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return badRequest(c, "title is required")
	}

	goal, err := s.Store.CreateGoal(c.Request().Context(), &store.Goal{
		UID:         shortuuid.New(),
		CreatorID:   userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		TargetTs:    req.TargetTs,
	})
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, convertGoal(goal))
}

func (s *APIV1Service) ListGoals(c echo.Context) error {
	userID := s.currentUserID(c)
	find := &store.FindGoal{CreatorID: &userID}
	applyPagination(c, &find.Limit, &find.Offset)

	goals, err := s.Store.ListGoals(c.Request().Context(), find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*goalResponse, 0, len(goals))
	for _, goal := range goals {
		response = append(response, convertGoal(goal))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) UpdateGoal(c echo.Context) error {
	userID := s.currentUserID(c)
	goalID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid goal id")
	}
	req := &updateGoalRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}

	ctx := c.Request().Context()
	goal, err := s.Store.GetGoal(ctx, &store.FindGoal{ID: &goalID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if goal == nil {
		return notFound(c, "goal not found")
	}

	now := time.Now().Unix()
	update := &store.UpdateGoal{ID: goal.ID, UpdatedTs: &now}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return badRequest(c, "title cannot be empty")
		}
		update.Title = &title
	}
	if req.Description != nil {
		update.Description = req.Description
	}
	if req.TargetTs != nil {
		update.TargetTs = req.TargetTs
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			return badRequest(c, "progress must be between 0 and 100")
		}
		update.Progress = req.Progress
	}

	if err := s.Store.UpdateGoal(ctx, update); err != nil {
		return internalError(c, err)
	}
	goal, err = s.Store.GetGoal(ctx, &store.FindGoal{ID: &goalID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, convertGoal(goal))
}

func (s *APIV1Service) DeleteGoal(c echo.Context) error {
	userID := s.currentUserID(c)
	goalID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid goal id")
	}

	ctx := c.Request().Context()
	goal, err := s.Store.GetGoal(ctx, &store.FindGoal{ID: &goalID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if goal == nil {
		return notFound(c, "goal not found")
	}

	if err := s.Store.DeleteGoal(ctx, &store.DeleteGoal{ID: goal.ID, CreatorID: userID}); err != nil {
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
