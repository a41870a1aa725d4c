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

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueTs       *int64 `json:"dueTs"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueTs       *int64  `json:"dueTs"`
	Completed   *bool   `json:"completed"`
}

type taskResponse struct {
	ID          int32  `json:"id"`
	UID         string `json:"uid"`
	CreatedTs   int64  `json:"createdTs"`
	UpdatedTs   int64  `json:"updatedTs"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueTs       *int64 `json:"dueTs,omitempty"`
	Completed   bool   `json:"completed"`
}

func convertTask(task *store.Task) *taskResponse {
	return &taskResponse{
		ID:          task.ID,
		UID:         task.UID,
		CreatedTs:   task.CreatedTs,
		UpdatedTs:   task.UpdatedTs,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		DueTs:       task.DueTs,
		Completed:   task.Completed,
	}
}

func taskPriorityFromString(raw string) (store.TaskPriority, bool) {
	switch store.TaskPriority(strings.ToUpper(raw)) {
	case store.TaskPriorityLow:
		return store.TaskPriorityLow, true
	case store.TaskPriorityMedium, "":
		return store.TaskPriorityMedium, true
	case store.TaskPriorityHigh:
		return store.TaskPriorityHigh, true
	}
	return "", false
}

func (s *APIV1Service) CreateTask(c echo.Context) error {
	userID := s.currentUserID(c)
	req := &createTaskRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return badRequest(c, "title is required")
	}
	priority, ok := taskPriorityFromString(req.Priority)
	if !ok {
		return badRequest(c, "priority must be LOW, MEDIUM or HIGH")
	}

	task, err := s.Store.CreateTask(c.Request().Context(), &store.Task{
		UID:         shortuuid.New(),
		CreatorID:   userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Priority:    priority,
		DueTs:       req.DueTs,
	})
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, convertTask(task))
}

func (s *APIV1Service) ListTasks(c echo.Context) error {
	userID := s.currentUserID(c)
	find := &store.FindTask{CreatorID: &userID}

	if raw := c.QueryParam("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "completed must be a boolean")
		}
		find.Completed = &completed
	}
	if raw := c.QueryParam("priority"); raw != "" {
		priority, ok := taskPriorityFromString(raw)
		if !ok {
			return badRequest(c, "priority must be LOW, MEDIUM or HIGH")
		}
		find.Priority = &priority
	}
	applyPagination(c, &find.Limit, &find.Offset)

	tasks, err := s.Store.ListTasks(c.Request().Context(), find)
	if err != nil {
		return internalError(c, err)
	}

	response := make([]*taskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, convertTask(task))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetTask(c echo.Context) error {
	userID := s.currentUserID(c)
	taskID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}

	task, err := s.Store.GetTask(c.Request().Context(), &store.FindTask{ID: &taskID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if task == nil {
		return notFound(c, "task not found")
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) UpdateTask(c echo.Context) error {
	userID := s.currentUserID(c)
	taskID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}
	req := &updateTaskRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}

	ctx := c.Request().Context()
	task, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if task == nil {
		return notFound(c, "task not found")
	}

	now := time.Now().Unix()
	update := &store.UpdateTask{ID: task.ID, UpdatedTs: &now}
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
	if req.Priority != nil {
		priority, ok := taskPriorityFromString(*req.Priority)
		if !ok {
			return badRequest(c, "priority must be LOW, MEDIUM or HIGH")
		}
		update.Priority = &priority
	}
	if req.DueTs != nil {
		update.DueTs = req.DueTs
	}
	if req.Completed != nil {
		update.Completed = req.Completed
	}

	if err := s.Store.UpdateTask(ctx, update); err != nil {
		return internalError(c, err)
	}
	task, err = s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) DeleteTask(c echo.Context) error {
	userID := s.currentUserID(c)
	taskID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid task id")
	}

	ctx := c.Request().Context()
	task, err := s.Store.GetTask(ctx, &store.FindTask{ID: &taskID, CreatorID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if task == nil {
		return notFound(c, "task not found")
	}

	if err := s.Store.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, CreatorID: userID}); err != nil {
		return internalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// applyPagination reads limit/offset query params into find conditions.
func applyPagination(c echo.Context, limit, offset **int) {
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			*limit = &v
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			*offset = &v
		}
	}
}
