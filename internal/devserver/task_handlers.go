package devserver

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"todo/internal/service"
)

const maxTitleLen = 255

const taskNotFound = "Task not found or does not belong to authenticated user"

type listResponse struct {
	Tasks           []service.Task `json:"tasks"`
	TotalCount      int            `json:"total_count"`
	CompletedCount  int            `json:"completed_count"`
	IncompleteCount int            `json:"incomplete_count"`
}

type createRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func titleError(title string) []fieldError {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return []fieldError{{Loc: []string{"body", "title"}, Msg: "String should have at least 1 character", Type: "string_too_short"}}
	case n > maxTitleLen:
		return []fieldError{{Loc: []string{"body", "title"}, Msg: "String should have at most 255 characters", Type: "string_too_long"}}
	}
	return nil
}

// listTasks handles GET /api/tasks.
func (s *Server) listTasks(c *gin.Context) {
	claims, _ := authClaims(c)

	tasks, err := s.store.ListTasks(c.Request.Context(), claims.UserID)
	if err != nil {
		s.internalError(c, "list tasks failed", err)
		return
	}

	resp := listResponse{Tasks: tasks, TotalCount: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			resp.CompletedCount++
		}
	}
	resp.IncompleteCount = resp.TotalCount - resp.CompletedCount
	c.JSON(http.StatusOK, resp)
}

// createTask handles POST /api/tasks.
func (s *Server) createTask(c *gin.Context) {
	claims, _ := authClaims(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, invalidBody())
		return
	}
	title := strings.TrimSpace(req.Title)
	if errs := titleError(title); errs != nil {
		c.JSON(http.StatusUnprocessableEntity, validationDetail(errs...))
		return
	}

	now := s.now()
	task := service.Task{
		ID:        uuid.NewString(),
		Title:     title,
		UserID:    claims.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.store.CreateTask(c.Request.Context(), task); err != nil {
		s.internalError(c, "create task failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// getTask handles GET /api/tasks/:id.
func (s *Server) getTask(c *gin.Context) {
	claims, _ := authClaims(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := s.store.GetTask(c.Request.Context(), claims.UserID, id)
	if err != nil {
		s.taskError(c, "get task failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// updateTask handles PUT /api/tasks/:id. Absent fields are left unchanged.
func (s *Server) updateTask(c *gin.Context) {
	claims, _ := authClaims(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, invalidBody())
		return
	}
	in := service.TaskUpdate{Completed: req.Completed}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if errs := titleError(title); errs != nil {
			c.JSON(http.StatusUnprocessableEntity, validationDetail(errs...))
			return
		}
		in.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		in.Description = &desc
	}

	task, err := s.store.UpdateTask(c.Request.Context(), claims.UserID, id, in, s.now())
	if err != nil {
		s.taskError(c, "update task failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// toggleTask handles PATCH /api/tasks/:id/toggle.
func (s *Server) toggleTask(c *gin.Context) {
	claims, _ := authClaims(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := s.store.ToggleTask(c.Request.Context(), claims.UserID, id, s.now())
	if err != nil {
		s.taskError(c, "toggle task failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// deleteTask handles DELETE /api/tasks/:id.
func (s *Server) deleteTask(c *gin.Context) {
	claims, _ := authClaims(c)
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteTask(c.Request.Context(), claims.UserID, id); err != nil {
		s.taskError(c, "delete task failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// taskID reads the :id parameter and answers 400 when it is not a UUID.
func taskID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, detail("Invalid task ID format"))
		return "", false
	}
	return id.String(), true
}

func (s *Server) taskError(c *gin.Context, msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, detail(taskNotFound))
		return
	}
	s.internalError(c, msg, err)
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, detail("Internal server error"))
}
