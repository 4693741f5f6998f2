package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"todo/internal/service"
)

// CredentialProvider hands out the current credential and drops it when the backend rejects it.
// SessionClient implements it.
type CredentialProvider interface {
	Credential() (string, error)
	Invalidate()
}

// TaskClient performs CRUD against /tasks with the credential from a CredentialProvider.
type TaskClient struct {
	tr     *transport
	creds  CredentialProvider
	logger *zap.Logger
}

// taskEnvelope accepts {"task": {...}} as well as a bare task object.
type taskEnvelope struct {
	Task *service.Task `json:"task"`
}

// listEnvelope accepts {"tasks": [...], ...counts} as well as a bare array.
type listEnvelope struct {
	Tasks           []service.Task `json:"tasks"`
	TotalCount      int            `json:"total_count"`
	CompletedCount  int            `json:"completed_count"`
	IncompleteCount int            `json:"incomplete_count"`
}

// ListTasks returns the user's tasks as the server ordered them.
func (c *TaskClient) ListTasks(ctx context.Context) ([]service.Task, error) {
	token, err := c.creds.Credential()
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/tasks", token, nil, &raw); err != nil {
		return nil, err
	}

	tasks, err := decodeTasks(raw)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask posts a new task. Empty titles fail before any request is made.
func (c *TaskClient) CreateTask(ctx context.Context, in service.TaskCreate) (service.Task, error) {
	token, err := c.creds.Credential()
	if err != nil {
		return service.Task{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return service.Task{}, service.NewError(service.KindValidation, 0, "title required")
	}

	return c.taskCall(ctx, http.MethodPost, "/tasks", token, in)
}

// UpdateTask sends only the fields set in in.
func (c *TaskClient) UpdateTask(ctx context.Context, id string, in service.TaskUpdate) (service.Task, error) {
	token, err := c.creds.Credential()
	if err != nil {
		return service.Task{}, err
	}

	path, err := taskPath(id)
	if err != nil {
		return service.Task{}, err
	}
	if in.Empty() {
		return service.Task{}, service.NewError(service.KindValidation, 0, "nothing to update")
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return service.Task{}, service.NewError(service.KindValidation, 0, "title required")
		}
		in.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		in.Description = &desc
	}

	return c.taskCall(ctx, http.MethodPut, path, token, in)
}

// ToggleTask flips completion server-side and returns what the server says.
func (c *TaskClient) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	token, err := c.creds.Credential()
	if err != nil {
		return service.Task{}, err
	}

	path, err := taskPath(id)
	if err != nil {
		return service.Task{}, err
	}
	return c.taskCall(ctx, http.MethodPatch, path+"/toggle", token, nil)
}

// DeleteTask removes a task. A repeated delete returns a KindNotFound error.
func (c *TaskClient) DeleteTask(ctx context.Context, id string) error {
	token, err := c.creds.Credential()
	if err != nil {
		return err
	}

	path, err := taskPath(id)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodDelete, path, token, nil, nil)
}

func (c *TaskClient) taskCall(ctx context.Context, method, path, token string, body any) (service.Task, error) {
	var raw json.RawMessage
	if err := c.call(ctx, method, path, token, body, &raw); err != nil {
		return service.Task{}, err
	}
	return decodeTask(raw)
}

// call wraps transport.do and drops the session when the backend answers 401.
func (c *TaskClient) call(ctx context.Context, method, path, token string, body, out any) error {
	err := c.tr.do(ctx, method, path, token, body, out)
	if errors.Is(err, service.ErrAuthExpired) {
		c.logger.Debug("credential rejected, invalidating session", zap.String("path", path))
		c.creds.Invalidate()
	}
	return err
}

func taskPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", service.NewError(service.KindValidation, 0, "task id required")
	}
	return "/tasks/" + url.PathEscape(id), nil
}

func decodeTask(raw json.RawMessage) (service.Task, error) {
	var env taskEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Task != nil {
		return checkTask(*env.Task)
	}

	var t service.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return service.Task{}, &service.Error{Kind: service.KindUnknown, Message: "invalid response from server", Err: err}
	}
	return checkTask(t)
}

func checkTask(t service.Task) (service.Task, error) {
	if t.ID == "" {
		return service.Task{}, service.NewError(service.KindUnknown, 0, "invalid response from server: task without id")
	}
	return t, nil
}

func decodeTasks(raw json.RawMessage) ([]service.Task, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var tasks []service.Task
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return nil, &service.Error{Kind: service.KindUnknown, Message: "invalid response from server", Err: err}
		}
		if tasks == nil {
			tasks = []service.Task{}
		}
		return tasks, nil
	}

	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &service.Error{Kind: service.KindUnknown, Message: "invalid response from server", Err: err}
	}
	if env.Tasks == nil {
		env.Tasks = []service.Task{}
	}
	return env.Tasks, nil
}
