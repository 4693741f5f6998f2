// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"todo/internal/service"
)

// FakeEmail is the account a new FakeService is signed in as.
const FakeEmail = "user@example.com"

// FakeService is an in-memory implementation of service.Service for testing.
// It starts signed in as FakeEmail.
type FakeService struct {
	mu       sync.RWMutex
	session  *service.Session
	tasks    []service.Task
	nextID   int
	password map[string]string // email -> password
	now      func() time.Time

	// Error injection for testing
	SignInErr  error
	SignUpErr  error
	SignOutErr error
	ListErr    error
	CreateErr  error
	UpdateErr  error
	ToggleErr  error
	DeleteErr  error

	// Calls counts every Service method call.
	Calls int
}

// NewFakeService creates a new FakeService with a signed-in session and no tasks.
func NewFakeService() *FakeService {
	return &FakeService{
		session: &service.Session{
			Token: "fake-token",
			User:  service.User{ID: "u-1", Email: FakeEmail},
		},
		password: map[string]string{FakeEmail: "secret"},
		now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

// SignOutLocal drops the session without going through SignOut.
func (f *FakeService) SignOutLocal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
}

// AddTask appends a task with a fixed id.
func (f *FakeService) AddTask(id, title string, completed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{
		ID:        id,
		Title:     title,
		Completed: completed,
		UserID:    "u-1",
		CreatedAt: f.now(),
		UpdatedAt: f.now(),
	})
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// SignIn implements service.Service.
func (f *FakeService) SignIn(ctx context.Context, email, password string) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.SignInErr != nil {
		return service.Session{}, f.SignInErr
	}
	if pw, ok := f.password[email]; !ok || pw != password {
		return service.Session{}, service.NewError(service.KindAuthFailed, 401, "Incorrect email or password")
	}
	f.session = &service.Session{Token: "fake-token", User: service.User{ID: "u-1", Email: email}}
	return *f.session, nil
}

// SignUp implements service.Service.
func (f *FakeService) SignUp(ctx context.Context, email, password, name string) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.SignUpErr != nil {
		return service.Session{}, f.SignUpErr
	}
	if _, ok := f.password[email]; ok {
		return service.Session{}, service.NewError(service.KindRegistrationFailed, 400, "Email already registered")
	}
	f.password[email] = password
	f.session = &service.Session{Token: "fake-token", User: service.User{ID: "u-2", Email: email, Name: name}}
	return *f.session, nil
}

// SignOut implements service.Service.
func (f *FakeService) SignOut(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	had := f.session != nil
	f.session = nil
	return had, f.SignOutErr
}

// GetSession implements service.Service.
func (f *FakeService) GetSession(ctx context.Context) (service.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.session == nil {
		return service.Session{}, false
	}
	return *f.session, true
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err := f.check(f.ListErr); err != nil {
		return nil, err
	}
	return append([]service.Task{}, f.tasks...), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskCreate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err := f.check(f.CreateErr); err != nil {
		return service.Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return service.Task{}, service.NewError(service.KindValidation, 0, "title required")
	}
	f.nextID++
	task := service.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		UserID:      f.session.User.ID,
		CreatedAt:   f.now(),
		UpdatedAt:   f.now(),
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, in service.TaskUpdate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err := f.check(f.UpdateErr); err != nil {
		return service.Task{}, err
	}
	if in.Empty() {
		return service.Task{}, service.NewError(service.KindValidation, 0, "nothing to update")
	}
	i, err := f.find(id)
	if err != nil {
		return service.Task{}, err
	}
	t := &f.tasks[i]
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return service.Task{}, service.NewError(service.KindValidation, 0, "title required")
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	t.UpdatedAt = f.now()
	return *t, nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err := f.check(f.ToggleErr); err != nil {
		return service.Task{}, err
	}
	i, err := f.find(id)
	if err != nil {
		return service.Task{}, err
	}
	f.tasks[i].Completed = !f.tasks[i].Completed
	f.tasks[i].UpdatedAt = f.now()
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err := f.check(f.DeleteErr); err != nil {
		return err
	}
	i, err := f.find(id)
	if err != nil {
		return err
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// check returns injected, or NotAuthenticated when signed out. Caller holds mu.
func (f *FakeService) check(injected error) error {
	if f.session == nil {
		return service.NewError(service.KindNotAuthenticated, 0, "not logged in")
	}
	return injected
}

// find returns the index of id. Caller holds mu.
func (f *FakeService) find(id string) (int, error) {
	for i, t := range f.tasks {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, service.NewError(service.KindNotFound, 404, "Task not found or does not belong to authenticated user")
}

var _ service.Service = (*FakeService)(nil)
