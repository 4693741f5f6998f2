// Package devserver is a reference implementation of the todo REST API.
//
// It exists so the CLI can be developed and tested end to end; the client
// packages never import it.
package devserver

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"todo/internal/service"
)

var (
	// ErrNotFound is returned when a user or task does not exist or is owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned by CreateUser for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account as stored by the backend.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Public returns the user as exposed by /users/me.
func (u User) Public() service.User {
	return service.User{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Store persists users and their tasks. Task lookups are always scoped by user id.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)

	ListTasks(ctx context.Context, userID string) ([]service.Task, error)
	CreateTask(ctx context.Context, t service.Task) error
	GetTask(ctx context.Context, userID, id string) (service.Task, error)
	UpdateTask(ctx context.Context, userID, id string, in service.TaskUpdate, now time.Time) (service.Task, error)
	ToggleTask(ctx context.Context, userID, id string, now time.Time) (service.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

// normalizeEmail is applied before every email lookup and insert.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryStore keeps everything in memory. Used when DATABASE_URL is not set and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]User   // id -> user
	byEmail map[string]string // email -> id
	tasks   map[string]service.Task
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
		tasks:   make(map[string]service.Task),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrEmailTaken
	}
	u.Email = email
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// ListTasks returns the user's tasks oldest first.
func (s *MemoryStore) ListTasks(_ context.Context, userID string) ([]service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []service.Task{}
	for _, t := range s.tasks {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) CreateTask(_ context.Context, t service.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, userID, id string) (service.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownedLocked(userID, id)
}

func (s *MemoryStore) UpdateTask(_ context.Context, userID, id string, in service.TaskUpdate, now time.Time) (service.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.ownedLocked(userID, id)
	if err != nil {
		return service.Task{}, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	t.UpdatedAt = now
	s.tasks[id] = t
	return t, nil
}

func (s *MemoryStore) ToggleTask(_ context.Context, userID, id string, now time.Time) (service.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.ownedLocked(userID, id)
	if err != nil {
		return service.Task{}, err
	}
	t.Completed = !t.Completed
	t.UpdatedAt = now
	s.tasks[id] = t
	return t, nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedLocked(userID, id); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) ownedLocked(userID, id string) (service.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return service.Task{}, ErrNotFound
	}
	return t, nil
}
