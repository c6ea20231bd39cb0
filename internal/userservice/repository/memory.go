package repository

import (
	"context"
	"sync"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/models"
)

// Memory is an in-process Repository for tests. The email check and the
// insert happen under one lock, so concurrent signups with the same email
// resolve the same way the SQL backends do: one winner, the rest conflict.
type Memory struct {
	mu      sync.Mutex
	byID    map[string]models.UserWithHash
	byEmail map[string]string
	order   []string
}

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]models.UserWithHash),
		byEmail: make(map[string]string),
	}
}

func (r *Memory) Close() error { return nil }

func (r *Memory) Create(_ context.Context, user *models.UserWithHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return common.ErrConflict
	}

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	r.order = append(r.order, user.ID)
	return nil
}

func (r *Memory) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	user := u.User
	return &user, nil
}

func (r *Memory) GetByEmail(_ context.Context, email string) (*models.UserWithHash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *Memory) Update(_ context.Context, patch Patch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[patch.ID]
	if !ok {
		return nil, common.ErrNotFound
	}

	if patch.Email != "" && patch.Email != cur.Email {
		if _, taken := r.byEmail[patch.Email]; taken {
			return nil, common.ErrConflict
		}
		delete(r.byEmail, cur.Email)
		cur.Email = patch.Email
		r.byEmail[cur.Email] = cur.ID
	}
	if patch.Name != "" {
		cur.Name = patch.Name
	}
	if patch.PasswordHash != "" {
		cur.PasswordHash = patch.PasswordHash
	}

	r.byID[patch.ID] = cur
	user := cur.User
	return &user, nil
}

func (r *Memory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}

	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Memory) List(_ context.Context, limit, offset int) ([]models.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := len(r.order)
	users := []models.User{}
	for i := offset; i < total && i < offset+limit; i++ {
		users = append(users, r.byID[r.order[i]].User)
	}
	return users, total, nil
}
