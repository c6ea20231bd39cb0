package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/models"
)

func TestMemoryCreate_ConcurrentSameEmail(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &models.UserWithHash{
				User:         models.User{ID: fmt.Sprintf("id-%d", i), Name: "Jane", Email: "jane@x.com"},
				PasswordHash: "h",
			})
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, common.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 || conflicts != workers-1 {
		t.Fatalf("created = %d, conflicts = %d, want exactly one winner", created, conflicts)
	}
}

func TestMemory_CRUDRoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()

	u := &models.UserWithHash{
		User:         models.User{ID: "id-1", Name: "Jane Doe", Email: "jane@x.com"},
		PasswordHash: "h1",
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "jane@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "id-1" || got.PasswordHash != "h1" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := repo.Update(ctx, Patch{ID: "id-1", Email: "jane2@x.com"}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "jane@x.com"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("old email still resolves after update: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "jane2@x.com"); err != nil {
		t.Fatalf("new email does not resolve: %v", err)
	}

	if err := repo.Delete(ctx, "id-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "id-1"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID after delete = %v, want ErrNotFound", err)
	}

	// Releasing the email on delete lets it be registered again.
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create after delete error: %v", err)
	}
}

func TestMemoryList_Pagination(t *testing.T) {
	t.Parallel()

	repo := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := repo.Create(ctx, &models.UserWithHash{
			User:         models.User{ID: fmt.Sprintf("id-%d", i), Name: "U", Email: fmt.Sprintf("u%d@x.com", i)},
			PasswordHash: "h",
		})
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	users, total, err := repo.List(ctx, 2, 4)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(users) != 1 || users[0].ID != "id-4" {
		t.Fatalf("unexpected page: %+v", users)
	}
}
