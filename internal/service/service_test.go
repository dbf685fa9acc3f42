package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goshop/storefront/internal/config"
	"github.com/goshop/storefront/internal/models"
	"github.com/goshop/storefront/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakePublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, event map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := map[string]any{"topic": topic, "key": key}
	for k, v := range event {
		e[k] = v
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) byType(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, e := range f.events {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	return &repo.GormRepo{DB: newTestDB(t)}
}

func seedProduct(t *testing.T, r *repo.GormRepo, p models.Product) models.Product {
	t.Helper()
	if err := r.DB.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedUser(t *testing.T, r *repo.GormRepo, name, email, role string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	if err := r.DB.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
