package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goshop/storefront/internal/models"
	"github.com/goshop/storefront/internal/transport"
)

func TestAddReview_RecomputesMean(t *testing.T) {
	t.Parallel()

	svc, _ := newCatalogService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c"})
	alice := seedUser(t, svc.Repo, "Alice", "alice@example.com", "user")
	bob := seedUser(t, svc.Repo, "Bob", "bob@example.com", "user")

	got, err := svc.AddReview(context.Background(), p.ID, &alice, transport.ReviewRequest{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got.Rating, 1e-9)
	assert.Equal(t, 1, got.NumReviews)

	got, err = svc.AddReview(context.Background(), p.ID, &bob, transport.ReviewRequest{Rating: 2, Comment: "meh"})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Rating, 1e-9)
	assert.Equal(t, 2, got.NumReviews)
	require.Len(t, got.Reviews, 2)
}

func TestAddReview_DuplicateAuthorRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newCatalogService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c"})
	alice := seedUser(t, svc.Repo, "Alice", "alice@example.com", "user")

	_, err := svc.AddReview(context.Background(), p.ID, &alice, transport.ReviewRequest{Rating: 4, Comment: "nice"})
	require.NoError(t, err)

	_, err = svc.AddReview(context.Background(), p.ID, &alice, transport.ReviewRequest{Rating: 1, Comment: "changed my mind"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got.Rating, 1e-9, "failed duplicate must not shift the mean")
	assert.Equal(t, 1, got.NumReviews)
}

func TestAddReview_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newCatalogService(t)
	p := seedProduct(t, svc.Repo, models.Product{Name: "w", Description: "d", Price: 10, Category: "c"})
	alice := seedUser(t, svc.Repo, "Alice", "alice@example.com", "user")

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddReview(context.Background(), p.ID, &alice, transport.ReviewRequest{Rating: rating, Comment: "x"})
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := svc.AddReview(context.Background(), p.ID, &alice, transport.ReviewRequest{Rating: 3})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddReview(context.Background(), 999, &alice, transport.ReviewRequest{Rating: 3, Comment: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
