package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/services"
)

func TestRatings_AverageAndOwnership(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	svc := services.NewRatingService(store, nil, zap.NewNop())
	category := seedCategory(t, store, "Pizza")
	dish := seedDish(t, store, category, "Margherita", 8500, 10)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	avg, err := svc.AverageRating(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)

	first, err := svc.AddRating(ctx, alice.ID, dish.ID, 5, "great")
	require.NoError(t, err)
	_, err = svc.AddRating(ctx, alice.ID, dish.ID, 3, "ok this time")
	require.NoError(t, err)
	_, err = svc.AddRating(ctx, bob.ID, dish.ID, 4, "")
	require.NoError(t, err)

	avg, err = svc.AverageRating(ctx, dish.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 1e-9)

	_, err = svc.UpdateRating(ctx, first.ID, bob.ID, 1, "hijack")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	updated, err := svc.UpdateRating(ctx, first.ID, alice.ID, 2, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	mine, err := svc.ListMyRatings(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.ListDishRatings(ctx, dish.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRatings_Validation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	svc := services.NewRatingService(store, nil, zap.NewNop())
	category := seedCategory(t, store, "Pizza")
	dish := seedDish(t, store, category, "Marinara", 7000, 10)
	user := seedUser(t, store, "carol")

	for _, score := range []int{0, 6, -1} {
		_, err := svc.AddRating(ctx, user.ID, dish.ID, score, "")
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "score %d", score)
	}

	_, err := svc.AddRating(ctx, user.ID, uuid.New(), 4, "")
	assert.True(t, errors.Is(err, apperrors.ErrDishNotFound))

	mine, err := svc.ListMyRatings(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, mine)
}
