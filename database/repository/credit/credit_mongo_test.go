package creditRepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoCreditRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("consume one returns the updated package", func(mt *mtest.T) {
		repo := NewMongoCreditRepo(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "id", Value: "p1"},
				{Key: "user_id", Value: "u1"},
				{Key: "credits", Value: 5},
				{Key: "credits_remaining", Value: 4},
			}},
		})
		pkg, err := repo.ConsumeOne(context.Background(), "u1", now)
		require.NoError(mt, err)
		require.NotNil(mt, pkg)
		assert.Equal(mt, "p1", pkg.ID)
		assert.Equal(mt, 4, pkg.CreditsRemaining)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		elems, err := evt.Command.Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		keys := make([]string, 0, len(elems))
		for _, e := range elems {
			keys = append(keys, e.Key())
		}
		assert.Equal(mt, []string{"expires_sort", "created_at", "id"}, keys)
	})

	mt.Run("consume one with no usable package", func(mt *mtest.T) {
		repo := NewMongoCreditRepo(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		pkg, err := repo.ConsumeOne(context.Background(), "u1", now)
		require.NoError(mt, err)
		assert.Nil(mt, pkg)
	})

	mt.Run("sum remaining reads the group total", func(mt *mtest.T) {
		repo := NewMongoCreditRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "classbook.credit_packages", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: 7},
		}))
		total, err := repo.SumRemaining(context.Background(), "u1", now)
		require.NoError(mt, err)
		assert.Equal(mt, 7, total)
	})

	mt.Run("sum remaining with no packages", func(mt *mtest.T) {
		repo := NewMongoCreditRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "classbook.credit_packages", mtest.FirstBatch))
		total, err := repo.SumRemaining(context.Background(), "u1", now)
		require.NoError(mt, err)
		assert.Zero(mt, total)
	})
}
