package waitlistRepo

import (
	"context"
	"testing"

	"classbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoWaitlistRepoPopEarliest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pops the returned entry", func(mt *mtest.T) {
		repo := NewMongoWaitlistRepo(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "id", Value: "w1"},
				{Key: "schedule_id", Value: "s1"},
				{Key: "email", Value: "a@example.com"},
			}},
		})
		entry, err := repo.PopEarliest(context.Background(), "s1")
		require.NoError(mt, err)
		require.NotNil(mt, entry)
		assert.Equal(mt, "a@example.com", entry.Email)
	})

	mt.Run("empty waitlist", func(mt *mtest.T) {
		repo := NewMongoWaitlistRepo(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		entry, err := repo.PopEarliest(context.Background(), "s1")
		require.NoError(mt, err)
		assert.Nil(mt, entry)
	})
}

func TestMongoWaitlistRepoEnqueue(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	entry := &models.WaitlistEntry{ID: "w1", ScheduleID: "s1", Email: "a@example.com"}

	mt.Run("inserts entry", func(mt *mtest.T) {
		repo := NewMongoWaitlistRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, repo.Enqueue(context.Background(), entry))
	})

	mt.Run("duplicate email maps to sentinel", func(mt *mtest.T) {
		repo := NewMongoWaitlistRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := repo.Enqueue(context.Background(), entry)
		assert.ErrorIs(mt, err, ErrAlreadyQueued)
	})
}
