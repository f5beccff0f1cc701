package bookingRepo

import (
	"context"
	"testing"

	"classbook/database"
	"classbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoBookingRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("transition returns the booking as it was", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.DB)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "id", Value: "b1"},
				{Key: "schedule_id", Value: "s2"},
				{Key: "status", Value: models.BookingConfirmed},
			}},
		})
		prev, err := repo.TransitionStatus(context.Background(), "b1",
			[]string{models.BookingPending, models.BookingConfirmed}, models.BookingCanceled, "")
		require.NoError(mt, err)
		require.NotNil(mt, prev)
		assert.Equal(mt, "s2", prev.ScheduleID)
		assert.Equal(mt, models.BookingConfirmed, prev.Status)
	})

	mt.Run("transition loses after a concurrent change", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		prev, err := repo.TransitionStatus(context.Background(), "b1",
			[]string{models.BookingConfirmed}, models.BookingRefunded, models.PaymentRefunded)
		require.NoError(mt, err)
		assert.Nil(mt, prev)
	})

	mt.Run("move succeeds while still on the source schedule", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		moved, err := repo.UpdateSchedule(context.Background(), "b1", "s1", "s2")
		require.NoError(mt, err)
		assert.True(mt, moved)
	})

	mt.Run("move loses once the booking left the source schedule", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		moved, err := repo.UpdateSchedule(context.Background(), "b1", "s1", "s3")
		require.NoError(mt, err)
		assert.False(mt, moved)
	})

	mt.Run("lookup by payment intent", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "classbook.bookings", mtest.FirstBatch, bson.D{
			{Key: "id", Value: "b1"},
			{Key: "payment_intent_id", Value: "pi_1"},
			{Key: "status", Value: models.BookingPending},
		}))
		b, err := repo.GetByPaymentIntent(context.Background(), "pi_1")
		require.NoError(mt, err)
		assert.Equal(mt, "b1", b.ID)
		assert.Equal(mt, models.BookingPending, b.Status)
	})

	mt.Run("missing booking", func(mt *mtest.T) {
		repo := NewMongoBookingRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "classbook.bookings", mtest.FirstBatch))
		_, err := repo.GetByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, database.ErrNotFound)
	})
}
