package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"RideDesk/entity"
)

// InsertTrip creates a new trip record.
func (m *MongoDB) InsertTrip(ctx context.Context, t *entity.Trip) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(tripsCollection)
	_, err = collection.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("mongodb insert error: %w", err)
	}
	return nil
}

// updateLatestPendingTrip applies a targeted update to the rider's most recent
// pending trip matching the guard filter. Returns nil when no trip matches.
func (m *MongoDB) updateLatestPendingTrip(ctx context.Context, riderChatID string, guard bson.D, set bson.D) (*entity.Trip, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(tripsCollection)

	filter := bson.D{
		{Key: "rider_chat_id", Value: riderChatID},
		{Key: "status", Value: entity.TripPending},
	}
	filter = append(filter, guard...)

	set = append(set, bson.E{Key: "updated_at", Value: time.Now()})
	update := bson.D{{Key: "$set", Value: set}}

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetReturnDocument(options.After)

	var t entity.Trip
	err = collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if err != nil {
		return nil, m.findError(err)
	}
	return &t, nil
}

// SetTripContact fills the contact on the rider's most recent pending trip
// that lacks one.
func (m *MongoDB) SetTripContact(ctx context.Context, riderChatID, contact string) (*entity.Trip, error) {
	return m.updateLatestPendingTrip(ctx, riderChatID,
		bson.D{{Key: "contact", Value: bson.D{{Key: "$in", Value: bson.A{nil, ""}}}}},
		bson.D{{Key: "contact", Value: contact}},
	)
}

// SetTripDestination fills the destination on the rider's most recent pending
// trip that lacks one.
func (m *MongoDB) SetTripDestination(ctx context.Context, riderChatID, destination string) (*entity.Trip, error) {
	return m.updateLatestPendingTrip(ctx, riderChatID,
		bson.D{{Key: "destination", Value: bson.D{{Key: "$in", Value: bson.A{nil, ""}}}}},
		bson.D{{Key: "destination", Value: destination}},
	)
}

// SetTripPickup fills the pickup coordinates on the rider's most recent
// pending trip that has a destination but no pickup yet.
func (m *MongoDB) SetTripPickup(ctx context.Context, riderChatID string, loc entity.Location) (*entity.Trip, error) {
	return m.updateLatestPendingTrip(ctx, riderChatID,
		bson.D{
			{Key: "destination", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
			{Key: "pickup", Value: nil},
		},
		bson.D{{Key: "pickup", Value: loc}},
	)
}

// AcceptTrip atomically transitions a trip from pending to accepted and
// records the winning driver. Exactly one such update can succeed per trip:
// the filter only matches while the status is still pending, so concurrent
// attempts race on the store's document-level atomicity, not on this process.
// Returns nil when the trip is already taken or unknown.
func (m *MongoDB) AcceptTrip(ctx context.Context, tripID, driverChatID string) (*entity.Trip, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(tripsCollection)

	filter := bson.D{
		{Key: "_id", Value: tripID},
		{Key: "status", Value: entity.TripPending},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: entity.TripAccepted},
		{Key: "driver_id", Value: driverChatID},
		{Key: "updated_at", Value: time.Now()},
	}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t entity.Trip
	err = collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if err != nil {
		return nil, m.findError(err)
	}
	return &t, nil
}

// GetAcceptedTripByRider returns the rider's most recently accepted trip,
// or nil when there is none.
func (m *MongoDB) GetAcceptedTripByRider(ctx context.Context, riderChatID string) (*entity.Trip, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(tripsCollection)
	filter := bson.D{
		{Key: "rider_chat_id", Value: riderChatID},
		{Key: "status", Value: entity.TripAccepted},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var t entity.Trip
	err = collection.FindOne(ctx, filter, opts).Decode(&t)
	if err != nil {
		return nil, m.findError(err)
	}
	return &t, nil
}

// ListTrips returns all trips for the admin API, newest first.
func (m *MongoDB) ListTrips(ctx context.Context) ([]entity.Trip, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(tripsCollection)
	cursor, err := collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []entity.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("mongodb cursor error: %w", err)
	}
	return trips, nil
}
