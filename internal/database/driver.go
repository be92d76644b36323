package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"RideDesk/entity"
)

// UpsertDriver persists a driver record keyed by chat id.
func (m *MongoDB) UpsertDriver(ctx context.Context, d *entity.Driver) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	d.UpdatedAt = time.Now()

	collection := connection.Database(m.database).Collection(driversCollection)
	filter := bson.D{{Key: "chat_id", Value: d.ChatID}}
	update := bson.M{"$set": d}

	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert error: %w", err)
	}
	return nil
}

// GetDriver retrieves a driver by chat id. Returns nil when absent.
func (m *MongoDB) GetDriver(ctx context.Context, chatID string) (*entity.Driver, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(driversCollection)
	filter := bson.D{{Key: "chat_id", Value: chatID}}

	var d entity.Driver
	err = collection.FindOne(ctx, filter).Decode(&d)
	if err != nil {
		return nil, m.findError(err)
	}

	return &d, nil
}

// GetDriverByPhone retrieves a driver by phone number. Returns nil when absent.
func (m *MongoDB) GetDriverByPhone(ctx context.Context, phone string) (*entity.Driver, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(driversCollection)
	filter := bson.D{{Key: "phone", Value: phone}}

	var d entity.Driver
	err = collection.FindOne(ctx, filter).Decode(&d)
	if err != nil {
		return nil, m.findError(err)
	}

	return &d, nil
}

// DeleteDriver removes a driver record entirely (explicit reset).
func (m *MongoDB) DeleteDriver(ctx context.Context, chatID string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(driversCollection)
	_, err = collection.DeleteOne(ctx, bson.D{{Key: "chat_id", Value: chatID}})
	if err != nil {
		return fmt.Errorf("mongodb delete error: %w", err)
	}
	return nil
}

// ListApprovedDrivers returns every driver the back office has approved.
func (m *MongoDB) ListApprovedDrivers(ctx context.Context) ([]entity.Driver, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(driversCollection)
	cursor, err := collection.Find(ctx, bson.D{{Key: "approval", Value: entity.ApprovalApproved}})
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []entity.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("mongodb cursor error: %w", err)
	}
	return drivers, nil
}

// ListDrivers returns all driver records for the admin API.
func (m *MongoDB) ListDrivers(ctx context.Context) ([]entity.Driver, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(driversCollection)
	cursor, err := collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []entity.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("mongodb cursor error: %w", err)
	}
	return drivers, nil
}
