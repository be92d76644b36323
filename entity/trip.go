package entity

import (
	"time"

	"github.com/google/uuid"
)

// Trip statuses. Only pending and accepted are produced by the dispatch core;
// completed and cancelled exist for out-of-band tooling.
const (
	TripPending   = "pending"
	TripAccepted  = "accepted"
	TripCompleted = "completed"
	TripCancelled = "cancelled"
)

// Location is a pickup coordinate pair shared by the rider.
type Location struct {
	Latitude  float64 `json:"lat" bson:"lat"`
	Longitude float64 `json:"lon" bson:"lon"`
}

// Trip is a rider's trip request, created stepwise by the rider workflow and
// awarded to exactly one driver by the acceptance arbiter.
type Trip struct {
	ID          string    `json:"id" bson:"_id"`
	RiderChatID string    `json:"rider_chat_id" bson:"rider_chat_id"`
	RiderName   string    `json:"rider_name" bson:"rider_name" validate:"omitempty,min=2,max=50"`
	Contact     string    `json:"contact" bson:"contact,omitempty"`
	Destination string    `json:"destination" bson:"destination,omitempty"`
	Pickup      *Location `json:"pickup,omitempty" bson:"pickup,omitempty"`
	Status      string    `json:"status" bson:"status"`
	DriverID    string    `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NewTrip creates a pending trip for a rider who just supplied their name.
func NewTrip(riderChatID, riderName string) *Trip {
	now := time.Now()
	return &Trip{
		ID:          uuid.NewString(),
		RiderChatID: riderChatID,
		RiderName:   riderName,
		Status:      TripPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
