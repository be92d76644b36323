package driver

import (
	"context"

	"RideDesk/entity"
)

type Core interface {
	ApproveDriver(ctx context.Context, phone string) (*entity.Driver, error)
	RejectDriver(ctx context.Context, phone string) (*entity.Driver, error)
	ListDrivers(ctx context.Context) ([]entity.Driver, error)
}
