package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	// Pull returns lines of database owned by user with a remote timestamp
	// strictly after since. A zero since asks for everything.
	Pull(ctx context.Context, database resource.Database, since time.Time, user int) ([]models.Line, error)
	// Push sends one batch and returns the per-line acknowledgements.
	Push(ctx context.Context, batch string, lines []models.Line) ([]models.Ack, error)
}
