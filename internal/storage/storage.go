package storage

import (
	"context"
	"errors"
	"time"

	"github.com/triestelab/whatsapp-agent/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Storage interface {
	// Customers
	GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	// RecordInteraction bumps the message counter and refreshes the
	// last-interaction timestamp in a single atomic update. The
	// timestamp only ever moves forward.
	RecordInteraction(ctx context.Context, phone string, at time.Time) error

	// Scheduler selections
	ListNewCustomers(ctx context.Context, createdSince time.Time) ([]*models.Customer, error)
	ListActiveCustomers(ctx context.Context, activeSince time.Time) ([]*models.Customer, error)
	ListIdleCustomers(ctx context.Context, idleSince time.Time) ([]*models.Customer, error)
	CountCustomersCreatedSince(ctx context.Context, since time.Time) (int, error)
	// CountCustomersInactiveSince counts customers whose last
	// interaction is older than before.
	CountCustomersInactiveSince(ctx context.Context, before time.Time) (int, error)

	// Knowledge base (read-only to the pipeline)
	ListFAQsBySector(ctx context.Context, sector string) ([]*models.FAQ, error)
	CreateFAQ(ctx context.Context, faq *models.FAQ) error

	// Interaction log
	SaveInteraction(ctx context.Context, interaction *models.Interaction) error
	CountInteractionsSince(ctx context.Context, since time.Time) (int, error)
	PurgeInteractionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
