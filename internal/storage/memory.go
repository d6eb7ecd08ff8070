package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/triestelab/whatsapp-agent/internal/models"
)

// MemoryStorage keeps everything in process memory. Used when
// database.use_in_memory is set and as the storage double in tests.
type MemoryStorage struct {
	mu            sync.RWMutex
	customers     map[string]*models.Customer
	faqs          []*models.FAQ
	interactions  []*models.Interaction
	customerID    int64
	faqID         int64
	interactionID int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		customers: make(map[string]*models.Customer),
	}
}

func (s *MemoryStorage) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[phone]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (s *MemoryStorage) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.Sector == "" {
		customer.Sector = models.SectorGeneric
	}
	if customer.Status == "" {
		customer.Status = models.StatusActive
	}
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	if customer.LastInteraction.IsZero() {
		customer.LastInteraction = customer.CreatedAt
	}

	s.customerID++
	customer.ID = s.customerID

	copied := *customer
	s.customers[customer.Phone] = &copied
	return nil
}

func (s *MemoryStorage) RecordInteraction(ctx context.Context, phone string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customers[phone]
	if !exists {
		return ErrNotFound
	}

	customer.MessageCount++
	if at.After(customer.LastInteraction) {
		customer.LastInteraction = at
	}
	return nil
}

func (s *MemoryStorage) ListNewCustomers(ctx context.Context, createdSince time.Time) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Customer
	for _, c := range s.customers {
		if !c.CreatedAt.Before(createdSince) && c.MessageCount == 0 {
			copied := *c
			result = append(result, &copied)
		}
	}
	sortCustomersByCreation(result)
	return result, nil
}

func (s *MemoryStorage) ListActiveCustomers(ctx context.Context, activeSince time.Time) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Customer
	for _, c := range s.customers {
		if c.Status == models.StatusActive && !c.LastInteraction.Before(activeSince) {
			copied := *c
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastInteraction.After(result[j].LastInteraction)
	})
	return result, nil
}

func (s *MemoryStorage) ListIdleCustomers(ctx context.Context, idleSince time.Time) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Customer
	for _, c := range s.customers {
		if c.Status == models.StatusActive && c.LastInteraction.Before(idleSince) && c.MessageCount > 0 {
			copied := *c
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastInteraction.Before(result[j].LastInteraction)
	})
	return result, nil
}

func (s *MemoryStorage) CountCustomersCreatedSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.customers {
		if !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) CountCustomersInactiveSince(ctx context.Context, before time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.customers {
		if c.LastInteraction.Before(before) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) ListFAQsBySector(ctx context.Context, sector string) ([]*models.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.FAQ
	for _, faq := range s.faqs {
		if faq.Sector == "" || faq.Sector == sector {
			copied := *faq
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *MemoryStorage) CreateFAQ(ctx context.Context, faq *models.FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faqID++
	faq.ID = s.faqID
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = time.Now().UTC()
	}

	copied := *faq
	s.faqs = append(s.faqs, &copied)
	return nil
}

func (s *MemoryStorage) SaveInteraction(ctx context.Context, interaction *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactionID++
	interaction.ID = s.interactionID
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	copied := *interaction
	s.interactions = append(s.interactions, &copied)
	return nil
}

func (s *MemoryStorage) CountInteractionsSince(ctx context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, i := range s.interactions {
		if !i.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) PurgeInteractionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.interactions[:0]
	var deleted int64
	for _, i := range s.interactions {
		if i.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, i)
	}
	s.interactions = kept
	return deleted, nil
}

// Interactions returns a snapshot of the interaction log, oldest first.
// Test helper; the pipeline itself never reads the log back.
func (s *MemoryStorage) Interactions() []*models.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Interaction, 0, len(s.interactions))
	for _, i := range s.interactions {
		copied := *i
		result = append(result, &copied)
	}
	return result
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func sortCustomersByCreation(customers []*models.Customer) {
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CreatedAt.Before(customers[j].CreatedAt)
	})
}
