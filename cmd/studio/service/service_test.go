package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/clients"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
	rediscommon "github.com/inkwell/studio/common/redis"
	"github.com/inkwell/studio/common/repository"
)

// memStore is an in-memory DesignStore for testing
type memStore struct {
	mu      sync.Mutex
	designs map[uuid.UUID]*models.Design
}

func newMemStore() *memStore {
	return &memStore{designs: make(map[uuid.UUID]*models.Design)}
}

func (m *memStore) Create(ctx context.Context, design *models.Design) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if design.ID == uuid.Nil {
		design.ID = uuid.New()
	}
	if design.Status == "" {
		design.Status = models.StatusDraft
	}
	now := time.Now().UTC()
	if design.CreatedAt.IsZero() {
		design.CreatedAt = now
	}
	design.UpdatedAt = now

	m.designs[design.ID] = copyDesign(design)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	design, ok := m.designs[id]
	if !ok {
		return nil, fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}
	return copyDesign(design), nil
}

func (m *memStore) Update(ctx context.Context, id uuid.UUID, update *repository.DesignUpdate) (*models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	design, ok := m.designs[id]
	if !ok {
		return nil, fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}

	if update.Status != nil {
		design.Status = *update.Status
	}
	if update.IsStarred != nil {
		design.IsStarred = *update.IsStarred
	}
	if update.ClearGroup {
		design.CollectionID = nil
	} else if update.CollectionID != nil {
		design.CollectionID = update.CollectionID
	}
	if update.FinalImageRef != nil {
		design.FinalImageRef = update.FinalImageRef
	}
	if update.Shared != nil {
		design.Shared = *update.Shared
	}
	design.UpdatedAt = time.Now().UTC()

	return copyDesign(design), nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.designs[id]; !ok {
		return fmt.Errorf("design %s: %w", id, models.ErrNotFound)
	}
	delete(m.designs, id)
	return nil
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID string, filter *repository.DesignFilter) ([]*models.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Design
	for _, design := range m.designs {
		if design.OwnerID != ownerID {
			continue
		}
		if filter != nil {
			if filter.Starred != nil && design.IsStarred != *filter.Starred {
				continue
			}
			if filter.Status != nil && design.Status != *filter.Status {
				continue
			}
		}
		out = append(out, copyDesign(design))
	}
	return out, nil
}

func (m *memStore) UsageByOwner(ctx context.Context, ownerID string) (*models.StorageUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage := &models.StorageUsage{OwnerID: ownerID}
	for _, design := range m.designs {
		if design.OwnerID != ownerID {
			continue
		}
		usage.DesignCount++
		if design.IsStarred {
			usage.StarredCount++
		}
	}
	return usage, nil
}

// seed inserts a design directly, bypassing service-level validation
func (m *memStore) seed(design *models.Design) *models.Design {
	m.mu.Lock()
	defer m.mu.Unlock()

	if design.ID == uuid.Nil {
		design.ID = uuid.New()
	}
	if design.Status == "" {
		design.Status = models.StatusDraft
	}
	if design.CreatedAt.IsZero() {
		design.CreatedAt = time.Now().UTC()
	}
	design.UpdatedAt = design.CreatedAt

	m.designs[design.ID] = copyDesign(design)
	return copyDesign(design)
}

// rewire overwrites a stored design's parent pointer, simulating data
// corruption the walker must survive
func (m *memStore) rewire(id uuid.UUID, parentID *uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if design, ok := m.designs[id]; ok {
		design.ParentID = parentID
	}
}

func copyDesign(d *models.Design) *models.Design {
	c := *d
	return &c
}

// fakeGenerator returns a canned image ref or a canned error
type fakeGenerator struct {
	imageRef string
	err      error
	calls    int
	lastReq  *clients.GenerationRequest
}

func (g *fakeGenerator) Generate(ctx context.Context, req *clients.GenerationRequest) (*clients.GenerationResult, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &clients.GenerationResult{ImageRef: g.imageRef}, nil
}

// fakeKeyStore is an in-memory stand-in for the redis client, covering
// both idempotency claims and share tokens. A non-nil getErr makes every
// Get fail, simulating a store outage.
type fakeKeyStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{data: make(map[string]string)}
}

func (f *fakeKeyStore) SetWithExpiry(ctx context.Context, key, value string, expiry time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKeyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", rediscommon.ErrKeyNotFound, key)
	}
	return value, nil
}

func (f *fakeKeyStore) SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeKeyStore) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

func strPtr(s string) *string {
	return &s
}
