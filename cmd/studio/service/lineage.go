package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/studio/common/cache"
	"github.com/inkwell/studio/common/logger"
	"github.com/inkwell/studio/common/models"
)

// DesignReader is the read-only subset of the store the walker needs
type DesignReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Design, error)
}

// LineageService walks parent links to reconstruct a design's history
type LineageService struct {
	store    DesignReader
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger

	// Membership index over cached chains. A design's own chain key never
	// contains the design, so invalidating by id alone would leave every
	// descendant's cached chain serving a deleted ancestor until TTL.
	mu           sync.Mutex
	chainMembers map[uuid.UUID][]uuid.UUID        // start id -> members of its cached chain
	chainsWith   map[uuid.UUID]map[uuid.UUID]bool // member id -> start ids whose chain contains it
}

// NewLineageService creates a new lineage service.
// cache may be nil to disable chain caching.
func NewLineageService(store DesignReader, c cache.Cache, cacheTTL time.Duration, log *logger.Logger) *LineageService {
	return &LineageService{
		store:        store,
		cache:        c,
		cacheTTL:     cacheTTL,
		log:          log,
		chainMembers: make(map[uuid.UUID][]uuid.UUID),
		chainsWith:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// LineageView is the share-page read contract: ordered ancestors plus the
// design itself
type LineageView struct {
	Ancestors []*models.Design `json:"ancestors"`
	Current   *models.Design   `json:"current"`
}

// Walk returns the ordered ancestor chain for a design, oldest first,
// excluding the design itself. Roots yield an empty chain.
//
// A missing ancestor truncates the walk and returns the partial chain
// gathered so far: a broken distant ancestor must not prevent displaying
// the intact recent history. A revisited id means the lineage is corrupt
// and surfaces as ErrCycleDetected.
func (s *LineageService) Walk(ctx context.Context, id uuid.UUID) ([]*models.Design, error) {
	start, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if chain, ok := s.cachedChain(ctx, id); ok {
		return chain, nil
	}

	visited := map[uuid.UUID]bool{start.ID: true}

	// Collected newest-first, reversed before returning
	var ancestors []*models.Design
	current := start

	for current.ParentID != nil {
		parentID := *current.ParentID

		if visited[parentID] {
			return nil, fmt.Errorf("design %s revisits %s: %w", id, parentID, models.ErrCycleDetected)
		}

		if len(ancestors) >= models.MaxLineageDepth {
			s.log.Warn("lineage walk hit depth bound, truncating",
				"design_id", id,
				"depth", len(ancestors))
			break
		}

		parent, err := s.store.GetByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// Broken link: the ancestor was deleted. Truncate here.
				s.log.Debug("lineage truncated at missing ancestor",
					"design_id", id,
					"missing_id", parentID,
					"depth", len(ancestors))
				break
			}
			return nil, fmt.Errorf("failed to resolve ancestor %s: %w", parentID, err)
		}

		// Soft invariant: children are created after their parents
		if current.CreatedAt.Before(parent.CreatedAt) {
			s.log.Warn("design created before its parent",
				"design_id", current.ID,
				"parent_id", parent.ID)
		}

		visited[parentID] = true
		ancestors = append(ancestors, parent)
		current = parent
	}

	// Reverse to oldest-first
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}

	s.storeChain(ctx, id, ancestors)

	return ancestors, nil
}

// View builds the share-page chain for a design: [ancestors..., current]
func (s *LineageService) View(ctx context.Context, id uuid.UUID) (*LineageView, error) {
	ancestors, err := s.Walk(ctx, id)
	if err != nil {
		return nil, err
	}

	// Walk already resolved the start design; fetch is a point lookup and
	// keeps the view consistent if it changed mid-walk
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ancestors == nil {
		ancestors = []*models.Design{}
	}

	return &LineageView{
		Ancestors: ancestors,
		Current:   current,
	}, nil
}

// Invalidate drops a design's cached chain and every cached chain that
// contains it (called on lifecycle events). Descendants' chains embed
// their ancestors, so a delete must cascade to them.
func (s *LineageService) Invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}

	s.mu.Lock()
	stale := []uuid.UUID{id}
	for start := range s.chainsWith[id] {
		stale = append(stale, start)
	}
	for _, start := range stale {
		s.dropIndexLocked(start)
	}
	s.mu.Unlock()

	for _, start := range stale {
		if err := s.cache.Delete(ctx, lineageCacheKey(start)); err != nil {
			s.log.Warn("failed to invalidate lineage cache", "design_id", start, "error", err)
		}
	}
}

func (s *LineageService) cachedChain(ctx context.Context, id uuid.UUID) ([]*models.Design, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, found, err := s.cache.Get(ctx, lineageCacheKey(id))
	if err != nil || !found {
		return nil, false
	}

	var chain []*models.Design
	if err := json.Unmarshal(data, &chain); err != nil {
		s.log.Warn("failed to decode cached lineage", "design_id", id, "error", err)
		return nil, false
	}

	return chain, true
}

func (s *LineageService) storeChain(ctx context.Context, id uuid.UUID, chain []*models.Design) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(chain)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, lineageCacheKey(id), data, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache lineage", "design_id", id, "error", err)
		return
	}

	s.indexChain(id, chain)
}

// indexChain records which designs appear in the chain cached for id
func (s *LineageService) indexChain(id uuid.UUID, chain []*models.Design) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIndexLocked(id)

	members := make([]uuid.UUID, 0, len(chain))
	for _, design := range chain {
		members = append(members, design.ID)
		set, ok := s.chainsWith[design.ID]
		if !ok {
			set = make(map[uuid.UUID]bool)
			s.chainsWith[design.ID] = set
		}
		set[id] = true
	}
	s.chainMembers[id] = members
}

func (s *LineageService) dropIndexLocked(id uuid.UUID) {
	for _, member := range s.chainMembers[id] {
		if set := s.chainsWith[member]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(s.chainsWith, member)
			}
		}
	}
	delete(s.chainMembers, id)
}

func lineageCacheKey(id uuid.UUID) string {
	return "lineage:" + id.String()
}
