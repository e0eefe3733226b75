package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

var _ domain.TeamRepository = (*CachedTeamRepository)(nil)

// CachedTeamRepository caches the per-manager team list, which every access
// check on logs and stats reads.
type CachedTeamRepository struct {
	next  domain.TeamRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedTeamRepository(next domain.TeamRepository, cache *redis.Client) *CachedTeamRepository {
	return &CachedTeamRepository{
		next:  next,
		cache: cache,
		ttl:   30 * time.Minute,
	}
}

func (r *CachedTeamRepository) cacheKey(managerID string) string {
	return fmt.Sprintf("teams:manager:%s", managerID)
}

func (r *CachedTeamRepository) invalidate(ctx context.Context, managerID string) {
	if err := r.cache.Del(ctx, r.cacheKey(managerID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate teams for manager %s: %v", managerID, err)
	}
}

func (r *CachedTeamRepository) ListByManagerID(ctx context.Context, managerID string) ([]*domain.Team, error) {
	key := r.cacheKey(managerID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var teams []*domain.Team
		if err := json.Unmarshal([]byte(val), &teams); err == nil {
			return teams, nil
		}

		log.Printf("[CACHE] Corrupted data for manager %s, cleaning up key", managerID)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	teams, err := r.next.ListByManagerID(ctx, managerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(teams); err == nil {
		if setErr := r.cache.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return teams, nil
}

func (r *CachedTeamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedTeamRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Team, error) {
	return r.next.ListByMember(ctx, userID)
}

func (r *CachedTeamRepository) Create(ctx context.Context, team *domain.Team) error {
	if err := r.next.Create(ctx, team); err != nil {
		return err
	}
	r.invalidate(ctx, team.ManagerID)
	return nil
}

func (r *CachedTeamRepository) Update(ctx context.Context, team *domain.Team) error {
	if err := r.next.Update(ctx, team); err != nil {
		return err
	}
	r.invalidate(ctx, team.ManagerID)
	return nil
}

func (r *CachedTeamRepository) Delete(ctx context.Context, id string) error {
	team, err := r.next.GetByID(ctx, id)
	if err == nil && team != nil {
		defer r.invalidate(ctx, team.ManagerID)
	}

	return r.next.Delete(ctx, id)
}
