package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"kanban-api/domain"
)

const boardCacheKey = "board:sections"

type backend interface {
	ListSections(ctx context.Context) ([]domain.Section, error)
	SectionByID(ctx context.Context, id string) (domain.Section, error)
	CreateSection(ctx context.Context, name, insertAfterID string) (domain.Section, error)
	RenameSection(ctx context.Context, id, name string) (domain.Section, error)
	DeleteSection(ctx context.Context, id string) error
	TasksBySection(ctx context.Context, sectionID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, task *domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	MoveTask(ctx context.Context, taskID, sourceID, destinationID string) (domain.Task, error)
}

// Cache wraps a Store with a Redis-backed cache of the full board read. Any
// board mutation evicts the cached list; Redis failures fall back to the
// backing store without failing the request.
type Cache struct {
	*Store
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Store); ok {
		c.Store = s
	}
	return c
}

// ListSections serves the board from Redis when possible, reading through to
// the backing store on a miss.
func (c *Cache) ListSections(ctx context.Context) ([]domain.Section, error) {
	if sections, ok := c.loadBoardFromCache(ctx); ok {
		return sections, nil
	}

	sections, err := c.base.ListSections(ctx)
	if err != nil {
		return nil, err
	}

	c.storeBoard(ctx, sections)
	return sections, nil
}

func (c *Cache) CreateSection(ctx context.Context, name, insertAfterID string) (domain.Section, error) {
	section, err := c.base.CreateSection(ctx, name, insertAfterID)
	if err != nil {
		return domain.Section{}, err
	}
	c.evict(ctx)
	return section, nil
}

func (c *Cache) RenameSection(ctx context.Context, id, name string) (domain.Section, error) {
	section, err := c.base.RenameSection(ctx, id, name)
	if err != nil {
		return domain.Section{}, err
	}
	c.evict(ctx)
	return section, nil
}

func (c *Cache) DeleteSection(ctx context.Context, id string) error {
	if err := c.base.DeleteSection(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) CreateTask(ctx context.Context, task *domain.Task) (domain.Task, error) {
	created, err := c.base.CreateTask(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return created, nil
}

func (c *Cache) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	updated, err := c.base.UpdateTask(ctx, id, patch)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return updated, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) MoveTask(ctx context.Context, taskID, sourceID, destinationID string) (domain.Task, error) {
	moved, err := c.base.MoveTask(ctx, taskID, sourceID, destinationID)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx)
	return moved, nil
}

func (c *Cache) loadBoardFromCache(ctx context.Context) ([]domain.Section, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, boardCacheKey).Err()
		}
		return nil, false
	}
	var sections []domain.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey).Err()
		return nil, false
	}
	return sections, true
}

func (c *Cache) storeBoard(ctx context.Context, sections []domain.Section) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(sections)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardCacheKey, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardCacheKey).Result()
}
