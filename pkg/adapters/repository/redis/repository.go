package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
)

const defaultPrefix = "funnel:"

// createScript inserts the link hash only if the slug key is absent.
// KEYS: link hash, id sequence, creation-order index. ARGV: slug, target, created_at.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local id = redis.call('INCR', KEYS[2])
redis.call('HSET', KEYS[1], 'id', id, 'slug', ARGV[1], 'target', ARGV[2], 'clicks', 0, 'completed', 0, 'created_at', ARGV[3])
redis.call('ZADD', KEYS[3], id, ARGV[1])
return id
`)

// incrementScript bumps one counter field of an existing link and returns the hash.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
return redis.call('HGETALL', KEYS[1])
`)

type RedisRepository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRepository connects using a redis:// or rediss:// URL.
func NewRedisRepository(ctx context.Context, url string) (*RedisRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	repo := NewRepository(redis.NewClient(opts), defaultPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// NewRepository wraps an existing client; all keys are namespaced by prefix.
func NewRepository(client *redis.Client, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRepository) linkKey(slug string) string { return r.prefix + "link:" + slug }
func (r *RedisRepository) seqKey() string             { return r.prefix + "link:seq" }
func (r *RedisRepository) indexKey() string           { return r.prefix + "links" }

func (r *RedisRepository) Create(ctx context.Context, slug, target string) (*domain.Link, error) {
	createdAt := r.now()
	id, err := createScript.Run(ctx, r.client,
		[]string{r.linkKey(slug), r.seqKey(), r.indexKey()},
		slug, target, createdAt.UnixMilli(),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("insert link: %w", err)
	}
	if id == 0 {
		return nil, domain.ErrDuplicateSlug
	}

	return &domain.Link{
		ID:        id,
		Slug:      slug,
		Target:    target,
		CreatedAt: time.UnixMilli(createdAt.UnixMilli()).UTC(),
	}, nil
}

func (r *RedisRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	fields, err := r.client.HGetAll(ctx, r.linkKey(slug)).Result()
	if err != nil {
		return nil, fmt.Errorf("find link: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrLinkNotFound
	}
	return parseLink(fields)
}

func (r *RedisRepository) IncrementClicks(ctx context.Context, slug string) (*domain.Link, error) {
	return r.increment(ctx, slug, "clicks")
}

func (r *RedisRepository) IncrementCompleted(ctx context.Context, slug string) (*domain.Link, error) {
	return r.increment(ctx, slug, "completed")
}

func (r *RedisRepository) increment(ctx context.Context, slug, field string) (*domain.Link, error) {
	res, err := incrementScript.Run(ctx, r.client, []string{r.linkKey(slug)}, field).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment %s: %w", field, err)
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}
	return parseLink(fields)
}

func (r *RedisRepository) ListAll(ctx context.Context) ([]domain.Link, error) {
	slugs, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	links := []domain.Link{}
	if len(slugs) == 0 {
		return links, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(slugs))
	for i, slug := range slugs {
		cmds[i] = pipe.HGetAll(ctx, r.linkKey(slug))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		l, err := parseLink(fields)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, nil
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func parseLink(fields map[string]string) (*domain.Link, error) {
	var l domain.Link
	var createdAt int64
	ints := []struct {
		name string
		dst  *int64
	}{
		{"id", &l.ID},
		{"clicks", &l.Clicks},
		{"completed", &l.Completed},
		{"created_at", &createdAt},
	}
	for _, f := range ints {
		v, err := strconv.ParseInt(fields[f.name], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse link field %s: %w", f.name, err)
		}
		*f.dst = v
	}
	l.Slug = fields["slug"]
	l.Target = fields["target"]
	l.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &l, nil
}

// Ensure interface compliance
var _ ports.LinkStore = (*RedisRepository)(nil)
