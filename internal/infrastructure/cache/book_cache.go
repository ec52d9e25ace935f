package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

// InvalidationHold is how long an invalidated id refuses new writes. A
// read that started before the invalidation finishes well inside it.
const InvalidationHold = 10 * time.Second

// setUnlessInvalidated writes KEYS[1] unless the KEYS[2] marker is present.
var setUnlessInvalidated = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// BookCache keeps book detail reads in Redis under book:<id>. Invalidating
// an id also drops a book:<id>:invalidated marker for InvalidationHold so a
// reader holding a row from before the change cannot put it back.
type BookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBookCache(rdb *redis.Client, ttl time.Duration) *BookCache {
	return &BookCache{rdb: rdb, ttl: ttl}
}

func BookKey(id int64) string {
	return "book:" + strconv.FormatInt(id, 10)
}

func invalidatedKey(id int64) string {
	return BookKey(id) + ":invalidated"
}

func (c *BookCache) Get(ctx context.Context, id int64) (*entity.Book, bool, error) {
	var b entity.Book
	found, err := helpers.RedisGetJSON(ctx, c.rdb, BookKey(id), &b)
	if err != nil || !found {
		return nil, false, err
	}
	return &b, true, nil
}

// Set is skipped while b's id is held by a recent Invalidate.
func (c *BookCache) Set(ctx context.Context, b *entity.Book) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	keys := []string{BookKey(b.ID), invalidatedKey(b.ID)}
	return setUnlessInvalidated.Run(ctx, c.rdb, keys, payload, c.ttl.Milliseconds()).Err()
}

func (c *BookCache) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, BookKey(id))
			pipe.Set(ctx, invalidatedKey(id), 1, InvalidationHold)
		}
		return nil
	})
	return err
}
