package demoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore provides item persistence in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new RedisStore. All keys are namespaced under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) itemKey(resource string, id int64) string {
	return fmt.Sprintf("%sitem:%s:%d", s.prefix, resource, id)
}

func (s *RedisStore) setKey(resource string) string {
	return fmt.Sprintf("%sitems:%s", s.prefix, resource)
}

func (s *RedisStore) seqKey(resource string) string {
	return fmt.Sprintf("%sseq:%s", s.prefix, resource)
}

// Create allocates the next id with INCR and stores the item.
func (s *RedisStore) Create(ctx context.Context, resource string, fields map[string]any) (*Item, error) {
	id, err := s.client.Incr(ctx, s.seqKey(resource)).Result()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item := &Item{
		ID:           id,
		Resource:     resource,
		CreatedAt:    now,
		LastModified: now,
	}
	item.Merge(fields)
	if err := s.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Save stores a new or updated item in Redis.
func (s *RedisStore) Save(ctx context.Context, item *Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.itemKey(item.Resource, item.ID), data, 0)
	pipe.SAdd(ctx, s.setKey(item.Resource), item.ID)
	// Keep the sequence ahead of explicitly saved ids (seed data).
	pipe.Eval(ctx, `local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v < tonumber(ARGV[1]) then redis.call('SET', KEYS[1], ARGV[1]) end
return 0`, []string{s.seqKey(item.Resource)}, item.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves an item by resource and id.
func (s *RedisStore) Get(ctx context.Context, resource string, id int64) (*Item, error) {
	data, err := s.client.Get(ctx, s.itemKey(resource, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item by resource and id.
func (s *RedisStore) Delete(ctx context.Context, resource string, id int64) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.itemKey(resource, id))
	pipe.SRem(ctx, s.setKey(resource), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all items of resource ordered by id.
func (s *RedisStore) List(ctx context.Context, resource string) ([]*Item, error) {
	members, err := s.client.SMembers(ctx, s.setKey(resource)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*Item{}, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		cmds = append(cmds, pipe.Get(ctx, s.itemKey(resource, id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	items := make([]*Item, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var item Item
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	sortByID(items)
	return items, nil
}
