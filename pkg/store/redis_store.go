// sieve/pkg/store/redis_store.go

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sieve/pkg/compiler"
	"sieve/pkg/logging"
)

var ctx = context.Background()

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and returns a store over it.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	logging.Logger.Info().Str("addr", addr).Int("db", db).Msg("Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to connect to Redis")
		return nil, err
	}

	logging.Logger.Info().Msg("Successfully connected to Redis")
	return &RedisStore{client: client}, nil
}

func actionKey(id int64) string {
	return fmt.Sprintf("action:%d", id)
}

func teamFiltersKey(teamID int64) string {
	return fmt.Sprintf("team:%d:test_filters", teamID)
}

func programKey(key string) string {
	return "program:" + key
}

// SetAction stores an action record as JSON.
func (s *RedisStore) SetAction(action *compiler.Action) error {
	data, err := json.Marshal(action)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, actionKey(action.ID), data, 0).Err()
}

// GetAction fetches one action record. A missing id returns (nil, nil); the
// compiler turns that into ActionNotFoundError when the id is referenced.
func (s *RedisStore) GetAction(id int64) (*compiler.Action, error) {
	data, err := s.client.Get(ctx, actionKey(id)).Result()
	if err == redis.Nil {
		logging.Logger.Debug().Int64("id", id).Msg("Action not found in Redis")
		return nil, nil
	} else if err != nil {
		logging.Logger.Error().Err(err).Int64("id", id).Msg("Failed to get action from Redis")
		return nil, err
	}

	var action compiler.Action
	if err := json.Unmarshal([]byte(data), &action); err != nil {
		logging.Logger.Error().Err(err).Int64("id", id).Str("data", data).Msg("Failed to unmarshal action data")
		return nil, err
	}
	return &action, nil
}

// MGetActions resolves a batch of action ids into the read-only snapshot the
// compiler consumes. Missing ids are simply absent from the map.
func (s *RedisStore) MGetActions(ids ...int64) (map[int64]*compiler.Action, error) {
	if len(ids) == 0 {
		return map[int64]*compiler.Action{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = actionKey(id)
	}
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	actions := make(map[int64]*compiler.Action)
	for i, result := range results {
		if result == nil {
			continue
		}
		raw, ok := result.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected value type %T for %s", result, keys[i])
		}
		var action compiler.Action
		if err := json.Unmarshal([]byte(raw), &action); err != nil {
			logging.Logger.Error().Err(err).Str("key", keys[i]).Msg("Failed to unmarshal action data")
			return nil, err
		}
		actions[ids[i]] = &action
	}
	return actions, nil
}

// SetTestAccountFilters stores a team's test-account exclusion filters.
func (s *RedisStore) SetTestAccountFilters(teamID int64, filters []compiler.PropertyFilter) error {
	data, err := json.Marshal(filters)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, teamFiltersKey(teamID), data, 0).Err()
}

// GetTestAccountFilters fetches a team's test-account exclusion filters. A
// team without any returns an empty slice.
func (s *RedisStore) GetTestAccountFilters(teamID int64) ([]compiler.PropertyFilter, error) {
	data, err := s.client.Get(ctx, teamFiltersKey(teamID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		logging.Logger.Error().Err(err).Int64("team", teamID).Msg("Failed to get test account filters from Redis")
		return nil, err
	}

	var filters []compiler.PropertyFilter
	if err := json.Unmarshal([]byte(data), &filters); err != nil {
		logging.Logger.Error().Err(err).Int64("team", teamID).Msg("Failed to unmarshal test account filters")
		return nil, err
	}
	return filters, nil
}

// SetProgram caches a compiled program under the given key.
func (s *RedisStore) SetProgram(key string, program compiler.Program) error {
	data, err := json.Marshal(program)
	if err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to marshal program")
		return err
	}
	return s.client.Set(ctx, programKey(key), data, 0).Err()
}

// GetProgram fetches a cached program. Note JSON round-tripping turns opcode
// and count entries into float64.
func (s *RedisStore) GetProgram(key string) (compiler.Program, error) {
	data, err := s.client.Get(ctx, programKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to get program from Redis")
		return nil, err
	}

	var program compiler.Program
	if err := json.Unmarshal([]byte(data), &program); err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to unmarshal program")
		return nil, err
	}
	return program, nil
}
