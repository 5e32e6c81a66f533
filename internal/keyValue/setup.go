package keyValue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Holds per-session UI state (wizard step, cached channel lists) and
// one-time OAuth2 state tokens. Self-contained mode keeps everything in an
// in-memory map, which also gives session state its reset-on-restart
// contract; pointing REDIS_ADDRESS at a redis instance swaps the backend
// without changing the contract for callers.

type value struct {
	data    string
	expires time.Time
}

var mutex sync.RWMutex
var hashmap = make(map[string]value)

var sugar *zap.SugaredLogger
var redisClient *redis.Client
var redisCtx = context.Background()
var selfContained = true

func Setup(_sugar *zap.SugaredLogger, _redisClient *redis.Client, _selfContained bool) {
	sugar = _sugar
	redisClient = _redisClient
	selfContained = _selfContained

	if selfContained {
		go sweepExpiredKeys()
	}
}

func sweepExpiredKeys() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		mutex.Lock()
		for key, v := range hashmap {
			if v.expires.Before(time.Now()) {
				delete(hashmap, key)
			}
		}
		mutex.Unlock()
	}
}

// Get returns the stored value, or "" when the key is missing or expired.
func Get(key string) (string, error) {
	if selfContained {
		mutex.RLock()
		defer mutex.RUnlock()

		v := hashmap[key]
		if v.expires.Before(time.Now()) {
			return "", nil
		}
		return v.data, nil
	}

	data, err := redisClient.Get(redisCtx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return data, nil
}

// GetDel consumes a key: returns its value and removes it in one step.
// Used for OAuth2 state tokens so each one is honored at most once.
func GetDel(key string) (string, error) {
	if selfContained {
		mutex.Lock()
		defer mutex.Unlock()

		v := hashmap[key]
		delete(hashmap, key)

		if v.expires.Before(time.Now()) {
			return "", nil
		}
		return v.data, nil
	}

	data, err := redisClient.GetDel(redisCtx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return data, nil
}

func Set(key string, data string, expires time.Duration) error {
	sugar.Debugf("Setting key [%s]", key)

	if selfContained {
		mutex.Lock()
		defer mutex.Unlock()

		hashmap[key] = value{data, time.Now().Add(expires)}
		return nil
	}

	_, err := redisClient.Set(redisCtx, key, data, expires).Result()
	return err
}

func Delete(key string) error {
	if selfContained {
		mutex.Lock()
		defer mutex.Unlock()

		delete(hashmap, key)
		return nil
	}

	return redisClient.Del(redisCtx, key).Err()
}
