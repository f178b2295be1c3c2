package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyConfig points the token store at a Valkey/Redis hash.
type ValkeyConfig struct {
	Addr     string
	Password string
	DB       int
	HashKey  string
	DeviceID string
}

// ValkeyStore keeps sessions of several devices in one hash: the token under the
// device ID, the cookies under "<device ID>:cookies".
type ValkeyStore struct {
	client   *redis.Client
	hashKey  string
	deviceID string
}

func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	if cfg.HashKey == "" {
		cfg.HashKey = TokenKey
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "default"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyStore{
		client:   rdb,
		hashKey:  cfg.HashKey,
		deviceID: cfg.DeviceID,
	}, nil
}

func (v *ValkeyStore) Load(ctx context.Context) (string, error) {
	return v.get(ctx, v.deviceID)
}

func (v *ValkeyStore) Save(ctx context.Context, token string) error {
	if err := v.client.HSet(ctx, v.hashKey, v.deviceID, token).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (v *ValkeyStore) LoadCookies(ctx context.Context) (string, error) {
	return v.get(ctx, v.cookieField())
}

func (v *ValkeyStore) SaveCookies(ctx context.Context, cookies string) error {
	if err := v.client.HSet(ctx, v.hashKey, v.cookieField(), cookies).Err(); err != nil {
		return fmt.Errorf("failed to store cookies: %w", err)
	}
	return nil
}

func (v *ValkeyStore) Clear(ctx context.Context) error {
	if err := v.client.HDel(ctx, v.hashKey, v.deviceID, v.cookieField()).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (v *ValkeyStore) get(ctx context.Context, field string) (string, error) {
	value, err := v.client.HGet(ctx, v.hashKey, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("token lookup error: %w", err)
	}
	return value, nil
}

func (v *ValkeyStore) cookieField() string {
	return v.deviceID + ":cookies"
}

func (v *ValkeyStore) Close() error {
	return v.client.Close()
}
