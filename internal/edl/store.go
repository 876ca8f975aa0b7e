package edl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when no EDL is stored under a name.
var ErrNotFound = errors.New("edl: not found")

const defaultKeyPrefix = "edl:"

// StoreConfig configures the Redis-backed EDL store.
type StoreConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store persists EDLs by name in Redis as JSON documents.
type Store struct {
	rdb    *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg StoreConfig, logger zerolog.Logger) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.With().Str("component", "edl-store").Logger(),
	}, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// Save validates and stores e under its name.
func (s *Store) Save(ctx context.Context, e *EDL) error {
	if e.Name == "" {
		return errors.New("edl: name is required")
	}
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := Marshal(e, FormatJSON)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(e.Name), data, 0).Err(); err != nil {
		return fmt.Errorf("save edl %q: %w", e.Name, err)
	}
	s.logger.Debug().Str("name", e.Name).Int("clips", len(e.Clips)).Msg("edl saved")
	return nil
}

// Load fetches and validates the EDL stored under name.
func (s *Store) Load(ctx context.Context, name string) (*EDL, error) {
	data, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load edl %q: %w", name, err)
	}
	return Parse(data, FormatJSON)
}

// Delete removes the EDL stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	n, err := s.rdb.Del(ctx, s.key(name)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List returns the names of all stored EDLs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
