package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/config"
	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
	"github.com/redis/go-redis/v9"
)

const (
	sweepResultKeyPrefix = "sweep:result"
	sweepScanBatchSize   = 100
	defaultSweepTTL      = time.Hour
)

// SweepCache memoizes whole sweep results. The key is a fingerprint of every
// input field that can shift the summaries, so a hit carries exactly what the
// sweep would recompute.
type SweepCache interface {
	GetResult(ctx context.Context, in simulation.Input) (*domain.SweepResult, bool, error)
	SetResult(ctx context.Context, in simulation.Input, result *domain.SweepResult) error
	InvalidateAll(ctx context.Context) error
}

type redisSweepCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSweepCache struct{}

func NewSweepCache(cfg config.CacheConfig) (SweepCache, error) {
	if !cfg.Enabled {
		return &noopSweepCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.SweepTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultSweepTTL
	}

	return &redisSweepCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// dialRedis connects using REDIS_URL when present, discrete host and port
// settings otherwise, and verifies the server answers a ping.
func dialRedis(cfg config.CacheConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		host := cfg.RedisHost
		if host == "" {
			host = "127.0.0.1"
		}
		port := cfg.RedisPort
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewNoopSweepCache() SweepCache {
	return &noopSweepCache{}
}

func (c *redisSweepCache) GetResult(ctx context.Context, in simulation.Input) (*domain.SweepResult, bool, error) {
	key := buildSweepResultKey(in)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.SweepResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode sweep result cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisSweepCache) SetResult(ctx context.Context, in simulation.Input, result *domain.SweepResult) error {
	key := buildSweepResultKey(in)
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode sweep result cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll deletes every memoized sweep result, scanning the key space
// in batches.
func (c *redisSweepCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	pattern := sweepResultKeyPrefix + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, sweepScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (n *noopSweepCache) GetResult(ctx context.Context, in simulation.Input) (*domain.SweepResult, bool, error) {
	return nil, false, nil
}

func (n *noopSweepCache) SetResult(ctx context.Context, in simulation.Input, result *domain.SweepResult) error {
	return nil
}

func (n *noopSweepCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildSweepResultKey(in simulation.Input) string {
	return fmt.Sprintf("%s:%s", sweepResultKeyPrefix, InputFingerprint(in))
}

// InputFingerprint hashes the simulation input into a stable hex digest.
// SKU order does not matter. Product names and snapshot dates stay out of
// the digest; they never change the computed summaries.
func InputFingerprint(in simulation.Input) string {
	parts := []string{
		fmt.Sprintf("grid=%d-%d:%d-%d", in.Grid.RTStart, in.Grid.RTStop, in.Grid.DOIStart, in.Grid.DOIStop),
		"range=" + in.Range.Start.Format("2006-01-02") + ".." + in.Range.End.Format("2006-01-02"),
		"daily_capacity=" + strconv.Itoa(in.DailyCapacity),
		"total_capacity=" + strconv.Itoa(in.TotalCapacity),
	}

	for _, sku := range in.SKUs {
		parts = append(parts, strings.Join([]string{
			"sku=" + strings.TrimSpace(sku.Code),
			formatQuantity(sku.InitialStock),
			formatQuantity(sku.QPD),
			strconv.Itoa(sku.LeadTimeDays),
		}, ":"))
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
