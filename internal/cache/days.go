package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"roomly/internal/scheduling"
)

const (
	keyPrefix     = "roomly:day:"
	versionSuffix = ":ver"

	// versionTTL outlives any snapshot and any in-flight reader.
	versionTTL = 24 * time.Hour
)

var errStale = errors.New("day snapshot is stale")

// DaySnapshots caches the booking intervals of one room on one local date.
// Every day has a version counter that Invalidate bumps; Set only stores a
// snapshot read under the current version. A nil *DaySnapshots is a valid
// cache that never hits.
type DaySnapshots struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDaySnapshots(rdb *redis.Client, ttl time.Duration) *DaySnapshots {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DaySnapshots{rdb: rdb, ttl: ttl}
}

func Key(roomID uuid.UUID, date scheduling.Date) string {
	return keyPrefix + roomID.String() + ":" + date.String()
}

func VersionKey(roomID uuid.UUID, date scheduling.Date) string {
	return Key(roomID, date) + versionSuffix
}

// Get returns the cached snapshot, or on a miss the version a later Set
// must present.
func (c *DaySnapshots) Get(ctx context.Context, roomID uuid.UUID, date scheduling.Date) ([]scheduling.Interval, int64, bool, error) {
	if c == nil {
		return nil, 0, false, nil
	}
	pipe := c.rdb.Pipeline()
	snap := pipe.Get(ctx, Key(roomID, date))
	ver := pipe.Get(ctx, VersionKey(roomID, date))
	_, _ = pipe.Exec(ctx)

	version, err := parseVersion(ver)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := snap.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	intervals, err := decode(raw)
	if err != nil {
		return nil, version, false, err
	}
	return intervals, version, true, nil
}

// Set stores intervals unless the day was invalidated after version was
// read. A skipped write is not an error.
func (c *DaySnapshots) Set(ctx context.Context, roomID uuid.UUID, date scheduling.Date, version int64, intervals []scheduling.Interval) error {
	if c == nil {
		return nil
	}
	raw, err := encode(intervals)
	if err != nil {
		return err
	}

	key, verKey := Key(roomID, date), VersionKey(roomID, date)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseVersion(tx.Get(ctx, verKey))
		if err != nil {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if errors.Is(err, errStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the day's version and drops its snapshot.
func (c *DaySnapshots) Invalidate(ctx context.Context, roomID uuid.UUID, date scheduling.Date) error {
	if c == nil {
		return nil
	}
	verKey := VersionKey(roomID, date)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, versionTTL)
		pipe.Del(ctx, Key(roomID, date))
		return nil
	})
	return err
}

func parseVersion(cmd *redis.StringCmd) (int64, error) {
	v, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read day snapshot version: %w", err)
	}
	return v, nil
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return rdb.Ping(ctx).Err()
}

func encode(intervals []scheduling.Interval) ([]byte, error) {
	if intervals == nil {
		intervals = []scheduling.Interval{}
	}
	return json.Marshal(intervals)
}

func decode(raw []byte) ([]scheduling.Interval, error) {
	var intervals []scheduling.Interval
	if err := json.Unmarshal(raw, &intervals); err != nil {
		return nil, fmt.Errorf("decode day snapshot: %w", err)
	}
	return intervals, nil
}
