// Package besttime persists the fastest completion time of each region.
package besttime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AlanRandon/subdivisions-game/internal/timer"
)

// KeyPrefix is prepended to the region id to form a record key.
const KeyPrefix = "best-time-"

// ErrInvalidKey is returned by stores that cannot hold the given key.
var ErrInvalidKey = errors.New("invalid key")

// Store is a string key-value store. Get reports ok=false for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Key returns the record key for a region.
func Key(regionID string) string {
	return KeyPrefix + regionID
}

// Best returns the stored best time for a region. A stored value that no
// longer parses counts as absent.
func Best(ctx context.Context, store Store, regionID string) (time.Duration, bool, error) {
	raw, ok, err := store.Get(ctx, Key(regionID))
	if err != nil {
		return 0, false, fmt.Errorf("get best time for %s: %w", regionID, err)
	}
	if !ok {
		return 0, false, nil
	}
	d, err := timer.Parse(raw)
	if err != nil {
		log.Warn().Str("region", regionID).Str("value", raw).Msg("ignoring unreadable best time")
		return 0, false, nil
	}
	return d, true, nil
}

// Record stores d as the region's best time if there is none yet or d is
// strictly faster, and reports whether it did.
func Record(ctx context.Context, store Store, regionID string, d time.Duration) (bool, error) {
	best, ok, err := Best(ctx, store, regionID)
	if err != nil {
		return false, err
	}
	if ok && d >= best {
		return false, nil
	}
	if err := store.Set(ctx, Key(regionID), timer.Encode(d)); err != nil {
		return false, fmt.Errorf("set best time for %s: %w", regionID, err)
	}
	return true, nil
}

// Scoped gives each namespace its own view of a shared store.
func Scoped(store Store, namespace string) Store {
	return &scoped{store: store, prefix: namespace + "."}
}

type scoped struct {
	store  Store
	prefix string
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.prefix+key, value)
}
