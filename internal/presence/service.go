package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amorlink/engage/internal/domain"
)

// lastSeenKey is the sorted set holding one score (unix seconds) per user.
const lastSeenKey = "presence:last_seen"

// Service records heartbeats and answers online queries. Safe for
// concurrent use.
type Service struct {
	rdb       *redis.Client
	threshold time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a presence service with the given staleness threshold.
func NewService(rdb *redis.Client, threshold time.Duration) *Service {
	return &Service{rdb: rdb, threshold: threshold, now: time.Now}
}

// Touch records that userID is active now. Idempotent. ZADD GT keeps the
// stored timestamp monotonically non-decreasing even if two servers race
// with skewed clocks.
func (s *Service) Touch(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	err := s.rdb.ZAddGT(ctx, lastSeenKey, redis.Z{
		Score:  float64(s.now().Unix()),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// IsOnline reports whether the user's last heartbeat is within the
// threshold. A user with no record is offline, not an error.
func (s *Service) IsOnline(ctx context.Context, userID string) (bool, error) {
	score, err := s.rdb.ZScore(ctx, lastSeenKey, userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	lastSeen := time.Unix(int64(score), 0)
	return s.now().Sub(lastSeen) <= s.threshold, nil
}

// StatusFor batch-resolves presence for a set of users. Every requested id
// appears in the result; unknown users come back offline with an empty
// last-seen text.
func (s *Service) StatusFor(ctx context.Context, userIDs []string) (map[string]domain.UserPresence, error) {
	result := make(map[string]domain.UserPresence, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	scores, err := s.rdb.ZMScore(ctx, lastSeenKey, userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	now := s.now()
	for i, id := range userIDs {
		p := domain.UserPresence{UserID: id}
		// ZMSCORE yields 0 for members that are not in the set.
		if i < len(scores) && scores[i] > 0 {
			p.LastSeenAt = time.Unix(int64(scores[i]), 0)
			p.Online = now.Sub(p.LastSeenAt) <= s.threshold
			p.LastSeenText = LastSeenText(p.LastSeenAt, now, s.threshold)
		}
		result[id] = p
	}
	return result, nil
}

// OnlineCount returns how many users are currently within the threshold.
func (s *Service) OnlineCount(ctx context.Context) (int64, error) {
	min := strconv.FormatInt(s.now().Add(-s.threshold).Unix(), 10)
	count, err := s.rdb.ZCount(ctx, lastSeenKey, min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return count, nil
}
