package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"knowledge-quiz/internal/domain"
)

// TopicLoader fetches topic content from a backing store (Postgres, bank file).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
	ListTopics(ctx context.Context) ([]domain.TopicSummary, error)
}

// TopicRepository caches validated topics in Redis and falls back to a loader on cache miss.
// Topics are stored as JSON: SET quiz:topic:{topicID} {topic} EX ttl+jitter
type TopicRepository struct {
	client *redis.Client
	loader TopicLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewTopicRepository(client *redis.Client, loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := r.cached(ctx, topicID); ok {
		return topic, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if topic, ok := r.cached(ctx, topicID); ok {
			return topic, nil
		}

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}
		if err := topic.Validate(); err != nil {
			return domain.Topic{}, err
		}

		if raw, err := json.Marshal(topic); err == nil {
			_ = r.client.Set(ctx, r.topicKey(topicID), raw, r.ttlWithJitter()).Err()
		}
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

// ListTopics goes straight to the loader.
func (r *TopicRepository) ListTopics(ctx context.Context) ([]domain.TopicSummary, error) {
	return r.loader.ListTopics(ctx)
}

// Invalidate drops a cached topic so the next read reloads it.
func (r *TopicRepository) Invalidate(ctx context.Context, topicID string) error {
	return r.client.Del(ctx, r.topicKey(topicID)).Err()
}

func (r *TopicRepository) cached(ctx context.Context, topicID string) (domain.Topic, bool) {
	raw, err := r.client.Get(ctx, r.topicKey(topicID)).Bytes()
	if err != nil {
		return domain.Topic{}, false
	}
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, false
	}
	// entries written by an older bank may no longer validate
	if err := topic.Validate(); err != nil {
		return domain.Topic{}, false
	}
	return topic, true
}

func (r *TopicRepository) topicKey(topicID string) string {
	return "quiz:topic:" + topicID
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
