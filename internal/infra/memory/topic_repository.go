package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"knowledge-quiz/internal/domain"
)

// TopicLoader fetches topic content from a backing store (bank file, Postgres, ...).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
	ListTopics(ctx context.Context) ([]domain.TopicSummary, error)
}

// TopicRepository caches topics with TTL to avoid repeated loader hits.
type TopicRepository struct {
	loader TopicLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedTopic
}

type cachedTopic struct {
	topic     domain.Topic
	expiresAt time.Time
}

func NewTopicRepository(loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedTopic),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[topicID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.topic, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[topicID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.topic, nil
		}
		r.mu.RUnlock()

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}
		if err := topic.Validate(); err != nil {
			return domain.Topic{}, err
		}

		r.mu.Lock()
		r.cache[topicID] = cachedTopic{
			topic:     topic,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

// ListTopics is not cached; listings are cheap and must reflect bank edits.
func (r *TopicRepository) ListTopics(ctx context.Context) ([]domain.TopicSummary, error) {
	return r.loader.ListTopics(ctx)
}

// StaticTopicLoader serves a fixed bank in authored order (built-in bank, YAML file, tests).
type StaticTopicLoader struct {
	order  []string
	topics map[string]domain.Topic
}

func NewStaticTopicLoader(topics []domain.Topic) *StaticTopicLoader {
	l := &StaticTopicLoader{topics: make(map[string]domain.Topic, len(topics))}
	for _, t := range topics {
		if _, dup := l.topics[t.ID]; !dup {
			l.order = append(l.order, t.ID)
		}
		l.topics[t.ID] = t
	}
	return l
}

func (l *StaticTopicLoader) LoadTopic(_ context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := l.topics[topicID]; ok {
		return topic, nil
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

func (l *StaticTopicLoader) ListTopics(_ context.Context) ([]domain.TopicSummary, error) {
	out := make([]domain.TopicSummary, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.topics[id].Summary())
	}
	return out, nil
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
