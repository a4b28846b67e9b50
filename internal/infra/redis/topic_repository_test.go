package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"knowledge-quiz/internal/bank"
	"knowledge-quiz/internal/domain"
	"knowledge-quiz/internal/infra/memory"
)

func TestTopicRepositoryCachesInRedis(t *testing.T) {
	mr := runMiniredis(t)
	loader := &countingLoader{TopicLoader: memory.NewStaticTopicLoader(bank.Default())}
	repo := NewTopicRepository(newClient(mr), loader, time.Minute)

	topic, err := repo.GetTopic(context.Background(), "science")
	if err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:topic:science") {
		t.Fatalf("expected topic cached in redis")
	}
	if ttl := mr.TTL("quiz:topic:science"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with up to 10%% jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetTopic(context.Background(), "science")
	if err != nil {
		t.Fatalf("get cached topic: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[6].CorrectIndex != topic.Questions[6].CorrectIndex || len(cached.Questions) != 7 {
		t.Fatalf("cached topic differs from loaded one")
	}
}

func TestTopicRepositoryReloadsCorruptCache(t *testing.T) {
	mr := runMiniredis(t)
	_ = mr.Set("quiz:topic:movies", `{"id":"movies","questions":[]}`)
	loader := &countingLoader{TopicLoader: memory.NewStaticTopicLoader(bank.Default())}
	repo := NewTopicRepository(newClient(mr), loader, time.Minute)

	topic, err := repo.GetTopic(context.Background(), "movies")
	if err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if loader.calls != 1 || len(topic.Questions) != 7 {
		t.Fatalf("expected reload from loader, calls=%d", loader.calls)
	}
}

func TestTopicRepositoryUnknownTopic(t *testing.T) {
	mr := runMiniredis(t)
	repo := NewTopicRepository(newClient(mr), memory.NewStaticTopicLoader(bank.Default()), time.Minute)

	if _, err := repo.GetTopic(context.Background(), "history"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
	if mr.Exists("quiz:topic:history") {
		t.Fatalf("misses must not be cached")
	}
}

type countingLoader struct {
	TopicLoader
	calls int
}

func (l *countingLoader) LoadTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	l.calls++
	return l.TopicLoader.LoadTopic(ctx, topicID)
}
