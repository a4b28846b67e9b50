package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"knowledge-quiz/internal/domain"
)

// TopicLoader loads topic JSONB from Postgres.
type TopicLoader struct {
	pool *pgxpool.Pool
}

func NewTopicLoader(pool *pgxpool.Pool) *TopicLoader {
	return &TopicLoader{pool: pool}
}

func (l *TopicLoader) LoadTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM topics WHERE id=$1`, topicID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("load topic: %w", err)
	}
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, fmt.Errorf("unmarshal topic: %w", err)
	}
	return topic, nil
}

func (l *TopicLoader) ListTopics(ctx context.Context) ([]domain.TopicSummary, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, description, jsonb_array_length(data->'questions')
		FROM topics
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []domain.TopicSummary
	for rows.Next() {
		var s domain.TopicSummary
		if err := rows.Scan(&s.ID, &s.Description, &s.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return out, nil
}

// SeedTopics upserts a validated bank, keeping the given order for listings.
func SeedTopics(ctx context.Context, pool *pgxpool.Pool, topics []domain.Topic) error {
	return pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for i, t := range topics {
			if err := t.Validate(); err != nil {
				return err
			}
			raw, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("marshal topic %s: %w", t.ID, err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO topics (id, description, position, data)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET description = EXCLUDED.description, position = EXCLUDED.position, data = EXCLUDED.data`,
				t.ID, t.Description, i, raw)
			if err != nil {
				return fmt.Errorf("seed topic %s: %w", t.ID, err)
			}
		}
		return nil
	})
}
