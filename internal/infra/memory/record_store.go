package memory

import (
	"context"
	"sync"
)

// RecordStore keeps records in process memory. Nothing survives a restart.
type RecordStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string][]byte)}
}

func (s *RecordStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBytes(s.records[key]), nil
}

func (s *RecordStore) Update(_ context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(cloneBytes(s.records[key]))
	if err != nil {
		return err
	}
	s.records[key] = cloneBytes(next)
	return nil
}

func (s *RecordStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Put seeds a raw record, e.g. to simulate corrupt data in tests.
func (s *RecordStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = cloneBytes(value)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
