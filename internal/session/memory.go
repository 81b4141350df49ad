package session

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend はプロセス内のマップにセッションを保存します（開発・テスト用）。
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryBackend は MemoryBackend を作成します。
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

func (b *MemoryBackend) Save(_ context.Context, record *Record, _ time.Duration) error {
	if record == nil || record.Token == "" {
		return ErrInvalidRecord
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[record.Token] = *record
	return nil
}

func (b *MemoryBackend) Get(_ context.Context, token string) (*Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.records[token]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (b *MemoryBackend) Delete(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.records[token]; !ok {
		return false, nil
	}
	delete(b.records, token)
	return true, nil
}
