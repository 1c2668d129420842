package stock

import (
	"context"
	"errors"
	"sync"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
	"github.com/xiaoxuxiansheng/gocheckout/service/stock/dao"
)

type memStore struct {
	mux   sync.Mutex
	items map[string]dao.Stock
}

func newMemStore(items ...dao.Stock) *memStore {
	m := memStore{items: make(map[string]dao.Stock)}
	for _, item := range items {
		m.items[item.ItemID] = item
	}
	return &m
}

func (m *memStore) Begin(ctx context.Context) (Session, error) {
	return &memSession{store: m, deltas: make(map[string]int)}, nil
}

func (m *memStore) CreateItem(ctx context.Context, item *dao.Stock) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.items[item.ItemID] = *item
	return nil
}

func (m *memStore) stock(itemID string) int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.items[itemID].Stock
}

type memSession struct {
	store  *memStore
	deltas map[string]int
	closed bool
}

func (s *memSession) Commit() error {
	if s.closed {
		return errors.New("session closed")
	}
	s.closed = true
	s.store.mux.Lock()
	defer s.store.mux.Unlock()
	for itemID, delta := range s.deltas {
		item := s.store.items[itemID]
		item.Stock += delta
		s.store.items[itemID] = item
	}
	return nil
}

func (s *memSession) Rollback() error {
	if s.closed {
		return errors.New("session closed")
	}
	s.closed = true
	return nil
}

func (s *memSession) FindItem(ctx context.Context, itemID string) (*dao.Stock, error) {
	s.store.mux.Lock()
	defer s.store.mux.Unlock()
	item, ok := s.store.items[itemID]
	if !ok {
		return nil, protocol.ErrNotFound
	}
	item.Stock += s.deltas[itemID]
	return &item, nil
}

func (s *memSession) AddStock(ctx context.Context, itemID string, delta int) error {
	s.deltas[itemID] += delta
	return nil
}
