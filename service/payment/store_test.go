package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
	"github.com/xiaoxuxiansheng/gocheckout/service/payment/dao"
)

// 内存版 Store：会话内的修改在提交前对其他会话不可见
type memStore struct {
	mux      sync.Mutex
	credits  map[string]float64
	payments []dao.Payment
	nextID   uint
	beginErr error
}

func newMemStore() *memStore {
	return &memStore{credits: make(map[string]float64)}
}

func (m *memStore) Begin(ctx context.Context) (Session, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &memSession{store: m, deltas: make(map[string]float64)}, nil
}

func (m *memStore) CreateUser(ctx context.Context, user *dao.User) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.credits[user.UserID] = user.Credit
	return nil
}

func (m *memStore) credit(userID string) float64 {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.credits[userID]
}

func (m *memStore) paymentsOf(userID, orderID string) []dao.Payment {
	m.mux.Lock()
	defer m.mux.Unlock()
	var out []dao.Payment
	for _, p := range m.payments {
		if p.UserID == userID && p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

type memSession struct {
	store   *memStore
	deltas  map[string]float64
	created []dao.Payment
	deleted [][2]string
	closed  bool
}

func (s *memSession) Commit() error {
	if s.closed {
		return errors.New("session closed")
	}
	s.closed = true
	s.store.mux.Lock()
	defer s.store.mux.Unlock()
	for userID, delta := range s.deltas {
		s.store.credits[userID] += delta
	}
	for _, d := range s.deleted {
		kept := s.store.payments[:0]
		for _, p := range s.store.payments {
			if p.UserID != d[0] || p.OrderID != d[1] {
				kept = append(kept, p)
			}
		}
		s.store.payments = kept
	}
	for _, p := range s.created {
		s.store.nextID++
		p.PaymentID = s.store.nextID
		s.store.payments = append(s.store.payments, p)
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

func (s *memSession) FindUser(ctx context.Context, userID string) (*dao.User, error) {
	s.store.mux.Lock()
	defer s.store.mux.Unlock()
	credit, ok := s.store.credits[userID]
	if !ok {
		return nil, protocol.ErrNotFound
	}
	return &dao.User{UserID: userID, Credit: credit + s.deltas[userID]}, nil
}

func (s *memSession) AddCredit(ctx context.Context, userID string, delta float64) error {
	s.deltas[userID] += delta
	return nil
}

func (s *memSession) FindPayment(ctx context.Context, userID, orderID string) (*dao.Payment, error) {
	for i := range s.created {
		if s.created[i].UserID == userID && s.created[i].OrderID == orderID {
			return &s.created[i], nil
		}
	}
	for _, d := range s.deleted {
		if d[0] == userID && d[1] == orderID {
			return nil, nil
		}
	}
	payments := s.store.paymentsOf(userID, orderID)
	if len(payments) == 0 {
		return nil, nil
	}
	return &payments[0], nil
}

func (s *memSession) CreatePayment(ctx context.Context, payment *dao.Payment) error {
	s.created = append(s.created, *payment)
	return nil
}

func (s *memSession) DeletePayments(ctx context.Context, userID, orderID string) error {
	s.deleted = append(s.deleted, [2]string{userID, orderID})
	return nil
}
