package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/xiaoxuxiansheng/gocheckout"
	"github.com/xiaoxuxiansheng/gocheckout/service/order/dao"
)

type Checkouter interface {
	Checkout(ctx context.Context, orderID string) error
}

type Service struct {
	store       Store
	reader      gocheckout.OrderReader
	coordinator Checkouter
}

func NewService(store Store, reader gocheckout.OrderReader, coordinator Checkouter) *Service {
	return &Service{
		store:       store,
		reader:      reader,
		coordinator: coordinator,
	}
}

func (s *Service) CreateOrder(ctx context.Context, userID string) (string, error) {
	order := dao.Order{OrderID: uuid.NewString(), UserID: userID}
	if err := s.store.CreateOrder(ctx, &order); err != nil {
		return "", err
	}
	return order.OrderID, nil
}

func (s *Service) RemoveOrder(ctx context.Context, orderID string) error {
	return s.store.DeleteOrder(ctx, orderID)
}

func (s *Service) AddItem(ctx context.Context, orderID, itemID string) error {
	if _, err := s.store.GetOrder(ctx, orderID); err != nil {
		return err
	}
	return s.store.AddItem(ctx, orderID, itemID)
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID string) error {
	return s.store.RemoveItem(ctx, orderID, itemID)
}

func (s *Service) FindOrder(ctx context.Context, orderID string) (*gocheckout.Order, error) {
	return s.reader.FindOrder(ctx, orderID)
}

func (s *Service) Checkout(ctx context.Context, orderID string) error {
	return s.coordinator.Checkout(ctx, orderID)
}
