package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cast"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

type Item struct {
	Stock int     `json:"stock"`
	Price float64 `json:"price"`
}

type StockClient struct {
	baseClient
}

func NewStockClient(baseURL string, timeout time.Duration) *StockClient {
	return &StockClient{
		baseClient: newBaseClient(baseURL, timeout),
	}
}

func (s *StockClient) PrepareSubtract(ctx context.Context, txID, itemID string, amount int) error {
	_, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/prepare_subtract/%s/%s/%s", txID, itemID, cast.ToString(amount)))
	return err
}

func (s *StockClient) EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error {
	return s.endTransaction(ctx, txID, decision)
}

func (s *StockClient) FindItem(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	if err := s.doJSON(ctx, http.MethodGet, "/find/"+itemID, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
