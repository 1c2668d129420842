package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cast"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

type PaymentClient struct {
	baseClient
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{
		baseClient: newBaseClient(baseURL, timeout),
	}
}

func (p *PaymentClient) PreparePay(ctx context.Context, txID, userID, orderID string, amount float64) error {
	_, err := p.do(ctx, http.MethodPost, fmt.Sprintf("/prepare_pay/%s/%s/%s/%s", txID, userID, orderID, cast.ToString(amount)))
	return err
}

func (p *PaymentClient) EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error {
	return p.endTransaction(ctx, txID, decision)
}

// Status 订单是否已支付
func (p *PaymentClient) Status(ctx context.Context, userID, orderID string) (bool, error) {
	var reply struct {
		Paid bool `json:"paid"`
	}
	if err := p.doJSON(ctx, http.MethodPost, fmt.Sprintf("/status/%s/%s", userID, orderID), &reply); err != nil {
		return false, err
	}
	return reply.Paid, nil
}
