package gocheckout

import (
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

// 一次 checkout 所处的阶段
type State string

const (
	StateStarted         State = "STARTED"
	StatePaymentPrepared State = "PAYMENT_PREPARED"
	StateStockPrepared   State = "STOCK_PREPARED"
	StateDecided         State = "DECIDED"
	StateFinalized       State = "FINALIZED"
	// prepare 阶段之前或支付 prepare 失败，无需终结任何参与者
	StateFailed State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

// Order 协调者视角下的订单
type Order struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Paid    bool   `json:"paid"`
	// 购物车中的商品，同一商品可以出现多次
	Items     []string `json:"items"`
	TotalCost float64  `json:"total_cost"`
}

type LineItem struct {
	ItemID   string
	Quantity int
}

// LineItems 按商品合并购物车，保持商品首次出现的顺序
func (o *Order) LineItems() []LineItem {
	index := make(map[string]int, len(o.Items))
	lineItems := make([]LineItem, 0, len(o.Items))
	for _, itemID := range o.Items {
		if i, ok := index[itemID]; ok {
			lineItems[i].Quantity++
			continue
		}
		index[itemID] = len(lineItems)
		lineItems = append(lineItems, LineItem{ItemID: itemID, Quantity: 1})
	}
	return lineItems
}

const (
	EventCommitted  = "checkout.committed"
	EventRolledBack = "checkout.rolled_back"
)

// CheckoutEvent 裁决落地后对外投递的事件
type CheckoutEvent struct {
	Type        string           `json:"type"`
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	Amount      float64          `json:"amount"`
	Outcome     protocol.Outcome `json:"outcome"`
	PaymentTxID string           `json:"payment_tx_id"`
	StockTxID   string           `json:"stock_tx_id"`
	Reason      string           `json:"reason,omitempty"`
	At          time.Time        `json:"at"`
}
