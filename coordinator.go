package gocheckout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

var ErrEmptyOrder = errors.New("order has no items")

// Coordinator 驱动 prepare / 裁决 / 终结 两阶段流程.
// 不落事务日志，协调者在流程中途崩溃时由参与者的租约回收兜底
type Coordinator struct {
	opts    *Options
	orders  OrderReader
	payment PaymentParticipant
	stock   StockParticipant
}

func NewCoordinator(orders OrderReader, payment PaymentParticipant, stock StockParticipant, opts ...Option) *Coordinator {
	c := Coordinator{
		opts:    &Options{},
		orders:  orders,
		payment: payment,
		stock:   stock,
	}

	for _, opt := range opts {
		opt(c.opts)
	}

	repair(c.opts)
	return &c
}

// Checkout 对订单执行一次 checkout，成功返回 nil.
// 参与者拒绝时返回的错误可通过 errors.As 取出 *client.RemoteError 一类的原因
func (c *Coordinator) Checkout(ctx context.Context, orderID string) (err error) {
	start := time.Now()
	ctx = log.WithFields(ctx, "order", orderID)
	defer func() {
		if c.opts.Metrics != nil {
			c.opts.Metrics.Observe(resultOf(err), float64(time.Since(start).Milliseconds()))
		}
	}()

	if c.opts.Locker != nil {
		unlock, lerr := c.opts.Locker.Lock(ctx, orderID)
		if lerr != nil {
			log.WarnContextf(ctx, "checkout guard not acquired, err: %v", lerr)
			return fmt.Errorf("%w: order %s", protocol.ErrCheckoutInProgress, orderID)
		}
		defer func() {
			if _err := unlock(context.WithoutCancel(ctx)); _err != nil {
				log.WarnContextf(ctx, "release checkout guard failed, err: %v", _err)
			}
		}()
	}

	return newCheckout(c, orderID).run(ctx)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, protocol.ErrAlreadyCheckedOut):
		return "already_checked_out"
	case errors.Is(err, protocol.ErrCheckoutInProgress):
		return "in_progress"
	default:
		return "failed"
	}
}

// checkout 一次 checkout 尝试的状态机，只存活于本次调用
type checkout struct {
	c       *Coordinator
	orderID string
	state   State
	order   *Order

	paymentTxID string
	stockTxID   string
	// 参与者侧是否存在需要终结的暂存
	paymentStaged bool
	stockStaged   bool

	outcome protocol.Outcome
	cause   error
}

func newCheckout(c *Coordinator, orderID string) *checkout {
	return &checkout{
		c:       c,
		orderID: orderID,
		state:   StateStarted,
	}
}

func (co *checkout) transit(ctx context.Context, state State) {
	log.DebugContextf(ctx, "checkout %s -> %s", co.state, state)
	co.state = state
}

func (co *checkout) run(ctx context.Context) error {
	// 1 读订单，已支付的订单不分配事务 id，也不联系任何参与者
	order, err := co.c.orders.FindOrder(ctx, co.orderID)
	if err != nil {
		co.transit(ctx, StateFailed)
		return err
	}
	if order.Paid {
		co.transit(ctx, StateFailed)
		return fmt.Errorf("%w: order %s", protocol.ErrAlreadyCheckedOut, co.orderID)
	}
	if len(order.Items) == 0 {
		co.transit(ctx, StateFailed)
		return fmt.Errorf("%w: order %s", ErrEmptyOrder, co.orderID)
	}
	co.order = order

	// 2 两个参与者各自使用独立的事务 id
	co.paymentTxID = co.c.opts.Allocator.Next()
	co.stockTxID = co.c.opts.Allocator.Next()
	ctx = log.WithFields(ctx, "payment_txid", co.paymentTxID, "stock_txid", co.stockTxID)

	// 3 支付 prepare 失败时什么都没有暂存，直接失败
	if err := co.preparePayment(ctx); err != nil {
		co.transit(ctx, StateFailed)
		return err
	}
	co.transit(ctx, StatePaymentPrepared)

	// 4 逐个商品 prepare，遇到失败即停止
	if err := co.prepareStock(ctx); err != nil {
		co.cause = err
	} else {
		co.transit(ctx, StateStockPrepared)
	}

	// 5 裁决
	co.decide(ctx)

	// 6 终结
	if err := co.finalize(ctx); err != nil && co.cause == nil {
		co.cause = err
	}
	co.transit(ctx, StateFinalized)

	co.publish(ctx)
	return co.cause
}

func (co *checkout) preparePayment(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, co.c.opts.CallTimeout)
	defer cancel()
	if err := co.c.payment.PreparePay(cctx, co.paymentTxID, co.order.UserID, co.orderID, co.order.TotalCost); err != nil {
		log.WarnContextf(ctx, "prepare payment failed, err: %v", err)
		return fmt.Errorf("prepare payment: %w", err)
	}
	co.paymentStaged = true
	return nil
}

func (co *checkout) prepareStock(ctx context.Context) error {
	for _, lineItem := range co.order.LineItems() {
		cctx, cancel := context.WithTimeout(ctx, co.c.opts.CallTimeout)
		err := co.c.stock.PrepareSubtract(cctx, co.stockTxID, lineItem.ItemID, lineItem.Quantity)
		cancel()
		if err != nil {
			log.WarnContextf(ctx, "prepare stock failed, item: %s, quantity: %d, err: %v", lineItem.ItemID, lineItem.Quantity, err)
			return fmt.Errorf("prepare stock of item %s: %w", lineItem.ItemID, err)
		}
		co.stockStaged = true
	}
	return nil
}

func (co *checkout) decide(ctx context.Context) {
	co.outcome = protocol.OutcomeRollback
	if co.paymentStaged && co.state == StateStockPrepared {
		co.outcome = protocol.OutcomeCommit
	}
	co.transit(ctx, StateDecided)
	log.InfoContextf(ctx, "checkout decided %s", co.outcome)
}

// 提交时先支付后库存；支付提交失败则改为回滚库存，不让库存单边生效
func (co *checkout) finalize(ctx context.Context) error {
	if co.outcome == protocol.OutcomeCommit {
		if err := co.end(ctx, co.c.payment, co.paymentTxID, protocol.DecisionCommit); err != nil {
			co.outcome = protocol.OutcomeRollback
			if co.stockStaged {
				_ = co.end(ctx, co.c.stock, co.stockTxID, protocol.DecisionRollback)
			}
			return fmt.Errorf("commit payment: %w", err)
		}
		if !co.stockStaged {
			return nil
		}
		if err := co.end(ctx, co.c.stock, co.stockTxID, protocol.DecisionCommit); err != nil {
			return fmt.Errorf("commit stock: %w", err)
		}
		return nil
	}

	var firstErr error
	if co.paymentStaged {
		if err := co.end(ctx, co.c.payment, co.paymentTxID, protocol.DecisionRollback); err != nil {
			firstErr = fmt.Errorf("rollback payment: %w", err)
		}
	}
	if co.stockStaged {
		if err := co.end(ctx, co.c.stock, co.stockTxID, protocol.DecisionRollback); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("rollback stock: %w", err)
		}
	}
	return firstErr
}

type finalizer interface {
	EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error
}

func (co *checkout) end(ctx context.Context, participant finalizer, txID string, decision protocol.Decision) error {
	cctx, cancel := context.WithTimeout(ctx, co.c.opts.CallTimeout)
	defer cancel()
	if err := participant.EndTransaction(cctx, txID, decision); err != nil {
		log.ErrorContextf(ctx, "end transaction %s with %s failed, err: %v", txID, decision, err)
		return err
	}
	return nil
}

// 事件投递失败只记日志，不影响 checkout 结果
func (co *checkout) publish(ctx context.Context) {
	event := CheckoutEvent{
		Type:        EventCommitted,
		OrderID:     co.orderID,
		UserID:      co.order.UserID,
		Amount:      co.order.TotalCost,
		Outcome:     co.outcome,
		PaymentTxID: co.paymentTxID,
		StockTxID:   co.stockTxID,
		At:          time.Now().UTC(),
	}
	if co.outcome == protocol.OutcomeRollback {
		event.Type = EventRolledBack
	}
	if co.cause != nil {
		event.Reason = co.cause.Error()
	}

	cctx, cancel := context.WithTimeout(ctx, co.c.opts.CallTimeout)
	defer cancel()
	if err := co.c.opts.Publisher.Publish(cctx, co.orderID, &event); err != nil {
		log.WarnContextf(ctx, "publish %s failed, err: %v", event.Type, err)
	}
}
