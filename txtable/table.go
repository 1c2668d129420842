package txtable

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

// 开启工作单元
type BeginFunc[U UnitOfWork] func(ctx context.Context) (U, error)

// 在工作单元内暂存变更，返回错误时视为本次 prepare 失败
type StageFunc[U UnitOfWork] func(ctx context.Context, unit U) error

// Table 参与者侧的事务表：事务 id -> 未提交的工作单元 + 其锁定的资源 key.
//
// 同一个资源 key 在任意时刻至多被一笔 OPEN 事务持有。检查与占有在同一临界区内完成。
// 锁顺序：table.mux 内只允许对新建的 record 加锁，其余场景先拿 record.mux 再拿 table.mux。
type Table[U UnitOfWork] struct {
	ctx  context.Context
	stop context.CancelFunc
	opts *Options

	mux      sync.Mutex
	records  map[string]*record[U]
	owners   map[string]string
	finished map[string]tombstone
}

func NewTable[U UnitOfWork](opts ...Option) *Table[U] {
	ctx, cancel := context.WithCancel(context.Background())
	t := Table[U]{
		ctx:      ctx,
		stop:     cancel,
		opts:     &Options{},
		records:  make(map[string]*record[U]),
		owners:   make(map[string]string),
		finished: make(map[string]tombstone),
	}

	for _, opt := range opts {
		opt(t.opts)
	}

	repair(t.opts)

	go t.run()
	return &t
}

// Stop 停止回收任务，并回滚所有仍处于 OPEN 状态的事务
func (t *Table[U]) Stop() {
	t.stop()

	t.mux.Lock()
	recs := make([]*record[U], 0, len(t.records))
	for _, rec := range t.records {
		recs = append(recs, rec)
	}
	t.mux.Unlock()

	for _, rec := range recs {
		rec.mux.Lock()
		if rec.status == StatusOpen {
			if err := rec.unit.Rollback(); err != nil {
				log.Errorf("rollback on stop failed, txid: %s, err: %v", rec.txID, err)
			}
			t.close(rec, StatusAborted, true)
		}
		rec.mux.Unlock()
	}
}

// IsAvailable 只要有一个 key 被 OPEN 事务持有即返回 false
func (t *Table[U]) IsAvailable(keys ...string) bool {
	t.mux.Lock()
	defer t.mux.Unlock()
	for _, key := range keys {
		if _, ok := t.owners[key]; ok {
			return false
		}
	}
	return true
}

// Prepare 单次暂存：txID 必须是新的，keys 一并占有，stage 成功后记录保持 OPEN 直到终结
func (t *Table[U]) Prepare(ctx context.Context, txID string, keys []string, begin BeginFunc[U], stage StageFunc[U]) error {
	t.mux.Lock()
	if _, ok := t.records[txID]; ok {
		t.mux.Unlock()
		return fmt.Errorf("%w: transaction %s already prepared", protocol.ErrResourceBusy, txID)
	}
	if _, ok := t.finished[txID]; ok {
		t.mux.Unlock()
		return fmt.Errorf("%w: transaction %s already finalized", protocol.ErrResourceBusy, txID)
	}
	for _, key := range keys {
		if owner, ok := t.owners[key]; ok {
			t.mux.Unlock()
			return fmt.Errorf("%w: %s locked by transaction %s", protocol.ErrResourceBusy, key, owner)
		}
	}
	rec := t.newRecord(txID)
	for _, key := range keys {
		t.claim(rec, key)
	}
	rec.mux.Lock()
	t.mux.Unlock()
	defer rec.mux.Unlock()

	unit, err := begin(ctx)
	if err != nil {
		t.discard(rec)
		return err
	}
	rec.unit = unit

	if err := stage(ctx, unit); err != nil {
		if _err := unit.Rollback(); _err != nil {
			log.ErrorContextf(ctx, "rollback failed prepare, txid: %s, err: %v", txID, _err)
		}
		t.discard(rec)
		return err
	}

	rec.touchedAt = time.Now()
	t.opts.Observer.Opened(txID)
	return nil
}

// Join 累积暂存：同一 txID 的多次调用共用一个工作单元，每次额外占有一个 key.
// 某次失败只释放该次新占有的 key，之前已暂存的内容保留，等待显式回滚
func (t *Table[U]) Join(ctx context.Context, txID string, key string, begin BeginFunc[U], stage StageFunc[U]) error {
	t.mux.Lock()
	owner, held := t.owners[key]
	if held && owner != txID {
		t.mux.Unlock()
		return fmt.Errorf("%w: %s locked by transaction %s", protocol.ErrResourceBusy, key, owner)
	}

	rec, existed := t.records[txID]
	if !existed {
		if _, ok := t.finished[txID]; ok {
			t.mux.Unlock()
			return fmt.Errorf("%w: transaction %s already finalized", protocol.ErrResourceBusy, txID)
		}
		rec = t.newRecord(txID)
		t.claim(rec, key)
		rec.mux.Lock()
		t.mux.Unlock()
		defer rec.mux.Unlock()

		unit, err := begin(ctx)
		if err != nil {
			t.discard(rec)
			return err
		}
		rec.unit = unit

		if err := stage(ctx, unit); err != nil {
			if _err := unit.Rollback(); _err != nil {
				log.ErrorContextf(ctx, "rollback failed prepare, txid: %s, err: %v", txID, _err)
			}
			t.discard(rec)
			return err
		}
		rec.touchedAt = time.Now()
		t.opts.Observer.Opened(txID)
		return nil
	}

	if !held {
		t.claim(rec, key)
	}
	t.mux.Unlock()

	rec.mux.Lock()
	defer rec.mux.Unlock()
	// 等锁期间事务已被终结或回收，它的 key（包括刚占有的）已一并释放
	if rec.status != StatusOpen {
		return fmt.Errorf("%w: transaction %s is %s", protocol.ErrUnknownTransaction, txID, rec.status)
	}

	if err := stage(ctx, rec.unit); err != nil {
		if !held {
			t.release(rec, key)
		}
		return err
	}
	rec.touchedAt = time.Now()
	return nil
}

// End 终结事务：提交或回滚工作单元，移除记录并释放其持有的全部 key
func (t *Table[U]) End(ctx context.Context, txID string, decision protocol.Decision) error {
	target := StatusAborted
	if decision == protocol.DecisionCommit {
		target = StatusCommitted
	}

	t.mux.Lock()
	rec, ok := t.records[txID]
	if !ok {
		err := t.resolveFinished(txID, target)
		t.mux.Unlock()
		return err
	}
	t.mux.Unlock()

	rec.mux.Lock()
	defer rec.mux.Unlock()
	if rec.status != StatusOpen {
		t.mux.Lock()
		defer t.mux.Unlock()
		return t.resolveFinished(txID, target)
	}

	var err error
	if decision == protocol.DecisionCommit {
		err = rec.unit.Commit()
	} else {
		err = rec.unit.Rollback()
	}

	// 提交失败时数据库侧事务同样已关闭，终态按回滚记
	status := target
	if err != nil {
		status = StatusAborted
		log.ErrorContextf(ctx, "end transaction failed, txid: %s, decision: %s, err: %v", txID, decision, err)
	}
	t.close(rec, status, false)
	if err != nil {
		return fmt.Errorf("%s transaction %s: %w", decision, txID, err)
	}
	return nil
}

// 调用方需持有 t.mux
func (t *Table[U]) resolveFinished(txID string, target Status) error {
	ts, ok := t.finished[txID]
	if !ok || t.opts.Retention <= 0 {
		return fmt.Errorf("%w: %s", protocol.ErrUnknownTransaction, txID)
	}
	if ts.status != target {
		return fmt.Errorf("%w: transaction %s already %s", protocol.ErrDecisionConflict, txID, ts.status)
	}
	return nil
}

// Keys 返回事务当前持有的资源 key
func (t *Table[U]) Keys(txID string) []string {
	t.mux.Lock()
	defer t.mux.Unlock()
	rec, ok := t.records[txID]
	if !ok {
		return nil
	}
	return rec.keyList()
}

// Len 返回 OPEN 事务数量
func (t *Table[U]) Len() int {
	t.mux.Lock()
	defer t.mux.Unlock()
	return len(t.records)
}

// 调用方需持有 t.mux
func (t *Table[U]) newRecord(txID string) *record[U] {
	now := time.Now()
	rec := &record[U]{
		txID:      txID,
		keys:      make(map[string]struct{}),
		status:    StatusOpen,
		createdAt: now,
		touchedAt: now,
	}
	t.records[txID] = rec
	return rec
}

// 调用方需持有 t.mux
func (t *Table[U]) claim(rec *record[U], key string) {
	t.owners[key] = rec.txID
	rec.keys[key] = struct{}{}
}

func (t *Table[U]) release(rec *record[U], key string) {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.owners[key] == rec.txID {
		delete(t.owners, key)
	}
	delete(rec.keys, key)
}

// 丢弃一条什么都没暂存的记录，不留终态
func (t *Table[U]) discard(rec *record[U]) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.remove(rec)
	rec.status = StatusAborted
}

// 调用方需持有 rec.mux
func (t *Table[U]) close(rec *record[U], status Status, reaped bool) {
	t.mux.Lock()
	t.remove(rec)
	if t.opts.Retention > 0 {
		t.finished[rec.txID] = tombstone{status: status, at: time.Now()}
	}
	t.mux.Unlock()

	rec.status = status
	t.opts.Observer.Closed(rec.txID, status, reaped)
}

// 调用方需持有 t.mux
func (t *Table[U]) remove(rec *record[U]) {
	if t.records[rec.txID] == rec {
		delete(t.records, rec.txID)
	}
	for key := range rec.keys {
		if t.owners[key] == rec.txID {
			delete(t.owners, key)
		}
	}
}
