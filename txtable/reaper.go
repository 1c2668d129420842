package txtable

import (
	"fmt"
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/log"
)

func (t *Table[U]) backOffTick(tick time.Duration) time.Duration {
	tick <<= 1
	if threshold := t.opts.ReapTick << 3; tick > threshold {
		return threshold
	}
	return tick
}

// 轮询回收协调者迟迟不来终结的事务，避免资源被永久锁住
func (t *Table[U]) run() {
	var tick time.Duration
	var err error
	for {
		// 出现失败时按退避策略拉长间隔
		if err == nil {
			tick = t.opts.ReapTick
		} else {
			tick = t.backOffTick(tick)
		}
		select {
		case <-t.ctx.Done():
			return

		case <-time.After(tick):
			err = t.reap(time.Now())
			if err != nil {
				log.Warnf("reap expired transactions, err: %v", err)
			}
		}
	}
}

// 回滚租约已过期的事务，并清理超出保留期的终态
func (t *Table[U]) reap(now time.Time) error {
	deadline := now.Add(-t.opts.Lease)

	t.mux.Lock()
	var candidates []*record[U]
	for _, rec := range t.records {
		candidates = append(candidates, rec)
	}
	for txID, ts := range t.finished {
		if ts.at.Add(t.opts.Retention).Before(now) {
			delete(t.finished, txID)
		}
	}
	t.mux.Unlock()

	var firstErr error
	for _, rec := range candidates {
		// prepare 或终结正在进行中，说明事务仍然活跃
		if !rec.mux.TryLock() {
			continue
		}
		if rec.status != StatusOpen || !rec.touchedAt.Before(deadline) {
			rec.mux.Unlock()
			continue
		}

		err := rec.unit.Rollback()
		t.close(rec, StatusAborted, true)
		rec.mux.Unlock()

		if err != nil {
			log.Errorf("rollback expired transaction failed, txid: %s, err: %v", rec.txID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("rollback expired transaction %s: %w", rec.txID, err)
			}
			continue
		}
		log.Warnf("expired transaction rolled back, txid: %s, keys: %v, age: %v", rec.txID, rec.keyList(), now.Sub(rec.createdAt))
	}

	return firstErr
}
