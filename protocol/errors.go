package protocol

import "errors"

var (
	// 资源已被另一笔进行中的事务锁定
	ErrResourceBusy = errors.New("resource busy")
	ErrNotFound     = errors.New("not found")
	// 期望一条却查到多条，属于数据不变式被破坏
	ErrMultipleFound     = errors.New("multiple found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCheckedOut = errors.New("already checked out")
	// 参与者侧找不到对应事务 id 的记录
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrInvalidStatus      = errors.New("invalid status")
	// 同一事务 id 先后收到相互矛盾的终结指令
	ErrDecisionConflict   = errors.New("decision conflict")
	ErrCheckoutInProgress = errors.New("checkout in progress")
	ErrRemoteCall         = errors.New("remote call failure")
)
