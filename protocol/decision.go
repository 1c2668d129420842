package protocol

import "fmt"

// 参与者收到的终结指令
type Decision string

const (
	DecisionCommit   Decision = "commit"
	DecisionRollback Decision = "rollback"
)

func (d Decision) String() string {
	return string(d)
}

func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionCommit, DecisionRollback:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
}

// 协调者针对一次 checkout 给出的裁决，只存活于本次调用，不落库
type Outcome string

const (
	OutcomeCommit   Outcome = "COMMIT"
	OutcomeRollback Outcome = "ROLLBACK"
)

func (o Outcome) String() string {
	return string(o)
}

// 裁决转换为下发给参与者的终结指令
func (o Outcome) Decision() Decision {
	if o == OutcomeCommit {
		return DecisionCommit
	}
	return DecisionRollback
}
