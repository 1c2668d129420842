package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

// EndTransaction 两个参与者共用的 /endTransaction/:tx/:status 处理逻辑.
// 指令非法时在查找事务之前直接拒绝
func EndTransaction(end func(ctx context.Context, txID string, decision protocol.Decision) error) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		txID, status := ps.ByName("tx"), ps.ByName("status")
		decision, err := protocol.ParseDecision(status)
		if err != nil {
			Text(w, http.StatusBadRequest, "Unknown status: "+status)
			return
		}

		ctx := log.WithFields(req.Context(), "txid", txID)
		if err := end(ctx, txID, decision); err != nil {
			if errors.Is(err, protocol.ErrDecisionConflict) {
				log.WarnContextf(ctx, "conflicting decision %s, err: %v", decision, err)
			} else {
				log.WarnContextf(ctx, "end transaction failed, decision: %s, err: %v", decision, err)
			}
			Text(w, http.StatusBadRequest, "failure")
			return
		}
		Text(w, http.StatusOK, "Success")
	}
}
