package payment

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cast"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
	"github.com/xiaoxuxiansheng/gocheckout/server"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc: svc,
	}
}

func (h *Handler) Register(router *server.Router) {
	router.Route(http.MethodPost, "/prepare_pay/:tx/:user/:order/:amount", "prepare_pay", h.preparePay)
	router.Route(http.MethodPost, "/endTransaction/:tx/:status", "end_transaction", server.EndTransaction(h.svc.EndTransaction))
	router.Route(http.MethodPost, "/create_user", "create_user", h.createUser)
	router.Route(http.MethodGet, "/find_user/:user", "find_user", h.findUser)
	router.Route(http.MethodPost, "/add_funds/:user/:amount", "add_funds", h.addFunds)
	router.Route(http.MethodPost, "/pay/:user/:order/:amount", "pay", h.pay)
	router.Route(http.MethodPost, "/cancel/:user/:order", "cancel", h.cancel)
	router.Route(http.MethodPost, "/status/:user/:order", "status", h.status)
}

func (h *Handler) preparePay(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	amount, err := cast.ToFloat64E(ps.ByName("amount"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid amount: "+ps.ByName("amount"))
		return
	}

	ctx := log.WithFields(req.Context(), "txid", ps.ByName("tx"))
	if err := h.svc.PreparePay(ctx, ps.ByName("tx"), ps.ByName("user"), ps.ByName("order"), amount); err != nil {
		code, reason := payFailure(err)
		server.Text(w, code, reason)
		return
	}
	server.Text(w, http.StatusOK, "Ready")
}

func (h *Handler) createUser(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	userID, err := h.svc.CreateUser(req.Context())
	if err != nil {
		log.ErrorContextf(req.Context(), "create user failed, err: %v", err)
		server.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"user_id": userID})
}

func (h *Handler) findUser(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	user, err := h.svc.FindUser(req.Context(), ps.ByName("user"))
	switch {
	case err == nil:
		server.JSON(w, http.StatusOK, user)
	case errors.Is(err, protocol.ErrResourceBusy):
		server.Text(w, http.StatusBadRequest, "User resource is not available")
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusBadRequest, "No user was found")
	case errors.Is(err, protocol.ErrMultipleFound):
		server.Text(w, http.StatusBadRequest, "Multiple users were found while one is expected")
	default:
		server.Text(w, http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) addFunds(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	amount, err := cast.ToFloat64E(ps.ByName("amount"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid amount: "+ps.ByName("amount"))
		return
	}

	switch err := h.svc.AddFunds(req.Context(), ps.ByName("user"), amount); {
	case err == nil:
		server.JSON(w, http.StatusOK, map[string]interface{}{"done": true})
	case errors.Is(err, protocol.ErrResourceBusy):
		server.Text(w, http.StatusBadRequest, "User resource is not available")
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusBadRequest, "No user was found")
	default:
		server.Text(w, http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) pay(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	amount, err := cast.ToFloat64E(ps.ByName("amount"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid amount: "+ps.ByName("amount"))
		return
	}

	if err := h.svc.Pay(req.Context(), ps.ByName("user"), ps.ByName("order"), amount); err != nil {
		code, reason := payFailure(err)
		server.Text(w, code, reason)
		return
	}
	server.Text(w, http.StatusOK, "")
}

func (h *Handler) cancel(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	switch err := h.svc.Cancel(req.Context(), ps.ByName("user"), ps.ByName("order")); {
	case err == nil:
		server.Text(w, http.StatusOK, "")
	case errors.Is(err, protocol.ErrResourceBusy):
		server.Text(w, http.StatusBadRequest, "Resource is not available")
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusUnauthorized, "No user or payment was found")
	case errors.Is(err, protocol.ErrMultipleFound):
		server.Text(w, http.StatusPaymentRequired, "Multiple users or payments were found while one is expected")
	default:
		server.Text(w, http.StatusNotFound, err.Error())
	}
}

func (h *Handler) status(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	paid, err := h.svc.Status(req.Context(), ps.ByName("user"), ps.ByName("order"))
	switch {
	case err == nil:
		server.JSON(w, http.StatusOK, map[string]interface{}{"paid": paid})
	case errors.Is(err, protocol.ErrResourceBusy):
		server.Text(w, http.StatusBadRequest, "Resource is not available, payment in progress")
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusBadRequest, "No user was found")
	default:
		server.Text(w, http.StatusBadRequest, err.Error())
	}
}

// 扣款失败的状态码沿用既有约定：401 找不到，402 多条，403 余额不足，400 资源被占用，其余 404
func payFailure(err error) (int, string) {
	switch {
	case errors.Is(err, protocol.ErrResourceBusy):
		return http.StatusBadRequest, "User resource is not available"
	case errors.Is(err, protocol.ErrNotFound):
		return http.StatusUnauthorized, "No user or order was found"
	case errors.Is(err, protocol.ErrMultipleFound):
		return http.StatusPaymentRequired, "Multiple users or order were found while one is expected"
	case errors.Is(err, protocol.ErrInsufficientFunds):
		return http.StatusForbidden, "Not enough credits"
	default:
		return http.StatusNotFound, err.Error()
	}
}
