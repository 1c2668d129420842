package order

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/xiaoxuxiansheng/gocheckout"
	"github.com/xiaoxuxiansheng/gocheckout/client"
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
	router.Route(http.MethodPost, "/checkout/:order", "checkout", h.checkout)
	router.Route(http.MethodPost, "/create/:user", "create_order", h.createOrder)
	router.Route(http.MethodDelete, "/remove/:order", "remove_order", h.removeOrder)
	router.Route(http.MethodPost, "/addItem/:order/:item", "add_item", h.addItem)
	router.Route(http.MethodDelete, "/removeItem/:order/:item", "remove_item", h.removeItem)
	router.Route(http.MethodGet, "/find/:order", "find_order", h.findOrder)
}

func (h *Handler) checkout(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("order")
	err := h.svc.Checkout(req.Context(), orderID)
	if err == nil {
		server.Text(w, http.StatusOK, "success")
		return
	}

	log.WarnContextf(req.Context(), "checkout order %s failed, err: %v", orderID, err)
	var remoteErr *client.RemoteError
	switch {
	case errors.Is(err, protocol.ErrAlreadyCheckedOut):
		server.Text(w, http.StatusBadRequest, "transaction already checked out")
	case errors.Is(err, protocol.ErrCheckoutInProgress):
		server.Text(w, http.StatusBadRequest, "checkout already in progress")
	case errors.As(err, &remoteErr):
		server.Text(w, http.StatusBadRequest, remoteErr.Reason)
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusBadRequest, "No user_order was found")
	case errors.Is(err, gocheckout.ErrEmptyOrder):
		server.Text(w, http.StatusBadRequest, "Something went wrong!")
	default:
		server.Text(w, http.StatusBadRequest, "failure "+err.Error())
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	orderID, err := h.svc.CreateOrder(req.Context(), ps.ByName("user"))
	if err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"order_id": orderID})
}

func (h *Handler) removeOrder(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	if err := h.svc.RemoveOrder(req.Context(), ps.ByName("order")); err != nil {
		log.ErrorContextf(req.Context(), "remove order failed, err: %v", err)
		server.Text(w, http.StatusBadRequest, "Something went wrong")
		return
	}
	server.Text(w, http.StatusOK, "")
}

func (h *Handler) addItem(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	switch err := h.svc.AddItem(req.Context(), ps.ByName("order"), ps.ByName("item")); {
	case err == nil:
		server.Text(w, http.StatusOK, "")
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusBadRequest, "No user_order was found")
	case errors.Is(err, protocol.ErrMultipleFound):
		server.Text(w, http.StatusBadRequest, "Multiple user_orders were found while one is expected")
	default:
		server.Text(w, http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) removeItem(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	if err := h.svc.RemoveItem(req.Context(), ps.ByName("order"), ps.ByName("item")); err != nil {
		log.ErrorContextf(req.Context(), "remove item failed, err: %v", err)
		server.Text(w, http.StatusBadRequest, "Something went wrong!")
		return
	}
	server.Text(w, http.StatusOK, "")
}

func (h *Handler) findOrder(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	order, err := h.svc.FindOrder(req.Context(), ps.ByName("order"))
	var remoteErr *client.RemoteError
	switch {
	case err == nil:
		server.JSON(w, http.StatusOK, order)
	case errors.As(err, &remoteErr):
		server.Text(w, http.StatusBadRequest, remoteErr.Reason)
	case errors.Is(err, protocol.ErrNotFound):
		server.Text(w, http.StatusBadRequest, "No user_order was found")
	case errors.Is(err, protocol.ErrMultipleFound):
		server.Text(w, http.StatusBadRequest, "Multiple user_orders were found while one is expected")
	default:
		server.Text(w, http.StatusBadRequest, err.Error())
	}
}
