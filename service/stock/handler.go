package stock

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
	router.Route(http.MethodPost, "/prepare_subtract/:tx/:item/:amount", "prepare_subtract", h.prepareSubtract)
	router.Route(http.MethodPost, "/endTransaction/:tx/:status", "end_transaction", server.EndTransaction(h.svc.EndTransaction))
	router.Route(http.MethodPost, "/item/create/:price", "create_item", h.createItem)
	router.Route(http.MethodGet, "/find/:item", "find_item", h.findItem)
	router.Route(http.MethodPost, "/add/:item/:amount", "add_stock", h.addStock)
	router.Route(http.MethodPost, "/subtract/:item/:amount", "subtract", h.subtract)
}

func (h *Handler) prepareSubtract(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	amount, err := cast.ToIntE(ps.ByName("amount"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid amount: "+ps.ByName("amount"))
		return
	}

	ctx := log.WithFields(req.Context(), "txid", ps.ByName("tx"))
	if err := h.svc.PrepareSubtract(ctx, ps.ByName("tx"), ps.ByName("item"), amount); err != nil {
		server.Text(w, http.StatusBadRequest, stockFailure(err))
		return
	}
	server.Text(w, http.StatusOK, "Ready")
}

func (h *Handler) createItem(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	price, err := cast.ToFloat64E(ps.ByName("price"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid price: "+ps.ByName("price"))
		return
	}

	itemID, err := h.svc.CreateItem(req.Context(), price)
	if err != nil {
		log.ErrorContextf(req.Context(), "create item failed, err: %v", err)
		server.JSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"item_id": itemID})
}

func (h *Handler) findItem(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	item, err := h.svc.FindItem(req.Context(), ps.ByName("item"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, stockFailure(err))
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"stock": item.Stock, "price": item.Price})
}

func (h *Handler) addStock(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	amount, err := cast.ToIntE(ps.ByName("amount"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid amount: "+ps.ByName("amount"))
		return
	}

	if err := h.svc.AddStock(req.Context(), ps.ByName("item"), amount); err != nil {
		server.Text(w, http.StatusBadRequest, stockFailure(err))
		return
	}
	server.Text(w, http.StatusOK, "")
}

func (h *Handler) subtract(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
	amount, err := cast.ToIntE(ps.ByName("amount"))
	if err != nil {
		server.Text(w, http.StatusBadRequest, "Invalid amount: "+ps.ByName("amount"))
		return
	}

	if err := h.svc.Subtract(req.Context(), ps.ByName("item"), amount); err != nil {
		server.Text(w, http.StatusBadRequest, stockFailure(err))
		return
	}
	server.Text(w, http.StatusOK, "")
}

// 库存侧失败一律 400，只在原因文本上区分
func stockFailure(err error) string {
	switch {
	case errors.Is(err, protocol.ErrResourceBusy):
		return "Item is being used by another transaction"
	case errors.Is(err, protocol.ErrNotFound):
		return "No item was found"
	case errors.Is(err, protocol.ErrMultipleFound):
		return "Multiple items were found while one is expected"
	case errors.Is(err, protocol.ErrInsufficientStock):
		return "Stock cannot be negative"
	default:
		return err.Error()
	}
}
