package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"

	"github.com/xiaoxuxiansheng/gocheckout"
	"github.com/xiaoxuxiansheng/gocheckout/client"
	"github.com/xiaoxuxiansheng/gocheckout/idgen"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
	"github.com/xiaoxuxiansheng/gocheckout/server"
	"github.com/xiaoxuxiansheng/gocheckout/service/order/dao"
)

type memStore struct {
	mux    sync.Mutex
	orders map[string]*dao.Order
	carts  map[string][]string
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]*dao.Order), carts: make(map[string][]string)}
}

func (m *memStore) CreateOrder(_ context.Context, order *dao.Order) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.orders[order.OrderID] = order
	return nil
}

func (m *memStore) DeleteOrder(_ context.Context, orderID string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.orders, orderID)
	delete(m.carts, orderID)
	return nil
}

func (m *memStore) GetOrder(_ context.Context, orderID string) (*dao.Order, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, protocol.ErrNotFound
	}
	return order, nil
}

func (m *memStore) AddItem(_ context.Context, orderID, itemID string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.carts[orderID] = append(m.carts[orderID], itemID)
	return nil
}

func (m *memStore) RemoveItem(_ context.Context, orderID, itemID string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	kept := []string{}
	for _, id := range m.carts[orderID] {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	m.carts[orderID] = kept
	return nil
}

func (m *memStore) ListItems(_ context.Context, orderID string) ([]string, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	return append([]string(nil), m.carts[orderID]...), nil
}

// 以 http 形式模拟两个参与者，暂存的内容在 commit 时才生效
type participants struct {
	mux       sync.Mutex
	credit    map[string]float64
	paid      map[string]float64
	stock     map[string]int
	price     map[string]float64
	payStaged map[string][3]string
	subStaged map[string]map[string]int
}

func newParticipants() *participants {
	return &participants{
		credit:    make(map[string]float64),
		paid:      make(map[string]float64),
		stock:     make(map[string]int),
		price:     make(map[string]float64),
		payStaged: make(map[string][3]string),
		subStaged: make(map[string]map[string]int),
	}
}

func (p *participants) paymentServer() *httptest.Server {
	router := httprouter.New()
	router.POST("/status/:user/:order", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		p.mux.Lock()
		defer p.mux.Unlock()
		_, ok := p.paid[ps.ByName("order")]
		server.JSON(w, http.StatusOK, map[string]interface{}{"paid": ok})
	})
	router.POST("/prepare_pay/:tx/:user/:order/:amount", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		p.mux.Lock()
		defer p.mux.Unlock()
		if p.credit[ps.ByName("user")] < cast.ToFloat64(ps.ByName("amount")) {
			server.Text(w, http.StatusForbidden, "Not enough credits")
			return
		}
		p.payStaged[ps.ByName("tx")] = [3]string{ps.ByName("user"), ps.ByName("order"), ps.ByName("amount")}
		server.Text(w, http.StatusOK, "Ready")
	})
	router.POST("/endTransaction/:tx/:status", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		p.mux.Lock()
		defer p.mux.Unlock()
		staged, ok := p.payStaged[ps.ByName("tx")]
		if !ok {
			server.Text(w, http.StatusBadRequest, "failure")
			return
		}
		delete(p.payStaged, ps.ByName("tx"))
		if ps.ByName("status") == "commit" {
			amount := cast.ToFloat64(staged[2])
			p.credit[staged[0]] -= amount
			p.paid[staged[1]] = amount
		}
		server.Text(w, http.StatusOK, "Success")
	})
	return httptest.NewServer(router)
}

func (p *participants) stockServer() *httptest.Server {
	router := httprouter.New()
	router.GET("/find/:item", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		p.mux.Lock()
		defer p.mux.Unlock()
		server.JSON(w, http.StatusOK, map[string]interface{}{"stock": p.stock[ps.ByName("item")], "price": p.price[ps.ByName("item")]})
	})
	router.POST("/prepare_subtract/:tx/:item/:amount", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		p.mux.Lock()
		defer p.mux.Unlock()
		txID, itemID := ps.ByName("tx"), ps.ByName("item")
		if p.stock[itemID]-p.subStaged[txID][itemID] < cast.ToInt(ps.ByName("amount")) {
			server.Text(w, http.StatusBadRequest, "Stock cannot be negative")
			return
		}
		if p.subStaged[txID] == nil {
			p.subStaged[txID] = make(map[string]int)
		}
		p.subStaged[txID][itemID] += cast.ToInt(ps.ByName("amount"))
		server.Text(w, http.StatusOK, "Ready")
	})
	router.POST("/endTransaction/:tx/:status", func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		p.mux.Lock()
		defer p.mux.Unlock()
		staged, ok := p.subStaged[ps.ByName("tx")]
		if !ok {
			server.Text(w, http.StatusBadRequest, "failure")
			return
		}
		delete(p.subStaged, ps.ByName("tx"))
		if ps.ByName("status") == "commit" {
			for itemID, amount := range staged {
				p.stock[itemID] -= amount
			}
		}
		server.Text(w, http.StatusOK, "Success")
	})
	return httptest.NewServer(router)
}

func newTestRouter(t *testing.T, p *participants) (*server.Router, *memStore) {
	paymentSrv, stockSrv := p.paymentServer(), p.stockServer()
	t.Cleanup(paymentSrv.Close)
	t.Cleanup(stockSrv.Close)

	paymentClient := client.NewPaymentClient(paymentSrv.URL, time.Second)
	stockClient := client.NewStockClient(stockSrv.URL, time.Second)
	store := newMemStore()
	reader := NewReader(store, paymentClient, stockClient)
	coordinator := gocheckout.NewCoordinator(reader, paymentClient, stockClient,
		gocheckout.WithAllocator(idgen.NewCounter(0)), gocheckout.WithLocker(gocheckout.NewLocalLocker()))

	router := server.NewRouter()
	NewHandler(NewService(store, reader, coordinator)).Register(router)
	return router, store
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func Test_Checkout_EndToEnd(t *testing.T) {
	p := newParticipants()
	p.credit["u1"] = 100
	p.stock["i1"] = 5
	p.price["i1"] = 20
	router, store := newTestRouter(t, p)
	_ = store.CreateOrder(context.Background(), &dao.Order{OrderID: "o1", UserID: "u1"})

	rec := serve(router, http.MethodPost, "/addItem/o1/i1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/find/o1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"order_id":"o1","user_id":"u1","paid":false,"items":["i1"],"total_cost":20}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/checkout/o1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())
	assert.Equal(t, float64(80), p.credit["u1"])
	assert.Equal(t, 4, p.stock["i1"])
	assert.Equal(t, float64(20), p.paid["o1"])

	rec = serve(router, http.MethodPost, "/checkout/o1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "transaction already checked out", rec.Body.String())
	assert.Equal(t, float64(80), p.credit["u1"])
}

func Test_Checkout_PartialFailure(t *testing.T) {
	p := newParticipants()
	p.credit["u1"] = 100
	p.stock["i1"] = 0
	p.price["i1"] = 50
	router, store := newTestRouter(t, p)
	_ = store.CreateOrder(context.Background(), &dao.Order{OrderID: "o1", UserID: "u1"})
	_ = store.AddItem(context.Background(), "o1", "i1")

	rec := serve(router, http.MethodPost, "/checkout/o1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Stock cannot be negative", rec.Body.String())
	assert.Equal(t, float64(100), p.credit["u1"])
	assert.Equal(t, 0, p.stock["i1"])
	assert.Empty(t, p.payStaged)
	assert.Empty(t, p.subStaged)
}

func Test_Checkout_InsufficientFunds(t *testing.T) {
	p := newParticipants()
	p.credit["u1"] = 10
	p.stock["i1"] = 5
	p.price["i1"] = 20
	router, store := newTestRouter(t, p)
	_ = store.CreateOrder(context.Background(), &dao.Order{OrderID: "o1", UserID: "u1"})
	_ = store.AddItem(context.Background(), "o1", "i1")

	rec := serve(router, http.MethodPost, "/checkout/o1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough credits", rec.Body.String())
	assert.Equal(t, 5, p.stock["i1"])
}

func Test_Handler_CRUD(t *testing.T) {
	router, store := newTestRouter(t, newParticipants())

	rec := serve(router, http.MethodPost, "/create/u1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPost, "/addItem/missing/i1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No user_order was found", rec.Body.String())

	_ = store.CreateOrder(context.Background(), &dao.Order{OrderID: "o1", UserID: "u1"})
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/addItem/o1/i1").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodDelete, "/removeItem/o1/i1").Code)
	items, _ := store.ListItems(context.Background(), "o1")
	assert.Empty(t, items)

	rec = serve(router, http.MethodPost, "/checkout/o1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodDelete, "/remove/o1").Code)
	rec = serve(router, http.MethodGet, "/find/o1")
	assert.Equal(t, "No user_order was found", rec.Body.String())
}
