package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/acme-fitness/cartservice-go/cart"
	"github.com/acme-fitness/cartservice-go/cartstore"
	"github.com/acme-fitness/cartservice-go/services"
)

type cartServer struct {
	svc   *services.CartService
	store cartstore.CartStore
	log   logrus.FieldLogger
}

// getCartItemsHandler returns the user's cart. A user with no stored cart
// gets an empty 204; net/http does not allow a payload on 204, so absence
// is signalled by the status alone.
func (s *cartServer) getCartItemsHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	items, found, err := s.svc.GetItems(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userid": userID, "cart": items})
}

func (s *cartServer) cartItemsTotalHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	total, err := s.svc.ItemCount(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userid": userID, "cartitemtotal": total})
}

func (s *cartServer) cartTotalHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	total, err := s.svc.Total(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userid": userID, "carttotal": total})
}

func (s *cartServer) allCartsHandler(w http.ResponseWriter, r *http.Request) {
	carts, err := s.svc.ListAllCarts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"all carts": carts})
}

func (s *cartServer) addItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	var item cart.Item
	if err := decodeBody(r, &item); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "invalid item payload"})
		return
	}
	if err := s.svc.AddItem(r.Context(), userID, item); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userid": userID})
}

func (s *cartServer) replaceCartHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	var body struct {
		Cart []cart.Item `json:"cart"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "invalid cart payload"})
		return
	}
	if err := s.svc.ReplaceCart(r.Context(), userID, body.Cart); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userid": userID})
}

func (s *cartServer) modifyItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	var body struct {
		ItemID   string      `json:"itemid"`
		Quantity interface{} `json:"quantity"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "invalid item payload"})
		return
	}
	if err := s.svc.ModifyItem(r.Context(), userID, body.ItemID, body.Quantity); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userid": userID})
}

func (s *cartServer) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userid"]
	if err := s.svc.ClearCart(r.Context(), userID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

// envHandler exposes backing-store diagnostics. Not gated by auth, like the
// liveness route.
func (s *cartServer) envHandler(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.Info(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"redis_info": info})
}

// homeHandler is the liveness probe: up means the store answers pings.
func (s *cartServer) homeHandler(w http.ResponseWriter, r *http.Request) {
	if !s.store.Ping(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"message": "cart store unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "cart service up"})
}

// writeError maps engine errors to the HTTP surface. A missing cart on
// modify answers 204; since a 204 carries no body, the descriptive message
// travels in the X-Cart-Message header instead. A bad merge quantity is
// 400, anything else (store or decode failures) 500.
func (s *cartServer) writeError(w http.ResponseWriter, err error) {
	var noCart *cart.NoCartError
	var badQty *cart.InvalidQuantityError
	switch {
	case errors.As(err, &noCart):
		w.Header().Set("X-Cart-Message", noCart.Error())
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &badQty):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": badQty.Error()})
	default:
		s.log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody parses a JSON request body preserving the number-vs-string
// distinction on quantity and price.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}
