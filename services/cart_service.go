// Package services holds the cart operations engine: the read-modify-write
// logic that turns stored cart bytes into responses, one method per HTTP
// operation. The engine is stateless; all persistence goes through the
// injected CartStore.
package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/acme-fitness/cartservice-go/cart"
	"github.com/acme-fitness/cartservice-go/cartstore"
)

// CartEntry pairs a user id with their decoded cart, for the all-carts dump.
type CartEntry struct {
	ID   string      `json:"id"`
	Cart []cart.Item `json:"cart"`
}

type CartService struct {
	store  cartstore.CartStore
	log    logrus.FieldLogger
	tracer trace.Tracer
}

func NewCartService(store cartstore.CartStore, log logrus.FieldLogger) *CartService {
	return &CartService{
		store:  store,
		log:    log,
		tracer: otel.Tracer("acme-fitness/cart"),
	}
}

// GetItems returns the cart for a user. The second return is false when no
// cart is stored for the user, which is distinct from an empty cart: a key
// holding an empty array reports true with a zero-length slice.
func (s *CartService) GetItems(ctx context.Context, userID string) ([]cart.Item, bool, error) {
	ctx, span := s.tracer.Start(ctx, "GET cart_items")
	defer span.End()

	exists, err := s.store.Exists(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		s.log.WithField("userid", userID).Info("no cart data for user")
		return nil, false, nil
	}
	data, _, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	items, err := cart.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// AddItem merges an item into the user's cart. If a record with the same
// itemid already exists, its quantity is increased by the added quantity
// (both strictly coerced to integers) and scanning stops at the first
// match. Otherwise the item is appended; with no cart stored at all, a new
// single-item cart is created.
func (s *CartService) AddItem(ctx context.Context, userID string, item cart.Item) error {
	ctx, span := s.tracer.Start(ctx, "POST add_item")
	defer span.End()

	s.log.WithFields(logrus.Fields{"userid": userID, "itemid": item.ItemID}).Info("adding item to cart")

	return s.store.Update(ctx, userID, func(current []byte, found bool) ([]byte, error) {
		if !found {
			return cart.Encode([]cart.Item{item})
		}
		items, err := cart.Decode(current)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].ItemID != item.ItemID {
				continue
			}
			have, err := cart.Int(items[i].Quantity)
			if err != nil {
				return nil, err
			}
			add, err := cart.Int(item.Quantity)
			if err != nil {
				return nil, err
			}
			items[i].Quantity = json.Number(strconv.Itoa(have + add))
			return cart.Encode(items)
		}
		return cart.Encode(append(items, item))
	})
}

// ReplaceCart overwrites the stored cart with the given items, creating the
// cart if none exists. The previous contents are not consulted.
func (s *CartService) ReplaceCart(ctx context.Context, userID string, items []cart.Item) error {
	ctx, span := s.tracer.Start(ctx, "POST replace_cart")
	defer span.End()

	s.log.WithFields(logrus.Fields{"userid": userID, "items": len(items)}).Info("replacing cart")

	data, err := cart.Encode(items)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, userID, data)
}

// ModifyItem updates or removes a single record. A numeric zero quantity
// removes the first record matching itemid; any other quantity overwrites
// that record's quantity verbatim. An itemid with no match is a silent
// no-op: the cart is unchanged and no error is returned. Only a missing
// cart is an error.
func (s *CartService) ModifyItem(ctx context.Context, userID, itemID string, quantity interface{}) error {
	ctx, span := s.tracer.Start(ctx, "POST modify_item")
	defer span.End()

	return s.store.Update(ctx, userID, func(current []byte, found bool) ([]byte, error) {
		if !found {
			s.log.WithField("userid", userID).Info("no cart found to modify")
			return nil, &cart.NoCartError{UserID: userID}
		}
		items, err := cart.Decode(current)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].ItemID != itemID {
				continue
			}
			if cart.IsZero(quantity) {
				s.log.WithFields(logrus.Fields{"userid": userID, "itemid": itemID}).Info("removing item from cart")
				items = append(items[:i], items[i+1:]...)
			} else {
				s.log.WithFields(logrus.Fields{"userid": userID, "itemid": itemID}).Info("modifying item quantity")
				items[i].Quantity = quantity
			}
			return cart.Encode(items)
		}
		// No matching record: leave the cart untouched and ack.
		return nil, nil
	})
}

// ClearCart deletes the user's cart key outright, returning the user to the
// no-cart state.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "POST clear_cart")
	defer span.End()

	s.log.WithField("userid", userID).Info("clearing cart")
	return s.store.Delete(ctx, userID)
}

// ItemCount sums the quantities in the user's cart. Quantities that do not
// parse as a number count as 0; a missing cart totals 0.
func (s *CartService) ItemCount(ctx context.Context, userID string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "GET items_total")
	defer span.End()

	items, err := s.readItems(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += cart.Float(it.Quantity)
	}
	return total, nil
}

// Total sums quantity times price across the cart. An item whose quantity
// or price does not parse as a number contributes 0.
func (s *CartService) Total(ctx context.Context, userID string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "GET cart_total")
	defer span.End()

	items, err := s.readItems(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += cart.Float(it.Quantity) * cart.Float(it.Price)
	}
	return total, nil
}

// ListAllCarts decodes every stored cart. Diagnostics only: no filtering,
// no pagination.
func (s *CartService) ListAllCarts(ctx context.Context) ([]CartEntry, error) {
	ctx, span := s.tracer.Start(ctx, "GET all_carts")
	defer span.End()

	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	carts := make([]CartEntry, 0, len(keys))
	for _, key := range keys {
		data, found, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !found {
			// Key removed between KEYS and GET.
			continue
		}
		items, err := cart.Decode(data)
		if err != nil {
			return nil, err
		}
		carts = append(carts, CartEntry{ID: key, Cart: items})
	}
	return carts, nil
}

// readItems fetches and decodes a cart, mapping the no-cart state to an
// empty slice for the total computations.
func (s *CartService) readItems(ctx context.Context, userID string) ([]cart.Item, error) {
	data, found, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return cart.Decode(data)
}
