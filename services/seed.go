package services

import (
	"context"
	"encoding/json"

	"github.com/acme-fitness/cartservice-go/cart"
)

var seedUsers = []string{"bill", "dan", "shri"}

var seedItems = []cart.Item{
	{
		ItemID:      "sdfsdfsfs",
		Name:        "fitband",
		Description: "fitband for any age - even babies",
		Quantity:    json.Number("1"),
		Price:       json.Number("4.5"),
	},
	{
		ItemID:      "sfsdsda3343",
		Name:        "redpant",
		Description: "the most awesome redpants in the world",
		Quantity:    json.Number("1"),
		Price:       json.Number("400"),
	},
}

// Seed drops every stored cart and loads the demo carts. Demo deployments
// only; it is gated behind configuration in main.
func (s *CartService) Seed(ctx context.Context) error {
	s.log.Info("seeding demo cart data")

	if err := s.store.FlushAll(ctx); err != nil {
		return err
	}
	payload, err := cart.Encode(seedItems)
	if err != nil {
		return err
	}
	for _, user := range seedUsers {
		if err := s.store.Set(ctx, user, payload); err != nil {
			return err
		}
	}
	return nil
}
