package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

// validateCart checks every requested line against the current menu, in
// request order, and captures the unit price of each dish. The checks run
// in a fixed order per line: existence, availability, any stock at all,
// enough stock. Quantities of repeated dishes are summed for the stock
// checks.
func validateCart(ctx context.Context, dishes repository.DishRepository, items []models.OrderItemRequest) ([]models.CartLine, int64, error) {
	if len(items) == 0 {
		return nil, 0, apperrors.ErrEmptyOrder
	}

	ids := make([]uuid.UUID, 0, len(items))
	requested := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, 0, apperrors.Validation("Quantity must be at least 1").With("dish_id", item.DishID.String())
		}
		if _, seen := requested[item.DishID]; !seen {
			ids = append(ids, item.DishID)
		}
		requested[item.DishID] += item.Quantity
	}

	current, err := dishes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to load dishes", err)
	}

	lines := make([]models.CartLine, 0, len(items))
	var total int64
	for _, item := range items {
		dish, ok := current[item.DishID]
		if err := checkDish(dish, ok, item.DishID, requested[item.DishID]); err != nil {
			return nil, 0, err
		}
		lines = append(lines, models.CartLine{
			DishID:              dish.ID,
			DishName:            dish.Name,
			Quantity:            item.Quantity,
			UnitPriceCents:      dish.PriceCents,
			SpecialInstructions: item.SpecialInstructions,
		})
		total += dish.PriceCents * int64(item.Quantity)
	}
	return lines, total, nil
}

func checkDish(dish models.Dish, found bool, id uuid.UUID, qty int) error {
	switch {
	case !found:
		return apperrors.ErrDishNotFound.With("dish_id", id.String())
	case !dish.IsAvailable:
		return apperrors.ErrDishUnavailable.
			WithMessage(fmt.Sprintf("'%s' is not available", dish.Name)).
			With("dish_id", id.String())
	case !dish.IsInStock():
		return outOfStock(dish.Name, id)
	case dish.StockQuantity < qty:
		return insufficientStock(dish.Name, id, dish.StockQuantity, qty)
	}
	return nil
}

func outOfStock(name string, id uuid.UUID) error {
	return apperrors.ErrOutOfStock.
		WithMessage(fmt.Sprintf("'%s' is out of stock", name)).
		With("dish_id", id.String()).
		With("available", 0)
}

func insufficientStock(name string, id uuid.UUID, available, requested int) error {
	return apperrors.ErrInsufficientStock.
		WithMessage(fmt.Sprintf("Insufficient stock for '%s'. Available: %d", name, available)).
		With("dish_id", id.String()).
		With("available", available).
		With("requested", requested)
}

// materialize turns validated cart lines into order items inside tx. Every
// dish is re-read and reserved through the stock ledger; items keep the
// captured unit price. It returns the dishes that ended at or below their
// low stock threshold.
func materialize(ctx context.Context, tx *repository.Store, order *models.Order, lines []models.CartLine) ([]models.Dish, error) {
	requested := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, seen := requested[line.DishID]; !seen {
			ids = append(ids, line.DishID)
		}
		requested[line.DishID] += line.Quantity
	}

	current, err := tx.Dishes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		dish, ok := current[id]
		switch {
		case !ok:
			return nil, apperrors.ErrDishNotFound.With("dish_id", id.String())
		case !dish.IsAvailable:
			return nil, apperrors.ErrDishUnavailable.
				WithMessage(fmt.Sprintf("'%s' is not available", dish.Name)).
				With("dish_id", id.String())
		}
	}

	// Rows are always locked in dish id order.
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	for _, id := range sorted {
		if err := tx.Stock.Reserve(ctx, id, requested[id]); err != nil {
			if !errors.Is(err, repository.ErrInsufficientStock) {
				return nil, err
			}
			available, readErr := tx.Stock.Available(ctx, id)
			if readErr != nil {
				return nil, readErr
			}
			if available == 0 {
				return nil, outOfStock(current[id].Name, id)
			}
			return nil, insufficientStock(current[id].Name, id, available, requested[id])
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		item := models.OrderItem{
			OrderID:             order.ID,
			DishID:              line.DishID,
			Quantity:            line.Quantity,
			PriceCents:          line.UnitPriceCents,
			SpecialInstructions: line.SpecialInstructions,
		}
		total += item.TotalPriceCents()
		items = append(items, item)
	}
	if err := tx.Orders.CreateItems(ctx, items); err != nil {
		return nil, err
	}
	if err := tx.Orders.SetTotal(ctx, order.ID, total); err != nil {
		return nil, err
	}
	order.TotalAmountCents = total
	order.Items = items

	var low []models.Dish
	for _, id := range ids {
		available, err := tx.Stock.Available(ctx, id)
		if err != nil {
			return nil, err
		}
		dish := current[id]
		dish.StockQuantity = available
		if dish.IsLowStock() {
			low = append(low, dish)
		}
	}
	return low, nil
}
