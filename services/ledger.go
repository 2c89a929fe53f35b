package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"inventory-service/database"
	"inventory-service/models"
	"inventory-service/repository"

	"github.com/samber/lo"
)

// StockChange describes one applied debit or credit.
type StockChange struct {
	ProductID   int64
	ProductName string
	Delta       int
	Before      int
	After       int
}

// Ledger owns product quantity. All methods run on the caller's transaction; a
// quantity is only ever changed in the same transaction that checked it.
type Ledger struct {
	products repository.Products
}

func NewLedger(store *repository.Store) *Ledger {
	return &Ledger{products: store.Products}
}

// Lock takes row locks on every product in productIDs, in ascending id order,
// and returns them keyed by id. Any id missing from the account is an error.
func (l *Ledger) Lock(ctx context.Context, q database.Querier, accountID int64, productIDs []int64) (map[int64]models.Product, error) {
	ids := lo.Uniq(productIDs)
	slices.Sort(ids)

	products, err := l.products.LockByIDs(ctx, q, accountID, ids)
	if err != nil {
		return nil, storage("lock products", err)
	}
	byID := lo.KeyBy(products, func(p models.Product) int64 { return p.ID })
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
		}
	}
	return byID, nil
}

// CheckAvailable fails with *InsufficientStockError when qty exceeds the
// quantity currently committed for the product. It never mutates.
func (l *Ledger) CheckAvailable(ctx context.Context, q database.Querier, accountID, productID int64, qty int) (*models.Product, error) {
	p, err := l.current(ctx, q, accountID, productID)
	if err != nil {
		return nil, err
	}
	if qty > p.Quantity {
		return nil, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: qty}
	}
	return p, nil
}

// Debit removes qty from the product. The decrement is conditional on enough
// stock, so quantity cannot go negative even without a preceding check.
func (l *Ledger) Debit(ctx context.Context, q database.Querier, accountID, productID int64, qty int) (StockChange, error) {
	ok, err := l.products.Decrement(ctx, q, accountID, productID, qty)
	if err != nil {
		return StockChange{}, storage("debit stock", err)
	}
	p, err := l.current(ctx, q, accountID, productID)
	if err != nil {
		return StockChange{}, err
	}
	if !ok {
		return StockChange{}, &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Quantity, Requested: qty}
	}
	return StockChange{ProductID: p.ID, ProductName: p.Name, Delta: -qty, Before: p.Quantity + qty, After: p.Quantity}, nil
}

// Credit returns qty to the product. There is no upper bound.
func (l *Ledger) Credit(ctx context.Context, q database.Querier, accountID, productID int64, qty int) (StockChange, error) {
	ok, err := l.products.Increment(ctx, q, accountID, productID, qty)
	if err != nil {
		return StockChange{}, storage("credit stock", err)
	}
	if !ok {
		return StockChange{}, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	p, err := l.current(ctx, q, accountID, productID)
	if err != nil {
		return StockChange{}, err
	}
	return StockChange{ProductID: p.ID, ProductName: p.Name, Delta: qty, Before: p.Quantity - qty, After: p.Quantity}, nil
}

func (l *Ledger) current(ctx context.Context, q database.Querier, accountID, productID int64) (*models.Product, error) {
	p, err := l.products.GetForUpdate(ctx, q, accountID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, storage("read product", err)
	}
	return p, nil
}
