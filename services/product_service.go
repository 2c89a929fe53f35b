package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"inventory-service/database"
	"inventory-service/models"
	"inventory-service/repository"
)

// ProductService is the catalogue side of the ledger: manual product edits,
// each recorded in the product's history.
type ProductService struct {
	db        *database.DB
	store     *repository.Store
	audit     *AuditLog
	txTimeout time.Duration
}

func NewProductService(db *database.DB, store *repository.Store, audit *AuditLog, txTimeout time.Duration) *ProductService {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &ProductService{db: db, store: store, audit: audit, txTimeout: txTimeout}
}

func validateProduct(req models.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name", "is required")
	}
	if req.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if req.Quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	return nil
}

func (s *ProductService) List(ctx context.Context, accountID int64) ([]models.Product, error) {
	products, err := s.store.Products.List(ctx, s.db.Querier(), accountID)
	if err != nil {
		return nil, storage("list products", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, accountID, productID int64) (*models.Product, error) {
	return s.get(ctx, s.db.Querier(), accountID, productID)
}

func (s *ProductService) Create(ctx context.Context, accountID int64, req models.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var product *models.Product
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		id, err := s.store.Products.Insert(ctx, q, &models.Product{
			AccountID:  accountID,
			Name:       strings.TrimSpace(req.Name),
			Price:      req.Price,
			Quantity:   req.Quantity,
			CategoryID: req.CategoryID,
		})
		if err != nil {
			return storage("insert product", err)
		}
		if product, err = s.get(ctx, q, accountID, id); err != nil {
			return err
		}
		s.audit.Append(ctx, q, AuditEntry{
			ProductID:   product.ID,
			ProductName: product.Name,
			ChangeType:  models.ChangeCreated,
			Detail: marshalDetail(map[string]any{
				"name":     product.Name,
				"price":    product.Price,
				"quantity": product.Quantity,
			}),
			AccountID: accountID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

type fieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Update overwrites the product and records the fields that changed.
func (s *ProductService) Update(ctx context.Context, accountID, productID int64, req models.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var product *models.Product
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		before, err := s.store.Products.GetForUpdate(ctx, q, accountID, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		if err != nil {
			return storage("lock product", err)
		}

		after := *before
		after.Name = strings.TrimSpace(req.Name)
		after.Price = req.Price
		after.Quantity = req.Quantity
		after.CategoryID = req.CategoryID
		if err := s.store.Products.Update(ctx, q, &after); err != nil {
			return storage("update product", err)
		}

		changes := make(map[string]fieldChange)
		if before.Name != after.Name {
			changes["name"] = fieldChange{From: before.Name, To: after.Name}
		}
		if !before.Price.Equal(after.Price) {
			changes["price"] = fieldChange{From: before.Price, To: after.Price}
		}
		if before.Quantity != after.Quantity {
			changes["quantity"] = fieldChange{From: before.Quantity, To: after.Quantity}
		}
		if !sameCategory(before.CategoryID, after.CategoryID) {
			changes["category_id"] = fieldChange{From: before.CategoryID, To: after.CategoryID}
		}
		s.audit.Append(ctx, q, AuditEntry{
			ProductID:   productID,
			ProductName: after.Name,
			ChangeType:  models.ChangeUpdated,
			Detail:      marshalDetail(changes),
			AccountID:   accountID,
		})

		product, err = s.get(ctx, q, accountID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product that no order references, together with its
// history and stock alerts.
func (s *ProductService) Delete(ctx context.Context, accountID, productID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var name string
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		product, err := s.store.Products.GetForUpdate(ctx, q, accountID, productID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		if err != nil {
			return storage("lock product", err)
		}
		name = product.Name

		refs, err := s.store.OrderItems.CountByProduct(ctx, q, accountID, productID)
		if err != nil {
			return storage("count order items", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: id %d appears on %d order items", ErrProductInUse, productID, refs)
		}
		if err := s.store.Alerts.DeleteByProduct(ctx, q, accountID, productID); err != nil {
			return storage("delete stock alerts", err)
		}
		if err := s.store.History.DeleteByProduct(ctx, q, accountID, productID); err != nil {
			return storage("delete product history", err)
		}
		if _, err := s.store.Products.Delete(ctx, q, accountID, productID); err != nil {
			return storage("delete product", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("Product %d (%s) %s for account %d", productID, name, models.ChangeDeleted, accountID)
	return nil
}

// History pages through the product's audit records, newest first.
func (s *ProductService) History(ctx context.Context, accountID, productID int64, page Page) ([]models.ProductHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()
	return s.audit.ListForProduct(ctx, accountID, productID, page)
}

func (s *ProductService) get(ctx context.Context, q database.Querier, accountID, productID int64) (*models.Product, error) {
	product, err := s.store.Products.Get(ctx, q, accountID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, storage("read product", err)
	}
	return product, nil
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
