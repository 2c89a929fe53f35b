package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"inventory-service/database"
	"inventory-service/metrics"
	"inventory-service/models"
	"inventory-service/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type HistoryWriter interface {
	Insert(ctx context.Context, q repository.Querier, h *models.ProductHistory) error
}

type HistoryReader interface {
	ListByProduct(ctx context.Context, q repository.Querier, accountID, productID int64, limit, offset int) ([]models.ProductHistory, error)
}

type AuditEntry struct {
	ProductID   int64
	ProductName string
	ChangeType  models.ChangeType
	Detail      string
	AccountID   int64
}

// Page selects a window of history records. A zero Limit means the default.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() (Page, error) {
	if p.Limit < 0 {
		return p, invalid("limit", "must not be negative")
	}
	if p.Offset < 0 {
		return p, invalid("offset", "must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = defaultHistoryLimit
	}
	p.Limit = min(p.Limit, maxHistoryLimit)
	return p, nil
}

// AuditLog is the append-only product history.
type AuditLog struct {
	db       *database.DB
	writer   HistoryWriter
	reader   HistoryReader
	products repository.Products
	now      func() time.Time
}

func NewAuditLog(db *database.DB, store *repository.Store) *AuditLog {
	return &AuditLog{db: db, writer: store.History, reader: store.History, products: store.Products, now: time.Now}
}

// WithWriter swaps the history writer, returning the same log for chaining.
func (a *AuditLog) WithWriter(w HistoryWriter) *AuditLog {
	a.writer = w
	return a
}

// Append is a fire-and-forget write: a failure is logged and counted but never
// returned, so a missing audit row cannot roll back the stock change it
// describes. It runs on the caller's transaction, so an aborted order leaves no
// audit rows behind. A deadlock or lock wait timeout is still swallowed here,
// but the transaction session remembers it and refuses to commit.
func (a *AuditLog) Append(ctx context.Context, q database.Querier, e AuditEntry) {
	rec := &models.ProductHistory{
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		ChangeType:  e.ChangeType,
		Details:     e.Detail,
		ChangedAt:   a.now().UTC(),
		AccountID:   e.AccountID,
	}
	if err := a.writer.Insert(ctx, q, rec); err != nil {
		metrics.RecordAuditFailure()
		log.Printf("Audit append skipped: product=%d type=%s account=%d: %v", e.ProductID, e.ChangeType, e.AccountID, err)
	}
}

// ListForProduct returns the product's history newest first.
func (a *AuditLog) ListForProduct(ctx context.Context, accountID, productID int64, page Page) ([]models.ProductHistory, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, err
	}

	var records []models.ProductHistory
	err = a.db.WithReadTx(ctx, func(q database.Querier) error {
		if _, err := a.products.Get(ctx, q, accountID, productID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
			}
			return storage("read product", err)
		}
		records, err = a.reader.ListByProduct(ctx, q, accountID, productID, page.Limit, page.Offset)
		return storage("list product history", err)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

type stockDetail struct {
	OrderID          int64 `json:"order_id"`
	QuantityChange   int   `json:"quantity_change"`
	PreviousQuantity int   `json:"previous_quantity"`
	NewQuantity      int   `json:"new_quantity"`
}

// orderEntry builds the audit entry for a stock change made by an order.
func orderEntry(accountID, orderID int64, change StockChange, changeType models.ChangeType) AuditEntry {
	return AuditEntry{
		ProductID:   change.ProductID,
		ProductName: change.ProductName,
		ChangeType:  changeType,
		Detail: marshalDetail(stockDetail{
			OrderID:          orderID,
			QuantityChange:   change.Delta,
			PreviousQuantity: change.Before,
			NewQuantity:      change.After,
		}),
		AccountID: accountID,
	}
}

func marshalDetail(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
