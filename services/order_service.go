package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"inventory-service/database"
	"inventory-service/metrics"
	"inventory-service/models"
	"inventory-service/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	defaultTxTimeout = 5 * time.Second
	publishTimeout   = 5 * time.Second
)

// EventPublisher receives an event for every committed order change.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt models.OrderEvent) error
}

// OrderService coordinates the order aggregate, the stock ledger and the audit
// log. Every mutating operation commits as one unit or not at all.
type OrderService struct {
	db        *database.DB
	store     *repository.Store
	ledger    *Ledger
	audit     *AuditLog
	publisher EventPublisher
	txTimeout time.Duration
	now       func() time.Time
}

type OrderOption func(*OrderService)

func WithPublisher(p EventPublisher) OrderOption {
	return func(s *OrderService) { s.publisher = p }
}

func WithTxTimeout(d time.Duration) OrderOption {
	return func(s *OrderService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(db *database.DB, store *repository.Store, ledger *Ledger, audit *AuditLog, opts ...OrderOption) *OrderService {
	s := &OrderService{
		db:        db,
		store:     store,
		ledger:    ledger,
		audit:     audit,
		txTimeout: defaultTxTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) Create(ctx context.Context, accountID int64, in OrderInput) (order *models.Order, err error) {
	defer func() { metrics.RecordOrderOperation("create", err == nil) }()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var debited int
	err = s.db.WithTx(ctx, func(q database.Querier) error {
		if err := s.requireCustomer(ctx, q, accountID, in.CustomerID); err != nil {
			return err
		}
		if _, err := s.ledger.Lock(ctx, q, accountID, in.ProductIDs()); err != nil {
			return err
		}
		for _, line := range in.Totals() {
			if _, err := s.ledger.CheckAvailable(ctx, q, accountID, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		orderID, err := s.store.Orders.Insert(ctx, q, &models.Order{
			AccountID:  accountID,
			CustomerID: in.CustomerID,
			OrderDate:  in.OrderDate.OrElse(s.now()).UTC(),
			Total:      decimal.Zero,
		})
		if err != nil {
			return storage("insert order", err)
		}

		for _, item := range in.Items {
			if err := s.deduct(ctx, q, accountID, orderID, item, models.ChangeOrderCreated); err != nil {
				return err
			}
			debited += item.Quantity
		}
		if err := s.persistTotal(ctx, q, accountID, orderID); err != nil {
			return err
		}
		order, err = s.load(ctx, q, accountID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStockMovement("debit", debited)
	s.publish(ctx, models.EventOrderCreated, order, in.ProductIDs())
	return order, nil
}

func (s *OrderService) Update(ctx context.Context, accountID, orderID int64, in OrderInput) (order *models.Order, err error) {
	defer func() { metrics.RecordOrderOperation("update", err == nil) }()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		credited, debited int
		touched           []int64
	)
	err = s.db.WithTx(ctx, func(q database.Querier) error {
		existing, err := s.lockOrder(ctx, q, accountID, orderID)
		if err != nil {
			return err
		}
		if err := s.requireCustomer(ctx, q, accountID, in.CustomerID); err != nil {
			return err
		}
		oldItems, err := s.store.OrderItems.ListByOrder(ctx, q, accountID, orderID)
		if err != nil {
			return storage("list order items", err)
		}
		touched = productIDs(append(lineItems(oldItems), in.Items...))
		if _, err := s.ledger.Lock(ctx, q, accountID, touched); err != nil {
			return err
		}

		for _, item := range oldItems {
			change, err := s.ledger.Credit(ctx, q, accountID, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			s.audit.Append(ctx, q, orderEntry(accountID, orderID, change, models.ChangeOrderEditedRefunded))
			credited += item.Quantity
		}
		if _, err := s.store.OrderItems.DeleteByOrder(ctx, q, accountID, orderID); err != nil {
			return storage("delete order items", err)
		}

		for _, line := range in.Totals() {
			if _, err := s.ledger.CheckAvailable(ctx, q, accountID, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		for _, item := range in.Items {
			if err := s.deduct(ctx, q, accountID, orderID, item, models.ChangeOrderEditedDeducted); err != nil {
				return err
			}
			debited += item.Quantity
		}

		orderDate := in.OrderDate.OrElse(existing.OrderDate).UTC()
		if err := s.store.Orders.UpdateHeader(ctx, q, accountID, orderID, in.CustomerID, orderDate); err != nil {
			return storage("update order", err)
		}
		if err := s.persistTotal(ctx, q, accountID, orderID); err != nil {
			return err
		}
		order, err = s.load(ctx, q, accountID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStockMovement("credit", credited)
	metrics.RecordStockMovement("debit", debited)
	s.publish(ctx, models.EventOrderUpdated, order, touched)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, accountID, orderID int64) (result *models.OrderDeleted, err error) {
	defer func() { metrics.RecordOrderOperation("delete", err == nil) }()
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		deleted  *models.Order
		credited int
	)
	err = s.db.WithTx(ctx, func(q database.Querier) error {
		existing, err := s.lockOrder(ctx, q, accountID, orderID)
		if err != nil {
			return err
		}
		items, err := s.store.OrderItems.ListByOrder(ctx, q, accountID, orderID)
		if err != nil {
			return storage("list order items", err)
		}
		if _, err := s.ledger.Lock(ctx, q, accountID, productIDs(lineItems(items))); err != nil {
			return err
		}

		for _, item := range items {
			change, err := s.ledger.Credit(ctx, q, accountID, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			s.audit.Append(ctx, q, orderEntry(accountID, orderID, change, models.ChangeOrderDeletedRefund))
			credited += item.Quantity
		}
		if _, err := s.store.OrderItems.DeleteByOrder(ctx, q, accountID, orderID); err != nil {
			return storage("delete order items", err)
		}
		if _, err := s.store.Orders.Delete(ctx, q, accountID, orderID); err != nil {
			return storage("delete order", err)
		}

		existing.Items = items
		deleted = existing
		result = &models.OrderDeleted{OrderID: orderID, RestockedItems: len(items)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStockMovement("credit", credited)
	s.publish(ctx, models.EventOrderDeleted, deleted, productIDs(lineItems(deleted.Items)))
	return result, nil
}

func (s *OrderService) Get(ctx context.Context, accountID, orderID int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var order *models.Order
	err := s.db.WithReadTx(ctx, func(q database.Querier) error {
		var err error
		order, err = s.load(ctx, q, accountID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List returns every order of the account newest first, each with its items.
func (s *OrderService) List(ctx context.Context, accountID int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var orders []models.Order
	err := s.db.WithReadTx(ctx, func(q database.Querier) error {
		var err error
		orders, err = s.store.Orders.List(ctx, q, accountID)
		if err != nil {
			return storage("list orders", err)
		}
		ids := lo.Map(orders, func(o models.Order, _ int) int64 { return o.ID })
		items, err := s.store.OrderItems.ListByOrders(ctx, q, accountID, ids)
		if err != nil {
			return storage("list order items", err)
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
			if orders[i].Items == nil {
				orders[i].Items = []models.OrderItem{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) deduct(ctx context.Context, q database.Querier, accountID, orderID int64, item LineItem, changeType models.ChangeType) error {
	change, err := s.ledger.Debit(ctx, q, accountID, item.ProductID, item.Quantity)
	if err != nil {
		return err
	}
	s.audit.Append(ctx, q, orderEntry(accountID, orderID, change, changeType))
	if _, err := s.store.OrderItems.Insert(ctx, q, accountID, orderID, item.ProductID, item.Quantity); err != nil {
		return storage("insert order item", err)
	}
	return nil
}

// persistTotal recomputes the order total from its stored items and the
// products' current prices.
func (s *OrderService) persistTotal(ctx context.Context, q database.Querier, accountID, orderID int64) error {
	items, err := s.store.OrderItems.ListByOrder(ctx, q, accountID, orderID)
	if err != nil {
		return storage("list order items", err)
	}
	lines := lineItems(items)
	prices, err := s.store.Products.Prices(ctx, q, accountID, productIDs(lines))
	if err != nil {
		return storage("read prices", err)
	}
	total, err := RecomputeTotal(lines, prices)
	if err != nil {
		return err
	}
	return storage("update order total", s.store.Orders.SetTotal(ctx, q, accountID, orderID, total))
}

func (s *OrderService) load(ctx context.Context, q database.Querier, accountID, orderID int64) (*models.Order, error) {
	order, err := s.store.Orders.Get(ctx, q, accountID, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, storage("read order", err)
	}
	order.Items, err = s.store.OrderItems.ListByOrder(ctx, q, accountID, orderID)
	if err != nil {
		return nil, storage("list order items", err)
	}
	return order, nil
}

func (s *OrderService) lockOrder(ctx context.Context, q database.Querier, accountID, orderID int64) (*models.Order, error) {
	order, err := s.store.Orders.GetForUpdate(ctx, q, accountID, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, storage("lock order", err)
	}
	return order, nil
}

func (s *OrderService) requireCustomer(ctx context.Context, q database.Querier, accountID, customerID int64) error {
	_, err := s.store.Customers.Name(ctx, q, accountID, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrCustomerNotFound, customerID)
	}
	return storage("read customer", err)
}

// publish runs after commit. A broker failure is logged and never reported to
// the caller: the order change is already durable.
func (s *OrderService) publish(ctx context.Context, eventType models.OrderEventType, order *models.Order, productIDs []int64) {
	if s.publisher == nil || order == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	evt := models.OrderEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OrderID:    order.ID,
		AccountID:  order.AccountID,
		ProductIDs: productIDs,
		Total:      order.Total,
		OccurredAt: s.now().UTC(),
	}
	err := s.publisher.PublishOrderEvent(ctx, evt)
	metrics.RecordEventPublish(string(eventType), err == nil)
	if err != nil {
		log.Printf("Failed to publish %s event for order %d: %v", eventType, order.ID, err)
	}
}
