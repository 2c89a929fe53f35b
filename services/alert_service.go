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
)

// Notifier delivers a low-stock notification to the vendor side.
type Notifier interface {
	NotifyLowStock(ctx context.Context, n models.LowStockNotification) error
}

// LogNotifier writes notifications to the application log. It stands in for
// the broker when none is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyLowStock(_ context.Context, n models.LowStockNotification) error {
	log.Printf("Low stock: product %d (%s) at %d, threshold %d, vendor %s <%s>",
		n.ProductID, n.ProductName, n.Quantity, n.Threshold, n.VendorName, n.VendorEmail)
	return nil
}

// AlertService manages per-product reorder thresholds and notifies the vendor
// when stock falls to or below one, at most once per cooldown.
type AlertService struct {
	db        *database.DB
	store     *repository.Store
	notifier  Notifier
	cooldown  time.Duration
	txTimeout time.Duration
	now       func() time.Time
}

func NewAlertService(db *database.DB, store *repository.Store, notifier Notifier, cooldown, txTimeout time.Duration) *AlertService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &AlertService{db: db, store: store, notifier: notifier, cooldown: cooldown, txTimeout: txTimeout, now: time.Now}
}

func validateAlert(req models.StockAlertRequest) error {
	if req.ProductID <= 0 {
		return invalid("product_id", "is required")
	}
	if req.VendorID <= 0 {
		return invalid("vendor_id", "is required")
	}
	if req.ThresholdQty < 0 {
		return invalid("threshold_qty", "must not be negative")
	}
	return nil
}

func (s *AlertService) List(ctx context.Context, accountID int64) ([]models.StockAlert, error) {
	alerts, err := s.store.Alerts.List(ctx, s.db.Querier(), accountID)
	if err != nil {
		return nil, storage("list stock alerts", err)
	}
	return alerts, nil
}

func (s *AlertService) Create(ctx context.Context, accountID int64, req models.StockAlertRequest) (*models.StockAlert, error) {
	if err := validateAlert(req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var alert *models.StockAlert
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		if err := s.requireReferences(ctx, q, accountID, req); err != nil {
			return err
		}
		id, err := s.store.Alerts.Insert(ctx, q, accountID, req)
		if err != nil {
			return storage("insert stock alert", err)
		}
		alert, err = s.get(ctx, q, accountID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) Update(ctx context.Context, accountID, alertID int64, req models.StockAlertRequest) (*models.StockAlert, error) {
	if err := validateAlert(req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var alert *models.StockAlert
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		if _, err := s.get(ctx, q, accountID, alertID); err != nil {
			return err
		}
		if err := s.requireReferences(ctx, q, accountID, req); err != nil {
			return err
		}
		if _, err := s.store.Alerts.Update(ctx, q, accountID, alertID, req); err != nil {
			return storage("update stock alert", err)
		}
		var err error
		alert, err = s.get(ctx, q, accountID, alertID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) Delete(ctx context.Context, accountID, alertID int64) error {
	n, err := s.store.Alerts.Delete(ctx, s.db.Querier(), accountID, alertID)
	if err != nil {
		return storage("delete stock alert", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrAlertNotFound, alertID)
	}
	return nil
}

// Scan checks every account and returns how many notifications were sent.
func (s *AlertService) Scan(ctx context.Context) (int, error) {
	return s.notify(ctx, repository.AlertFilter{})
}

// CheckProducts checks the alerts of the given products of one account, as
// after an order moved their stock.
func (s *AlertService) CheckProducts(ctx context.Context, accountID int64, productIDs []int64) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	return s.notify(ctx, repository.AlertFilter{AccountID: accountID, ProductIDs: productIDs})
}

// Run scans on every tick until ctx is done.
func (s *AlertService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.Scan(ctx)
			if err != nil {
				log.Printf("Stock alert scan failed: %v", err)
				continue
			}
			if sent > 0 {
				log.Printf("Stock alert scan sent %d notifications", sent)
			}
		}
	}
}

// notify sends one notification per triggered alert outside its cooldown. The
// alert is claimed in the store before sending, so concurrent scans, consumers
// and replicas cannot notify the same alert twice.
func (s *AlertService) notify(ctx context.Context, filter repository.AlertFilter) (int, error) {
	q := s.db.Querier()
	alerts, err := s.store.Alerts.Triggered(ctx, q, filter)
	if err != nil {
		return 0, storage("scan stock alerts", err)
	}

	sent := 0
	for _, a := range alerts {
		// DATETIME keeps whole seconds; Release matches on the stored value.
		now := s.now().UTC().Truncate(time.Second)
		claimed, err := s.store.Alerts.Claim(ctx, q, a.AccountID, a.ID, now, now.Add(-s.cooldown))
		if err != nil {
			return sent, storage("claim stock alert", err)
		}
		if !claimed {
			continue
		}

		err = s.notifier.NotifyLowStock(ctx, models.LowStockNotification{
			AlertID:     a.ID,
			AccountID:   a.AccountID,
			ProductID:   a.ProductID,
			ProductName: a.ProductName,
			Quantity:    a.Quantity,
			Threshold:   a.ThresholdQty,
			VendorName:  a.VendorName,
			VendorEmail: a.VendorEmail,
			NotifiedAt:  now,
		})
		metrics.RecordAlertNotification(err == nil)
		if err != nil {
			log.Printf("Failed to notify vendor for alert %d: %v", a.ID, err)
			if err := s.store.Alerts.Release(ctx, q, a.AccountID, a.ID, now, a.LastNotified); err != nil {
				return sent, storage("release stock alert", err)
			}
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *AlertService) requireReferences(ctx context.Context, q database.Querier, accountID int64, req models.StockAlertRequest) error {
	if _, err := s.store.Products.Get(ctx, q, accountID, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, req.ProductID)
		}
		return storage("read product", err)
	}
	if _, err := s.store.Vendors.Get(ctx, q, accountID, req.VendorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrVendorNotFound, req.VendorID)
		}
		return storage("read vendor", err)
	}
	return nil
}

func (s *AlertService) get(ctx context.Context, q database.Querier, accountID, alertID int64) (*models.StockAlert, error) {
	alert, err := s.store.Alerts.Get(ctx, q, accountID, alertID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrAlertNotFound, alertID)
	}
	if err != nil {
		return nil, storage("read stock alert", err)
	}
	return alert, nil
}
