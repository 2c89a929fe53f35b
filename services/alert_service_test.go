package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inventory-service/database/dbtest"
	"inventory-service/models"
	"inventory-service/repository"
	"inventory-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []models.LowStockNotification
	err    error
	onSend func()
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, msg models.LowStockNotification) error {
	if n.onSend != nil {
		n.onSend()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func TestAlertScanRespectsCooldown(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db.Dialect())
	notifier := &recordingNotifier{}
	alerts := services.NewAlertService(db, store, notifier, time.Hour, time.Second)
	ctx := context.Background()

	vendor := dbtest.SeedVendor(t, db, account, "Acme", "orders@acme.test")
	low := dbtest.SeedProduct(t, db, account, "Low", "1.00", 2)
	plenty := dbtest.SeedProduct(t, db, account, "Plenty", "1.00", 50)
	for _, p := range []int64{low, plenty} {
		_, err := alerts.Create(ctx, account, models.StockAlertRequest{ProductID: p, VendorID: vendor, ThresholdQty: 5})
		require.NoError(t, err)
	}

	sent, err := alerts.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, low, notifier.sent[0].ProductID)
	assert.Equal(t, "orders@acme.test", notifier.sent[0].VendorEmail)
	assert.Equal(t, 2, notifier.sent[0].Quantity)

	sent, err = alerts.Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent, "second scan inside the cooldown")

	listed, err := alerts.List(ctx, account)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.NotNil(t, listed[0].LastNotified)
	assert.Nil(t, listed[1].LastNotified)
}

func TestAlertNotifierFailureLeavesAlertPending(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db.Dialect())
	notifier := &recordingNotifier{err: errors.New("broker down")}
	alerts := services.NewAlertService(db, store, notifier, time.Hour, time.Second)
	ctx := context.Background()

	vendor := dbtest.SeedVendor(t, db, account, "Acme", "orders@acme.test")
	low := dbtest.SeedProduct(t, db, account, "Low", "1.00", 0)
	created, err := alerts.Create(ctx, account, models.StockAlertRequest{ProductID: low, VendorID: vendor, ThresholdQty: 1})
	require.NoError(t, err)

	sent, err := alerts.CheckProducts(ctx, account, []int64{low})
	require.NoError(t, err)
	assert.Zero(t, sent)

	notifier.err = nil
	sent, err = alerts.CheckProducts(ctx, account, []int64{low})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, created.ID, notifier.sent[0].AlertID)

	sent, err = alerts.CheckProducts(ctx, 2, []int64{low})
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestAlertCRUD(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db.Dialect())
	alerts := services.NewAlertService(db, store, nil, time.Hour, time.Second)
	ctx := context.Background()

	vendor := dbtest.SeedVendor(t, db, account, "Acme", "orders@acme.test")
	product := dbtest.SeedProduct(t, db, account, "Widget", "1.00", 3)

	_, err := alerts.Create(ctx, account, models.StockAlertRequest{ProductID: product, VendorID: vendor + 1, ThresholdQty: 1})
	assert.ErrorIs(t, err, services.ErrVendorNotFound)
	_, err = alerts.Create(ctx, account, models.StockAlertRequest{ProductID: product, VendorID: vendor, ThresholdQty: -1})
	assert.Equal(t, services.KindValidation, services.KindOf(err))

	created, err := alerts.Create(ctx, account, models.StockAlertRequest{ProductID: product, VendorID: vendor, ThresholdQty: 1})
	require.NoError(t, err)
	assert.Equal(t, "Widget", created.ProductName)
	assert.Equal(t, "Acme", created.VendorName)

	updated, err := alerts.Update(ctx, account, created.ID, models.StockAlertRequest{ProductID: product, VendorID: vendor, ThresholdQty: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.ThresholdQty)

	_, err = alerts.Update(ctx, 2, created.ID, models.StockAlertRequest{ProductID: product, VendorID: vendor, ThresholdQty: 10})
	assert.ErrorIs(t, err, services.ErrAlertNotFound)

	require.NoError(t, alerts.Delete(ctx, account, created.ID))
	assert.ErrorIs(t, alerts.Delete(ctx, account, created.ID), services.ErrAlertNotFound)
}

func TestAlertNotifiedOnceWhileSendInFlight(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db.Dialect())
	notifier := &recordingNotifier{}
	alerts := services.NewAlertService(db, store, notifier, time.Hour, time.Second)
	ctx := context.Background()

	vendor := dbtest.SeedVendor(t, db, account, "Acme", "orders@acme.test")
	low := dbtest.SeedProduct(t, db, account, "Low", "1.00", 1)
	_, err := alerts.Create(ctx, account, models.StockAlertRequest{ProductID: low, VendorID: vendor, ThresholdQty: 5})
	require.NoError(t, err)

	var nested []int
	notifier.onSend = func() {
		notifier.onSend = nil
		sent, err := alerts.CheckProducts(ctx, account, []int64{low})
		require.NoError(t, err)
		nested = append(nested, sent)
		sent, err = alerts.Scan(ctx)
		require.NoError(t, err)
		nested = append(nested, sent)
	}

	sent, err := alerts.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int{0, 0}, nested)
	assert.Equal(t, 1, notifier.count())
}

func TestConcurrentAlertChecksNotifyOnce(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewStore(db.Dialect())
	notifier := &recordingNotifier{}
	alerts := services.NewAlertService(db, store, notifier, time.Hour, time.Second)
	ctx := context.Background()

	vendor := dbtest.SeedVendor(t, db, account, "Acme", "orders@acme.test")
	low := dbtest.SeedProduct(t, db, account, "Low", "1.00", 1)
	_, err := alerts.Create(ctx, account, models.StockAlertRequest{ProductID: low, VendorID: vendor, ThresholdQty: 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = alerts.Scan(ctx)
			} else {
				_, err = alerts.CheckProducts(ctx, account, []int64{low})
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notifier.count())
}
