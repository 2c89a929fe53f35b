package cmd

import (
	"inventory-service/config"
	"inventory-service/database"
	"inventory-service/rabbitmq"
	"inventory-service/repository"
	"inventory-service/services"
)

// app holds the services shared by the commands.
type app struct {
	cfg      *config.Config
	db       *database.DB
	rmq      *rabbitmq.RabbitMQ
	audit    *services.AuditLog
	orders   *services.OrderService
	products *services.ProductService
	alerts   *services.AlertService
}

// newApp connects the store and, when RABBITMQ_URL is set, the broker. Without
// a broker, order events are skipped and notifications go to the log.
func newApp(cfg *config.Config) (*app, error) {
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}

	var (
		orderOpts = []services.OrderOption{services.WithTxTimeout(cfg.DBTxTimeout)}
		notifier  services.Notifier
	)
	if cfg.RabbitMQURL != "" {
		rmq, err := rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := rmq.SetupQueues(); err != nil {
			rmq.Close()
			_ = db.Close()
			return nil, err
		}
		a.rmq = rmq
		orderOpts = append(orderOpts, services.WithPublisher(rmq))
		notifier = rmq
	}

	store := repository.NewStore(db.Dialect())
	a.audit = services.NewAuditLog(db, store)
	a.orders = services.NewOrderService(db, store, services.NewLedger(store), a.audit, orderOpts...)
	a.products = services.NewProductService(db, store, a.audit, cfg.DBTxTimeout)
	a.alerts = services.NewAlertService(db, store, notifier, cfg.AlertCooldown, cfg.DBTxTimeout)
	return a, nil
}

func (a *app) Close() {
	if a.rmq != nil {
		a.rmq.Close()
	}
	_ = a.db.Close()
}
