package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
	"github.com/valerusyaaa/crossplatform2/pkg/infrastructure/config"
	"github.com/valerusyaaa/crossplatform2/pkg/infrastructure/event"
	"github.com/valerusyaaa/crossplatform2/pkg/infrastructure/mysql"
	"github.com/valerusyaaa/crossplatform2/pkg/infrastructure/transport"
)

const appID = "store"

func main() {
	app := &cli.App{
		Name:  appID,
		Usage: "order management backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run HTTP API server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal(appID)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(appID)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	db, err := mysql.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := mysql.Migrate(db); err != nil {
		return err
	}

	products := mysql.NewProductRepository(db)
	categories := mysql.NewCategoryRepository(db)
	orders := mysql.NewOrderRepository(db)
	tx := mysql.NewTxManager(db)

	var dispatcher service.EventDispatcher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaDispatcher := event.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaDispatcher.Close()
		dispatcher = kafkaDispatcher
		logger.WithField("brokers", cfg.KafkaBrokers).Info("publishing events to kafka")
	} else {
		dispatcher = event.NewLogDispatcher(logger)
		logger.Info("no kafka brokers configured, events go to the log")
	}

	ledger := service.NewStockLedger(products)
	orderSvc := service.NewOrderService(orders, products, ledger, tx, dispatcher)
	productSvc := service.NewProductService(products, categories, orders, ledger, tx, dispatcher)
	categorySvc := service.NewCategoryService(categories, products, tx, dispatcher)
	reportSvc := service.NewReportService(orders, products)

	router := transport.NewRouter(orderSvc, productSvc, categorySvc, reportSvc)
	server := &http.Server{
		Addr:              cfg.ServeAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithField("address", cfg.ServeAddress).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load(appID)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	db, err := mysql.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := mysql.Migrate(db); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func newLogger(level string) *log.Logger {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, falling back to info")
		parsed = log.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
