package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/accounts"
	"github.com/dkellner/modelstore/internal/assets"
	"github.com/dkellner/modelstore/internal/catalog"
	"github.com/dkellner/modelstore/internal/config"
	"github.com/dkellner/modelstore/internal/httpx"
	kafkax "github.com/dkellner/modelstore/internal/kafka"
	"github.com/dkellner/modelstore/internal/marketing"
	"github.com/dkellner/modelstore/internal/orders"
	"github.com/dkellner/modelstore/internal/payments"
	"github.com/dkellner/modelstore/internal/postgres"
	"github.com/dkellner/modelstore/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	prodOrders := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCompleted, 1024, log)
	prodOrders.Start(ctx)
	prodDownloads := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicAssetDownloaded, 1024, log)
	prodDownloads.Start(ctx)

	// Upload store (explicit init, creates the directory)
	uploadStore, err := assets.NewStore(cfg.UploadDir, cfg.PublicPath, log)
	if err != nil {
		log.WithError(err).Fatal("upload store")
	}

	orderRepo := &orders.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}

	reconciler := &orders.Reconciler{
		Store:        orderRepo,
		Payments:     payments.NewStripeProvider(cfg.StripeSecretKey),
		Window:       time.Duration(cfg.DownloadWindowDays) * 24 * time.Hour,
		MaxDownloads: cfg.MaxDownloads,
		Log:          log,
	}
	gate := &orders.Gate{
		Store:  orderRepo,
		Models: catalogRepo,
		Files:  uploadStore,
		Log:    log,
	}

	auth := httpx.NewSessionAuth(cfg.SessionSecret)
	router := httpx.NewRouter()

	(&httpx.OrdersHandler{
		Reconciler: reconciler,
		Redis:      rdb,
		Producer:   prodOrders,
		Service:    cfg.ServiceName,
		Production: cfg.Production(),
		Log:        log,
	}).Register(router)
	(&httpx.DownloadsHandler{
		Gate:     gate,
		Producer: prodDownloads,
		Service:  cfg.ServiceName,
		Log:      log,
	}).Register(router, auth)
	(&httpx.UploadsHandler{
		Assets:     uploadStore,
		Production: cfg.Production(),
		Log:        log,
	}).Register(router, auth)
	(&httpx.CatalogHandler{Repo: catalogRepo, Production: cfg.Production(), Log: log}).Register(router)
	(&httpx.LeadsHandler{Repo: &marketing.Repo{DB: db}, Production: cfg.Production(), Log: log}).Register(router)
	(&httpx.AuthHandler{
		Users:      &accounts.Repo{DB: db},
		Auth:       auth,
		Production: cfg.Production(),
		Log:        log,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodOrders.Close()
	prodDownloads.Close()
	cancel()
	prodOrders.WaitClosed()
	prodDownloads.WaitClosed()
}
