package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classbook/config"
	"classbook/cron"
	"classbook/database"
	"classbook/database/repository"
	"classbook/handlers"
	"classbook/routes"
	"classbook/services/accounting"
	"classbook/services/booking"
	"classbook/services/coupon"
	"classbook/services/credit"
	"classbook/services/notification"
	"classbook/services/payment"
	"classbook/services/tasks"
	"classbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(rootCtx, utils.GetCacheClient(), database.MongoClient, 15*time.Second)

	// repositories.
	repos := repository.NewMongoSet(database.DB())
	idxCtx, idxCancel := context.WithTimeout(rootCtx, 30*time.Second)
	if err := repos.EnsureIndexes(idxCtx); err != nil {
		logger.Fatal("main: failed to ensure indexes", zap.Error(err))
	}
	idxCancel()

	// side-effect queue.
	queueOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	queue := asynq.NewClient(queueOpt)
	defer queue.Close()
	emitter := tasks.NewAsynqEmitter(queue, logger)

	// notification channels; unconfigured ones are skipped.
	var channels []notification.Channel
	if ch := notification.NewEmailChannel(notification.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}); ch != nil {
		channels = append(channels, ch)
	}
	if ch := notification.NewSMSChannel(cfg.SMSGatewayURL, cfg.SMSGatewayToken, nil); ch != nil {
		channels = append(channels, ch)
	}
	fcm, err := utils.FirebaseMessaging(rootCtx)
	if err != nil {
		logger.Warn("main: push notifications disabled", zap.Error(err))
	} else if fcm != nil {
		channels = append(channels, notification.NewPushChannel(fcm))
	}
	notifier := notification.NewMultiNotifier(logger, channels...)

	// services.
	gateway := payment.NewStripeGateway(cfg.StripeKey, nil, logger)
	ledger := credit.NewLedger(repos.Credits, repos.Transactions, cfg.DefaultCurrency, logger)
	validator := coupon.NewValidator(repos.Coupons, repos.Bookings)
	bookingService := booking.NewService(booking.Deps{
		Schedules:    repos.Schedules,
		Bookings:     repos.Bookings,
		Waitlist:     repos.Waitlist,
		Transactions: repos.Transactions,
		Credits:      ledger,
		Coupons:      validator,
		Gateway:      gateway,
		Events:       emitter,
		Logger:       logger,
	}, booking.Policy{
		CancellationWindowHours: cfg.CancellationWindowHours,
		RescheduleWindowHours:   cfg.RescheduleWindowHours,
		DefaultCurrency:         cfg.DefaultCurrency,
		ReminderLeadHours:       cfg.ReminderLeadHours,
	})

	worker := cron.NewEventWorker(repos.Bookings, repos.Schedules, notifier,
		accounting.NewLedgerSyncer(repos.Transactions, logger), logger)
	workerSrv := cron.StartEventWorker(rootCtx, queueOpt, worker)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Bookings: handlers.NewBookingHandler(bookingService, logger),
		Credits:  handlers.NewCreditHandler(ledger),
		Coupons:  handlers.NewCouponHandler(validator, repos.Schedules),
		Webhooks: handlers.NewStripeWebhookHandler(bookingService, cfg.StripeWebhookSecret, &utils.RedisOnceStore{
			Client: utils.GetCacheClient(),
			Prefix: "stripe:event:",
			TTL:    72 * time.Hour,
		}, logger),
		Admin:             handlers.NewAdminHandler(repos.Schedules, ledger, bookingService, cfg.DefaultCurrency, logger),
		AdminToken:        cfg.AdminToken,
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	workerSrv.Shutdown()
	stop()
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Errorf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
