// Package server starts the HTTP API, the event dispatcher and the background
// schedulers, wiring every layer together.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	billingApp "github.com/vetiver-net/vetiver/internal/application/billing"
	instanceApp "github.com/vetiver-net/vetiver/internal/application/instance"
	ledgerApp "github.com/vetiver-net/vetiver/internal/application/ledger"
	nodeApp "github.com/vetiver-net/vetiver/internal/application/node"
	panelApp "github.com/vetiver-net/vetiver/internal/application/panel"
	"github.com/vetiver-net/vetiver/internal/application/panel/portalloc"
	paymentApp "github.com/vetiver-net/vetiver/internal/application/payment"
	"github.com/vetiver-net/vetiver/internal/application/provisioning"
	ledgerDomain "github.com/vetiver-net/vetiver/internal/domain/ledger"
	paymentDomain "github.com/vetiver-net/vetiver/internal/domain/payment"
	"github.com/vetiver-net/vetiver/internal/domain/shared/events"
	"github.com/vetiver-net/vetiver/internal/infrastructure/auth"
	"github.com/vetiver-net/vetiver/internal/infrastructure/cache"
	"github.com/vetiver-net/vetiver/internal/infrastructure/config"
	"github.com/vetiver-net/vetiver/internal/infrastructure/crypto"
	"github.com/vetiver-net/vetiver/internal/infrastructure/database"
	"github.com/vetiver-net/vetiver/internal/infrastructure/gateway"
	"github.com/vetiver-net/vetiver/internal/infrastructure/migration"
	"github.com/vetiver-net/vetiver/internal/infrastructure/nodeagent"
	"github.com/vetiver-net/vetiver/internal/infrastructure/panelapi"
	"github.com/vetiver-net/vetiver/internal/infrastructure/repository"
	"github.com/vetiver-net/vetiver/internal/infrastructure/scheduler"
	"github.com/vetiver-net/vetiver/internal/infrastructure/storage"
	httpRouter "github.com/vetiver-net/vetiver/internal/interfaces/http"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/handlers"
	"github.com/vetiver-net/vetiver/internal/shared/db"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Vetiver HTTP server with the configured environment.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration enabled in production")
		}
		if err := database.Get().AutoMigrate(migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	dispatcher := events.NewInMemoryEventDispatcher(100)
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer dispatcher.Stop()

	// Repositories.
	gdb := database.Get()
	userRepo := repository.NewUserRepository(gdb, log)
	nodeRepo := repository.NewNodeRepository(gdb, log)
	panelRepo := repository.NewPanelRepository(gdb, log)
	instanceRepo := repository.NewInstanceRepository(gdb, log)
	transactionRepo := repository.NewTransactionRepository(gdb, log)
	paymentRepo := repository.NewPaymentRequestRepository(gdb, log)
	bankAccountRepo := repository.NewBankAccountRepository(gdb, log)

	txManager := db.NewTransactionManager(gdb)

	// Infrastructure services.
	sealer, err := crypto.NewSealer(cfg.Crypto.CredentialKey)
	if err != nil {
		return fmt.Errorf("failed to initialize credential sealer: %w", err)
	}

	receiptStore, err := storage.NewReceiptStore(cfg.Payment.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize receipt store: %w", err)
	}

	tokenStore := cache.NewPanelTokenStore(redisClient, cfg.PanelAPI.TokenTTL())
	agentClient := nodeagent.NewClient(nodeagent.WithTimeout(cfg.NodeAgent.Timeout()))
	panelClient := panelapi.NewClient(tokenStore, sealer, log, panelapi.WithTimeout(cfg.PanelAPI.Timeout()))
	gatewayClient := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey,
		gateway.WithTimeout(cfg.Gateway.Timeout()))

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)

	// Application services and use cases.
	ledgerService := ledgerApp.NewService(userRepo, transactionRepo, txManager, dispatcher, log)
	billingEngine := billingApp.NewEngine(instanceRepo, nodeRepo, userRepo, ledgerService, log)

	allocator := portalloc.NewAllocator(panelRepo,
		cfg.Ports.RangeStart, cfg.Ports.RangeEnd, cfg.Ports.Reserved)

	registry := paymentApp.NewRegistry()
	registry.Register(paymentDomain.MethodCardToCard, paymentApp.NewCardToCardStrategy(bankAccountRepo))
	registry.Register(paymentDomain.MethodGatewayX, paymentApp.NewGatewayStrategy(gatewayClient, cfg.Gateway.CallbackURL))

	pauseUC := instanceApp.NewPauseInstanceUseCase(instanceRepo, nodeRepo, agentClient, log)
	resumeUC := instanceApp.NewResumeInstanceUseCase(instanceRepo, nodeRepo, agentClient, log)
	solvencyUC := instanceApp.NewSolvencyCheckUseCase(userRepo, instanceRepo, nodeRepo, agentClient, dispatcher, log)
	deleteUC := instanceApp.NewDeleteInstanceUseCase(instanceRepo, nodeRepo, panelRepo, agentClient, panelClient, dispatcher, log)
	getInstanceUC := instanceApp.NewGetInstanceUseCase(instanceRepo)

	initiateUC := provisioning.NewInitiateNodeUseCase(userRepo, nodeRepo, panelRepo, instanceRepo, agentClient, dispatcher, log)

	registerPanelUC := panelApp.NewRegisterPanelUseCase(panelRepo, panelClient, allocator, sealer, log)
	deletePanelUC := panelApp.NewDeletePanelUseCase(panelRepo, instanceRepo, log)

	createPaymentUC := paymentApp.NewCreatePaymentRequestUseCase(userRepo, paymentRepo, registry, dispatcher, log)
	submitReceiptUC := paymentApp.NewSubmitReceiptUseCase(paymentRepo, receiptStore, log)
	approveUC := paymentApp.NewApprovePaymentUseCase(paymentRepo, ledgerService, txManager, dispatcher, log)
	rejectUC := paymentApp.NewRejectPaymentUseCase(paymentRepo, dispatcher, log)
	callbackUC := paymentApp.NewHandleGatewayCallbackUseCase(paymentRepo, ledgerService, txManager, dispatcher, log)
	getPaymentUC := paymentApp.NewGetPaymentRequestUseCase(paymentRepo)

	createNodeUC := nodeApp.NewCreateNodeUseCase(nodeRepo, log)
	listNodesUC := nodeApp.NewListNodesUseCase(nodeRepo)

	// Every balance change re-evaluates the owner's solvency.
	balanceObserver := instanceApp.NewBalanceObserver(solvencyUC, log)
	if err := dispatcher.Subscribe(ledgerDomain.EventTypeBalanceChanged, balanceObserver); err != nil {
		return fmt.Errorf("failed to subscribe solvency observer: %w", err)
	}

	// Schedulers.
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()

	manager := scheduler.NewManager(log)
	manager.Register(scheduler.NewUsagePollScheduler(nodeRepo, agentClient, billingEngine, cfg.Billing.PollInterval(), log))
	manager.Register(scheduler.NewAgentHealthScheduler(nodeRepo, agentClient, cfg.Billing.HealthInterval(), log))
	manager.StartAll(schedCtx)
	defer manager.StopAll()

	// HTTP.
	router := httpRouter.NewRouter(&cfg.Server, jwtService, httpRouter.Handlers{
		Instance: handlers.NewInstanceHandler(billingEngine, pauseUC, resumeUC, deleteUC, getInstanceUC, log),
		Node:     handlers.NewNodeHandler(initiateUC, createNodeUC, listNodesUC, log),
		Panel:    handlers.NewPanelHandler(registerPanelUC, deletePanelUC, log),
		Payment:  handlers.NewPaymentHandler(createPaymentUC, submitReceiptUC, approveUC, rejectUC, callbackUC, getPaymentUC, log),
		Ledger:   handlers.NewLedgerHandler(ledgerService, log),
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
