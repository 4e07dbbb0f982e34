package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/adapter/http"
	mw "github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/adapter/middleware"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/adapter/repository/mysql"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/config"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/event"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/identity"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/infrastructure/cache"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/infrastructure/db"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/ledger"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/policy"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/treasury"
	"github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/usecase/journal"
)

func newLogger(env string) *slog.Logger {
	if env == "prod" || env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func main() {
	cfg := config.Load()
	log := newLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		log.Error("config invalid", "err", err)
		os.Exit(1)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Error("mysql connect failed", "err", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&event.Record{}); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}

	eventRepo := mysql.NewEventRepository(gdb)
	recorder := journal.NewRecorder(eventRepo, log)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go recorder.Run(ctx)

	book := treasury.NewBook()
	led := ledger.New(ledger.Config{
		LenderID: cfg.LenderID,
		Policy: &policy.Policy{
			RiskPercent:    cfg.RiskPercent,
			LateFeePercent: cfg.LateFeePercent,
			Threshold:      cfg.CollateralThreshold,
		},
		Book:   book,
		Sink:   recorder,
		Logger: log,
	})
	if cfg.PoolSeed.IsPositive() {
		book.Mint(cfg.LenderID, cfg.PoolSeed)
		if err := led.Fund(identity.Lender(cfg.LenderID), cfg.PoolSeed); err != nil {
			log.Error("pool seed failed", "err", err)
			os.Exit(1)
		}
	}

	h := httpadp.NewHandler()
	loans := httpadp.NewLoanHandler(led)
	lender := httpadp.NewLenderHandler(led)
	events := httpadp.NewEventHandler(eventRepo)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.Use(mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	// routes
	e.GET("/health", h.Health)
	e.POST("/pool/fund", lender.FundPool)
	e.POST("/loans", loans.RequestLoan)
	e.GET("/loans", loans.ListLoans)
	e.GET("/loans/:loan_id", loans.GetLoan)
	e.GET("/loans/:loan_id/approval", loans.GetApproval)
	e.POST("/loans/:loan_id/approve", lender.ApproveLoan)
	e.POST("/loans/:loan_id/repay", loans.Repay)
	e.POST("/loans/:loan_id/liquidate", lender.Liquidate)
	e.GET("/loans/:loan_id/events", events.ListLoanEvents)
	e.GET("/events", events.ListRecentEvents)

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil {
			log.Error("server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	recorder.Wait()
}
