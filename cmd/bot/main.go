package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"

	"venusstore/internal/config"
	"venusstore/internal/db"
	"venusstore/internal/httpserver"
	"venusstore/internal/invoicecache"
	"venusstore/internal/lightning"
	"venusstore/internal/rates"
	salerepo "venusstore/internal/repository/sale"
	ledgersvc "venusstore/internal/service/ledger"
	ordersvc "venusstore/internal/service/order"
	"venusstore/internal/transport/discord"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	var dbpool *pgxpool.Pool
	var saleRepo salerepo.Repository
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		dbpool = pool
		saleRepo = salerepo.NewPostgres(pool, logger)
		logger.Printf("sales ledger backed by postgres")
	} else {
		saleRepo = salerepo.NewFile(cfg.LedgerPath, logger)
		logger.Printf("sales ledger backed by %s", cfg.LedgerPath)
	}

	ledger := ledgersvc.New(saleRepo, logger)
	if err := ledger.Load(ctx); err != nil {
		logger.Fatalf("load sales ledger: %v", err)
	}

	converter := rates.New(cfg.FXURL, logger)
	gateway := lightning.New(cfg.BlinkURL, cfg.BlinkAPIKey, cfg.BlinkWalletID, converter)
	invoices := invoicecache.New(invoicecache.DefaultTTL, invoicecache.DefaultCapacity)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatalf("create discord session: %v", err)
	}

	bot := discord.New(session, discord.Config{
		GuildID:             cfg.GuildID,
		OwnerID:             cfg.OwnerID,
		CategoryID:          cfg.CategoryID,
		CustomerRoleID:      cfg.CustomerRoleID,
		ReviewsChannelID:    cfg.ReviewsChannelID,
		DeliveriesChannelID: cfg.DeliveriesChannelID,
		SalesLogChannelID:   cfg.SalesLogChannelID,
		ReactionEmojis:      cfg.ReactionEmojis,
	}, logger)

	orders := ordersvc.New(bot, gateway, ledger, ordersvc.Config{
		OwnerID:      cfg.OwnerID,
		PixKey:       cfg.PixKey,
		ReceiverName: cfg.ReceiverName,
		ReceiverCity: cfg.ReceiverCity,
		OrderTimeout: cfg.OrderTimeout,
		WarnGrace:    cfg.WarnGrace,
		CloseDelay:   cfg.CloseDelay,
	}, logger)

	bot.Attach(orders, ledger, invoices)

	if err := bot.Open(); err != nil {
		logger.Fatalf("open discord gateway: %v", err)
	}
	defer bot.Close()

	if err := bot.RegisterCommands(); err != nil {
		logger.Fatalf("register slash commands: %v", err)
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool)
	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
