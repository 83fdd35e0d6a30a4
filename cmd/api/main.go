package main

import (
	"context"
	"log"

	"github.com/greendefi-labs/escrow-backend/config"
	"github.com/greendefi-labs/escrow-backend/internal/archive"
	"github.com/greendefi-labs/escrow-backend/internal/bootstrap"
	cronjob "github.com/greendefi-labs/escrow-backend/internal/escrow/cron"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/repository"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/service"
	"github.com/greendefi-labs/escrow-backend/internal/oracle"
	"github.com/greendefi-labs/escrow-backend/internal/pricefeed"
	"github.com/greendefi-labs/escrow-backend/internal/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	var db *pgxpool.Pool
	var journal service.Journal
	if cfg.DB.DSN != "" {
		db, err = bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.DB.DSN})
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()

		j, err := archive.NewJournal(ctx, db)
		if err != nil {
			log.Fatalf("journal: %v", err)
		}
		journal = j
	} else {
		log.Println("DB_DSN not set, ledger journal disabled")
	}

	fee, err := domain.ParseAmount(cfg.Oracle.Fee)
	if err != nil {
		log.Fatalf("ORACLE_FEE: %v", err)
	}

	// Separate ledgers for the two external assets: contributions are
	// held in the payment asset, the oracle is paid in the fee asset.
	assetBank := token.NewBank()
	feeBank := token.NewBank()
	if supply, err := domain.ParseAmount(cfg.Oracle.InitialFeeSupply); err == nil && !supply.IsZero() {
		feeBank.Credit(cfg.Oracle.FeeAccount, supply)
	}

	oracleClient := oracle.NewClient(cfg.Oracle.URL)
	manager := oracle.NewManager(oracle.Options{
		JobID:       cfg.Oracle.JobID,
		Fee:         fee,
		FeeAccount:  cfg.Oracle.FeeAccount,
		CallbackURL: cfg.Oracle.CallbackURL,
		Timeout:     cfg.Oracle.Timeout,
	}, feeBank, oracleClient)

	ledger := repository.NewLedger()
	cache := repository.NewSnapshotCache(rdb)
	escrow := service.NewEscrowService(ledger, assetBank, manager, cache, journal)

	var prices *pricefeed.Client
	if cfg.Oracle.PriceFeedURL != "" {
		prices = pricefeed.NewClient(cfg.Oracle.PriceFeedURL)
	}

	sweeper := cronjob.NewSweeper(escrow)
	sweeper.Start()
	defer sweeper.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "escrow-backend",
		Version:        cfg.App.Version,
		APIKey:         cfg.Server.APIKey,
		CallbackSecret: cfg.Server.CallbackSecret,
		Escrow:         escrow,
		Prices:         prices,
		DB:             db,
		Redis:          rdb,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
