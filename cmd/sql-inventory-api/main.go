package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sqlfleet/sql-inventory/pkg/api"
	"github.com/sqlfleet/sql-inventory/pkg/app"
	"github.com/sqlfleet/sql-inventory/pkg/collector"
	"github.com/sqlfleet/sql-inventory/pkg/config"
	"github.com/sqlfleet/sql-inventory/pkg/repository"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Start-up error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	databasePath := cfg.DatabasePath
	listenAddress := cfg.ListenAddress

	flags := flag.NewFlagSet(args[0], flag.ExitOnError)
	flags.StringVar(&databasePath, "db", databasePath, "Path to the local inventory database")
	flags.StringVar(&listenAddress, "addr", listenAddress, "API listening address")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	db, err := setupDatabase(databasePath)
	if err != nil {
		return err
	}

	storage := repository.NewStorage(db)

	if err := storage.RunMigrations(); err != nil {
		return err
	}

	vault, err := api.NewVault(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	harvester := collector.New(vault, collector.DefaultPolicy(cfg.MssqlEncrypt, cfg.MssqlTrustCert))

	router := gin.Default()
	router.SetTrustedProxies(nil)
	router.Use(cors.Default())

	instanceService := api.NewInstanceService(storage, harvester, vault)
	databaseService := api.NewDatabaseService(storage, harvester)
	applicationService := api.NewApplicationService(storage)
	searchService := api.NewSearchService(storage)

	server := app.NewServer(router, instanceService, databaseService, applicationService, searchService)

	return server.Run(listenAddress)
}

func setupDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
