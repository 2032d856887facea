package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sqlfleet/sql-inventory/pkg/api"
	"github.com/sqlfleet/sql-inventory/pkg/collector"
	"github.com/sqlfleet/sql-inventory/pkg/config"
	"github.com/sqlfleet/sql-inventory/pkg/repository"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	databasePath := cfg.DatabasePath
	probeOnly := false
	bucket := ""

	flags := flag.NewFlagSet(args[0], flag.ExitOnError)
	flags.StringVar(&databasePath, "db", databasePath, "Path to the local inventory database")
	flags.StringVar(&bucket, "bucket", bucket, "AWS bucket to store the inventory report")
	flags.BoolVar(&probeOnly, "probe", probeOnly, "Only check reachability, skip the full harvest")
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
	instanceService := api.NewInstanceService(storage, harvester, vault)

	instances, err := instanceService.List()
	if err != nil {
		return err
	}

	// Active instances only, one at a time. A DOWN instance is a recorded
	// outcome, not a reason to stop the scan.
	for _, instance := range instances {
		if probeOnly {
			result, err := instanceService.Probe(instance.Id)
			if err != nil {
				return err
			}
			if result != nil {
				log.Printf("Probed %s: %s", instance.Name, result.Status)
			}
			continue
		}

		log.Printf("Harvesting %s", instance.Name)
		snapshot, err := instanceService.Refresh(instance.Id)
		if err != nil {
			return err
		}
		if snapshot == nil {
			continue
		}
		if snapshot.Status == api.StatusDown && snapshot.Error != nil {
			log.Printf("Instance %s is down: %s", instance.Name, *snapshot.Error)
		}
	}

	if bucket == "" {
		return nil
	}

	tree, err := instanceService.Tree()
	if err != nil {
		return err
	}

	return sendToS3(bucket, tree)
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

func reportKey() string {
	filename := fmt.Sprintf("inventory_%s.json", time.Now().Format("2006-01-02"))
	return filepath.Join("reports", filename)
}

// Required environment variables:
// AWS_ACCESS_KEY_ID
// AWS_SECRET_ACCESS_KEY
// AWS_REGION
func sendToS3(bucket string, tree []api.Tree) error {
	sess, err := session.NewSession()
	if err != nil {
		return err
	}

	body, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return err
	}

	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(reportKey()),
		Body:   bytes.NewReader(body),
	}

	uploader := s3manager.NewUploader(sess)
	if _, err := uploader.Upload(input); err != nil {
		return err
	}
	return nil
}
