package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/config"
	"github.com/assetdesk/asset-backend/internal/database"
)

// Children first, TRUNCATE ... CASCADE would cope either way
var tables = []string{
	"audit_logs",
	"refresh_tokens",
	"return_requests",
	"assignments",
	"assets",
	"categories",
	"users",
}

func main() {
	var (
		dbURLFlag   string
		driver      string
		pruneTokens bool
		retention   time.Duration
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&driver, "driver", "postgres", "database/sql driver: postgres or pgx")
	flag.BoolVar(&pruneTokens, "prune-tokens", false, "only delete expired and long-revoked refresh tokens")
	flag.DurationVar(&retention, "retention", 30*24*time.Hour, "how long revoked refresh tokens are kept when pruning")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             driver,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()

	if pruneTokens {
		removed, err := database.NewRefreshTokenRepository(db).DeleteExpired(ctx, retention)
		if err != nil {
			logger.WithError(err).Fatal("Failed to prune refresh tokens")
		}
		logger.WithFields(logrus.Fields{"removed": removed, "retention": retention}).Info("Refresh tokens pruned")
		return
	}

	logger.Info("Truncating tables...")
	quoted := make([]string, len(tables))
	for i, table := range tables {
		quoted[i] = pq.QuoteIdentifier(table)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(quoted, ", ")+" RESTART IDENTITY CASCADE"); err != nil {
		logger.WithError(err).Fatal("Failed to truncate tables")
	}

	for _, table := range tables {
		var count int
		if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+pq.QuoteIdentifier(table)); err != nil {
			logger.WithError(err).WithField("table", table).Warn("Failed to count rows")
			continue
		}
		logger.WithFields(logrus.Fields{"table": table, "rows": count}).Info("Post-clear row count")
	}
}
