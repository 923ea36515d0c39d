package postgres

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"supplymarket_api/config"
)

const maxRetries = 10
const dbMaxOpenConns = 20
const retryDelay = 5 * time.Second

type PostgresDatabase struct {
	cfg config.DbConfig
	db  *sql.DB
	mu  sync.Mutex

	retries int
	delay   time.Duration
}

func NewPgConnector(dbConfig config.DbConfig) *PostgresDatabase {
	return &PostgresDatabase{cfg: dbConfig, retries: maxRetries, delay: retryDelay}
}

// Connect opens the pool once and retries until the server answers a ping.
func (pg *PostgresDatabase) Connect() (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.cfg.GetConnectionString()
	logger := log.WithField("target", pg.cfg.String())

	for i := 0; i < pg.retries; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", conStr)
		if err != nil {
			logger.WithError(err).Warnf("Failed to connect to Postgres (attempt %d/%d)", i+1, pg.retries)
			time.Sleep(pg.delay)
			continue
		}

		db.SetMaxOpenConns(dbMaxOpenConns)

		if err = db.Ping(); err != nil {
			logger.WithError(err).Warnf("Failed to ping Postgres (attempt %d/%d)", i+1, pg.retries)
			db.Close()
			time.Sleep(pg.delay)
			continue
		}

		logger.Info("Successfully connected to Postgres")
		pg.db = db
		return pg.db, nil
	}
	return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", pg.retries, err)
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.Ping(); err != nil {
		pg.db.Close()
		pg.db = nil
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
