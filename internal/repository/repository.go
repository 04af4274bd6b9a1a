package repository

import (
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryTimeout() time.Duration {
	return time.Duration(r.cfg.Database.QueryTimeout) * time.Second
}

func (r *Repository) transactionTimeout() time.Duration {
	return time.Duration(r.cfg.Database.TransactionTimeout) * time.Second
}
