package db

import (
	"time"

	"github.com/smallbiznis/paysignal/internal/config"
)

// Pool holds connection pool limits derived from the application config.
type Pool struct {
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime time.Duration
}

func PoolFromConfig(cfg config.Config) Pool {
	p := Pool{
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
	}
	if cfg.DBType == "sqlite" || cfg.DBType == "" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		p.MaxOpenConn = 1
		p.MaxIdleConn = 1
	}
	return p
}
