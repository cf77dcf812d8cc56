package mysql

import (
	"fmt"
	"time"

	"ledger-service/src/pkg/log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
)

// DBInterface hides the sqlx handle behind a getter so repositories can be
// constructed before the connection is proven healthy.
type DBInterface interface {
	GetDB() (*sqlx.DB, error)
}

type database struct {
	db *sqlx.DB
}

func (d *database) GetDB() (*sqlx.DB, error) {
	if d.db == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	return d.db, nil
}

// InitConnection opens the MySQL pool from viper keys (database.host,
// database.port, database.username, database.password, database.name).
func InitConnection(v *viper.Viper, logger log.Log) (DBInterface, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		v.GetString("database.username"),
		v.GetString("database.password"),
		v.GetString("database.host"),
		v.GetInt("database.port"),
		v.GetString("database.name"),
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		logger.Error("mysql", fmt.Sprintf("failed to connect: %v", err), "InitConnection", "")
		return &database{}, err
	}

	db.SetMaxOpenConns(v.GetInt("database.pool.max_open"))
	db.SetMaxIdleConns(v.GetInt("database.pool.max_idle"))
	db.SetConnMaxLifetime(time.Duration(v.GetInt("database.pool.max_lifetime_seconds")) * time.Second)

	logger.Info("mysql", "database connection established", "InitConnection", "")
	return &database{db: db}, nil
}
