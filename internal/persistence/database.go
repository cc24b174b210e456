package persistence

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config son los parámetros mínimos para abrir la base local
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Database envuelve la conexión GORM usada por todos los DAOs
type Database struct {
	DB *gorm.DB
}

// Open abre la base según el driver (sqlite | postgres).
func Open(cfg Config) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := OpenDialector(dialector)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == DriverPostgres {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		// SQLite: una sola conexión para que ":memory:" sea una única base
		// y para serializar escrituras.
		sqlDB.SetMaxOpenConns(1)
		if err := db.DB.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enabling sqlite foreign keys: %w", err)
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// OpenDialector abre GORM con un dialector ya construido (tests con sqlmock).
func OpenDialector(dialector gorm.Dialector) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db}, nil
}

// OpenInMemory abre una base SQLite en memoria y migra los modelos dados.
func OpenInMemory(models ...any) (*Database, error) {
	db, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate crea o actualiza las tablas de los modelos dados.
func (d *Database) AutoMigrate(models ...any) error {
	if len(models) == 0 {
		return nil
	}
	if err := d.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping verifica que la conexión siga viva
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Close cierra la conexión
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Transaction ejecuta fn dentro de una transacción
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}
