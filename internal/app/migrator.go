package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator накатывает goose-миграции схемы перед стартом бота
type Migrator struct {
	db             *sql.DB
	migrationsPath string
}

// NewMigrator создаёт мигратор поверх пула. Goose работает с *sql.DB,
// поэтому заимствуем соединения пула через stdlib-адаптер.
func NewMigrator(pool *pgxpool.Pool, migrationsPath string) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	return &Migrator{
		db:             stdlib.OpenDBFromPool(pool),
		migrationsPath: migrationsPath,
	}, nil
}

// Run применяет все непримененные миграции и сообщает версию схемы
func (mg *Migrator) Run(ctx context.Context) error {
	log.Println("🔄 Applying database migrations...")

	if err := goose.UpContext(ctx, mg.db, mg.migrationsPath); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	log.Printf("✅ Migrations applied, schema version %d", version)
	return nil
}

// Close закрывает sql.DB-обёртку; сам пул живёт дольше и закрывается в main
func (mg *Migrator) Close() error {
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
