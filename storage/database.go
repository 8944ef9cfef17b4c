package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/obsidianempire/aoc-map/logging"
	"github.com/obsidianempire/aoc-map/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backend names reported by /health.
const (
	BackendPostgres = "postgresql"
	BackendSQLite   = "sqlite"
)

// SelectBackend picks the engine from the connection settings: a postgres URL
// selects PostgreSQL, anything else the embedded SQLite file.
func SelectBackend(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return BackendPostgres
	}
	return BackendSQLite
}

// OpenDatabase connects to the configured backend and verifies the connection.
func OpenDatabase(cfg *Configuration) (*gorm.DB, string, error) {
	backend := SelectBackend(cfg.DatabaseURL)

	var driver gorm.Dialector
	switch backend {
	case BackendPostgres:
		driver = postgres.Open(cfg.DatabaseURL)
	default:
		driver = sqlite.Open(sqliteDSN(cfg.DatabasePath))
	}

	db, err := gorm.Open(driver, &gorm.Config{
		Logger: logger.New(gormLogWriter{}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, backend, fmt.Errorf("open %s: %w", backend, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, backend, fmt.Errorf("open %s: %w", backend, err)
	}
	if backend == BackendSQLite {
		// one connection: SQLite serializes writers itself
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, backend, fmt.Errorf("ping %s: %w", backend, err)
	}
	return db, backend, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

// gormLogWriter sends gorm's slow query and error lines to the process logger.
type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, args ...interface{}) {
	logging.Warn().Str("component", "gorm").Msgf(format, args...)
}

// InitSchema makes sure the pins table has the current shape. A table from
// before ownership tracking is rebuilt once, with its rows attributed to the
// legacy identity. Calling it on an up-to-date table changes nothing.
func InitSchema(db *gorm.DB) error {
	m := db.Migrator()

	if !m.HasTable(&models.Pin{}) {
		if err := m.CreateTable(&models.Pin{}); err != nil {
			return fmt.Errorf("create pins table: %w", err)
		}
		return nil
	}

	if m.HasColumn(&models.Pin{}, "discord_user_id") && m.HasColumn(&models.Pin{}, "discord_username") {
		return nil
	}

	logging.Info().Msg("migrating pins table to track discord ownership")
	return db.Transaction(migrateLegacyPins)
}

const legacyTable = "pins_old"

func migrateLegacyPins(tx *gorm.DB) error {
	m := tx.Migrator()

	if err := m.RenameTable("pins", legacyTable); err != nil {
		return fmt.Errorf("rename pins: %w", err)
	}
	if err := m.CreateTable(&models.Pin{}); err != nil {
		return fmt.Errorf("create pins table: %w", err)
	}

	copyRows := `INSERT INTO pins (id, title, description, category, lat, lng, discord_user_id, discord_username, created_at)
		SELECT id, title, COALESCE(description, ''), category, lat, lng, ?, ?, COALESCE(created_at, CURRENT_TIMESTAMP)
		FROM ` + legacyTable
	res := tx.Exec(copyRows, models.LegacyUserID, models.LegacyUsername)
	if res.Error != nil {
		return fmt.Errorf("copy legacy pins: %w", res.Error)
	}

	if tx.Dialector.Name() == "postgres" {
		// explicit ids bypass the serial sequence
		err := tx.Exec(`SELECT setval(pg_get_serial_sequence('pins', 'id'), COALESCE((SELECT MAX(id) FROM pins), 0) + 1, false)`).Error
		if err != nil {
			return fmt.Errorf("reset pins id sequence: %w", err)
		}
	}

	if err := m.DropTable(legacyTable); err != nil {
		return fmt.Errorf("drop %s: %w", legacyTable, err)
	}

	logging.Info().Int64("rows", res.RowsAffected).Msg("pins table migrated")
	return nil
}
