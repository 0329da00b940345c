package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"loanlink/internal/adapters/persistence/models"
	"loanlink/internal/adapters/persistence/mongostore"
	"loanlink/internal/adapters/persistence/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store bundles the repositories of the selected backend with its lifecycle hooks
type Store struct {
	Accounts     repositories.AccountRepository
	Products     repositories.ProductRepository
	Applications repositories.ApplicationRepository

	ping  func(ctx context.Context) error
	close func() error
}

// HealthCheck checks if the store is reachable
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.ping(ctx)
}

// Close closes the store connection
func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore connects the backend chosen by STORE_DRIVER
func OpenStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.StoreDriver == DriverMongo {
		return openMongoStore(ctx, cfg)
	}

	db, err := ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		_ = closeGorm(db)
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	log.Println("✅ Database migration completed")

	return NewGormStore(db), nil
}

// NewGormStore builds a Store on an open gorm connection
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Accounts:     repositories.NewAccountRepository(db),
		Products:     repositories.NewProductRepository(db),
		Applications: repositories.NewApplicationRepository(db),
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func() error { return closeGorm(db) },
	}
}

// gormLoggerConfig keeps record-not-found lookups out of the error log;
// they are ordinary misses for account and application reads.
func gormLoggerConfig(cfg *Config) logger.Config {
	level := logger.Error
	if cfg.IsDev() {
		level = logger.Info
	}
	return logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  cfg.IsDev(),
	}
}

// ConnectDatabase establishes a gorm connection for mysql, postgres or sqlite
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dialector, target, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	// Configure GORM logger based on mode
	gormLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), gormLoggerConfig(cfg))

	// Open connection
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true, // duplicate key -> gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Connection pool settings
	if cfg.StoreDriver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Database connected successfully [%s %s]", cfg.StoreDriver, target)
	return db, nil
}

// dialectorFor returns the gorm dialector and a loggable target without credentials
func dialectorFor(cfg *Config) (gorm.Dialector, string, error) {
	d := cfg.Database
	switch cfg.StoreDriver {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
		return mysql.Open(dsn), fmt.Sprintf("%s:%s/%s", d.Host, d.Port, d.DBName), nil
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			d.Host, d.Port, d.User, d.Password, d.DBName)
		return postgres.Open(dsn), fmt.Sprintf("%s:%s/%s", d.Host, d.Port, d.DBName), nil
	case DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), cfg.SQLitePath, nil
	default:
		return nil, "", fmt.Errorf("unsupported SQL driver: %s", cfg.StoreDriver)
	}
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openMongoStore(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := mongostore.Connect(ctx, cfg.Database.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database.MongoDB)

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	log.Printf("✅ MongoDB connected successfully [%s]", cfg.Database.MongoDB)

	return NewMongoStore(client, db), nil
}

// NewMongoStore builds a Store on an open mongo database
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Accounts:     mongostore.NewAccountRepository(db),
		Products:     mongostore.NewProductRepository(db),
		Applications: mongostore.NewApplicationRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}
}
