package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trademan/pkg/config"
	"trademan/pkg/model/xgorm"
	"trademan/pkg/xlog"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	db     *gorm.DB
	rds    *redis.Client
	logger = xlog.GetLogger()
)

// DBInit opens the shared database and redis instances from config.Shared.
func DBInit() {
	var err error
	db, err = Open(config.Shared.Database, config.Shared.IsDebug)
	if err != nil {
		logger.Fatalf("open database failed, err:%s", err)
	}
	rds = OpenRedis(config.Shared.Redis.Main)
}

func dialector(cfg config.Database) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.DB,
		)
		return mysql.Open(dsn), fmt.Sprintf("tcp(%s:%d)/%s", cfg.Host, cfg.Port, cfg.DB), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Pass, cfg.DB, cfg.Port,
		)
		return postgres.Open(dsn), fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.DB), nil
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, "", fmt.Errorf("empty sqlite path")
		}
		err := os.MkdirAll(filepath.Dir(cfg.Path), 0755)
		if err != nil {
			return nil, "", err
		}
		dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		return sqlite.Open(dsn), cfg.Path, nil
	}
	return nil, "", fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// Open connects to the configured database. Statements are logged through xlog when debug is set.
func Open(cfg config.Database, debug bool) (gdb *gorm.DB, err error) {
	dial, where, err := dialector(cfg)
	if err != nil {
		return
	}

	logger.Infof("%s connecting %s", dial.Name(), where)

	logMode := xgorm.Info
	if !debug {
		logMode = xgorm.Warn
	}

	gdb, err = gorm.Open(dial, &gorm.Config{
		SkipDefaultTransaction: false,
		Logger: xgorm.New(xgorm.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logMode,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", dial.Name(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	maxOpen := cfg.MaxOpenConns
	if dial.Name() == "sqlite" {
		// a single writer avoids SQLITE_BUSY on lock upgrades
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(10 * time.Hour)
	sqlDB.SetMaxIdleConns(20)

	logger.Infof("%s connected %s", dial.Name(), where)
	return
}

// Migrate creates or updates every table.
func Migrate(gdb *gorm.DB) (err error) {
	defer func() {
		if err != nil {
			logger.Errorf("migrate failed, err:%s", err)
		}
	}()
	return gdb.AutoMigrate(AllModels()...)
}

func OpenRedis(cfg config.RedisServer) *redis.Client {
	logger.Infof("redis connecting %s[%d]", cfg.Addr, cfg.DB)

	opts := redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Pass,
		DB:       cfg.DB,
	}
	if cfg.Timeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.Timeout) * time.Second
		opts.WriteTimeout = opts.ReadTimeout
	}

	rc := redis.NewClient(&opts)

	logger.Infof("redis client ready %s[%d]", cfg.Addr, cfg.DB)
	return rc
}

func GetRedis() *redis.Client {
	return rds
}

func GetDB() *gorm.DB {
	return db
}
