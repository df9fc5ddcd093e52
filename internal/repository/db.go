package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"familytree_go/internal/model"
)

// DB 数据库连接实例
type DB struct {
	*gorm.DB
}

// InitDB 初始化数据库连接
func InitDB(dsn string) (*DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(gormDB); err != nil {
		return nil, err
	}

	logrus.Info("database connected")
	return &DB{gormDB}, nil
}

// InitSQLiteDB 初始化SQLite数据库连接，主要用于测试
func InitSQLiteDB(dsn string) (*DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(gormDB); err != nil {
		return nil, err
	}
	return &DB{gormDB}, nil
}

// migrate 自动迁移数据库表
func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Tenant{},
		&model.Person{},
		&model.Event{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
