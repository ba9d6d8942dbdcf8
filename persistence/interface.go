package persistence

import (
	"errors"
	"fmt"

	"github.com/wfunc/dungeonserver/models"
)

// Archive 已结束对局的存档接口
type Archive interface {
	SaveGameRecord(record *models.GameRecord) error
	ListGameRecords(limit int) ([]models.GameRecord, error)
	GetPlayerStats(name string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
)

// Open picks an archive implementation. dsn is ignored for the memory driver.
func Open(driver, dsn string) (Archive, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverGorm:
		return NewGormPostgreSQL(dsn)
	case DriverPostgres:
		return NewPostgreSQL(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
