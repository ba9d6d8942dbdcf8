package persistence

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/dungeonserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(dsn string) (*GormPostgreSQL, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormParticipant{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存游戏记录, the record and its participants in one transaction
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := record.ToGorm()
	err := p.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return err
	}
	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	return nil
}

// ListGameRecords 最近的对局，新的在前
func (p *GormPostgreSQL) ListGameRecords(limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	if err := p.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.GameRecord, 0, len(rows))
	for i := range rows {
		records = append(records, models.FromGorm(&rows[i]))
	}
	return records, nil
}

type statsRow struct {
	TotalGames int
	Wins       int
	Losses     int
	LastPlayed *time.Time
}

// GetPlayerStats 聚合玩家战绩
func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var row statsRow
	err := p.db.Raw(`
        SELECT
            COUNT(*) AS total_games,
            COALESCE(SUM(CASE WHEN gp.outcome = ? THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN gp.outcome = ? THEN 1 ELSE 0 END), 0) AS losses,
            MAX(gr.created_at) AS last_played
        FROM game_participants gp
        JOIN game_records gr ON gr.id = gp.game_record_id
        WHERE gp.name = ? AND gr.deleted_at IS NULL`,
		models.OutcomeWon, models.OutcomeLost, name,
	).Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if row.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}

	stats := &models.PlayerStats{
		Name:       name,
		TotalGames: row.TotalGames,
		Wins:       row.Wins,
		Losses:     row.Losses,
	}
	if row.LastPlayed != nil {
		stats.LastPlayed = *row.LastPlayed
	}
	return stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
