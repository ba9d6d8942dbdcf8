package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/dungeonserver/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 基于 database/sql + lib/pq 的实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(dsn string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构, compatible with the GORM migration
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            room_id TEXT NOT NULL,
            outcome TEXT NOT NULL,
            day BIGINT NOT NULL,
            turns BIGINT NOT NULL,
            rooms_explored BIGINT NOT NULL,
            boss_defeated BOOLEAN DEFAULT FALSE,
            players JSONB
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_participants (
            id BIGSERIAL PRIMARY KEY,
            game_record_id BIGINT NOT NULL,
            name TEXT NOT NULL,
            outcome TEXT NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
        CREATE INDEX IF NOT EXISTS idx_game_participants_name ON game_participants(name);
        CREATE INDEX IF NOT EXISTS idx_game_participants_game_record_id ON game_participants(game_record_id);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
        INSERT INTO game_records (room_id, outcome, day, turns, rooms_explored, boss_defeated, players)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`,
		record.RoomID, record.Outcome, record.Day, record.Turns,
		record.RoomsExplored, record.BossDefeated, players,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return err
	}

	for _, name := range record.Players {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO game_participants (game_record_id, name, outcome) VALUES ($1, $2, $3)`,
			record.ID, name, record.Outcome)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListGameRecords 最近的对局，新的在前
func (p *PostgreSQL) ListGameRecords(limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT id, room_id, outcome, day, turns, rooms_explored, boss_defeated, players, created_at
        FROM game_records
        WHERE deleted_at IS NULL
        ORDER BY created_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var (
			r       models.GameRecord
			players []byte
		)
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Outcome, &r.Day, &r.Turns,
			&r.RoomsExplored, &r.BossDefeated, &players, &r.CreatedAt); err != nil {
			return nil, err
		}
		if len(players) > 0 {
			if err := json.Unmarshal(players, &r.Players); err != nil {
				return nil, fmt.Errorf("record %d players: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetPlayerStats 聚合玩家战绩
func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stats := &models.PlayerStats{Name: name}
	var last sql.NullTime
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN gp.outcome = $2 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN gp.outcome = $3 THEN 1 ELSE 0 END), 0),
            MAX(gr.created_at)
        FROM game_participants gp
        JOIN game_records gr ON gr.id = gp.game_record_id
        WHERE gp.name = $1 AND gr.deleted_at IS NULL`,
		name, models.OutcomeWon, models.OutcomeLost,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	if last.Valid {
		stats.LastPlayed = last.Time
	}
	return stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
