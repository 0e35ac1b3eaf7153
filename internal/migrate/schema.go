package migrate

import (
	"database/sql"

	"road-api/internal/logger"
)

// 背景：首次运行自动创建服务自有的表与索引，保障区域查询与导入记录落库
// 约束：仅创建本服务拥有的表；t_system_project / t_system_dict_data / t_system_dept
// 属于外部系统，只读不建；使用 IF NOT EXISTS 避免与既有结构冲突
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _road_areas (
            id BIGINT PRIMARY KEY,
            name TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_road_areas_name ON _road_areas(name)`,
		`CREATE TABLE IF NOT EXISTS _road_import_jobs (
            id SERIAL PRIMARY KEY,
            family TEXT NOT NULL,
            total_rows INT NOT NULL DEFAULT 0,
            processed_rows INT NOT NULL DEFAULT 0,
            failed_rows INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS _road_created (
            id SERIAL PRIMARY KEY,
            family TEXT NOT NULL,
            hierarchy INT NOT NULL,
            road_id BIGINT NOT NULL,
            parent_id BIGINT,
            name TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_road_created_road ON _road_created(family, road_id)`,
		`CREATE TABLE IF NOT EXISTS _road_stats_total (
            id INT PRIMARY KEY,
            total_jobs BIGINT NOT NULL DEFAULT 0,
            total_rows BIGINT NOT NULL DEFAULT 0,
            failed_rows BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO _road_stats_total(id, total_jobs, total_rows, failed_rows)
         VALUES(1, 0, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
