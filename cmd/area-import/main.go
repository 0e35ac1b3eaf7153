// 离线工具：把行政区域 CSV 导入 _road_areas 表
// 背景：区域表原先以 CSV 文件随服务分发、逐次请求扫描；导入数据库后查询
// 走索引并可接入 Redis 缓存
package main

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"road-api/internal/logger"
	"road-api/internal/migrate"
	"road-api/internal/utils"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// importAreas：逐行写入区域记录，5000 行为一批提交
// 约束：id 非数字或 name 为空的行跳过并计数；同 id 重复时覆盖名称
func importAreas(db *sql.DB, r io.Reader) (int, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return 0, 0, err
	}
	idCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "id":
			idCol = i
		case "name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return 0, 0, errors.New("CSV缺少 id/name 列")
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, 0, err
	}
	// 闭包取当前 tx：分批提交后变量指向新事务，出错返回时回滚的必须是它
	defer func() { _ = tx.Rollback() }()
	const upsert = `INSERT INTO _road_areas(id, name) VALUES($1,$2)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`
	count, skipped := 0, 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, skipped, err
		}
		if idCol >= len(rec) || nameCol >= len(rec) {
			skipped++
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		name := strings.TrimSpace(rec[nameCol])
		if err != nil || name == "" {
			skipped++
			continue
		}
		if _, err := tx.Exec(upsert, id, name); err != nil {
			return count, skipped, err
		}
		count++
		if count%5000 == 0 {
			logger.L().Info("area_import_progress", "count", count)
			if err := tx.Commit(); err != nil {
				return count, skipped, err
			}
			if tx, err = db.Begin(); err != nil {
				return count, skipped, err
			}
		}
	}
	return count, skipped, tx.Commit()
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()

	path := os.Getenv("AREA_CSV_PATH")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		path = filepath.Join("src", "area.csv")
	}
	f, err := os.Open(path)
	if err != nil {
		l.Error("area_csv_open_error", "path", path, "err", err)
		os.Exit(1)
	}
	defer f.Close()

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	l.Info("area_import_begin", "path", path)
	count, skipped, err := importAreas(db, f)
	if err != nil {
		l.Error("area_import_error", "err", err, "count", count)
		os.Exit(1)
	}
	l.Info("area_import_done", "count", count, "skipped", skipped)
}
