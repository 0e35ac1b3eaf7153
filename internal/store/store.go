// 包 store: 提供与 PostgreSQL 的数据访问层，负责外部参照表查询与导入记录读写
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"road-api/internal/logger"
	"road-api/internal/metrics"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// 查询缓存有效期：参照表数据变更频率低，按天缓存
const cacheTTL = 24 * time.Hour

// Store: 数据访问入口，持有连接池与可选的 Redis 查询缓存
type Store struct {
	db *sql.DB
	rc *redis.Client
}

func AttachDB(db *sql.DB, rc *redis.Client) *Store { return &Store{db: db, rc: rc} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// cacheGet：读取查询缓存；未配置 Redis 时恒为未命中
func (s *Store) cacheGet(ctx context.Context, key string) (string, bool) {
	if s.rc == nil {
		return "", false
	}
	v, err := s.rc.Get(ctx, key).Result()
	if err != nil || v == "" {
		metrics.LookupCacheMissesTotal.Inc()
		return "", false
	}
	metrics.LookupCacheHitsTotal.Inc()
	return v, true
}

// cacheSet：写入查询缓存；失败静默，缓存只是加速层
func (s *Store) cacheSet(ctx context.Context, key, val string) {
	if s.rc == nil {
		return
	}
	_ = s.rc.Set(ctx, key, val, cacheTTL).Err()
}

// Project: 项目参照信息，创建道路时作为 project-id / tenant-id 请求头
type Project struct {
	ID       int64
	TenantID int64
}

// ProjectInfo: 按项目名称查询项目与租户标识
// 背景：导入表的“所属项目”列必须命中 t_system_project，否则整行拒绝
func (s *Store) ProjectInfo(ctx context.Context, name string) (*Project, error) {
	key := "proj:" + name
	if v, ok := s.cacheGet(ctx, key); ok {
		var p Project
		if _, err := fmt.Sscanf(v, "%d/%d", &p.ID, &p.TenantID); err == nil {
			return &p, nil
		}
	}
	row := s.db.QueryRowContext(ctx, "SELECT id, tenant_id FROM t_system_project WHERE name = $1", name)
	var p Project
	if err := row.Scan(&p.ID, &p.TenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("项目不存在: %s", name)
		}
		return nil, err
	}
	logger.L().Debug("project_lookup", "name", name, "id", p.ID, "tenant_id", p.TenantID)
	s.cacheSet(ctx, key, fmt.Sprintf("%d/%d", p.ID, p.TenantID))
	return &p, nil
}

// DictValue: 按字典类型与标签查询字典值
// 约束：导入表的下拉项必须与 t_system_dict_data 的 label 完全一致，未命中即报错
func (s *Store) DictValue(ctx context.Context, dictType, label string) (string, error) {
	key := "dict:" + dictType + ":" + label
	if v, ok := s.cacheGet(ctx, key); ok {
		return v, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT value FROM t_system_dict_data WHERE dict_type = $1 AND label = $2", dictType, label)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("字典值不存在: dict_type=%s, label=%s", dictType, label)
		}
		return "", err
	}
	logger.L().Debug("dict_lookup", "dict_type", dictType, "label", label, "value", v)
	s.cacheSet(ctx, key, v)
	return v, nil
}

// CompanyID: 按公司名称与类型标签查询公司标识
// 背景：两步查询——先把类型标签换成 company_type 字典值，再按名称+类型匹配 t_system_dept
func (s *Store) CompanyID(ctx context.Context, name, typeLabel string) (int64, error) {
	key := "com:" + typeLabel + ":" + name
	if v, ok := s.cacheGet(ctx, key); ok {
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			return id, nil
		}
	}
	typeValue, err := s.DictValue(ctx, "company_type", typeLabel)
	if err != nil {
		return 0, fmt.Errorf("公司类型不存在: %s", typeLabel)
	}
	row := s.db.QueryRowContext(ctx, "SELECT id FROM t_system_dept WHERE name = $1 AND company_type = $2", name, typeValue)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("公司不存在: 名称=%s, 类型值=%s", name, typeValue)
		}
		return 0, err
	}
	logger.L().Debug("company_lookup", "name", name, "type", typeLabel, "id", id)
	s.cacheSet(ctx, key, fmt.Sprintf("%d", id))
	return id, nil
}

// AreaID: 按区域名称查询行政区域标识
// 背景：区域表由 cmd/area-import 离线导入本库，替代逐请求扫描 CSV 文件
func (s *Store) AreaID(ctx context.Context, name string) (int64, error) {
	key := "area:" + name
	if v, ok := s.cacheGet(ctx, key); ok {
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			return id, nil
		}
	}
	row := s.db.QueryRowContext(ctx, "SELECT id FROM _road_areas WHERE name = $1 LIMIT 1", name)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("区域不存在: %s", name)
		}
		return 0, err
	}
	logger.L().Debug("area_lookup", "name", name, "id", id)
	s.cacheSet(ctx, key, fmt.Sprintf("%d", id))
	return id, nil
}

// RecordJob: 记录一次导入任务的行数统计并累加总计
// 约束：记录失败不阻断导入主流程，仅日志提示
func (s *Store) RecordJob(ctx context.Context, family string, total, processed, failed int) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _road_import_jobs(family, total_rows, processed_rows, failed_rows)
        VALUES($1,$2,$3,$4)`, family, total, processed, failed)
	if err != nil {
		logger.L().Error("job_record_error", "err", err)
	}
	_, _ = s.db.ExecContext(ctx, `UPDATE _road_stats_total
        SET total_jobs=total_jobs+1, total_rows=total_rows+$1, failed_rows=failed_rows+$2 WHERE id=1`, total, failed)
}

// RecordCreated: 登记通过外部接口创建成功的道路节点
// 背景：外部系统不提供创建回执清单，本地留痕便于核对与排错
func (s *Store) RecordCreated(ctx context.Context, family string, hierarchy int, roadID, parentID int64, name string) {
	var parent any
	if parentID > 0 {
		parent = parentID
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _road_created(family, hierarchy, road_id, parent_id, name)
        VALUES($1,$2,$3,$4,$5)`, family, hierarchy, roadID, parent, name)
	if err != nil {
		logger.L().Error("created_record_error", "err", err)
	}
}

// Totals: 统计返回结构，包含任务数与行数累计
type Totals struct {
	Jobs   int64
	Rows   int64
	Failed int64
}

// GetTotals: 读取累计统计，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_jobs, total_rows, failed_rows FROM _road_stats_total WHERE id=1")
	_ = row.Scan(&t.Jobs, &t.Rows, &t.Failed)
	logger.L().Debug("stats_totals", "jobs", t.Jobs, "rows", t.Rows, "failed", t.Failed)
	return &t, nil
}
