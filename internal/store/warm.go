// 包 store：字典缓存预热任务，运行在服务进程内的后台协程
package store

import (
	"context"
	"os"
	"strconv"
	"time"

	"road-api/internal/logger"
)

// nextDailyAt：计算下一次指定整点的时间点
// 约束：基于传入时区 loc 与整点 hour；仅前推至未来时间
func nextDailyAt(loc *time.Location, hour int) time.Time {
	now := time.Now().In(loc)
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if t.After(now) {
		return t
	}
	return t.AddDate(0, 0, 1)
}

// WarmDictCache：把字典表全量刷入 Redis 查询缓存
// 为什么：导入高峰期字典命中集中，预热后首轮导入也能走缓存
// 约束：未配置 Redis 时直接返回；单条写入失败不中断
func (s *Store) WarmDictCache(ctx context.Context) error {
	if s.rc == nil {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT dict_type, label, value FROM t_system_dict_data")
	if err != nil {
		return err
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		var dictType, label, value string
		if err := rows.Scan(&dictType, &label, &value); err != nil {
			return err
		}
		s.cacheSet(ctx, "dict:"+dictType+":"+label, value)
		count++
	}
	logger.L().Info("dict_warm_done", "count", count)
	return rows.Err()
}

// StartNightlyShanghai：在北京时间（Asia/Shanghai）每日 3:00 预热字典缓存
// 背景：参照表由外部系统在夜间维护，凌晨刷新可避免白天导入命中陈旧值
// 约束：可使用 WARM_HOUR 覆盖小时（整数），不支持分钟级；运行于后台协程
func (s *Store) StartNightlyShanghai() {
	l := logger.L()
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	hour := 3
	if h := os.Getenv("WARM_HOUR"); h != "" {
		if n, err := strconv.Atoi(h); err == nil {
			hour = n
		}
	}
	next := nextDailyAt(loc, hour)
	go func() {
		for {
			time.Sleep(time.Until(next))
			l.Info("dict_warm_start", "next", next)
			if err := s.WarmDictCache(context.Background()); err != nil {
				l.Error("dict_warm_error", "err", err)
			}
			next = next.AddDate(0, 0, 1)
		}
	}()
}
