// 包 city：城市道路导入流水线
// 背景：与农村公路平行的资源族，接口契约相同但模板不同——城市道路按起止
// 道路命名路段，里程以米计，且模板不含轨迹坐标列，不做几何标注
package city

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"road-api/internal/convert"
	"road-api/internal/country"
	"road-api/internal/logger"
	"road-api/internal/metrics"
	"road-api/internal/report"
	"road-api/internal/roadapi"
	"road-api/internal/sheet"
)

// Family：资源族标识
const Family = "city"

// 必填列
var RequiredColumns = []string{
	"所属项目",
	"道路名称",
	"起始道路",
	"结束道路",
	"车道数",
	"道路总里程(m)",
	"道路等级",
	"行车方向",
	"养护开始时间(年、月、日)",
	"养护结束时间(年、月、日)",
}

// Importer：城市道路导入器
// 约束：参照表与接口依赖与农村公路侧共用同一组抽象
type Importer struct {
	Lookups  country.Lookups
	Roads    country.RoadAPI
	Recorder country.Recorder
}

type directionValue struct {
	Label string
	Value string
}

type roadRow struct {
	rowNumber    int
	scope        roadapi.Scope
	name         string
	startRoad    string
	endRoad      string
	laneCount    int
	lengthMeters float64
	grade        string
	directions   []directionValue
	maintStart   int64
	maintEnd     int64
}

// Run：执行一次导入
func (im *Importer) Run(ctx context.Context, r io.Reader) (*report.Result, error) {
	t0 := time.Now()
	metrics.ImportRequestsTotal.WithLabelValues(Family).Inc()
	s, err := sheet.Read(r)
	if err != nil {
		return nil, err
	}
	if errs := sheet.ValidateRequired(s, RequiredColumns); len(errs) > 0 {
		logger.L().Info("import_validation_failed", "family", Family, "errors", len(errs))
		return report.ValidationFailed(errs), nil
	}
	logger.L().Info("import_begin", "family", Family, "rows", len(s.Rows))

	res := &report.Result{TotalRows: len(s.Rows)}
	created := make(map[string]int64)
	for _, row := range s.Rows {
		data, err := im.processRow(ctx, row)
		if err != nil {
			res.FailedRows++
			res.Errors = append(res.Errors, fmt.Sprintf("第%d行处理失败: %v", row.Number, err))
			metrics.ImportRowsTotal.WithLabelValues(Family, "failed").Inc()
			logger.L().Error("row_failed", "family", Family, "row", row.Number, "err", err)
			continue
		}
		rr := im.createNetwork(ctx, data, created)
		res.RoadResults = append(res.RoadResults, rr)
		if len(rr.Errors) > 0 {
			res.FailedRows++
			res.Errors = append(res.Errors, rr.Errors...)
			metrics.ImportRowsTotal.WithLabelValues(Family, "failed").Inc()
		} else {
			res.ProcessedRows++
			metrics.ImportRowsTotal.WithLabelValues(Family, "ok").Inc()
		}
	}
	res.Finish()
	if im.Recorder != nil {
		im.Recorder.RecordJob(ctx, Family, res.TotalRows, res.ProcessedRows, res.FailedRows)
	}
	metrics.ImportDurationMs.WithLabelValues(Family).Observe(float64(time.Since(t0).Milliseconds()))
	logger.L().Info("import_done", "family", Family, "message", res.Message)
	return res, nil
}

func (im *Importer) processRow(ctx context.Context, row sheet.Row) (*roadRow, error) {
	data := &roadRow{
		rowNumber: row.Number,
		name:      row.Get("道路名称"),
		startRoad: row.Get("起始道路"),
		endRoad:   row.Get("结束道路"),
	}

	project, err := im.Lookups.ProjectInfo(ctx, row.Get("所属项目"))
	if err != nil {
		return nil, err
	}
	data.scope = roadapi.Scope{ProjectID: project.ID, TenantID: project.TenantID}

	if data.laneCount, err = convert.LaneCount(row.Get("车道数")); err != nil {
		return nil, err
	}
	if data.lengthMeters, err = strconv.ParseFloat(row.Get("道路总里程(m)"), 64); err != nil {
		return nil, fmt.Errorf("无效的道路总里程: %s", row.Get("道路总里程(m)"))
	}
	if data.grade, err = im.Lookups.DictValue(ctx, "city_road_grade", row.Get("道路等级")); err != nil {
		return nil, err
	}

	for _, label := range convert.Directions(row.Get("行车方向")) {
		value, err := im.Lookups.DictValue(ctx, "drive_direction", label)
		if err != nil {
			return nil, err
		}
		data.directions = append(data.directions, directionValue{Label: label, Value: value})
	}
	if len(data.directions) == 0 {
		return nil, fmt.Errorf("行车方向为空")
	}

	if data.maintStart, err = convert.DateMillis(row.Get("养护开始时间(年、月、日)")); err != nil {
		return nil, err
	}
	if data.maintEnd, err = convert.DateMillis(row.Get("养护结束时间(年、月、日)")); err != nil {
		return nil, err
	}
	return data, nil
}

// createNetwork：为一行数据创建三级结构
// 背景：城市道路一行即一个路段（起始道路→结束道路），二级节点唯一，
// 三级节点按行车方向展开
func (im *Importer) createNetwork(ctx context.Context, data *roadRow, created map[string]int64) *report.RoadResult {
	res := &report.RoadResult{RoadName: data.name}

	level1, ok := created[data.name]
	if !ok {
		road := &roadapi.Road{
			Name:           data.name,
			Length:         data.lengthMeters,
			Ext3:           strconv.Itoa(data.laneCount),
			AdministerFlag: true,
			Hierarchy:      1,
			Ext1:           data.grade,
		}
		var err error
		if level1, err = im.Roads.Create(ctx, data.scope, road); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("一级道路创建失败: %v", err))
			return res
		}
		if im.Recorder != nil {
			im.Recorder.RecordCreated(ctx, Family, 1, level1, 0, road.Name)
		}
		created[data.name] = level1
	}
	res.Level1ID = level1

	segName := data.startRoad + "-" + data.endRoad
	level2Road := &roadapi.Road{
		Name:           segName,
		ParentID:       level1,
		Length:         data.lengthMeters,
		AdministerFlag: true,
		Hierarchy:      2,
		SegmentStartID: data.startRoad,
		SegmentEndID:   data.endRoad,
		OptStartDate:   data.maintStart,
		OptEndDate:     data.maintEnd,
	}
	level2, err := im.Roads.Create(ctx, data.scope, level2Road)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("二级道路创建失败(%s): %v", segName, err))
		return res
	}
	if im.Recorder != nil {
		im.Recorder.RecordCreated(ctx, Family, 2, level2, level1, segName)
	}
	res.Level2IDs = append(res.Level2IDs, level2)

	for dirIdx, dir := range data.directions {
		start, end := data.startRoad, data.endRoad
		if dirIdx > 0 {
			start, end = data.endRoad, data.startRoad
		}
		road := &roadapi.Road{
			Name:           "(" + dir.Label + ")" + start + "-" + end,
			ParentID:       level2,
			Ext3:           strconv.Itoa(max(1, data.laneCount/2)),
			AdministerFlag: true,
			Hierarchy:      3,
			SegmentStartID: start,
			SegmentEndID:   end,
			DriveDirection: dir.Value,
		}
		level3, err := im.Roads.Create(ctx, data.scope, road)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("三级道路创建失败(%s): %v", dir.Label, err))
			continue
		}
		if im.Recorder != nil {
			im.Recorder.RecordCreated(ctx, Family, 3, level3, level2, road.Name)
		}
		res.Level3IDs = append(res.Level3IDs, level3)
	}

	logger.L().Info("network_done", "name", data.name,
		"level2", len(res.Level2IDs), "level3", len(res.Level3IDs), "errors", len(res.Errors))
	return res
}
