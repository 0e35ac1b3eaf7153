// 包 country：农村公路导入流水线
// 流程：模板校验 → 逐行解析与参照表解析 → 轨迹生成 → 三级路网创建
package country

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"road-api/internal/convert"
	"road-api/internal/logger"
	"road-api/internal/metrics"
	"road-api/internal/report"
	"road-api/internal/roadapi"
	"road-api/internal/sheet"
	"road-api/internal/store"
	"road-api/internal/track"

	"github.com/paulmach/orb"
)

// Family：资源族标识，用于记录与指标维度
const Family = "countryside"

// 必填列：缺任意一列即整表拒绝
var RequiredColumns = []string{
	"所属项目",
	"道路名称",
	"道路长度(km)",
	"道路宽度(m)",
	"车道数",
	"道路类型",
	"道路起点桩号",
	"道路终点桩号",
	"里程桩间隔(m)",
	"道路结构名称",
	"行车方向",
	"养护开始时间(年、月、日)",
	"养护结束时间(年、月、日)",
	"道路起点桩号位置",
	"道路终点桩号位置",
	"道路轨迹坐标",
}

// 可选的单位列到请求载荷字段的映射
var companyColumns = []struct {
	Column string
	Assign func(*roadapi.Road, int64)
}{
	{"设计单位", func(r *roadapi.Road, id int64) { r.DesignerCom = id }},
	{"施工单位", func(r *roadapi.Road, id int64) { r.ConstructionCom = id }},
	{"管理单位", func(r *roadapi.Road, id int64) { r.ManagerCom = id }},
	{"建设单位", func(r *roadapi.Road, id int64) { r.OwnerCom = id }},
	{"监理单位", func(r *roadapi.Road, id int64) { r.SupervisionCom = id }},
	{"养护单位", func(r *roadapi.Road, id int64) { r.OperationCom = id }},
}

// Lookups：外部参照表解析依赖
type Lookups interface {
	ProjectInfo(ctx context.Context, name string) (*store.Project, error)
	DictValue(ctx context.Context, dictType, label string) (string, error)
	CompanyID(ctx context.Context, name, typeLabel string) (int64, error)
	AreaID(ctx context.Context, name string) (int64, error)
}

// RoadAPI：路网管理接口依赖
type RoadAPI interface {
	Create(ctx context.Context, scope roadapi.Scope, road *roadapi.Road) (int64, error)
	Update(ctx context.Context, scope roadapi.Scope, road *roadapi.Road) error
}

// TrackGen：轨迹生成依赖
type TrackGen interface {
	ParallelTracks(ctx context.Context, center orb.LineString, widthMeters, markerInterval float64) (*track.Tracks, error)
}

// Recorder：创建留痕与任务统计，nil 时跳过
type Recorder interface {
	RecordCreated(ctx context.Context, family string, hierarchy int, roadID, parentID int64, name string)
	RecordJob(ctx context.Context, family string, total, processed, failed int)
}

// Importer：农村公路导入器
type Importer struct {
	Lookups    Lookups
	Roads      RoadAPI
	Tracks     TrackGen
	Recorder   Recorder
	Directions map[string]track.Side
}

// directionValue：方向标签及其字典值，保持模板内的书写顺序
type directionValue struct {
	Label string
	Value string
}

// roadRow：一行模板解析完成后的全部创建要素
type roadRow struct {
	rowNumber  int
	scope      roadapi.Scope
	name       string
	laneCount  int
	roadType   string
	stakes     []StakeSegment
	totalKM    float64
	structure  string
	directions []directionValue
	maintStart int64
	maintEnd   int64
	interval   int
	width      float64
	tracks     *track.Tracks
	companies  []func(*roadapi.Road)
	district   int64
}

// Run：执行一次导入
// 背景：先全表校验必填列再逐行处理；任一行的创建错误只影响该行，
// 汇总结果带回每条道路的节点 id 与错误明细
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
	// 一级道路按名称在单次导入内去重：同名多行归属同一条路
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

// processRow：解析一行模板并完成全部参照表解析与轨迹生成
func (im *Importer) processRow(ctx context.Context, row sheet.Row) (*roadRow, error) {
	data := &roadRow{rowNumber: row.Number, name: row.Get("道路名称")}

	project, err := im.Lookups.ProjectInfo(ctx, row.Get("所属项目"))
	if err != nil {
		return nil, err
	}
	data.scope = roadapi.Scope{ProjectID: project.ID, TenantID: project.TenantID}

	if data.laneCount, err = convert.LaneCount(row.Get("车道数")); err != nil {
		return nil, err
	}
	if data.roadType, err = im.Lookups.DictValue(ctx, "country_highways_type", row.Get("道路类型")); err != nil {
		return nil, err
	}

	interval, err := strconv.Atoi(row.Get("里程桩间隔(m)"))
	if err != nil {
		return nil, fmt.Errorf("无效的里程桩间隔: %s", row.Get("里程桩间隔(m)"))
	}
	data.interval = interval
	stakes, calcKM, err := SegmentStakes(row.Get("道路起点桩号"), row.Get("道路终点桩号"), interval)
	if err != nil {
		return nil, err
	}
	data.stakes = stakes

	userKM, err := strconv.ParseFloat(row.Get("道路长度(km)"), 64)
	if err != nil {
		return nil, fmt.Errorf("无效的道路长度: %s", row.Get("道路长度(km)"))
	}
	// 以填表长度为准；与桩号推算值差异过大时仅告警
	if math.Abs(calcKM-userKM) > 0.1 {
		logger.L().Warn("length_mismatch", "row", row.Number, "user_km", userKM, "calc_km", calcKM)
	}
	data.totalKM = userKM

	if data.structure, err = im.Lookups.DictValue(ctx, "structure_name", row.Get("道路结构名称")); err != nil {
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

	if data.width, err = strconv.ParseFloat(row.Get("道路宽度(m)"), 64); err != nil {
		return nil, fmt.Errorf("无效的道路宽度: %s", row.Get("道路宽度(m)"))
	}

	center, err := track.ParseCenterline(row.Get("道路轨迹坐标"))
	if err != nil {
		return nil, err
	}
	if data.tracks, err = im.Tracks.ParallelTracks(ctx, center, data.width, float64(interval)); err != nil {
		return nil, fmt.Errorf("轨迹生成失败: %w", err)
	}

	// 可选单位列：查询失败仅跳过该单位，不拒绝整行
	for _, cc := range companyColumns {
		if !row.Has(cc.Column) {
			continue
		}
		id, err := im.Lookups.CompanyID(ctx, row.Get(cc.Column), cc.Column)
		if err != nil {
			logger.L().Warn("company_skip", "row", row.Number, "column", cc.Column, "err", err)
			continue
		}
		assign := cc.Assign
		data.companies = append(data.companies, func(r *roadapi.Road) { assign(r, id) })
	}
	if row.Has("行政辖区") {
		if id, err := im.Lookups.AreaID(ctx, row.Get("行政辖区")); err != nil {
			logger.L().Warn("district_skip", "row", row.Number, "err", err)
		} else {
			data.district = id
		}
	}

	logger.L().Debug("row_parsed", "row", row.Number, "name", data.name,
		"segments", len(data.stakes), "directions", len(data.directions))
	return data, nil
}

// createNetwork：为一行数据创建完整三级路网
// 约束：二级/三级节点的创建失败逐段记录，不中断后续分段；
// 一级节点创建失败则整行终止
func (im *Importer) createNetwork(ctx context.Context, data *roadRow, created map[string]int64) *report.RoadResult {
	res := &report.RoadResult{RoadName: data.name}

	level1, ok := created[data.name]
	if !ok {
		var err error
		level1, err = im.createLevel1(ctx, data)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("一级道路创建失败: %v", err))
			return res
		}
		created[data.name] = level1
	}
	res.Level1ID = level1

	for segIdx, seg := range data.stakes {
		level2, err := im.createLevel2(ctx, data, level1, seg)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("二级道路创建失败(%s-%s): %v", seg.Start, seg.End, err))
			continue
		}
		res.Level2IDs = append(res.Level2IDs, level2)

		for dirIdx, dir := range data.directions {
			// 首个方向沿桩号正序，反向车道起终点互换
			start, end := seg.Start, seg.End
			if dirIdx > 0 {
				start, end = seg.End, seg.Start
			}
			level3, err := im.createLevel3(ctx, data, level2, start, end, dir, segIdx)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("三级道路创建失败(%s): %v", dir.Label, err))
				continue
			}
			res.Level3IDs = append(res.Level3IDs, level3)
		}
	}

	logger.L().Info("network_done", "name", data.name,
		"level2", len(res.Level2IDs), "level3", len(res.Level3IDs), "errors", len(res.Errors))
	return res
}

func (im *Importer) createLevel1(ctx context.Context, data *roadRow) (int64, error) {
	road := &roadapi.Road{
		Name:           data.name,
		Length:         data.totalKM,
		Ext3:           strconv.Itoa(data.laneCount),
		AdministerFlag: true,
		Hierarchy:      1,
		Ext1:           data.roadType,
	}
	id, err := im.Roads.Create(ctx, data.scope, road)
	if err != nil {
		return 0, err
	}
	if im.Recorder != nil {
		im.Recorder.RecordCreated(ctx, Family, 1, id, 0, road.Name)
	}
	return id, nil
}

func (im *Importer) createLevel2(ctx context.Context, data *roadRow, parentID int64, seg StakeSegment) (int64, error) {
	road := &roadapi.Road{
		Name:           seg.Start + "-" + seg.End,
		ParentID:       parentID,
		Length:         float64(data.interval),
		AdministerFlag: true,
		Hierarchy:      2,
		SegmentStartID: seg.Start,
		SegmentEndID:   seg.End,
		OptStartDate:   data.maintStart,
		OptEndDate:     data.maintEnd,
		Ext2:           data.structure,
	}
	for _, assign := range data.companies {
		assign(road)
	}
	if data.district > 0 {
		road.District = data.district
	}
	id, err := im.Roads.Create(ctx, data.scope, road)
	if err != nil {
		return 0, err
	}
	if im.Recorder != nil {
		im.Recorder.RecordCreated(ctx, Family, 2, id, parentID, road.Name)
	}
	return id, nil
}

// createLevel3：创建三级道路并补挂几何标注
// 背景：外部系统不支持对未创建节点挂几何，标注必须在创建成功后通过更新接口补挂；
// 标注失败不回滚节点，仅告警（与人工操作时的现状一致）
func (im *Importer) createLevel3(ctx context.Context, data *roadRow, parentID int64, start, end string, dir directionValue, segIdx int) (int64, error) {
	road := &roadapi.Road{
		Name:           "(" + dir.Label + ")" + start + "-" + end,
		ParentID:       parentID,
		Ext3:           strconv.Itoa(max(1, data.laneCount/2)),
		AdministerFlag: true,
		Hierarchy:      3,
		SegmentStartID: start,
		SegmentEndID:   end,
		DriveDirection: dir.Value,
		Width:          data.width / 2,
	}
	id, err := im.Roads.Create(ctx, data.scope, road)
	if err != nil {
		return 0, err
	}
	if im.Recorder != nil {
		im.Recorder.RecordCreated(ctx, Family, 3, id, parentID, road.Name)
	}

	seg, err := segmentFor(data.tracks, im.Directions, dir.Label, segIdx)
	if err != nil {
		logger.L().Warn("geometry_skip", "road_id", id, "err", err)
		return id, nil
	}
	payload, err := track.SegmentPayload(seg.Start, seg.End, seg.Length)
	if err != nil {
		logger.L().Warn("geometry_skip", "road_id", id, "err", err)
		return id, nil
	}
	if err := im.Roads.Update(ctx, data.scope, &roadapi.Road{ID: id, Hierarchy: 3, AdministerFlag: true, GeoJSON: payload}); err != nil {
		logger.L().Warn("geometry_update_failed", "road_id", id, "err", err)
	}
	return id, nil
}
