// 包 roadapi：第三方路网管理接口的类型化客户端
// 背景：外部系统的创建/更新契约固定不可变，本包只做绑定，不承载业务规则
package roadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"road-api/internal/logger"
	"road-api/internal/metrics"
)

// Scope：每次请求的项目与租户定位，随请求头传递
type Scope struct {
	ProjectID int64
	TenantID  int64
}

// Road：道路节点请求载荷
// 约束：字段名与外部接口的 JSON 契约一一对应；hierarchy N+1 的节点必须
// 通过 parentId 引用 hierarchy N 的节点；ext1/ext2/ext3 分别承载道路类型、
// 道路结构与车道数（外部系统的扩展位约定）
type Road struct {
	ID              int64   `json:"id,omitempty"`
	Name            string  `json:"name,omitempty"`
	ParentID        int64   `json:"parentId,omitempty"`
	Length          float64 `json:"length,omitempty"`
	Hierarchy       int     `json:"hierarchy,omitempty"`
	AdministerFlag  bool    `json:"administerFlag"`
	Ext1            string  `json:"ext1,omitempty"`
	Ext2            string  `json:"ext2,omitempty"`
	Ext3            string  `json:"ext3,omitempty"`
	SegmentStartID  string  `json:"segmentStartId,omitempty"`
	SegmentEndID    string  `json:"segmentEndId,omitempty"`
	OptStartDate    int64   `json:"optStartDate,omitempty"`
	OptEndDate      int64   `json:"optEndDate,omitempty"`
	DriveDirection  string  `json:"driveDirection,omitempty"`
	Width           float64 `json:"width,omitempty"`
	GeoJSON         string  `json:"geojson,omitempty"`
	ManagerCom      int64   `json:"managerCom,omitempty"`
	OwnerCom        int64   `json:"ownerCom,omitempty"`
	SupervisionCom  int64   `json:"supervisionCom,omitempty"`
	OperationCom    int64   `json:"operationCom,omitempty"`
	DesignerCom     int64   `json:"designerCom,omitempty"`
	ConstructionCom int64   `json:"constructionCom,omitempty"`
	District        int64   `json:"district,omitempty"`
}

// envelope：外部接口统一响应包裹；code==0 成功，data 在创建时为新节点 id
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Client：一个资源族（农村公路或城市道路）的接口客户端
// 背景：两族资源各有独立 base 路径但契约相同，各自持有一个客户端实例
type Client struct {
	base  string
	token string
	hc    *http.Client
}

// NewClient：创建客户端
// 参数：base 为资源族的接口基础地址；token 为 Bearer 令牌；hc 为空时使用 30s 超时默认客户端
func NewClient(base, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: base, token: token, hc: hc}
}

// Create：创建道路节点，返回外部系统分配的节点 id
func (c *Client) Create(ctx context.Context, scope Scope, road *Road) (int64, error) {
	data, err := c.do(ctx, http.MethodPost, "/create", scope, road)
	if err != nil {
		return 0, err
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("创建响应缺少节点id: %s", string(data))
	}
	id, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("创建响应节点id非法: %s", n.String())
	}
	metrics.RoadCreatedTotal.WithLabelValues(strconv.Itoa(road.Hierarchy)).Inc()
	logger.L().Debug("road_create_ok", "name", road.Name, "hierarchy", road.Hierarchy, "id", id)
	return id, nil
}

// Update：更新既有道路节点
// 背景：三级道路的几何标注必须在节点创建之后补挂（外部系统不支持对未创建节点挂几何）
func (c *Client) Update(ctx context.Context, scope Scope, road *Road) error {
	if road.ID == 0 {
		return errors.New("更新请求缺少节点id")
	}
	_, err := c.do(ctx, http.MethodPut, "/update", scope, road)
	if err == nil {
		logger.L().Debug("road_update_ok", "id", road.ID)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, scope Scope, road *Road) (json.RawMessage, error) {
	body, err := json.Marshal(road)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client-type", "1")
	req.Header.Set("project-id", strconv.FormatInt(scope.ProjectID, 10))
	req.Header.Set("tenant-id", strconv.FormatInt(scope.TenantID, 10))

	t0 := time.Now()
	metrics.RoadRequestsTotal.Inc()
	logger.L().Debug("road_req", "method", method, "path", path, "name", road.Name, "hierarchy", road.Hierarchy)
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.RoadFailTotal.Inc()
		logger.L().Error("road_http_error", "err", err)
		return nil, err
	}
	defer resp.Body.Close()
	metrics.RoadDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if resp.StatusCode != http.StatusOK {
		metrics.RoadFailTotal.Inc()
		return nil, fmt.Errorf("接口状态码异常: %d", resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		metrics.RoadFailTotal.Inc()
		logger.L().Error("road_decode_error", "err", err)
		return nil, err
	}
	if env.Code != 0 {
		metrics.RoadFailTotal.Inc()
		msg := env.Msg
		if msg == "" {
			msg = "未知错误"
		}
		return nil, fmt.Errorf("接口返回失败: %s", msg)
	}
	return env.Data, nil
}
