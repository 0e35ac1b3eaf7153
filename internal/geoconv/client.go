// 包 geoconv：百度坐标转换 REST 客户端，作为轨迹计算的坐标系桥梁
package geoconv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"road-api/internal/logger"
	"road-api/internal/metrics"

	"github.com/paulmach/orb"
)

// 坐标系代号：与百度 geoconv 接口的 from/to 参数对齐
const (
	CoordBD09   = "5" // BD-09 经纬度
	CoordBD09MC = "6" // BD-09 墨卡托米制
)

// 单次请求坐标点上限：百度接口硬限制
const batchSize = 100

// 文档注释：百度坐标转换响应结构
// 背景：仅解析本方案需要的状态码与坐标结果；status!=0 时 message 用于错误提示。
type convResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"result"`
}

// perSecond：每秒配额的阻塞式令牌桶
// 背景：原流程在批次间固定休眠以避免触发限流；改为按配额等待，批量大时整体更快
// 约束：仅秒级粒度；并发调用共享同一配额
type perSecond struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
}

func (p *perSecond) wait() {
	for {
		p.mu.Lock()
		nowSec := time.Now().Unix()
		if p.lastSec != nowSec {
			p.lastSec = nowSec
			p.tokens = p.capacity
		}
		if p.tokens > 0 {
			p.tokens--
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		time.Sleep(50 * time.Millisecond)
	}
}

// Client：geoconv 客户端，持有密钥与限速器
type Client struct {
	ak     string
	base   string
	hc     *http.Client
	limits *perSecond
}

// NewClient：创建客户端
// 参数：ak 为百度 Web 服务密钥，必填；hc 可传共享实例，为空时使用 10s 超时的默认客户端
// 约束：每秒请求配额默认 10，可用 GEOCONV_RATE 覆盖
func NewClient(ak string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	rate := 10
	if v := os.Getenv("GEOCONV_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rate = n
		}
	}
	return &Client{
		ak:     ak,
		base:   "https://api.map.baidu.com/geoconv/v1/",
		hc:     hc,
		limits: &perSecond{capacity: rate},
	}
}

// SetBaseURL：覆盖接口地址，用于测试注入
func (c *Client) SetBaseURL(base string) { c.base = base }

// Convert：批量转换坐标
// 为什么：轨迹的平移与分段在米制墨卡托平面内计算，前后各需一次坐标系转换
// 参数：coords 为待转换坐标；from/to 为坐标系代号（CoordBD09/CoordBD09MC）
// 返回：与输入同序的坐标切片；任一批次失败即整体返回错误
func (c *Client) Convert(ctx context.Context, coords []orb.Point, from, to string) ([]orb.Point, error) {
	if c.ak == "" {
		return nil, errors.New("missing ak")
	}
	if len(coords) == 0 {
		return nil, errors.New("empty coords")
	}
	out := make([]orb.Point, 0, len(coords))
	for i := 0; i < len(coords); i += batchSize {
		end := i + batchSize
		if end > len(coords) {
			end = len(coords)
		}
		batch, err := c.convertBatch(ctx, coords[i:end], from, to)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	logger.L().Debug("geoconv_done", "from", from, "to", to, "points", len(out))
	return out, nil
}

func (c *Client) convertBatch(ctx context.Context, coords []orb.Point, from, to string) ([]orb.Point, error) {
	parts := make([]string, len(coords))
	for i, p := range coords {
		parts[i] = fmt.Sprintf("%v,%v", p[0], p[1])
	}
	q := url.Values{}
	q.Set("coords", strings.Join(parts, ";"))
	q.Set("from", from)
	q.Set("to", to)
	q.Set("ak", c.ak)
	q.Set("output", "json")
	u := c.base + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.limits.wait()
	t0 := time.Now()
	metrics.GeoconvRequestsTotal.Inc()
	logger.L().Debug("geoconv_req", "points", len(coords), "from", from, "to", to)
	resp, err := c.hc.Do(req)
	if err != nil {
		logger.L().Error("geoconv_http_error", "err", err)
		metrics.GeoconvFailTotal.Inc()
		return nil, err
	}
	defer resp.Body.Close()
	var r convResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("geoconv_decode_error", "err", err)
		metrics.GeoconvFailTotal.Inc()
		return nil, err
	}
	metrics.GeoconvDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if r.Status != 0 {
		metrics.GeoconvFailTotal.Inc()
		return nil, fmt.Errorf("百度API错误: %s", r.Message)
	}
	out := make([]orb.Point, len(r.Result))
	for i, p := range r.Result {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out, nil
}
