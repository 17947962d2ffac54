package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"neorecon/internal/config"
	"neorecon/internal/core/cache"
	"neorecon/internal/core/filter"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
	"neorecon/internal/core/registry"
	"neorecon/internal/core/reporter"
	"neorecon/internal/core/runner"
	"neorecon/internal/pkg/logger"
	"neorecon/internal/pkg/monitor"
	"neorecon/internal/pkg/useragent"
	"neorecon/internal/pkg/version"
)

// ScanRequest 扫描请求体
type ScanRequest struct {
	Identifier            string  `json:"identifier" binding:"required"`
	Filter                string  `json:"filter"`
	NoNSFW                bool    `json:"no_nsfw"`
	Timeout               float64 `json:"timeout"` // 秒
	MaxConcurrentRequests int     `json:"max_concurrent_requests"`
}

// Handler 服务模式处理器
type Handler struct {
	cfg       *config.Config
	registry  *registry.Registry
	manager   *runner.RunnerManager
	startedAt time.Time
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, reg *registry.Registry, manager *runner.RunnerManager) *Handler {
	return &Handler{cfg: cfg, registry: reg, manager: manager, startedAt: time.Now()}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": logger.NowFormatted(),
		"service":   "neorecon",
	})
}

// Version 版本信息
func (h *Handler) Version(c *gin.Context) {
	info := version.GetInfo()
	c.JSON(http.StatusOK, gin.H{
		"service":     "neorecon",
		"version":     info.Version,
		"api_version": info.APIVersion,
		"go_version":  info.GoVersion,
		"timestamp":   logger.NowFormatted(),
	})
}

// Status 主机指标与规则数量
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"rules": gin.H{
			"username": h.registry.Count(model.RuleKindUsername),
			"email":    h.registry.Count(model.RuleKindEmail),
		},
		"monitor": monitor.Collect(200 * time.Millisecond),
	})
}

// ScanUsername POST /api/v1/scan/username
func (h *Handler) ScanUsername(c *gin.Context) {
	h.scan(c, model.RuleKindUsername)
}

// ScanEmail POST /api/v1/scan/email
func (h *Handler) ScanEmail(c *gin.Context) {
	h.scan(c, model.RuleKindEmail)
}

func (h *Handler) scan(c *gin.Context, kind model.RuleKind) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if kind == model.RuleKindEmail {
		addr, err := mail.ParseAddress(identifier)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(errors.New("invalid email address")))
			return
		}
		identifier = addr.Address
	}

	run := h.runOptions(req)
	if err := run.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err))
		return
	}

	job := &runner.Job{
		Task:   model.NewTask(kind, identifier),
		Filter: req.Filter,
		NoNSFW: req.NoNSFW,
		Run:    run,
	}
	if run.UseCache {
		job.Hooks.Cache = cache.NewMemory()
	}

	report, err := h.manager.Execute(c.Request.Context(), job)
	if err != nil {
		c.JSON(scanErrorStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, reporter.BuildJSONReport(report))
}

// runOptions 配置默认值叠加请求参数, 服务模式始终为 JSON 输出
func (h *Handler) runOptions(req ScanRequest) options.RunOptions {
	run := options.FromConfig(h.cfg)
	run.JSON = true
	if h.cfg.Probe != nil {
		run.UserAgent = useragent.Pick(h.cfg.Probe.UserAgentsFile)
	}
	if req.Timeout > 0 {
		run.Timeout = time.Duration(req.Timeout * float64(time.Second))
	}
	if req.MaxConcurrentRequests > 0 {
		run.MaxConcurrentRequests = req.MaxConcurrentRequests
	}
	return run
}

func scanErrorStatus(err error) int {
	var syntaxErr *filter.SyntaxError
	var evalErr *filter.EvalError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &evalErr), errors.Is(err, filter.ErrNoRules):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	return gin.H{"error": err.Error()}
}
