package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/internal/business/export"
	"github.com/weiwei-tsao/campus-assets-report/internal/business/report"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/metrics"
	"github.com/weiwei-tsao/campus-assets-report/internal/repository"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Reports is the report service as seen by the HTTP layer.
type Reports interface {
	Generate(ctx context.Context) (*report.Result, error)
	Load(ctx context.Context) (*analytics.Statistics, []model.Asset, error)
	Summary(ctx context.Context) (*analytics.Statistics, error)
	Assets(ctx context.Context) ([]model.Asset, error)
	RefreshSnapshot(ctx context.Context) (model.AssetSummary, error)
}

// RunLister lists recent report runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error)
}

// SnapshotReader reads the stored dashboard summary.
type SnapshotReader interface {
	GetAssetSummary(ctx context.Context) (model.AssetSummary, error)
}

// Router wires HTTP handlers.
type Router struct {
	reports Reports
	runs    RunLister
	stats   SnapshotReader
	logger  *zap.Logger
	origins string
}

// NewRouter builds the gin engine. m may be nil to disable request metrics.
func NewRouter(reports Reports, runs RunLister, stats SnapshotReader, m *metrics.Metrics, logger *zap.Logger, allowedOrigins string) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		reports: reports,
		runs:    runs,
		stats:   stats,
		logger:  logger,
		origins: allowedOrigins,
	}

	router := gin.New()
	router.Use(r.requestLogger(), gin.Recovery(), r.corsMiddleware())
	if m != nil {
		router.Use(m.GinMiddleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/reports/assets", r.downloadReport)
		api.GET("/reports/assets/summary", r.getSummary)
		api.GET("/reports/assets/workbook", r.downloadWorkbook)
		api.GET("/reports/runs", r.listReportRuns)
		api.GET("/assets/export", r.exportAssets)
		api.GET("/stats", r.getStats)
		api.POST("/stats/refresh", r.refreshStats)
	}

	return router
}

func (r *Router) corsMiddleware() gin.HandlerFunc {
	origins := strings.Split(r.origins, ",")
	trimmed := make([]string, 0, len(origins))
	for _, o := range origins {
		if t := strings.TrimSpace(o); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := "*"
		for _, o := range trimmed {
			if o == "*" || o == origin {
				allowed = origin
				break
			}
		}
		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Report-Run-Id, X-Report-Cached")
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIp", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http request", fields...)
		default:
			r.logger.Info("http request", fields...)
		}
	}
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", "attachment; filename="+filename)
}

// fail maps ErrNoAssets to 404 and everything else to 500.
func fail(c *gin.Context, prefix string, err error) {
	_ = c.Error(err)
	if errors.Is(err, analytics.ErrNoAssets) {
		c.JSON(http.StatusNotFound, gin.H{"error": analytics.ErrNoAssets.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + ": " + err.Error()})
}

func (r *Router) downloadReport(c *gin.Context) {
	res, err := r.reports.Generate(c.Request.Context())
	if err != nil {
		fail(c, "failed to generate report", err)
		return
	}
	attachment(c, res.Filename)
	c.Header("X-Report-Run-Id", res.RunID)
	c.Header("X-Report-Cached", strconv.FormatBool(res.Cached))
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

func (r *Router) getSummary(c *gin.Context) {
	stats, err := r.reports.Summary(c.Request.Context())
	if err != nil {
		fail(c, "failed to summarize assets", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (r *Router) downloadWorkbook(c *gin.Context) {
	stats, assets, err := r.reports.Load(c.Request.Context())
	if err != nil {
		fail(c, "failed to build workbook", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, stats, assets); err != nil {
		fail(c, "failed to build workbook", err)
		return
	}
	attachment(c, export.WorkbookFilename(stats.GeneratedAt))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (r *Router) exportAssets(c *gin.Context) {
	assets, err := r.reports.Assets(c.Request.Context())
	if err != nil {
		fail(c, "failed to export assets", err)
		return
	}

	c.Header("Content-Type", "text/csv")
	attachment(c, "assets.csv")
	c.Status(http.StatusOK)
	if err := export.WriteInventoryCSV(c.Writer, assets); err != nil {
		_ = c.Error(err)
	}
}

func (r *Router) listReportRuns(c *gin.Context) {
	runs, err := r.runs.ListRuns(c.Request.Context(), repository.DefaultRunLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs})
}

func (r *Router) getStats(c *gin.Context) {
	stats, err := r.stats.GetAssetSummary(c.Request.Context())
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (r *Router) refreshStats(c *gin.Context) {
	summary, err := r.reports.RefreshSnapshot(c.Request.Context())
	if err != nil {
		fail(c, "failed to refresh stats", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
