package preset

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeboard/internal/config/writer"
	"tradeboard/internal/logger"
)

// Router 图表 preset 的增删改查
type Router struct {
	writer *writer.PresetWriter
}

func NewRouter(presetsPath string) *Router {
	return &Router{writer: writer.NewPresetWriter(presetsPath)}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("", r.handleList)
	group.GET("/:name", r.handleGet)
	group.POST("", r.handleCreate)
	group.PUT("/:name", r.handleUpdate)
	group.DELETE("/:name", r.handleDelete)
}

// PresetResponse 带名称的 preset
type PresetResponse struct {
	Name string `json:"name"`
	writer.Preset
}

// PresetCreateRequest 创建请求，CopyFrom 非空时以已有 preset 为模板。
type PresetCreateRequest struct {
	Name     string `json:"name"`
	CopyFrom string `json:"copy_from,omitempty"`
	writer.Preset
}

func (r *Router) handleList(c *gin.Context) {
	names, all, err := r.writer.List()
	if err != nil {
		logger.Errorf("[preset-api] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	presets := make([]PresetResponse, 0, len(names))
	for _, name := range names {
		presets = append(presets, PresetResponse{Name: name, Preset: all[name]})
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func (r *Router) handleGet(c *gin.Context) {
	name := c.Param("name")
	p, err := r.writer.Get(name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PresetResponse{Name: name, Preset: p})
}

func (r *Router) handleCreate(c *gin.Context) {
	var req PresetCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	p := req.Preset
	if req.CopyFrom != "" {
		src, err := r.writer.Get(req.CopyFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "源 preset 不存在"})
			return
		}
		p = mergePreset(src, req.Preset)
	}
	p.Series = normalizeIDs(p.Series)
	if err := r.writer.Create(name, p); err != nil {
		writeError(c, err)
		return
	}
	logger.Infof("[preset-api] preset '%s' created by %s", name, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"success": true, "name": name})
}

func (r *Router) handleUpdate(c *gin.Context) {
	name := c.Param("name")
	var req writer.Preset
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	req.Series = normalizeIDs(req.Series)
	if err := r.writer.Update(name, req); err != nil {
		writeError(c, err)
		return
	}
	logger.Infof("[preset-api] preset '%s' updated by %s", name, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) handleDelete(c *gin.Context) {
	name := c.Param("name")
	if err := r.writer.Delete(name); err != nil {
		writeError(c, err)
		return
	}
	logger.Infof("[preset-api] preset '%s' deleted by %s", name, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, writer.ErrPresetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, writer.ErrPresetExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case isValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("[preset-api] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func isValidation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "非法") || strings.Contains(msg, "名称")
}

// mergePreset 以 src 为模板，覆盖 override 中非空的字段。
func mergePreset(src, override writer.Preset) writer.Preset {
	out := src
	if override.Title != "" {
		out.Title = override.Title
	}
	if len(override.Series) > 0 {
		out.Series = override.Series
	}
	if override.Metric != "" {
		out.Metric = override.Metric
	}
	if override.Symbol != "" {
		out.Symbol = override.Symbol
	}
	if override.Start != "" {
		out.Start = override.Start
	}
	if override.End != "" {
		out.End = override.End
	}
	if override.ColorByName != nil {
		out.ColorByName = override.ColorByName
	}
	return out
}

func normalizeIDs(ids []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
