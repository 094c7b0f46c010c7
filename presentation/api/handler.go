package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vips_analyzer/application/analyzer"
	"vips_analyzer/application/overlay"
	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
	"vips_analyzer/infrastructure/config"
)

// genericAnalysisError is the only failure message callers ever see.
const genericAnalysisError = "An error occurred during analysis"

// defaultMaxDisplayWidth applies when the overlay config sets no limit.
const defaultMaxDisplayWidth = 3840

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer interfaces.Analyzer
	overlay  config.OverlayConfig
	results  *resultCache
	logger   *logrus.Logger
}

// NewHandler creates a Handler.
func NewHandler(a interfaces.Analyzer, oc config.OverlayConfig, logger *logrus.Logger) *Handler {
	return &Handler{analyzer: a, overlay: oc, results: newResultCache(oc.ResultCacheTTL), logger: logger}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Analyze handles POST /api/analyze.
func (h *Handler) Analyze(c *gin.Context) {
	var req entities.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entities.ErrorResponse{Error: "url is required"})
		return
	}

	result, status, err := h.run(c, req.URL)
	if err != nil {
		c.JSON(status, entities.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, entities.AnalyzeResponse{
		VipsModel:  result.Root,
		Screenshot: base64.StdEncoding.EncodeToString(result.Screenshot),
	})
}

// OverlayPNG handles GET /analyze/overlay.png and returns the screenshot
// with every box drawn at the requested display width.
func (h *Handler) OverlayPNG(c *gin.Context) {
	params, err := h.viewParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, entities.ErrorResponse{Error: err.Error()})
		return
	}

	result, status, err := h.viewRun(c, params)
	if err != nil {
		c.JSON(status, entities.ErrorResponse{Error: err.Error()})
		return
	}

	display, err := h.layout(result, params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to lay out overlay")
		c.JSON(http.StatusInternalServerError, entities.ErrorResponse{Error: genericAnalysisError})
		return
	}

	img, err := overlay.Compose(result.Screenshot, display.Boxes(), display.Scale())
	if errors.Is(err, overlay.ErrOverlayTooLarge) {
		c.JSON(http.StatusBadRequest, entities.ErrorResponse{Error: "requested width is too large for this page"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to compose overlay")
		c.JSON(http.StatusInternalServerError, entities.ErrorResponse{Error: genericAnalysisError})
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// View handles GET /analyze: a form and, when url is set, the screenshot
// with positioned overlay boxes.
func (h *Handler) View(c *gin.Context) {
	data := viewData{Title: "VIPS Analyzer", ShowAll: true}

	params, err := h.viewParams(c)
	if err != nil {
		data.Error = err.Error()
		c.HTML(http.StatusBadRequest, "analyze.html", data)
		return
	}
	data.URL = params.url
	data.ShowAll = params.showAll
	data.Width = params.width
	if params.url == "" {
		c.HTML(http.StatusOK, "analyze.html", data)
		return
	}

	result, status, err := h.viewRun(c, params)
	if err != nil {
		data.Error = err.Error()
		c.HTML(status, "analyze.html", data)
		return
	}

	display, err := h.layout(result, params)
	if err != nil {
		h.logger.WithError(err).Error("Failed to lay out overlay")
		data.Error = genericAnalysisError
		c.HTML(http.StatusInternalServerError, "analyze.html", data)
		return
	}

	model, _ := json.MarshalIndent(result.Root, "", "  ")
	data.Ready = display.Ready()
	data.Screenshot = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(result.Screenshot))
	data.Model = string(model)
	hovered, hasHover := display.Hovered()
	for i, n := range display.Nodes() {
		data.Nodes = append(data.Nodes, nodeLink{
			Index:      i,
			Label:      overlay.Label(n),
			DocOrder:   n.DocOrder,
			Importance: n.Importance,
			Hovered:    hasHover && hovered == i,
		})
	}
	for _, b := range display.Boxes() {
		data.Boxes = append(data.Boxes, boxView{
			Label: b.Label,
			Style: template.CSS(fmt.Sprintf(
				"left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;border:2px solid %s;background-color:%s;pointer-events:%s",
				b.Left, b.Top, b.Width, b.Height, b.Color, b.Fill, b.PointerEvents)),
			LabelStyle: template.CSS("background-color:" + b.Color),
		})
	}
	c.HTML(http.StatusOK, "analyze.html", data)
}

// run analyzes url and maps failures to a status and a caller-safe error.
func (h *Handler) run(c *gin.Context, url string) (*entities.AnalysisResult, int, error) {
	result, err := h.analyzer.Analyze(c.Request.Context(), url)
	if err == nil {
		return result, http.StatusOK, nil
	}
	if errors.Is(err, analyzer.ErrInvalidURL) {
		return nil, http.StatusBadRequest, err
	}
	h.logger.WithError(err).WithFields(logrus.Fields{
		"url":  url,
		"kind": analyzer.KindOf(err),
	}).Error("Error in analyze route")
	return nil, http.StatusInternalServerError, errors.New(genericAnalysisError)
}

// viewRun serves hover requests from the result the page was rendered
// from, so the hover index refers to the same node list.
func (h *Handler) viewRun(c *gin.Context, p viewParameters) (*entities.AnalysisResult, int, error) {
	if p.hasHov {
		if result, ok := h.results.get(p.url); ok {
			return result, http.StatusOK, nil
		}
	}
	result, status, err := h.run(c, p.url)
	if err == nil {
		h.results.put(p.url, result)
	}
	return result, status, err
}

type viewParameters struct {
	url     string
	width   int
	showAll bool
	hover   int
	hasHov  bool
}

func (h *Handler) viewParams(c *gin.Context) (viewParameters, error) {
	p := viewParameters{url: c.Query("url"), width: h.overlay.DisplayWidth, showAll: true}

	if v := c.Query("width"); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil || w <= 0 {
			return p, fmt.Errorf("invalid width %q", v)
		}
		if limit := h.maxDisplayWidth(); w > limit {
			return p, fmt.Errorf("width %d exceeds maximum %d", w, limit)
		}
		p.width = w
	}
	// The form sends a hidden "false" followed by the checkbox value, so
	// the last occurrence wins.
	if vs := c.QueryArray("showAll"); len(vs) > 0 {
		v := vs[len(vs)-1]
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("invalid showAll %q", v)
		}
		p.showAll = b
	}
	if v := c.Query("hover"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			return p, fmt.Errorf("invalid hover %q", v)
		}
		p.hover, p.hasHov = i, true
	}
	return p, nil
}

// layout sizes a Display as if the screenshot were rendered params.width
// pixels wide.
func (h *Handler) layout(result *entities.AnalysisResult, p viewParameters) (*overlay.Display, error) {
	d, err := overlay.Layout(result, overlay.Options{RecomputeOnResize: h.overlay.RecomputeOnResize}, p.width)
	if err != nil {
		return nil, err
	}
	d.SetShowAll(p.showAll)
	if p.hasHov {
		d.Hover(p.hover)
	}
	return d, nil
}

func (h *Handler) maxDisplayWidth() int {
	if h.overlay.MaxDisplayWidth > 0 {
		return h.overlay.MaxDisplayWidth
	}
	return defaultMaxDisplayWidth
}

type boxView struct {
	Label      string
	Style      template.CSS
	LabelStyle template.CSS
}

type nodeLink struct {
	Index      int
	Label      string
	DocOrder   int
	Importance float64
	Hovered    bool
}

type viewData struct {
	Title      string
	URL        string
	Width      int
	ShowAll    bool
	Error      string
	Ready      bool
	Screenshot template.URL
	Boxes      []boxView
	Nodes      []nodeLink
	Model      string
}
