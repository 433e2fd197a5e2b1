// Package api serves the assessment pipeline over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"trustdebt/adapters/file"
	"trustdebt/app"
	"trustdebt/domain/category"
	"trustdebt/domain/core"
	"trustdebt/domain/grade"
	"trustdebt/domain/report"
	"trustdebt/domain/snapshot"
	"trustdebt/internal"
	"trustdebt/internal/errors"
	"trustdebt/ports"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "1.0.0"

// maxBatchSize bounds one batch request.
const maxBatchSize = 64

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// GradeRequest grades a total without building a matrix.
type GradeRequest struct {
	TotalUnits      *float64 `json:"total_units" binding:"required"`
	PriorTotalUnits *float64 `json:"prior_total_units,omitempty"`
}

// GradeResponse is the answer to a GradeRequest.
type GradeResponse struct {
	TotalUnits float64          `json:"total_units"`
	Grade      string           `json:"grade"`
	Rank       int              `json:"rank"`
	Trajectory grade.Trajectory `json:"trajectory,omitempty"`
	Boundaries string           `json:"grade_boundaries"`
}

// OrderRequest lists category ids to sort.
type OrderRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,required"`
}

// OrderResponse holds the ShortLex-ordered ids.
type OrderResponse struct {
	IDs []string `json:"ids"`
}

// BatchRequest carries independent snapshots.
type BatchRequest struct {
	Snapshots []*snapshot.Snapshot `json:"snapshots" binding:"required,min=1"`
}

// BatchResult is one entry of a batch response.
type BatchResult struct {
	Project string         `json:"project"`
	Report  *report.Report `json:"report,omitempty"`
	Error   *ErrorBody     `json:"error,omitempty"`
}

// RunsResponse lists a project's stored runs, newest first.
type RunsResponse struct {
	Project string              `json:"project"`
	Runs    []report.RunSummary `json:"runs"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handlers holds the services the routes call into. history may be nil, in
// which case the run history routes answer 404.
type Handlers struct {
	assessments *app.AssessmentService
	batch       *app.BatchService
	history     ports.HistoryRepository
	logger      *internal.Logger
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(assessments *app.AssessmentService, batch *app.BatchService, history ports.HistoryRepository, logger *internal.Logger) *Handlers {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handlers{assessments: assessments, batch: batch, history: history, logger: logger}
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: ServiceVersion, Timestamp: time.Now().UTC()})
}

// HandleAssess runs the full pipeline on one snapshot. The body is decoded
// like a JSON snapshot file, so unknown fields are rejected.
func (h *Handlers) HandleAssess(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	snap, err := file.Decode(body, file.FormatJSON)
	if err != nil {
		h.fail(c, errors.Wrap(err, "invalid snapshot body"))
		return
	}

	rep, err := h.assessments.Assess(c.Request.Context(), snap)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// HandleBatch assesses several snapshots; per-snapshot failures are reported
// inline.
func (h *Handlers) HandleBatch(c *gin.Context) {
	var req BatchRequest
	if err := bindStrict(c, &req); err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	if len(req.Snapshots) > maxBatchSize {
		h.fail(c, errors.InvalidInput("too many snapshots in one batch"))
		return
	}

	items, err := h.batch.AssessAll(c.Request.Context(), req.Snapshots)
	if err != nil {
		h.fail(c, err)
		return
	}

	results := make([]BatchResult, len(items))
	for i, item := range items {
		results[i] = BatchResult{Project: item.Project}
		if item.Err != nil {
			results[i].Error = &ErrorBody{Code: errors.GetCode(item.Err), Message: item.Err.Error()}
			continue
		}
		results[i].Report = item.Report
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// HandleGrade maps a total onto the configured boundaries.
func (h *Handlers) HandleGrade(c *gin.Context) {
	var req GradeRequest
	if err := bindStrict(c, &req); err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}

	calc := h.assessments.Calculator()
	g, err := calc.Grade(*req.TotalUnits)
	if err != nil {
		h.fail(c, errors.Wrap(err, "invalid total"))
		return
	}
	resp := GradeResponse{
		TotalUnits: *req.TotalUnits,
		Grade:      g,
		Rank:       calc.Rank(g),
		Boundaries: calc.Boundaries().String(),
	}
	if req.PriorTotalUnits != nil {
		t, err := calc.Trajectory(*req.PriorTotalUnits, *req.TotalUnits)
		if err != nil {
			h.fail(c, errors.Wrap(err, "invalid prior total"))
			return
		}
		resp.Trajectory = t
	}
	c.JSON(http.StatusOK, resp)
}

// HandleOrder sorts category ids into ShortLex order.
func (h *Handlers) HandleOrder(c *gin.Context) {
	var req OrderRequest
	if err := bindStrict(c, &req); err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	for _, id := range req.IDs {
		if !category.ValidID(id) {
			h.fail(c, errors.InvalidInput("invalid category id "+id))
			return
		}
	}
	c.JSON(http.StatusOK, OrderResponse{IDs: category.SortIDs(req.IDs)})
}

// HandleListRuns lists a project's stored runs.
func (h *Handlers) HandleListRuns(c *gin.Context) {
	if h.history == nil {
		h.fail(c, errHistoryDisabled)
		return
	}
	project, err := core.ParseProjectID(c.Param("project"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunLimit {
			h.fail(c, errors.InvalidInput("limit must be between 1 and "+strconv.Itoa(maxRunLimit)))
			return
		}
		limit = n
	}

	runs, err := h.history.ListRuns(c.Request.Context(), project, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if runs == nil {
		runs = []report.RunSummary{}
	}
	c.JSON(http.StatusOK, RunsResponse{Project: project.String(), Runs: runs})
}

// HandleGetRun returns the stored report of one run.
func (h *Handlers) HandleGetRun(c *gin.Context) {
	if h.history == nil {
		h.fail(c, errHistoryDisabled)
		return
	}
	runID, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}

	rep, err := h.history.GetReport(c.Request.Context(), runID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

var errHistoryDisabled = errors.New(errors.CodeNotFound, "run history is disabled")

// bindStrict decodes a JSON body, rejecting unknown fields, then applies the
// binding tags.
func bindStrict(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil {
		return errors.InvalidInput("request body is required")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": ErrorBody{Code: code, Message: err.Error()}})
}
