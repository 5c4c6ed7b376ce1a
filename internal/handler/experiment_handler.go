package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mnist-lab/internal/service"

	"github.com/gin-gonic/gin"
)

type ExperimentHandler struct {
	registry    *service.Registry
	coordinator *service.Coordinator
	query       *service.QueryService
}

func NewExperimentHandler(svcCtx *service.ServiceContext) *ExperimentHandler {
	return &ExperimentHandler{
		registry:    svcCtx.Registry,
		coordinator: svcCtx.Coordinator,
		query:       svcCtx.Query,
	}
}

// ListExperiments 列表；sort/order 非法时静默回落默认排序
func (h *ExperimentHandler) ListExperiments(c *gin.Context) {
	sortField := c.DefaultQuery("sort", "created_at")
	order := c.DefaultQuery("order", "desc")

	summaries, err := h.query.List(c.Request.Context(), sortField, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetExperiment 详情 + 完整 history
func (h *ExperimentHandler) GetExperiment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	detail, err := h.query.Detail(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreateExperiment 校验 + 去重入库，成功后立刻启动一次执行
func (h *ExperimentHandler) CreateExperiment(c *gin.Context) {
	var req service.CreateExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.registry.Create(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	// 与原型行为一致：创建即开跑。刚插入的记录一定是 not_started，
	// launch 不可能撞 AlreadyRunning
	if err := h.coordinator.Launch(c.Request.Context(), exp.ID); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exp)
}

// DeleteExperiment 运行中的实验拒绝删除；成功时级联清掉 history
func (h *ExperimentHandler) DeleteExperiment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.registry.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RunExperiment 启动（或重启）一次执行，立即返回，进度靠轮询
func (h *ExperimentHandler) RunExperiment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.coordinator.Launch(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// renderError 把类型化错误翻译成对外的状态码
func (h *ExperimentHandler) renderError(c *gin.Context, err error) {
	var (
		validationErr     *service.ValidationError
		duplicateErr      *service.DuplicateError
		notFoundErr       *service.NotFoundError
		conflictErr       *service.ConflictError
		alreadyRunningErr *service.AlreadyRunningError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: " + validationErr.Field})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Similar experiment already exists",
			"existingId": duplicateErr.ExistingID,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": "Experiment not found"})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot delete a running experiment"})
	case errors.As(err, &alreadyRunningErr):
		c.JSON(http.StatusConflict, gin.H{"error": "Experiment is already running"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Experiment not found"})
		return 0, false
	}
	return uint(id), true
}
