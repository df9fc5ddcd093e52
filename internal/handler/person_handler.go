package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/middleware"
	"familytree_go/internal/model"
	"familytree_go/internal/service"
)

// PersonHandler 家族成员HTTP处理器
type PersonHandler struct {
	service *service.PersonService
}

// NewPersonHandler 创建家族成员HTTP处理器实例
func NewPersonHandler(svc *service.PersonService) *PersonHandler {
	return &PersonHandler{service: svc}
}

// RegisterRoutes 注册路由
func (h *PersonHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/persons", h.List)
	r.GET("/persons/search", h.Search)
	r.GET("/persons/progenitor", h.GetProgenitor)
	r.GET("/persons/:id", h.Get)
	r.POST("/persons", h.Create)
	r.PUT("/persons/:id", h.Update)
	r.DELETE("/persons/:id", h.Delete)
	r.POST("/persons/:id/children", h.LinkChildren)
	r.POST("/persons/promote", h.Promote)
	r.GET("/persons/:id/events", h.ListEvents)
	r.POST("/persons/:id/events", h.AddEvent)
	r.DELETE("/events/:id", h.DeleteEvent)
}

// List 分页查询成员
func (h *PersonHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	persons, total, err := h.service.List(middleware.TenantID(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"persons":   persons,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Search 按姓名子串搜索成员
func (h *PersonHandler) Search(c *gin.Context) {
	persons, err := h.service.Search(middleware.TenantID(c), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"persons": persons})
}

// GetProgenitor 查询当前始祖
func (h *PersonHandler) GetProgenitor(c *gin.Context) {
	person, err := h.service.FindProgenitor(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if person == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant has no progenitor"})
		return
	}
	c.JSON(http.StatusOK, person)
}

// Get 根据ID查询成员
func (h *PersonHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	person, err := h.service.FindByID(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, person)
}

// Create 创建新成员
func (h *PersonHandler) Create(c *gin.Context) {
	var input service.CreatePersonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	person, err := h.service.Create(c.Request.Context(), middleware.TenantID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, person)
}

// Update 更新成员
func (h *PersonHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input service.UpdatePersonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	person, err := h.service.Update(c.Request.Context(), middleware.TenantID(c), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, person)
}

// Delete 删除成员
func (h *PersonHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// linkChildrenRequest 子女挂接请求体
type linkChildrenRequest struct {
	ChildrenIDs []uint     `json:"children_ids"`
	Role        model.Role `json:"role"`
}

// LinkChildren 把一组子女挂接到指定父母下
func (h *PersonHandler) LinkChildren(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req linkChildrenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	linked, err := h.service.LinkChildren(c.Request.Context(), middleware.TenantID(c), id, req.ChildrenIDs, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": linked})
}

// Promote 始祖升级
func (h *PersonHandler) Promote(c *gin.Context) {
	var input service.PromoteAncestorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	person, err := h.service.PromoteAncestor(c.Request.Context(), middleware.TenantID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, person)
}

// ListEvents 查询成员的生平事件
func (h *PersonHandler) ListEvents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	events, err := h.service.ListEvents(middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// AddEvent 为成员记录生平事件
func (h *PersonHandler) AddEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input service.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event, err := h.service.AddEvent(c.Request.Context(), middleware.TenantID(c), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// DeleteEvent 删除生平事件
func (h *PersonHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteEvent(middleware.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// parseID 解析路径中的数字ID
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// respondError 把应用程序错误映射为HTTP响应
// 错误码决定状态码，上下文信息随响应返回，便于调用方渲染可操作的提示
func respondError(c *gin.Context, err error) {
	var appErr *service.AppError
	if errors.As(err, &appErr) {
		body := gin.H{
			"error": appErr.Message,
			"code":  appErr.Code.String(),
		}
		if len(appErr.Context) > 0 {
			body["context"] = appErr.Context
		}
		c.JSON(appErr.Code.HTTPStatus(), body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
