package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/service"
)

// TenantHandler 租户HTTP处理器
type TenantHandler struct {
	auth *service.AuthService
}

// NewTenantHandler 创建租户HTTP处理器实例
func NewTenantHandler(auth *service.AuthService) *TenantHandler {
	return &TenantHandler{auth: auth}
}

// RegisterRoutes 注册路由
func (h *TenantHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
}

// tenantCredentials 租户凭证请求体
type tenantCredentials struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// Register 注册新租户
func (h *TenantHandler) Register(c *gin.Context) {
	var req tenantCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := h.auth.Register(req.Name, req.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":        tenant.ID,
		"public_id": tenant.PublicID,
		"name":      tenant.Name,
	})
}

// Login 租户凭证换取JWT
func (h *TenantHandler) Login(c *gin.Context) {
	var req tenantCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.auth.Login(req.Name, req.Secret)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
