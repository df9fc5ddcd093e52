package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

// tokenTTL 令牌有效期
const tokenTTL = 24 * time.Hour

// AuthService 租户认证服务
// 负责租户注册和凭证换取JWT，令牌中携带租户ID，
// 后续所有操作都以该ID为隐式过滤条件
type AuthService struct {
	tenants   *repository.TenantRepository
	jwtSecret []byte
}

// NewAuthService 创建租户认证服务实例
func NewAuthService(tenants *repository.TenantRepository, jwtSecret string) *AuthService {
	return &AuthService{
		tenants:   tenants,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register 注册新租户
func (s *AuthService) Register(name, secret string) (*model.Tenant, error) {
	if err := NewValidator().
		Required(name, "name").
		MaxLength(name, "name", 100).
		Required(secret, "secret").
		Validate(); err != nil {
		return nil, err
	}

	existing, err := s.tenants.FindByName(name)
	if err != nil {
		return nil, dbError(err)
	}
	if existing != nil {
		return nil, Errorf(ErrValidation, "tenant name %q is already taken", name)
	}

	tenant := &model.Tenant{Name: name, Secret: secret}
	if err := s.tenants.Create(tenant); err != nil {
		return nil, dbError(err)
	}
	return tenant, nil
}

// Login 校验租户凭证并签发JWT
func (s *AuthService) Login(name, secret string) (string, error) {
	tenant, err := s.tenants.FindByName(name)
	if err != nil {
		return "", dbError(err)
	}
	if tenant == nil || !tenant.CheckSecret(secret) {
		return "", Errorf(ErrAuthentication, "invalid tenant name or secret")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tenant_id":   tenant.ID,
		"tenant_uuid": tenant.PublicID.String(),
		"iat":         now.Unix(),
		"exp":         now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", NewError(ErrInternal, "failed to sign token", err)
	}
	return signed, nil
}
