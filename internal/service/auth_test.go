package service

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/repository"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	tenants := repository.NewTenantRepository(newTestDB(t))
	return NewAuthService(tenants, "test-secret")
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newTestAuth(t)

	tenant, err := auth.Register("zhang-family", "s3cret")
	require.NoError(t, err)
	assert.NotZero(t, tenant.ID)
	assert.NotEmpty(t, tenant.PublicID)
	// 密钥以bcrypt哈希形式存储
	assert.NotEqual(t, "s3cret", tenant.Secret)

	token, err := auth.Login("zhang-family", "s3cret")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(tenant.ID), claims["tenant_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t)
	_, err := auth.Register("zhang-family", "s3cret")
	require.NoError(t, err)

	_, err = auth.Login("zhang-family", "wrong")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrAuthentication))

	_, err = auth.Login("nobody", "s3cret")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrAuthentication))
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	auth := newTestAuth(t)
	_, err := auth.Register("zhang-family", "s3cret")
	require.NoError(t, err)

	_, err = auth.Register("zhang-family", "other")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrValidation))
}

func TestRegisterValidatesInput(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.Register("", "s3cret")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrValidation))

	_, err = auth.Register("zhang-family", "")
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrValidation))
}
