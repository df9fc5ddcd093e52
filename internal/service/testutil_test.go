package service

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/repository"
)

// newTestDB 创建独立的内存数据库
func newTestDB(t *testing.T) *repository.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.InitSQLiteDB(dsn)
	require.NoError(t, err)
	return db
}

// newTestService 创建基于内存数据库的编排服务
func newTestService(t *testing.T) (*PersonService, *repository.PersonRepository) {
	t.Helper()
	repo := repository.NewPersonRepository(newTestDB(t))
	return NewPersonService(repo, nil, false), repo
}
