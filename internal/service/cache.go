package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"familytree_go/internal/model"
)

// defaultCacheTTL 缓存默认过期时间
const defaultCacheTTL = 5 * time.Minute

// CacheService 缓存服务
// 仅用于读接口的加速，校验器永远直接读存储，
// 任何结构性变更都会使相关键失效
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService 创建缓存服务实例
func NewCacheService(addr, password string, db int) *CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &CacheService{
		client: client,
		ttl:    defaultCacheTTL,
	}
}

// Close 关闭缓存连接
func (s *CacheService) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

// personKey 成员缓存键
func personKey(tenantID, id uint) string {
	return fmt.Sprintf("familytree:%d:person:%d", tenantID, id)
}

// progenitorKey 始祖缓存键
func progenitorKey(tenantID uint) string {
	return fmt.Sprintf("familytree:%d:progenitor", tenantID)
}

// GetPerson 读取成员缓存
func (s *CacheService) GetPerson(ctx context.Context, tenantID, id uint) (*model.Person, bool) {
	return s.get(ctx, personKey(tenantID, id))
}

// SetPerson 写入成员缓存
func (s *CacheService) SetPerson(ctx context.Context, person *model.Person) {
	if s == nil || person == nil {
		return
	}
	s.set(ctx, personKey(person.TenantID, person.ID), person)
}

// GetProgenitor 读取始祖缓存
func (s *CacheService) GetProgenitor(ctx context.Context, tenantID uint) (*model.Person, bool) {
	return s.get(ctx, progenitorKey(tenantID))
}

// SetProgenitor 写入始祖缓存
func (s *CacheService) SetProgenitor(ctx context.Context, person *model.Person) {
	if s == nil || person == nil {
		return
	}
	s.set(ctx, progenitorKey(person.TenantID), person)
}

// Invalidate 删除指定成员及始祖的缓存键，在每次变更提交后调用
func (s *CacheService) Invalidate(ctx context.Context, tenantID uint, ids ...uint) {
	if s == nil {
		return
	}
	keys := []string{progenitorKey(tenantID)}
	for _, id := range ids {
		keys = append(keys, personKey(tenantID, id))
	}
	s.client.Del(ctx, keys...)
}

// get 读取并反序列化缓存值
func (s *CacheService) get(ctx context.Context, key string) (*model.Person, bool) {
	if s == nil {
		return nil, false
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var person model.Person
	if err := json.Unmarshal(data, &person); err != nil {
		return nil, false
	}
	return &person, true
}

// set 序列化并写入缓存值
func (s *CacheService) set(ctx context.Context, key string, person *model.Person) {
	data, err := json.Marshal(person)
	if err != nil {
		return
	}
	s.client.Set(ctx, key, data, s.ttl)
}
