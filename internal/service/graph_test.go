package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

// seedPerson 直接通过存储层插入测试成员
func seedPerson(t *testing.T, repo *repository.PersonRepository, tenantID uint, gender string, fatherID, motherID *uint) *model.Person {
	t.Helper()
	person := &model.Person{
		TenantID:  tenantID,
		FirstName: "Test",
		LastName:  "Person",
		Gender:    gender,
		FatherID:  fatherID,
		MotherID:  motherID,
	}
	require.NoError(t, repo.Create(person))
	return person
}

func TestWouldCreateCycle(t *testing.T) {
	_, repo := newTestService(t)
	graph := NewGraphService(repo)

	// grandfather ← father ← child 的父系链
	grandfather := seedPerson(t, repo, 1, model.GenderMale, nil, nil)
	father := seedPerson(t, repo, 1, model.GenderMale, &grandfather.ID, nil)
	child := seedPerson(t, repo, 1, model.GenderMale, &father.ID, nil)
	unrelated := seedPerson(t, repo, 1, model.GenderFemale, nil, nil)

	// 把后代指认为祖先的父母会成环
	cyclic, err := graph.WouldCreateCycle(1, child.ID, grandfather.ID)
	require.NoError(t, err)
	assert.True(t, cyclic)

	cyclic, err = graph.WouldCreateCycle(1, father.ID, grandfather.ID)
	require.NoError(t, err)
	assert.True(t, cyclic)

	// 沿用已有祖先不会成环
	cyclic, err = graph.WouldCreateCycle(1, grandfather.ID, child.ID)
	require.NoError(t, err)
	assert.False(t, cyclic)

	cyclic, err = graph.WouldCreateCycle(1, unrelated.ID, child.ID)
	require.NoError(t, err)
	assert.False(t, cyclic)

	// 自指直接成环
	cyclic, err = graph.WouldCreateCycle(1, child.ID, child.ID)
	require.NoError(t, err)
	assert.True(t, cyclic)
}

func TestWouldCreateCycleTerminatesOnMalformedData(t *testing.T) {
	_, repo := newTestService(t)
	graph := NewGraphService(repo)

	a := seedPerson(t, repo, 1, model.GenderMale, nil, nil)
	b := seedPerson(t, repo, 1, model.GenderMale, &a.ID, nil)
	outsider := seedPerson(t, repo, 1, model.GenderMale, nil, nil)

	// 绕过编排服务伪造一条已经成环的数据
	require.NoError(t, repo.UpdateFields(1, a.ID, map[string]interface{}{"father_id": b.ID}))

	cyclic, err := graph.WouldCreateCycle(1, a.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func TestWouldCreateCycleStopsAtTenantBoundary(t *testing.T) {
	_, repo := newTestService(t)
	graph := NewGraphService(repo)

	other := seedPerson(t, repo, 2, model.GenderMale, nil, nil)
	subject := seedPerson(t, repo, 1, model.GenderMale, nil, nil)

	// 候选父母属于其他租户时遍历不会越界
	cyclic, err := graph.WouldCreateCycle(1, other.ID, subject.ID)
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func TestCheckCreateConnectivity(t *testing.T) {
	_, repo := newTestService(t)
	graph := NewGraphService(repo)

	// 空租户允许完全孤立的首个成员
	assert.NoError(t, graph.CheckCreateConnectivity(1, false, false, 0, false))

	seedPerson(t, repo, 1, model.GenderMale, nil, nil)

	err := graph.CheckCreateConnectivity(1, false, false, 0, false)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrDisconnectedPerson))

	assert.NoError(t, graph.CheckCreateConnectivity(1, true, false, 0, false))
	assert.NoError(t, graph.CheckCreateConnectivity(1, false, true, 0, false))
	assert.NoError(t, graph.CheckCreateConnectivity(1, false, false, 2, false))
	assert.NoError(t, graph.CheckCreateConnectivity(1, false, false, 0, true))
}
