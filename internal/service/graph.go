package service

import (
	"familytree_go/internal/repository"
)

// GraphService 族谱图结构校验服务
// 把父母引用当作有向图的边来处理：环检测是一次租户内的可达性查询，
// 连通性检查保证新成员不会成为图中的孤立点
type GraphService struct {
	repo *repository.PersonRepository
}

// NewGraphService 创建族谱图结构校验服务实例
func NewGraphService(repo *repository.PersonRepository) *GraphService {
	return &GraphService{repo: repo}
}

// WouldCreateCycle 判断把candidateParentID设为subjectID的父/母是否会成环
// 从候选父母出发沿父母边向上遍历，途中遇到subjectID说明候选父母
// 已经是subjectID的后代，指认会闭合成环
func (g *GraphService) WouldCreateCycle(tenantID, candidateParentID, subjectID uint) (bool, error) {
	if candidateParentID == subjectID {
		return true, nil
	}

	// 显式栈迭代遍历，visited集合防止脏数据导致的死循环
	stack := []uint{candidateParentID}
	visited := make(map[uint]bool)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true

		person, err := g.repo.FindByID(tenantID, current)
		if err != nil {
			return false, NewError(ErrDatabase, "failed to walk ancestry", err)
		}
		if person == nil {
			continue
		}

		for _, parentID := range []*uint{person.FatherID, person.MotherID} {
			if parentID == nil {
				continue
			}
			if *parentID == subjectID {
				return true, nil
			}
			if !visited[*parentID] {
				stack = append(stack, *parentID)
			}
		}
	}
	return false, nil
}

// EnsureAcyclic 校验父母指认不会成环，成环时返回CycleDetected
func (g *GraphService) EnsureAcyclic(tenantID, candidateParentID, subjectID uint) error {
	cyclic, err := g.WouldCreateCycle(tenantID, candidateParentID, subjectID)
	if err != nil {
		return err
	}
	if cyclic {
		return Errorf(ErrCycleDetected,
			"assigning person %d as parent of person %d would create an ancestry cycle",
			candidateParentID, subjectID).
			WithContext("candidate_parent_id", candidateParentID).
			WithContext("subject_id", subjectID)
	}
	return nil
}

// CheckCreateConnectivity 创建时的连通性检查
// 新成员必须至少有一个父母、一个待挂接的子女或显式的始祖标记；
// 租户为空时例外，首个成员自动成为始祖
func (g *GraphService) CheckCreateConnectivity(tenantID uint, hasFather, hasMother bool, childCount int, progenitor bool) error {
	if hasFather || hasMother || childCount > 0 || progenitor {
		return nil
	}

	count, err := g.repo.CountByTenant(tenantID)
	if err != nil {
		return NewError(ErrDatabase, "failed to count tenant persons", err)
	}
	if count == 0 {
		return nil
	}

	return Errorf(ErrDisconnectedPerson,
		"person must have at least one parent, child or the progenitor flag").
		WithContext("tenant_persons", count)
}
