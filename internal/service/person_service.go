package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

// CreatePersonInput 创建成员的输入
type CreatePersonInput struct {
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Gender      string          `json:"gender"`
	BirthDate   *model.FlexDate `json:"birth_date"`
	DeathDate   *model.FlexDate `json:"death_date"`
	Trivia      string          `json:"trivia"`
	Progenitor  bool            `json:"progenitor"`
	FatherID    *uint           `json:"father_id"`
	MotherID    *uint           `json:"mother_id"`
	ChildrenIDs []uint          `json:"children_ids"`
}

// UpdatePersonInput 更新成员的输入，字段为nil表示不修改
// 性别在创建后不可变更，因此没有对应字段
type UpdatePersonInput struct {
	FirstName    *string         `json:"first_name"`
	LastName     *string         `json:"last_name"`
	BirthDate    *model.FlexDate `json:"birth_date"`
	DeathDate    *model.FlexDate `json:"death_date"`
	Trivia       *string         `json:"trivia"`
	FatherID     *uint           `json:"father_id"`
	MotherID     *uint           `json:"mother_id"`
	RemoveFather bool            `json:"remove_father"`
	RemoveMother bool            `json:"remove_mother"`
}

// PromoteAncestorInput 始祖升级的输入
type PromoteAncestorInput struct {
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	Gender              string          `json:"gender"`
	BirthDate           *model.FlexDate `json:"birth_date"`
	DeathDate           *model.FlexDate `json:"death_date"`
	Trivia              string          `json:"trivia"`
	CurrentProgenitorID uint            `json:"current_progenitor_id"`
	Role                model.Role      `json:"role"`
}

// EventInput 生平事件的输入
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	EventType   string    `json:"event_type"`
	Location    string    `json:"location"`
}

// PersonService 家族成员编排服务
// 组合各校验器并持有唯一的变更入口：所有涉及多行的结构性变更
// 都在单个事务内执行，同一租户的结构性变更由租户级互斥锁串行化
type PersonService struct {
	repo               *repository.PersonRepository
	temporal           *TemporalValidator
	cache              *CacheService
	strictConnectivity bool
	locks              sync.Map
}

// NewPersonService 创建家族成员编排服务实例
func NewPersonService(repo *repository.PersonRepository, cache *CacheService, strictConnectivity bool) *PersonService {
	return &PersonService{
		repo:               repo,
		temporal:           NewTemporalValidator(),
		cache:              cache,
		strictConnectivity: strictConnectivity,
	}
}

// lockTenant 获取租户级互斥锁，返回解锁函数
func (s *PersonService) lockTenant(tenantID uint) func() {
	actual, _ := s.locks.LoadOrStore(tenantID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// roleOfGender 返回指定性别的成员作为父母时承担的角色
func roleOfGender(gender string) model.Role {
	if gender == model.GenderMale {
		return model.RoleFather
	}
	return model.RoleMother
}

// roleColumn 返回角色对应的数据库列名
func roleColumn(role model.Role) string {
	if role == model.RoleFather {
		return "father_id"
	}
	return "mother_id"
}

// dbError 包装存储层错误
func dbError(err error) error {
	return NewError(ErrDatabase, "storage operation failed", err)
}

// Create 创建新成员
// 校验顺序：连通性 → 亲子关系 → 时间合理性 → 子女挂接检查 → 环检测，
// 全部通过后在一个事务内插入成员并更新子女的父母引用
func (s *PersonService) Create(ctx context.Context, tenantID uint, input *CreatePersonInput) (*model.Person, error) {
	if err := NewValidator().
		Required(input.FirstName, "first_name").
		MaxLength(input.FirstName, "first_name", 100).
		Required(input.LastName, "last_name").
		MaxLength(input.LastName, "last_name", 100).
		Gender(input.Gender, "gender").
		Validate(); err != nil {
		return nil, err
	}

	childrenIDs := dedupeIDs(input.ChildrenIDs)

	unlock := s.lockTenant(tenantID)
	defer unlock()

	var created *model.Person
	err := s.repo.Transaction(func(tx *repository.PersonRepository) error {
		relationship := NewRelationshipValidator(tx)
		graph := NewGraphService(tx)

		count, err := tx.CountByTenant(tenantID)
		if err != nil {
			return dbError(err)
		}

		// 空租户的首个成员在没有任何连接时自动成为始祖
		progenitor := input.Progenitor
		if count == 0 && !progenitor &&
			input.FatherID == nil && input.MotherID == nil && len(childrenIDs) == 0 {
			progenitor = true
		}

		if err := graph.CheckCreateConnectivity(tenantID,
			input.FatherID != nil, input.MotherID != nil, len(childrenIDs), progenitor); err != nil {
			return err
		}

		if progenitor {
			existing, err := tx.FindProgenitor(tenantID)
			if err != nil {
				return dbError(err)
			}
			if existing != nil {
				return Errorf(ErrDuplicateProgenitor,
					"tenant already has a progenitor (person %d)", existing.ID).
					WithContext("progenitor_id", existing.ID)
			}
		}

		father, err := relationship.ResolveParent(tenantID, model.RoleFather, input.FatherID)
		if err != nil {
			return err
		}
		mother, err := relationship.ResolveParent(tenantID, model.RoleMother, input.MotherID)
		if err != nil {
			return err
		}

		if err := s.temporal.ValidateChild(input.BirthDate, father, mother); err != nil {
			return err
		}

		person := &model.Person{
			TenantID:   tenantID,
			FirstName:  strings.TrimSpace(input.FirstName),
			LastName:   strings.TrimSpace(input.LastName),
			Gender:     input.Gender,
			BirthDate:  input.BirthDate,
			DeathDate:  input.DeathDate,
			Trivia:     input.Trivia,
			Progenitor: progenitor,
			FatherID:   input.FatherID,
			MotherID:   input.MotherID,
		}

		var children []model.Person
		if len(childrenIDs) > 0 {
			role := roleOfGender(person.Gender)
			children, err = s.checkLinkableChildren(tx, graph, tenantID, person, role, childrenIDs)
			if err != nil {
				return err
			}
		}

		if err := tx.Create(person); err != nil {
			return dbError(err)
		}

		role := roleOfGender(person.Gender)
		for i := range children {
			updates := map[string]interface{}{roleColumn(role): person.ID}
			if err := tx.UpdateFields(tenantID, children[i].ID, updates); err != nil {
				return dbError(err)
			}
		}

		created = person
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, tenantID, childrenIDs...)
	logrus.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"person_id": created.ID,
		"children":  len(childrenIDs),
	}).Info("person created")
	return created, nil
}

// checkLinkableChildren 校验一组待挂接的子女
// 子女必须存在、对应角色的父母位置必须空缺、时间合理性和环检测均需通过；
// 任何一项失败都会中止整个操作，不会有子女被部分更新
func (s *PersonService) checkLinkableChildren(
	tx *repository.PersonRepository,
	graph *GraphService,
	tenantID uint,
	parent *model.Person,
	role model.Role,
	childrenIDs []uint,
) ([]model.Person, error) {
	children, err := tx.FindByIDs(tenantID, childrenIDs)
	if err != nil {
		return nil, dbError(err)
	}

	found := make(map[uint]*model.Person, len(children))
	for i := range children {
		found[children[i].ID] = &children[i]
	}
	for _, id := range childrenIDs {
		child, ok := found[id]
		if !ok {
			return nil, Errorf(ErrNotFound, "child with id %d not found", id).
				WithContext("child_id", id)
		}
		if existing := child.ParentID(role); existing != nil {
			return nil, Errorf(ErrValidation, "child %d already has a %s (person %d)",
				child.ID, role, *existing).
				WithContext("child_id", child.ID).
				WithContext("role", role).
				WithContext("existing_parent_id", *existing)
		}
	}

	if err := s.temporal.ValidateChildren(parent, role, children); err != nil {
		return nil, err
	}

	// 对每个子女做环检测：若待指认的父母一侧已经是该子女的后代，挂接会成环。
	// 新建成员自身尚无入边，需要检查的是它将要引用的父母
	for _, id := range childrenIDs {
		candidates := []uint{}
		if parent.ID != 0 {
			candidates = append(candidates, parent.ID)
		}
		if parent.FatherID != nil {
			candidates = append(candidates, *parent.FatherID)
		}
		if parent.MotherID != nil {
			candidates = append(candidates, *parent.MotherID)
		}
		for _, candidate := range candidates {
			if err := graph.EnsureAcyclic(tenantID, candidate, id); err != nil {
				return nil, err
			}
		}
	}
	return children, nil
}

// Update 更新成员，执行字段级部分更新
func (s *PersonService) Update(ctx context.Context, tenantID, id uint, input *UpdatePersonInput) (*model.Person, error) {
	unlock := s.lockTenant(tenantID)
	defer unlock()

	var updated *model.Person
	err := s.repo.Transaction(func(tx *repository.PersonRepository) error {
		relationship := NewRelationshipValidator(tx)
		graph := NewGraphService(tx)

		person, err := tx.FindByID(tenantID, id)
		if err != nil {
			return dbError(err)
		}
		if person == nil {
			return Errorf(ErrNotFound, "person with id %d not found", id).
				WithContext("person_id", id)
		}

		updates := make(map[string]interface{})
		if input.FirstName != nil {
			if err := NewValidator().
				Required(*input.FirstName, "first_name").
				MaxLength(*input.FirstName, "first_name", 100).
				Validate(); err != nil {
				return err
			}
			updates["first_name"] = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			if err := NewValidator().
				Required(*input.LastName, "last_name").
				MaxLength(*input.LastName, "last_name", 100).
				Validate(); err != nil {
				return err
			}
			updates["last_name"] = strings.TrimSpace(*input.LastName)
		}
		if input.Trivia != nil {
			updates["trivia"] = *input.Trivia
		}
		if input.BirthDate != nil {
			updates["birth_date"] = input.BirthDate
		}
		if input.DeathDate != nil {
			updates["death_date"] = input.DeathDate
		}

		// 计算更新后的父母引用
		newFatherID := person.FatherID
		newMotherID := person.MotherID
		if input.RemoveFather {
			newFatherID = nil
			updates["father_id"] = nil
		}
		if input.RemoveMother {
			newMotherID = nil
			updates["mother_id"] = nil
		}
		if input.FatherID != nil {
			if *input.FatherID == id {
				return Errorf(ErrSelfParent, "person %d cannot be its own father", id).
					WithContext("person_id", id)
			}
			newFatherID = input.FatherID
			updates["father_id"] = *input.FatherID
		}
		if input.MotherID != nil {
			if *input.MotherID == id {
				return Errorf(ErrSelfParent, "person %d cannot be its own mother", id).
					WithContext("person_id", id)
			}
			newMotherID = input.MotherID
			updates["mother_id"] = *input.MotherID
		}

		parentsChanged := input.FatherID != nil || input.MotherID != nil ||
			input.RemoveFather || input.RemoveMother

		// 只对载荷中出现的父母引用做关系校验，未变更的沿用既有值
		var father, mother *model.Person
		if input.FatherID != nil {
			father, err = relationship.ResolveParent(tenantID, model.RoleFather, input.FatherID)
		} else if newFatherID != nil {
			father, err = tx.FindByID(tenantID, *newFatherID)
		}
		if err != nil {
			return err
		}
		if input.MotherID != nil {
			mother, err = relationship.ResolveParent(tenantID, model.RoleMother, input.MotherID)
		} else if newMotherID != nil {
			mother, err = tx.FindByID(tenantID, *newMotherID)
		}
		if err != nil {
			return err
		}

		if input.BirthDate != nil || parentsChanged {
			birth := person.BirthDate
			if input.BirthDate != nil {
				birth = input.BirthDate
			}
			if err := s.temporal.ValidateChild(birth, father, mother); err != nil {
				return err
			}
		}

		// 改动本人日期时反向校验既有子女，本人作为父母一侧的时间规则同样生效
		if input.BirthDate != nil || input.DeathDate != nil {
			children, err := tx.FindChildrenOf(tenantID, id)
			if err != nil {
				return dbError(err)
			}
			if len(children) > 0 {
				effective := *person
				if input.BirthDate != nil {
					effective.BirthDate = input.BirthDate
				}
				if input.DeathDate != nil {
					effective.DeathDate = input.DeathDate
				}
				if err := s.temporal.ValidateChildren(&effective, roleOfGender(person.Gender), children); err != nil {
					return err
				}
			}
		}

		if input.FatherID != nil {
			if err := graph.EnsureAcyclic(tenantID, *input.FatherID, id); err != nil {
				return err
			}
		}
		if input.MotherID != nil {
			if err := graph.EnsureAcyclic(tenantID, *input.MotherID, id); err != nil {
				return err
			}
		}

		// 严格模式下不允许更新把成员从图中剥离
		if s.strictConnectivity && parentsChanged &&
			newFatherID == nil && newMotherID == nil && !person.Progenitor {
			deps, err := tx.CountDependents(tenantID, id)
			if err != nil {
				return dbError(err)
			}
			if deps == 0 {
				return Errorf(ErrDisconnectedPerson,
					"update would leave person %d without any parent or child", id).
					WithContext("person_id", id)
			}
		}

		if len(updates) == 0 {
			updated = person
			return nil
		}

		if err := tx.UpdateFields(tenantID, id, updates); err != nil {
			return dbError(err)
		}
		updated, err = tx.FindByID(tenantID, id)
		if err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, tenantID, id)
	return updated, nil
}

// Delete 删除成员
// 仍被子女引用的成员不可删除，引用不会被级联置空
func (s *PersonService) Delete(ctx context.Context, tenantID, id uint) error {
	unlock := s.lockTenant(tenantID)
	defer unlock()

	err := s.repo.Transaction(func(tx *repository.PersonRepository) error {
		person, err := tx.FindByID(tenantID, id)
		if err != nil {
			return dbError(err)
		}
		if person == nil {
			return Errorf(ErrNotFound, "person with id %d not found", id).
				WithContext("person_id", id)
		}

		deps, err := tx.CountDependents(tenantID, id)
		if err != nil {
			return dbError(err)
		}
		if deps > 0 {
			return Errorf(ErrHasDependents,
				"person %d is referenced as parent by %d persons", id, deps).
				WithContext("person_id", id).
				WithContext("dependent_count", deps)
		}

		if err := tx.Delete(tenantID, id); err != nil {
			return dbError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, tenantID, id)
	logrus.WithFields(logrus.Fields{"tenant_id": tenantID, "person_id": id}).Info("person deleted")
	return nil
}

// LinkChildren 把一组子女挂接到指定父母下
// 所有子女的校验全部通过后才开始更新，整个挂接在一个事务内完成
func (s *PersonService) LinkChildren(ctx context.Context, tenantID, parentID uint, childrenIDs []uint, role model.Role) (int, error) {
	if err := NewValidator().Role(role, "role").Validate(); err != nil {
		return 0, err
	}
	for _, id := range childrenIDs {
		if id == parentID {
			return 0, Errorf(ErrSelfParent, "person %d cannot be its own %s", parentID, role).
				WithContext("person_id", parentID)
		}
	}
	childrenIDs = dedupeIDs(childrenIDs)

	unlock := s.lockTenant(tenantID)
	defer unlock()

	linked := 0
	err := s.repo.Transaction(func(tx *repository.PersonRepository) error {
		graph := NewGraphService(tx)

		parent, err := tx.FindByID(tenantID, parentID)
		if err != nil {
			return dbError(err)
		}
		if parent == nil {
			return Errorf(ErrNotFound, "parent with id %d not found", parentID).
				WithContext("parent_id", parentID)
		}
		if expected := role.ExpectedGender(); parent.Gender != expected {
			return Errorf(ErrInvalidRole, "person %d cannot be %s: gender is %s, expected %s",
				parent.ID, role, parent.Gender, expected).
				WithContext("role", role).
				WithContext("parent_id", parent.ID).
				WithContext("gender", parent.Gender).
				WithContext("expected_gender", expected)
		}

		children, err := s.checkLinkableChildren(tx, graph, tenantID, parent, role, childrenIDs)
		if err != nil {
			return err
		}

		for i := range children {
			updates := map[string]interface{}{roleColumn(role): parent.ID}
			if err := tx.UpdateFields(tenantID, children[i].ID, updates); err != nil {
				return dbError(err)
			}
		}
		linked = len(children)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.cache.Invalidate(ctx, tenantID, childrenIDs...)
	return linked, nil
}

// PromoteAncestor 始祖升级
// 在当前始祖之上插入一位新的先祖：新成员带始祖标记入库，
// 原始祖被降级并把对应角色的父母引用指向新成员，两步在同一事务内提交，
// 观察者任何时刻都不会看到两个始祖或没有后继连接的始祖
func (s *PersonService) PromoteAncestor(ctx context.Context, tenantID uint, input *PromoteAncestorInput) (*model.Person, error) {
	if err := NewValidator().
		Required(input.FirstName, "first_name").
		MaxLength(input.FirstName, "first_name", 100).
		Required(input.LastName, "last_name").
		MaxLength(input.LastName, "last_name", 100).
		Gender(input.Gender, "gender").
		Role(input.Role, "role").
		Validate(); err != nil {
		return nil, err
	}

	if expected := input.Role.ExpectedGender(); input.Gender != expected {
		return nil, Errorf(ErrInvalidRole, "new ancestor cannot be %s: gender is %s, expected %s",
			input.Role, input.Gender, expected).
			WithContext("role", input.Role).
			WithContext("gender", input.Gender).
			WithContext("expected_gender", expected)
	}

	unlock := s.lockTenant(tenantID)
	defer unlock()

	var ancestor *model.Person
	var formerID uint
	err := s.repo.Transaction(func(tx *repository.PersonRepository) error {
		// 始祖状态必须在写入所在的事务内重新读取，不信任调用方的假设
		current, err := tx.FindProgenitor(tenantID)
		if err != nil {
			return dbError(err)
		}
		if current == nil {
			return Errorf(ErrNotFound, "tenant has no progenitor to promote above")
		}
		if current.ID != input.CurrentProgenitorID {
			return Errorf(ErrIdentityMismatch,
				"current progenitor is person %d, not person %d",
				current.ID, input.CurrentProgenitorID).
				WithContext("actual_progenitor_id", current.ID).
				WithContext("claimed_progenitor_id", input.CurrentProgenitorID)
		}
		if existing := current.ParentID(input.Role); existing != nil {
			return Errorf(ErrValidation, "current progenitor already has a %s (person %d)",
				input.Role, *existing).
				WithContext("role", input.Role).
				WithContext("existing_parent_id", *existing)
		}
		formerID = current.ID

		person := &model.Person{
			TenantID:   tenantID,
			FirstName:  strings.TrimSpace(input.FirstName),
			LastName:   strings.TrimSpace(input.LastName),
			Gender:     input.Gender,
			BirthDate:  input.BirthDate,
			DeathDate:  input.DeathDate,
			Trivia:     input.Trivia,
			Progenitor: true,
		}

		if err := s.temporal.ValidateChildren(person, input.Role, []model.Person{*current}); err != nil {
			return err
		}

		if err := tx.Create(person); err != nil {
			return dbError(err)
		}

		updates := map[string]interface{}{
			"progenitor":            false,
			roleColumn(input.Role): person.ID,
		}
		if err := tx.UpdateFields(tenantID, current.ID, updates); err != nil {
			return dbError(err)
		}

		ancestor = person
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, tenantID, formerID)
	logrus.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"ancestor_id": ancestor.ID,
		"former_id":   formerID,
		"role":        input.Role,
	}).Info("progenitor promoted")
	return ancestor, nil
}

// FindByID 根据ID查询成员
func (s *PersonService) FindByID(ctx context.Context, tenantID, id uint) (*model.Person, error) {
	if person, ok := s.cache.GetPerson(ctx, tenantID, id); ok {
		return person, nil
	}
	person, err := s.repo.FindByID(tenantID, id)
	if err != nil {
		return nil, dbError(err)
	}
	if person == nil {
		return nil, Errorf(ErrNotFound, "person with id %d not found", id).
			WithContext("person_id", id)
	}
	s.cache.SetPerson(ctx, person)
	return person, nil
}

// FindProgenitor 查询租户当前的始祖，不存在返回(nil, nil)
func (s *PersonService) FindProgenitor(ctx context.Context, tenantID uint) (*model.Person, error) {
	if person, ok := s.cache.GetProgenitor(ctx, tenantID); ok {
		return person, nil
	}
	person, err := s.repo.FindProgenitor(tenantID)
	if err != nil {
		return nil, dbError(err)
	}
	if person != nil {
		s.cache.SetProgenitor(ctx, person)
	}
	return person, nil
}

// List 分页查询成员
func (s *PersonService) List(tenantID uint, page, pageSize int) ([]model.Person, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	persons, total, err := s.repo.FindAll(tenantID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, dbError(err)
	}
	return persons, total, nil
}

// Search 按姓名子串搜索成员
func (s *PersonService) Search(tenantID uint, q string) ([]model.Person, error) {
	persons, err := s.repo.SearchByName(tenantID, strings.TrimSpace(q))
	if err != nil {
		return nil, dbError(err)
	}
	return persons, nil
}

// AddEvent 为成员记录生平事件
func (s *PersonService) AddEvent(ctx context.Context, tenantID, personID uint, input *EventInput) (*model.Event, error) {
	if err := NewValidator().
		Required(input.Title, "title").
		MaxLength(input.Title, "title", 200).
		Validate(); err != nil {
		return nil, err
	}

	person, err := s.repo.FindByID(tenantID, personID)
	if err != nil {
		return nil, dbError(err)
	}
	if person == nil {
		return nil, Errorf(ErrNotFound, "person with id %d not found", personID).
			WithContext("person_id", personID)
	}

	event := &model.Event{
		TenantID:    tenantID,
		PersonID:    personID,
		Title:       input.Title,
		Description: input.Description,
		EventDate:   input.EventDate,
		EventType:   input.EventType,
		Location:    input.Location,
	}
	if err := s.repo.CreateEvent(event); err != nil {
		return nil, dbError(err)
	}
	return event, nil
}

// ListEvents 查询成员的生平事件
func (s *PersonService) ListEvents(tenantID, personID uint) ([]model.Event, error) {
	events, err := s.repo.FindEventsOf(tenantID, personID)
	if err != nil {
		return nil, dbError(err)
	}
	return events, nil
}

// DeleteEvent 删除生平事件
func (s *PersonService) DeleteEvent(tenantID, id uint) error {
	err := s.repo.DeleteEvent(tenantID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Errorf(ErrNotFound, "event with id %d not found", id).
			WithContext("event_id", id)
	}
	if err != nil {
		return dbError(err)
	}
	return nil
}

// dedupeIDs 去重并保持顺序
func dedupeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
