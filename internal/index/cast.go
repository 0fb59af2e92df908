package index

import (
	"github.com/user/cineexplorer/internal/model"
)

// movieCast 单部电影的演员表，按首次出现顺序维护
type movieCast struct {
	order   []string // person_id 的插入顺序
	members map[string]*model.CastMember
}

// CastIndex 演员索引，分两遍构建：
// 第一遍灌入 principals 确定每部电影的演员成员（去重，保序）；
// 第二遍灌入 characters 把角色名挂到已存在的成员上。
// 角色表是 principals 已定义关系的嵌套扩展，单遍构建需要为
// 未出现的电影缓存角色行，成本相同但更绕，故采用两遍。
type CastIndex struct {
	resolver *PersonResolver
	byMovie  map[string]*movieCast
}

// NewCastIndex 创建演员索引
func NewCastIndex(resolver *PersonResolver) *CastIndex {
	return &CastIndex{
		resolver: resolver,
		byMovie:  make(map[string]*movieCast),
	}
}

// AddPrincipal 登记一条出演记录。
// 同一电影内重复出现的 person_id 只保留首次。
func (c *CastIndex) AddPrincipal(movieID, personID string) {
	mc, ok := c.byMovie[movieID]
	if !ok {
		mc = &movieCast{members: make(map[string]*model.CastMember)}
		c.byMovie[movieID] = mc
	}
	if _, seen := mc.members[personID]; seen {
		return
	}
	mc.members[personID] = &model.CastMember{
		PersonID:   personID,
		Name:       c.resolver.Resolve(personID),
		Characters: []string{},
	}
	mc.order = append(mc.order, personID)
}

// AddCharacter 给已登记的出演记录追加一个角色名。
// 没有对应出演记录的角色行（孤儿行）直接丢弃。
func (c *CastIndex) AddCharacter(movieID, personID, name string) {
	mc, ok := c.byMovie[movieID]
	if !ok {
		return
	}
	member, ok := mc.members[personID]
	if !ok {
		return
	}
	member.Characters = append(member.Characters, name)
}

// Get 返回一部电影的演员列表，顺序为 principals 流中的首次出现顺序；
// 没有出演记录的电影返回空切片
func (c *CastIndex) Get(movieID string) []model.CastMember {
	mc, ok := c.byMovie[movieID]
	if !ok {
		return []model.CastMember{}
	}
	cast := make([]model.CastMember, 0, len(mc.order))
	for _, personID := range mc.order {
		cast = append(cast, *mc.members[personID])
	}
	return cast
}

// Len 返回有演员记录的电影数量
func (c *CastIndex) Len() int {
	return len(c.byMovie)
}
