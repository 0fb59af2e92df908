// Package index 提供装配阶段使用的内存查找索引。
// 所有索引在构建阶段一次性灌入，之后只读，随本次构建结束丢弃。
package index

// UnknownName 人物外键悬空时的替代名
const UnknownName = "Unknown"

// Lookup 多值查找索引：一个 key 对应多条记录
type Lookup[K comparable, V any] struct {
	items map[K][]V
}

// NewLookup 创建空的多值索引
func NewLookup[K comparable, V any]() *Lookup[K, V] {
	return &Lookup[K, V]{items: make(map[K][]V)}
}

// Add 追加一条记录
func (l *Lookup[K, V]) Add(key K, value V) {
	l.items[key] = append(l.items[key], value)
}

// Get 返回 key 下的全部记录，没有则返回 nil（长度为 0）
func (l *Lookup[K, V]) Get(key K) []V {
	return l.items[key]
}

// Len 返回不同 key 的数量
func (l *Lookup[K, V]) Len() int {
	return len(l.items)
}

// Table 单值查找索引：一个 key 至多一条记录
// 源表应自行保证唯一性，出现重复 key 时后写的覆盖先写的
type Table[K comparable, V any] struct {
	items map[K]V
}

// NewTable 创建空的单值索引
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{items: make(map[K]V)}
}

// Set 写入一条记录
func (t *Table[K, V]) Set(key K, value V) {
	t.items[key] = value
}

// Get 查找记录，第二个返回值表示是否命中
func (t *Table[K, V]) Get(key K) (V, bool) {
	v, ok := t.items[key]
	return v, ok
}

// Len 返回记录数量
func (t *Table[K, V]) Len() int {
	return len(t.items)
}

// PersonResolver 人物名称解析器，person_id -> name
// 查不到的 id 返回 UnknownName，从不报错：
// 关联表里的外键不保证都能解引用（源数据存在孤儿外键）
type PersonResolver struct {
	names map[string]string
}

// NewPersonResolver 创建空的解析器
func NewPersonResolver() *PersonResolver {
	return &PersonResolver{names: make(map[string]string)}
}

// Put 登记一个人物
func (p *PersonResolver) Put(personID, name string) {
	p.names[personID] = name
}

// Resolve 解析人物名称，未登记的返回 UnknownName
func (p *PersonResolver) Resolve(personID string) string {
	if name, ok := p.names[personID]; ok {
		return name
	}
	return UnknownName
}

// Len 返回已登记的人物数量
func (p *PersonResolver) Len() int {
	return len(p.names)
}
