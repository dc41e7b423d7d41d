package rdf

import (
	"iter"
	"slices"
	"sort"
)

// PropertySet 把谓语 URI 映射到一组值。集合语义：同一谓语下
// 不存重复 Term，插入顺序保留（方便测试断言，协议本身不要求）。
type PropertySet map[string][]Term

func NewPropertySet() PropertySet { return PropertySet{} }

// Insert 添加一个值，已存在则为幂等空操作。
func (ps PropertySet) Insert(predicate string, obj Term) {
	if slices.Contains(ps[predicate], obj) {
		return
	}
	ps[predicate] = append(ps[predicate], obj)
}

// Remove 删除一个值；值或谓语不存在都是空操作。
func (ps PropertySet) Remove(predicate string, obj Term) {
	values := ps[predicate]
	idx := slices.Index(values, obj)
	if idx < 0 {
		return
	}
	values = slices.Delete(values, idx, idx+1)
	if len(values) == 0 {
		delete(ps, predicate)
		return
	}
	ps[predicate] = values
}

// Has 报告 (predicate, obj) 是否存在。
func (ps PropertySet) Has(predicate string, obj Term) bool {
	return slices.Contains(ps[predicate], obj)
}

// Len 返回三元组总数。
func (ps PropertySet) Len() int {
	n := 0
	for _, values := range ps {
		n += len(values)
	}
	return n
}

// Clone 深拷贝，快照与 copy 操作依赖它隔离后续修改。
func (ps PropertySet) Clone() PropertySet {
	out := make(PropertySet, len(ps))
	for pred, values := range ps {
		out[pred] = slices.Clone(values)
	}
	return out
}

// All 以 subject 为主语产出全部三元组。返回的序列可重复遍历，
// 谓语按字典序排列保证输出稳定。
func (ps PropertySet) All(subject string) iter.Seq[Triple] {
	return func(yield func(Triple) bool) {
		predicates := make([]string, 0, len(ps))
		for pred := range ps {
			predicates = append(predicates, pred)
		}
		sort.Strings(predicates)
		for _, pred := range predicates {
			for _, obj := range ps[pred] {
				if !yield(Triple{Subject: subject, Predicate: pred, Object: obj}) {
					return
				}
			}
		}
	}
}

// Apply 原子地应用一个 Patch：先整体校验（DELETE 的值允许缺失，
// 与 SPARQL DELETE DATA 语义一致），再逐条修改。Patch 解析阶段
// 已经保证结构合法，因此这里不会半途失败。
func (ps PropertySet) Apply(p *Patch) {
	for _, t := range p.Deletes {
		ps.Remove(t.Predicate, t.Object)
	}
	for _, t := range p.Inserts {
		ps.Insert(t.Predicate, t.Object)
	}
}
