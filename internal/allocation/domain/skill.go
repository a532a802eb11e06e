package domain

import "slices"

// Skill is an opaque capability tag.
type Skill struct {
	ID   int64
	Name string
}

// SkillSet is a sorted, duplicate free set of skill ids.
type SkillSet []int64

// NewSkillSet builds a set from ids in any order.
func NewSkillSet(ids ...int64) SkillSet {
	set := slices.Clone(ids)
	slices.Sort(set)
	return SkillSet(slices.Compact(set))
}

// Has reports whether id is in the set.
func (s SkillSet) Has(id int64) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

// Covers reports whether s is a superset of required. The empty set is
// covered by anything.
func (s SkillSet) Covers(required SkillSet) bool {
	for _, id := range required {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Missing returns the ids in required that s lacks.
func (s SkillSet) Missing(required SkillSet) []int64 {
	var missing []int64
	for _, id := range required {
		if !s.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}
