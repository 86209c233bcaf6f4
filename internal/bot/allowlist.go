package bot

import "sort"

// AllowList is the immutable set of Telegram user ids allowed to run
// commands. The zero value allows nobody.
type AllowList struct {
	ids map[int64]struct{}
}

// NewAllowList builds an AllowList from user ids.
func NewAllowList(ids ...int64) AllowList {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AllowList{ids: set}
}

// Allowed reports whether id may run commands.
func (a AllowList) Allowed(id int64) bool {
	_, ok := a.ids[id]
	return ok
}

// Len returns the number of distinct ids.
func (a AllowList) Len() int {
	return len(a.ids)
}

// IDs returns the ids in ascending order.
func (a AllowList) IDs() []int64 {
	out := make([]int64, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
