package disklru

import "container/list"

// lruIndex is an access-ordered mapping from key to entry: the front of the
// list is the least-recently-used entry (the eviction candidate), the back
// is the most recent. Lookups promote, like an access-ordered LinkedHashMap;
// journal replay relies on this so that READ records reorder entries.
type lruIndex struct {
	order *list.List // of *entry, front = LRU
	byKey map[string]*list.Element
}

func newLRUIndex() *lruIndex {
	return &lruIndex{
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

func (x *lruIndex) len() int {
	return len(x.byKey)
}

// get returns the entry for key and promotes it to most-recently-used.
// Returns nil if absent.
func (x *lruIndex) get(key string) *entry {
	el, ok := x.byKey[key]
	if !ok {
		return nil
	}

	x.order.MoveToBack(el)

	return el.Value.(*entry)
}

// peek returns the entry for key without promoting it.
func (x *lruIndex) peek(key string) *entry {
	el, ok := x.byKey[key]
	if !ok {
		return nil
	}

	return el.Value.(*entry)
}

// put inserts e as the most-recently-used entry. The key must not already
// be present.
func (x *lruIndex) put(e *entry) {
	x.byKey[e.key] = x.order.PushBack(e)
}

// promote marks key as most-recently-used. No-op if absent.
func (x *lruIndex) promote(key string) {
	if el, ok := x.byKey[key]; ok {
		x.order.MoveToBack(el)
	}
}

// remove drops key from the index and returns its entry, or nil if absent.
func (x *lruIndex) remove(key string) *entry {
	el, ok := x.byKey[key]
	if !ok {
		return nil
	}

	delete(x.byKey, key)
	x.order.Remove(el)

	return el.Value.(*entry)
}

// all returns the entries in LRU order, least recent first. The slice is a
// snapshot; it stays valid while entries are removed.
func (x *lruIndex) all() []*entry {
	out := make([]*entry, 0, x.order.Len())
	for el := x.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry))
	}

	return out
}
