package whatsapp

import "sync"

const recentMessageCapacity = 512

// recentMessages remembers the last handled message ids so a webhook
// redelivery does not record the same expense twice.
type recentMessages struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	limit int
}

func newRecentMessages(limit int) *recentMessages {
	return &recentMessages{ids: make(map[string]struct{}, limit), limit: limit}
}

// markSeen records id and reports whether it had already been handled.
// Empty ids are never considered duplicates.
func (r *recentMessages) markSeen(id string) bool {
	if id == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; ok {
		return true
	}
	if len(r.order) == r.limit {
		delete(r.ids, r.order[0])
		r.order = r.order[1:]
	}
	r.ids[id] = struct{}{}
	r.order = append(r.order, id)
	return false
}
