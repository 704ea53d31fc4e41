package dumps

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Shared map of the dump status records keyed by uid. The records are
// never removed.
type statusRegistry struct {
	infos map[string]*DumpInfo
	mutex sync.RWMutex
}

// Creates an empty registry.
func newStatusRegistry() *statusRegistry {
	return &statusRegistry{
		infos: make(map[string]*DumpInfo),
	}
}

// Stores the record. A record with the same uid is replaced.
func (r *statusRegistry) insert(info *DumpInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.infos[info.UID] = info.copy()
}

// Returns a copy of the record or false if it doesn't exist.
func (r *statusRegistry) get(uid string) (*DumpInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	info, ok := r.infos[uid]
	if !ok {
		return nil, false
	}
	return info.copy(), true
}

// Returns the number of the stored records.
func (r *statusRegistry) size() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.infos)
}

// Moves the in-progress record to the done state.
func (r *statusRegistry) markDone(uid string, finishedAt time.Time) error {
	return r.finish(uid, func(info *DumpInfo) {
		info.done(finishedAt)
	})
}

// Moves the in-progress record to the failed state.
func (r *statusRegistry) markFailed(uid, message string, finishedAt time.Time) error {
	return r.finish(uid, func(info *DumpInfo) {
		info.withError(message, finishedAt)
	})
}

// Applies the terminal transition under the write lock.
func (r *statusRegistry) finish(uid string, transition func(*DumpInfo)) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	info, ok := r.infos[uid]
	if !ok {
		return errors.WithStack(&DumpNotFoundError{UID: uid})
	}
	if info.IsFinished() {
		return errors.Errorf("dump %s is already %s", uid, info.Status)
	}
	transition(info)
	return nil
}
