package dumps

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Amiequan/meilisearch/server/indexes"
	"github.com/Amiequan/meilisearch/server/updates"
	meiliutil "github.com/Amiequan/meilisearch/util"
)

// Cloneable front of the dump actor. It is safe for concurrent use.
type DumpActorHandle interface {
	// Starts a new dump. It returns the in-progress record or
	// DumpAlreadyRunningError if another dump is running.
	CreateDump(ctx context.Context) (*DumpInfo, error)
	// Returns the status of the dump or DumpNotFoundError.
	DumpInfo(ctx context.Context, uid string) (*DumpInfo, error)
	// Stops accepting the requests. The actor finishes the pending ones.
	Close()
	// Waits until the actor loop and the running dumps finish. It must be
	// called after Close.
	Wait()
}

// Implementation of the DumpActorHandle sending the requests over the
// actor inbox.
type dumpActorHandle struct {
	sender chan<- dumpMsg
	actor  *dumpActor
	closed bool
	// Guards the inbox against sending after close.
	mutex sync.RWMutex
}

// Creates the dump actor, starts its loop and returns its handle. The
// metrics are registered in the registerer unless it is nil. Actors
// created with the same registerer update the same metrics.
func NewDumpActorHandle(settings *DumpSettings, resolver indexes.Resolver, updateHandle updates.Handle, runner TaskRunner, registerer prometheus.Registerer) DumpActorHandle {
	return newDumpActorHandle(settings, resolver, updateHandle, runner, registerer, meiliutil.UTCNow)
}

// Creates the actor with a custom clock.
func newDumpActorHandle(settings *DumpSettings, resolver indexes.Resolver, updateHandle updates.Handle, runner TaskRunner, registerer prometheus.Registerer, now func() time.Time) *dumpActorHandle {
	inbox := make(chan dumpMsg, inboxCapacity)
	handlers := meiliutil.NewWorkerPool(settings.handlerCount())
	actor := &dumpActor{
		inbox:    inbox,
		settings: *settings,
		resolver: resolver,
		updates:  updateHandle,
		runner:   runner,
		gate:     NewExclusionGate(),
		registry: newStatusRegistry(),
		handlers: handlers,
		metrics:  newActorMetrics(registerer, settings.Path, handlers.Busy),
		now:      now,
		stopped:  make(chan struct{}),
	}
	go actor.run()

	return &dumpActorHandle{
		sender: inbox,
		actor:  actor,
	}
}

// Starts a new dump.
func (h *dumpActorHandle) CreateDump(ctx context.Context) (*DumpInfo, error) {
	ret := make(chan dumpResult)
	if err := h.send(ctx, &createDumpMsg{ctx: ctx, ret: ret}); err != nil {
		return nil, err
	}
	return receive(ctx, ret)
}

// Returns the status of the dump.
func (h *dumpActorHandle) DumpInfo(ctx context.Context, uid string) (*DumpInfo, error) {
	ret := make(chan dumpResult)
	if err := h.send(ctx, &dumpInfoMsg{ctx: ctx, uid: uid, ret: ret}); err != nil {
		return nil, err
	}
	return receive(ctx, ret)
}

// Closes the inbox. It is safe to call it multiple times.
func (h *dumpActorHandle) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.closed {
		h.closed = true
		close(h.sender)
	}
}

// Waits for the actor loop and the detached dumps.
func (h *dumpActorHandle) Wait() {
	<-h.actor.stopped
	h.actor.continuations.Wait()
}

// Puts the request in the inbox. It waits while the inbox is full.
func (h *dumpActorHandle) send(ctx context.Context, msg dumpMsg) error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.closed {
		return &ActorStoppedError{}
	}
	select {
	case h.sender <- msg:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Waits for the reply to the request.
func receive(ctx context.Context, ret <-chan dumpResult) (*DumpInfo, error) {
	select {
	case result := <-ret:
		return result.info, result.err
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	}
}
