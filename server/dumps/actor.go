package dumps

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Amiequan/meilisearch/server/indexes"
	"github.com/Amiequan/meilisearch/server/updates"
	meiliutil "github.com/Amiequan/meilisearch/util"
)

// Single consumer of the dump requests. It owns the exclusion gate and the
// status registry and hands the requests to a bounded pool of handlers.
// An accepted dump continues detached from the handler that started it.
type dumpActor struct {
	inbox    <-chan dumpMsg
	settings DumpSettings
	resolver indexes.Resolver
	updates  updates.Handle
	runner   TaskRunner
	gate     *ExclusionGate
	registry *statusRegistry
	handlers *meiliutil.WorkerPool
	metrics  *actorMetrics
	// Returns the current time. Replaced in the tests.
	now func() time.Time
	// Tracks the detached dump continuations.
	continuations sync.WaitGroup
	// Closed when the loop returns.
	stopped chan struct{}
}

// Consumes the inbox until it is closed. Each request is handled by one
// of the pool workers; the loop stops pulling the requests while all of
// them are busy.
func (a *dumpActor) run() {
	defer close(a.stopped)
	log.WithField("handlers", a.settings.handlerCount()).Info("Started dump actor")

	for msg := range a.inbox {
		if err := msg.requestContext().Err(); err != nil {
			log.WithError(err).Debug("Dump requester is gone, request skipped")
			continue
		}
		if err := a.handlers.Submit(func() { a.handleMessage(msg) }); err != nil {
			log.WithError(err).Error("Cannot handle the dump request")
		}
	}

	a.handlers.Stop()
	log.Error("Dump actor stopped")
}

// Dispatches the request to the matching handler.
func (a *dumpActor) handleMessage(msg dumpMsg) {
	switch m := msg.(type) {
	case *createDumpMsg:
		a.handleCreateDump(m)
	case *dumpInfoMsg:
		reply(m.ctx, m.ret, a.handleDumpInfo(m.uid))
	default:
		log.Errorf("Unsupported dump request type %T", msg)
	}
}

// Accepts a new dump if none is running. The requester gets the initial
// in-progress record, then the dump is produced in the background.
func (a *dumpActor) handleCreateDump(msg *createDumpMsg) {
	acceptedAt := a.now().UTC()
	uid := generateUID(acceptedAt)

	hold, ok := a.gate.TryAcquire()
	if !ok {
		a.metrics.Rejected.Inc()
		log.WithField("uid", uid).Info("Dump rejected, another dump is in progress")
		reply(msg.ctx, msg.ret, dumpResult{err: &DumpAlreadyRunningError{}})
		return
	}

	info := newDumpInfo(uid, acceptedAt)
	a.registry.insert(info)
	a.metrics.Created.Inc()
	a.metrics.InProgress.Inc()
	log.WithField("uid", uid).Info("Dump accepted")

	reply(msg.ctx, msg.ret, dumpResult{info: info.copy()})

	task := DumpTask{
		Path:         a.settings.Path,
		UUIDResolver: a.resolver,
		UpdateHandle: a.updates,
		UID:          uid,
		IndexDBSize:  a.settings.IndexDBSize,
		UpdateDBSize: a.settings.UpdateDBSize,
	}
	a.continuations.Add(1)
	go a.performDump(hold, task)
}

// Runs the task and records its outcome. The gate is released after the
// record reaches its terminal state.
func (a *dumpActor) performDump(hold *GateHold, task DumpTask) {
	defer a.continuations.Done()
	defer hold.Release()

	started := time.Now()
	crashed, err := a.runTask(task)
	a.metrics.Duration.Observe(time.Since(started).Seconds())
	a.metrics.InProgress.Dec()

	logger := log.WithField("uid", task.UID)
	finishedAt := a.now().UTC()
	var registryErr error
	switch {
	case crashed:
		a.metrics.Finished.WithLabelValues(string(DumpStatusFailed)).Inc()
		registryErr = a.registry.markFailed(task.UID, crashedDumpMessage, finishedAt)
		logger.Error("Dump terminated abnormally, dump status set to failed")
	case err == nil:
		a.metrics.Finished.WithLabelValues(string(DumpStatusDone)).Inc()
		registryErr = a.registry.markDone(task.UID, finishedAt)
		logger.Info("Dump succeeded")
	default:
		a.metrics.Finished.WithLabelValues(string(DumpStatusFailed)).Inc()
		registryErr = a.registry.markFailed(task.UID, err.Error(), finishedAt)
		logger.WithError(err).Error("Dump failed")
	}

	if registryErr != nil {
		logger.WithError(registryErr).Panic("Dump entry disappeared while the dump was running")
	}
}

// Outcome of a single task run.
type taskOutcome struct {
	crashed bool
	err     error
}

// Invokes the task runner on a separate goroutine. The crashed flag is set
// when the runner doesn't return normally, i.e. it panics or its goroutine
// exits with runtime.Goexit; err is then a DumpTaskCrashedError. A returned
// error is wrapped in DumpTaskFailedError.
func (a *dumpActor) runTask(task DumpTask) (crashed bool, err error) {
	outcome := make(chan taskOutcome, 1)
	go func() {
		returned := false
		defer func() {
			if returned {
				return
			}
			// Nil after runtime.Goexit.
			r := recover()
			log.WithFields(log.Fields{
				"uid":       task.UID,
				"recovered": r,
				"stack":     string(debug.Stack()),
			}).Error("Dump task terminated abnormally")
			outcome <- taskOutcome{crashed: true, err: &DumpTaskCrashedError{Recovered: r}}
		}()

		runErr := a.runner.Run(context.Background(), task)
		returned = true
		if runErr != nil {
			outcome <- taskOutcome{err: newDumpTaskFailedError(runErr)}
			return
		}
		outcome <- taskOutcome{}
	}()

	result := <-outcome
	return result.crashed, result.err
}

// Looks up the dump status.
func (a *dumpActor) handleDumpInfo(uid string) dumpResult {
	info, ok := a.registry.get(uid)
	if !ok {
		return dumpResult{err: &DumpNotFoundError{UID: uid}}
	}
	return dumpResult{info: info}
}

// Sends the reply unless the requester gave up waiting.
func reply(ctx context.Context, ret chan<- dumpResult, result dumpResult) {
	select {
	case ret <- result:
	case <-ctx.Done():
		log.WithError(ctx.Err()).Debug("Dump requester is gone, reply dropped")
	}
}
