package dumps

import "context"

// Capacity of the actor inbox.
const inboxCapacity = 10

// Reply carried back to the requester.
type dumpResult struct {
	info *DumpInfo
	err  error
}

// Request sent to the actor.
type dumpMsg interface {
	// Context of the requester. The actor drops the reply when it is done.
	requestContext() context.Context
}

// Request to start a new dump.
type createDumpMsg struct {
	ctx context.Context
	ret chan dumpResult
}

func (m *createDumpMsg) requestContext() context.Context {
	return m.ctx
}

// Request for the status of the dump.
type dumpInfoMsg struct {
	ctx context.Context
	uid string
	ret chan dumpResult
}

func (m *dumpInfoMsg) requestContext() context.Context {
	return m.ctx
}
