package client

import "sync"

// pendingResult is what a generic (non-produce) request waits for.
type pendingResult struct {
	payload []byte
	err     error
}

// dispatcher maps correlation_id -> pending completion slot,
// generic-request slots keyed separately from produce-batch slots since
// a produce slot fans one response out to N completions (one per record
// in the batch) instead of delivering the raw payload once.
type dispatcher struct {
	mu      sync.Mutex
	generic map[uint64]chan pendingResult
	produce map[uint64]chan produceResult
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		generic: map[uint64]chan pendingResult{},
		produce: map[uint64]chan produceResult{},
	}
}

// link registers a generic completion slot for correlationID, failing if
// one is already pending — at most one outstanding response per
// correlation id.
func (d *dispatcher) link(correlationID uint64) (chan pendingResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.generic[correlationID]; exists {
		return nil, &ErrInvalidCorrelationID{CorrelationID: correlationID, Reason: "already linked"}
	}
	ch := make(chan pendingResult, 1)
	d.generic[correlationID] = ch
	return ch, nil
}

// linkProduce registers a produce-batch completion slot.
func (d *dispatcher) linkProduce(correlationID uint64) (chan produceResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.produce[correlationID]; exists {
		return nil, &ErrInvalidCorrelationID{CorrelationID: correlationID, Reason: "already linked"}
	}
	ch := make(chan produceResult, 1)
	d.produce[correlationID] = ch
	return ch, nil
}

type produceResult struct {
	payload []byte
	err     error
}

// deliver routes one response frame's payload to its linked slot. The
// slot is removed before completing it, so a retried link for the same
// correlation id never collides with a response already in flight. If the
// id has both a generic and a produce slot, the generic slot is completed
// and the produce slot stays linked for the next response. A
// correlation id with no linked slot returns ErrInvalidCorrelationID
// rather than silently discarding the frame.
func (d *dispatcher) deliver(correlationID uint64, payload []byte, err error) error {
	d.mu.Lock()
	genCh, genOK := d.generic[correlationID]
	var (
		prodCh chan produceResult
		prodOK bool
	)
	if genOK {
		delete(d.generic, correlationID)
	} else if prodCh, prodOK = d.produce[correlationID]; prodOK {
		delete(d.produce, correlationID)
	}
	d.mu.Unlock()

	switch {
	case genOK:
		genCh <- pendingResult{payload: payload, err: err}
		return nil
	case prodOK:
		prodCh <- produceResult{payload: payload, err: err}
		return nil
	default:
		return &ErrInvalidCorrelationID{CorrelationID: correlationID, Reason: "no pending request for this response"}
	}
}

// closeAll releases every still-pending slot with err, used when the
// connection's read loop terminates.
func (d *dispatcher) closeAll(err error) {
	d.mu.Lock()
	generic := d.generic
	produce := d.produce
	d.generic = map[uint64]chan pendingResult{}
	d.produce = map[uint64]chan produceResult{}
	d.mu.Unlock()

	for _, ch := range generic {
		ch <- pendingResult{err: err}
	}
	for _, ch := range produce {
		ch <- produceResult{err: err}
	}
}
