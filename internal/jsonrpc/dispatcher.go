package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/framing"
	"go.uber.org/zap"
)

// Conn is a framed duplex stream. *framing.Conn satisfies it.
type Conn interface {
	WriteFrame(payload []byte) error
	ReadFrame() ([]byte, error)
}

// Dispatcher issues calls over a Conn one at a time. A call holds the
// dispatcher from the moment its request is written until its reply is read,
// so any frame seen while waiting either belongs to that call or is noise.
//
// Ids come from a counter owned by the Dispatcher, not by the Conn, so they
// keep increasing when the caller swaps in a new Conn after a restart.
type Dispatcher struct {
	slot   chan struct{}
	nextID atomic.Uint64
	logger *zap.Logger
}

// NewDispatcher returns a Dispatcher. A nil logger disables logging.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		slot:   make(chan struct{}, 1),
		logger: logger,
	}
}

// LastID returns the most recently assigned id, or 0 if none was assigned.
func (d *Dispatcher) LastID() uint64 {
	return d.nextID.Load()
}

// Call sends method with params and blocks until the matching reply arrives,
// the stream ends, or ctx is done.
//
// A reply carrying an error object is returned as *Error. When ctx ends
// before the request is sent, ctx.Err() is returned and nothing is written.
// When ctx ends while the reply is outstanding, the dispatcher stays held until the
// stream yields a reply or fails, so the caller must close the stream
// before issuing further calls on it.
func (d *Dispatcher) Call(ctx context.Context, conn Conn, method string, params any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	select {
	case d.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: waiting for dispatcher: %w", method, ctx.Err())
	}

	id := d.nextID.Add(1)
	req, err := NewRequest(id, method, params)
	if err != nil {
		<-d.slot
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		<-d.slot
		return nil, fmt.Errorf("encoding %s request: %w", method, err)
	}

	type outcome struct {
		result json.RawMessage
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() { <-d.slot }()
		result, err := d.roundTrip(conn, id, method, payload)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		d.logger.Debug("abandoning call", zap.String("method", method), zap.Uint64("id", id))
		return nil, fmt.Errorf("%s (id %d): %w: %w", method, id, ErrCallAbandoned, ctx.Err())
	}
}

func (d *Dispatcher) roundTrip(conn Conn, id uint64, method string, payload []byte) (json.RawMessage, error) {
	d.logger.Debug("rpc call", zap.String("method", method), zap.Uint64("id", id))

	if err := conn.WriteFrame(payload); err != nil {
		return nil, fmt.Errorf("%s: writing request: %w: %w", method, ErrTransportClosed, err)
	}

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if framing.Absent(err) {
				d.logger.Debug("skipping unusable frame", zap.Uint64("awaiting", id), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("%s: awaiting reply %d: %w: %w", method, id, ErrTransportClosed, err)
		}

		var resp Response
		if err := json.Unmarshal(frame, &resp); err != nil {
			d.logger.Debug("skipping undecodable frame", zap.Uint64("awaiting", id), zap.Error(err))
			continue
		}
		if !resp.IsReplyTo(id) {
			d.logger.Debug("discarding unrelated message",
				zap.Uint64("awaiting", id),
				zap.ByteString("id", resp.ID),
				zap.String("method", resp.Method),
			)
			continue
		}

		if resp.Error != nil {
			return nil, resp.Error
		}
		if len(resp.Result) == 0 {
			return nil, fmt.Errorf("%s: %w", method, ErrMalformedResponse)
		}
		return resp.Result, nil
	}
}
