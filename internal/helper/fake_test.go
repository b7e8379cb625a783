package helper

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/framing"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/jsonrpc"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/process"
)

// fakeReply is what the in-memory helper answers with. A silent reply
// sends nothing.
type fakeReply struct {
	result string
	err    *jsonrpc.Error
	silent bool
}

type recordedCall struct {
	Proc   int
	ID     uint64
	Method string
	Params json.RawMessage
}

// fakeHelper stands in for process.Start. Every start yields a fakeProc
// whose stdio is served in memory by handle.
type fakeHelper struct {
	t      *testing.T
	handle func(method string, params json.RawMessage) fakeReply

	mu       sync.Mutex
	specs    []process.Spec
	procs    []*fakeProc
	calls    []recordedCall
	startErr error
}

func newFakeHelper(t *testing.T, handle func(method string, params json.RawMessage) fakeReply) *fakeHelper {
	t.Helper()
	if handle == nil {
		handle = func(string, json.RawMessage) fakeReply { return fakeReply{result: `{}`} }
	}
	return &fakeHelper{t: t, handle: handle}
}

func (h *fakeHelper) client(opts Options) *Client {
	c := New(opts)
	c.start = h.start
	h.t.Cleanup(c.Close)
	return c
}

func (h *fakeHelper) start(ctx context.Context, spec process.Spec) (proc, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.startErr != nil {
		return nil, h.startErr
	}

	p := newFakeProc(len(h.procs) + 1)
	h.specs = append(h.specs, spec)
	h.procs = append(h.procs, p)
	go h.serve(p)
	return p, nil
}

func (h *fakeHelper) serve(p *fakeProc) {
	defer p.exit()

	r := framing.NewReader(p.stdinR)
	w := framing.NewWriter(p.stdoutW)
	for {
		payload, err := r.ReadFrame()
		if err != nil {
			if framing.Absent(err) {
				continue
			}
			return
		}

		var req struct {
			ID     uint64          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(payload, &req); err != nil {
			continue
		}

		h.mu.Lock()
		h.calls = append(h.calls, recordedCall{Proc: p.n, ID: req.ID, Method: req.Method, Params: req.Params})
		h.mu.Unlock()

		reply := h.handle(req.Method, req.Params)
		if reply.silent {
			continue
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if reply.err != nil {
			resp["error"] = reply.err
		} else {
			resp["result"] = json.RawMessage(reply.result)
		}
		data, _ := json.Marshal(resp)
		if err := w.WriteFrame(data); err != nil {
			return
		}
		if req.Method == methodShutdown {
			return
		}
	}
}

func (h *fakeHelper) startCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.procs)
}

func (h *fakeHelper) proc(i int) *fakeProc {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.procs[i]
}

func (h *fakeHelper) recorded() []recordedCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recordedCall(nil), h.calls...)
}

func (h *fakeHelper) methods() []string {
	var out []string
	for _, c := range h.recorded() {
		out = append(out, c.Method)
	}
	return out
}

func (h *fakeHelper) count(method string) int {
	n := 0
	for _, m := range h.methods() {
		if m == method {
			n++
		}
	}
	return n
}

// fakeProc is an in-memory process: two pipes and an exit signal.
type fakeProc struct {
	n int

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	done     chan struct{}
	exitOnce sync.Once
	closes   atomic.Int32
}

func newFakeProc(n int) *fakeProc {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	return &fakeProc{
		n:       n,
		stdinR:  stdinR,
		stdinW:  stdinW,
		stdoutR: stdoutR,
		stdoutW: stdoutW,
		done:    make(chan struct{}),
	}
}

func (p *fakeProc) PID() int          { return 1000 + p.n }
func (p *fakeProc) Stdin() io.Writer  { return p.stdinW }
func (p *fakeProc) Stdout() io.Reader { return p.stdoutR }

func (p *fakeProc) Done() <-chan struct{} { return p.done }
func (p *fakeProc) ExitErr() error        { return nil }

func (p *fakeProc) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// exit simulates the process terminating on its own.
func (p *fakeProc) exit() {
	p.exitOnce.Do(func() {
		p.stdoutW.Close()
		p.stdinR.Close()
		close(p.done)
	})
}

func (p *fakeProc) Close(time.Duration) {
	p.closes.Add(1)
	p.stdinW.Close()
	p.exit()
}

func waitExited(t *testing.T, p *fakeProc) {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("fake process %d did not exit", p.n)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
