// Package stdio runs the line-delimited JSON loop: one reader pulls framed
// requests from standard input, a worker pool dispatches them, and a single
// writer emits responses on standard output in request order.
package stdio

import (
	"bufio"
	"container/heap"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/dispatcher"
)

const maxFrameBytes = 4 * 1024 * 1024

// Request is one inbound frame. Unknown fields are ignored.
type Request struct {
	Tool      string            `json:"tool"`
	Arguments map[string]string `json:"arguments"`
}

// Driver owns the reader, the pool and the ordered writer.
type Driver struct {
	dispatch *dispatcher.Dispatcher
	workers  int
	logger   *zap.Logger
}

func New(d *dispatcher.Dispatcher, workers int, logger *zap.Logger) *Driver {
	if workers < 1 {
		workers = 4
	}
	return &Driver{dispatch: d, workers: workers, logger: logger}
}

type job struct {
	seq  uint64
	line []byte
}

type sequenced struct {
	seq  uint64
	resp dispatcher.Response
}

// Run loops until EOF on in. End-of-input cancels in-flight work; the
// cancelled responses still drain to out in order. Returns nil on clean EOF.
func (d *Driver) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	results := make(chan sequenced)

	var workers sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for j := range jobs {
				results <- sequenced{seq: j.seq, resp: d.process(ctx, j.line)}
			}
		}()
	}

	writerErr := make(chan error, 1)
	go func() {
		writerErr <- writeOrdered(out, results)
	}()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	var seq uint64
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		line := make([]byte, len(raw))
		copy(line, raw)
		jobs <- job{seq: seq, line: line}
		seq++
	}
	readErr := scanner.Err()

	// Client gone: stop feeding, cancel in-flight work, drain the pool.
	close(jobs)
	cancel()
	workers.Wait()
	close(results)

	if err := <-writerErr; err != nil {
		return err
	}
	d.logger.Info("stdio loop finished", zap.Uint64("requests", seq))
	return readErr
}

// writeOrdered drains results in sequence order: responses arriving early
// park in a min-heap until their predecessors are written.
func writeOrdered(out io.Writer, results <-chan sequenced) error {
	enc := json.NewEncoder(out)
	pending := &responseHeap{}
	heap.Init(pending)
	var next uint64

	for r := range results {
		heap.Push(pending, r)
		for pending.Len() > 0 && (*pending)[0].seq == next {
			item := heap.Pop(pending).(sequenced)
			if err := enc.Encode(item.resp); err != nil {
				return err
			}
			next++
		}
	}
	return nil
}

// process parses and dispatches one frame. Malformed input is answered with
// a protocol-error envelope, never a crash.
func (d *Driver) process(ctx context.Context, line []byte) dispatcher.Response {
	id := ulid.Make().String()

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		d.logger.Warn("malformed frame", zap.String("request_id", id), zap.Error(err))
		msg := apperrors.Wrap(apperrors.KindProtocol, err, "request frame does not parse").Error()
		return dispatcher.Response{
			Product: string(config.ProductSystem),
			Success: false,
			Error:   &msg,
		}
	}

	d.logger.Debug("frame received",
		zap.String("request_id", id),
		zap.String("tool", req.Tool))
	return d.dispatch.Dispatch(ctx, req.Tool, req.Arguments)
}

type responseHeap []sequenced

func (h responseHeap) Len() int            { return len(h) }
func (h responseHeap) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h responseHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *responseHeap) Push(x interface{}) { *h = append(*h, x.(sequenced)) }
func (h *responseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
