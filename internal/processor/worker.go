package processor

import (
	"context"

	"github.com/courierpay/courierpay/internal/observability/metrics"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EventKind distinguishes per-file progress from the single terminal event.
type EventKind string

const (
	EventFileDone EventKind = "file_done"
	EventComplete EventKind = "complete"
	EventFailed   EventKind = "failed"
)

// Event is one progress message for a submitted batch. For EventFileDone,
// Index increases strictly from 1 to the batch size and File is set. Exactly
// one terminal event (EventComplete or EventFailed) closes the stream.
type Event struct {
	RequestID string      `json:"request_id"`
	Kind      EventKind   `json:"kind"`
	Index     int         `json:"index,omitempty"`
	Total     int         `json:"total"`
	File      *FileResult `json:"file,omitempty"`
	Result    *ProcessingResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type request struct {
	id     string
	ctx    context.Context
	files  []FileInput
	events chan Event
}

// Worker runs batches on a single goroutine, touched only through its request
// channel. Files within a batch are processed sequentially, so event ordering
// needs no locking.
type Worker struct {
	log       *zap.Logger
	processor *Processor

	requests chan request
	stop     chan struct{}
	done     chan struct{}
}

type WorkerParam struct {
	fx.In

	Log       *zap.Logger
	Processor *Processor
}

// queueDepth bounds how many batches may wait behind the running one.
const queueDepth = 16

func NewWorker(p WorkerParam) *Worker {
	return &Worker{
		log:       p.Log.Named("processor.worker"),
		processor: p.Processor,
		requests:  make(chan request, queueDepth),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the worker loop.
func (w *Worker) Start() {
	go w.run()
}

// Stop terminates the worker. Queued and in-flight requests receive a
// terminal EventFailed carrying ErrWorkerStopped.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

// Submit enqueues a batch and returns its request ID and event stream. The
// channel is closed after the terminal event.
func (w *Worker) Submit(ctx context.Context, files []FileInput) (string, <-chan Event, error) {
	req := request{
		id:     uuid.NewString(),
		ctx:    ctx,
		files:  files,
		events: make(chan Event, len(files)+1),
	}

	select {
	case <-w.stop:
		return "", nil, ErrWorkerStopped
	default:
	}

	select {
	case w.requests <- req:
		return req.id, req.events, nil
	case <-w.stop:
		return "", nil, ErrWorkerStopped
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			w.drain()
			return
		case req := <-w.requests:
			w.serve(req)
		}
	}
}

// drain rejects everything still queued at shutdown.
func (w *Worker) drain() {
	for {
		select {
		case req := <-w.requests:
			w.fail(req, ErrWorkerStopped.Error())
		default:
			return
		}
	}
}

func (w *Worker) serve(req request) {
	defer close(req.events)

	validation := w.processor.ValidateBatch(req.files)
	if !validation.OK() {
		result := w.processor.Process(req.ctx, req.files)
		req.events <- Event{
			RequestID: req.id,
			Kind:      EventFailed,
			Total:     len(req.files),
			Result:    result,
			Error:     "batch validation failed",
		}
		return
	}

	metrics.Processing().IncBatch()
	result := &ProcessingResult{
		Summary:    Summary{Total: len(req.files)},
		Validation: validation,
	}

	for i, file := range req.files {
		select {
		case <-w.stop:
			req.events <- Event{
				RequestID: req.id,
				Kind:      EventFailed,
				Total:     len(req.files),
				Error:     ErrWorkerStopped.Error(),
			}
			return
		case <-req.ctx.Done():
			req.events <- Event{
				RequestID: req.id,
				Kind:      EventFailed,
				Total:     len(req.files),
				Error:     req.ctx.Err().Error(),
			}
			return
		default:
		}

		fileResult := w.processor.processFile(req.ctx, file)
		result.Files = append(result.Files, fileResult)
		tally(&result.Summary, fileResult)

		req.events <- Event{
			RequestID: req.id,
			Kind:      EventFileDone,
			Index:     i + 1,
			Total:     len(req.files),
			File:      &fileResult,
		}
	}

	req.events <- Event{
		RequestID: req.id,
		Kind:      EventComplete,
		Total:     len(req.files),
		Result:    result,
	}
}

func (w *Worker) fail(req request, reason string) {
	req.events <- Event{
		RequestID: req.id,
		Kind:      EventFailed,
		Total:     len(req.files),
		Error:     reason,
	}
	close(req.events)
}

// Module provides the processor and its worker, tied to the fx lifecycle.
var Module = fx.Module("processor",
	fx.Provide(NewProcessor),
	fx.Provide(NewWorker),
	fx.Invoke(registerWorker),
)

func registerWorker(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			w.Stop()
			return nil
		},
	})
}
