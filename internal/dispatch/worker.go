package dispatch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/session"
)

var ErrWorkerStopped = errors.New("command worker stopped")

type job struct {
	ctx     context.Context
	session *session.Session
	raw     string
	reply   chan Response
}

// Worker runs commands one at a time on a single goroutine so the parser and
// the storage engine never see concurrent calls.
type Worker struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
	jobs       chan job
	quit       chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
}

func NewWorker(aDispatcher *Dispatcher, logger *zap.Logger, queueSize int) *Worker {
	return &Worker{
		dispatcher: aDispatcher,
		logger:     logger,
		jobs:       make(chan job, queueSize),
		quit:       make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.logger.Debug("command worker started")
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.quit:
				return
			case aJob := <-w.jobs:
				if aJob.ctx.Err() != nil {
					aJob.reply <- Response{Err: aJob.ctx.Err()}
					continue
				}
				aJob.reply <- w.dispatcher.Run(aJob.ctx, aJob.session, aJob.raw)
			}
		}
	}()
}

// Do queues raw for execution and waits for its response.
func (w *Worker) Do(ctx context.Context, aSession *session.Session, raw string) Response {
	aJob := job{
		ctx:     ctx,
		session: aSession,
		raw:     raw,
		reply:   make(chan Response, 1),
	}

	select {
	case <-ctx.Done():
		return Response{Err: ctx.Err()}
	case <-w.quit:
		return Response{Err: ErrWorkerStopped}
	case w.jobs <- aJob:
	}

	select {
	case <-ctx.Done():
		return Response{Err: ctx.Err()}
	case <-w.quit:
		return Response{Err: ErrWorkerStopped}
	case aResponse := <-aJob.reply:
		return aResponse
	}
}

func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.quit)
	})
	w.wg.Wait()
	w.logger.Debug("command worker stopped")
}
