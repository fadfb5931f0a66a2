package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/codexam-backend/internal/model"
)

const (
	defaultBatchSize  = 50
	defaultFlushEvery = 2 * time.Second
	pollTimeout       = time.Second
	retryDelay        = 5 * time.Second
)

// EventSink stores answer events.
type EventSink interface {
	InsertBatch(ctx context.Context, events []model.AnswerEvent) error
}

// EventLogWorker moves queued answer events into the audit table in batches.
type EventLogWorker struct {
	queue Queue
	sink  EventSink
	log   zerolog.Logger

	batchSize   int
	flushEvery  time.Duration
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// NewEventLogWorker creates a new EventLogWorker.
func NewEventLogWorker(queue Queue, sink EventSink, log zerolog.Logger) *EventLogWorker {
	return &EventLogWorker{
		queue:       queue,
		sink:        sink,
		log:         log.With().Str("component", "event_log_worker").Logger(),
		batchSize:   defaultBatchSize,
		flushEvery:  defaultFlushEvery,
		pollTimeout: pollTimeout,
		retryDelay:  retryDelay,
	}
}

// Start runs until ctx is done, then drains the queue. Call in a goroutine.
func (w *EventLogWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]string, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("Worker stopping...")
			if err := w.flush(context.Background(), batch); err == nil {
				w.drain(context.Background())
			}
			w.log.Info().Msg("Worker stopped")
			return
		}

		payload, ok, err := w.queue.BPop(ctx, w.pollTimeout)
		if err != nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Queue read error")
			w.sleep(ctx)
			continue
		}
		if ok {
			batch = append(batch, payload)
		}

		due := len(batch) > 0 && time.Since(lastFlush) >= w.flushEvery
		if len(batch) < w.batchSize && !due {
			continue
		}

		if err := w.flush(ctx, batch); err != nil {
			w.log.Error().Err(err).Int("count", len(batch)).Msg("Persist error, retrying")
			w.sleep(ctx)
		}
		batch = batch[:0]
		lastFlush = time.Now()
	}
}

// flush persists raw payloads. Undecodable payloads are dropped; on a sink
// failure the rest are pushed back to the queue.
func (w *EventLogWorker) flush(ctx context.Context, raw []string) error {
	if len(raw) == 0 {
		return nil
	}

	events, kept := w.decode(raw)
	if len(events) == 0 {
		return nil
	}

	if err := w.sink.InsertBatch(ctx, events); err != nil {
		if pushErr := w.queue.Push(context.Background(), kept...); pushErr != nil {
			w.log.Error().Err(pushErr).Int("count", len(kept)).Msg("Requeue failed, events lost")
		}
		return err
	}

	w.log.Debug().Int("count", len(events)).Msg("Answer events persisted")
	return nil
}

func (w *EventLogWorker) decode(raw []string) ([]model.AnswerEvent, []string) {
	events := make([]model.AnswerEvent, 0, len(raw))
	kept := make([]string, 0, len(raw))
	for _, r := range raw {
		var e model.AnswerEvent
		if err := json.Unmarshal([]byte(r), &e); err != nil || e.Type == "" {
			w.log.Error().Err(err).Str("payload", r).Msg("Dropping malformed answer event")
			continue
		}
		events = append(events, e)
		kept = append(kept, r)
	}
	return events, kept
}

// drain persists everything left in the queue before shutdown.
func (w *EventLogWorker) drain(ctx context.Context) {
	drained := 0
	batch := make([]string, 0, w.batchSize)

	for {
		payload, ok, err := w.queue.Pop(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("Drain read error")
		}
		if ok {
			batch = append(batch, payload)
		}

		if len(batch) > 0 && (len(batch) >= w.batchSize || !ok) {
			if err := w.flush(ctx, batch); err != nil {
				w.log.Error().Err(err).Msg("Drain persist error")
				break
			}
			drained += len(batch)
			batch = batch[:0]
		}
		if !ok {
			break
		}
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func (w *EventLogWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.retryDelay):
	}
}
