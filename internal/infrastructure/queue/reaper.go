package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/flood-report-api/internal/api/metrics"
	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	releaseTimeout = 10 * time.Second
)

// Reaper releases report assets off the request path. Release failures are
// logged and counted but never reach the caller: a record mutation must not
// fail because its old photo could not be deleted.
type Reaper struct {
	workers []chan string
	store   ports.AssetStore
	log     zerolog.Logger
}

// NewReaper creates a Reaper with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewReaper(numWorkers int, store ports.AssetStore, log zerolog.Logger) *Reaper {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &Reaper{
		workers: make([]chan string, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan string, channelBuffer)
	}
	return r
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an asset reference to the worker responsible for it. Shards
// by reference so a replace-then-delete race on one asset stays ordered. If
// the worker's buffer is full the reference is dropped with an error log
// rather than blocking the mutation that triggered the release.
func (r *Reaper) Enqueue(ref string) {
	if ref == "" {
		return
	}
	idx := r.shardIndex(ref)
	select {
	case r.workers[idx] <- ref:
		metrics.ReleaseQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(r.workers[idx])))
	default:
		metrics.AssetReleasesTotal.WithLabelValues("error").Inc()
		r.log.Error().Str("asset", ref).Msg("release queue full, asset leaked")
	}
}

// shardIndex maps an asset reference deterministically to a worker index.
func (r *Reaper) shardIndex(ref string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ref))
	return int(h.Sum32()) % len(r.workers)
}

func (r *Reaper) runWorker(ctx context.Context, id int, ch <-chan string) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case ref, ok := <-ch:
			if !ok {
				return
			}
			metrics.ReleaseQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			err := r.store.Release(releaseCtx, ref)
			cancel()

			if err != nil {
				metrics.AssetReleasesTotal.WithLabelValues("error").Inc()
				r.log.Warn().Err(err).
					Str("asset", ref).
					Int("worker_id", id).
					Msg("asset release failed")
				continue
			}
			metrics.AssetReleasesTotal.WithLabelValues("ok").Inc()
			r.log.Debug().Str("asset", ref).Msg("asset released")
		}
	}
}
