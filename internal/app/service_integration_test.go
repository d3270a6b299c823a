package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nebulon/tierd/internal/adapters/ledger"
	service "github.com/nebulon/tierd/internal/app"
	"github.com/nebulon/tierd/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

// gateUpdater blocks every update until release is closed.
type gateUpdater struct {
	release chan struct{}
	mu      sync.Mutex
	seen    []string
}

func (g *gateUpdater) UpdateStatus(ctx context.Context, handle string, _ int64, _ int, _ string) error {
	<-g.release
	g.mu.Lock()
	g.seen = append(g.seen, handle)
	g.mu.Unlock()
	return nil
}

func (g *gateUpdater) Name() string { return "gate" }

func (g *gateUpdater) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

func scores(n int, prefix string) []ranking.ScoreEntry {
	out := make([]ranking.ScoreEntry, n)
	for i := range out {
		out[i] = ranking.ScoreEntry{Handle: fmt.Sprintf("%s-%03d", prefix, i), Score: int64(n - i)}
	}
	return out
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by a sqlite ledger", t, func() {
		ctx := context.Background()
		store, err := ledger.OpenSQLiteLedger(ctx, filepath.Join(t.TempDir(), "ledger.db"))
		So(err, ShouldBeNil)

		svc := service.New(service.WithLedger(store), service.WithWorkerCount(4), service.WithQueueSize(1000))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a score set is ranked and dispatched", func() {
			res := svc.Rank(ctx, scores(20, "agent"))
			queued := svc.Dispatch(ctx, res)

			Convey("Then every agent's tier reaches the ledger", func() {
				So(queued, ShouldEqual, 20)
				So(eventually(func() bool {
					_, err := svc.Status(ctx, "agent-019")
					return err == nil
				}), ShouldBeTrue)
				So(eventually(func() bool {
					return svc.GetStats()["processed"] == int64(20)
				}), ShouldBeTrue)

				top, err := svc.Status(ctx, "agent-000")
				So(err, ShouldBeNil)
				So(top.TierID, ShouldEqual, res[0].TierID)
				So(top.Score, ShouldEqual, int64(20))
				So(top.MetadataReference, ShouldEqual, res[0].MetadataReference)

				last, err := svc.Status(ctx, "agent-019")
				So(err, ShouldBeNil)
				So(last.TierID, ShouldEqual, 10)
			})

			Convey("And a later ranking overwrites the earlier tier", func() {
				So(eventually(func() bool { return svc.GetStats()["processed"] == int64(20) }), ShouldBeTrue)

				again := svc.Rank(ctx, []ranking.ScoreEntry{{Handle: "agent-019", Score: 1_000}, {Handle: "other", Score: 1}})
				So(svc.Dispatch(ctx, again), ShouldEqual, 2)
				So(eventually(func() bool {
					rec, err := svc.Status(ctx, "agent-019")
					return err == nil && rec.Score == 1_000
				}), ShouldBeTrue)
			})
		})

		Convey("When asking for an agent never ranked", func() {
			_, err := svc.Status(ctx, "nobody")

			Convey("Then it is not found", func() {
				So(errors.Is(err, ledger.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the service stops", func() {
			res := svc.Rank(ctx, scores(50, "late"))
			svc.Dispatch(ctx, res)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then queued updates were drained before the ledger closed", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats["dispatched"], ShouldEqual, int64(50))
			})
		})

		_ = svc.Stop(ctx)
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service whose ledger is stalled", t, func() {
		ctx := context.Background()
		gate := &gateUpdater{release: make(chan struct{})}
		svc := service.New(service.WithLedger(gate), service.WithWorkerCount(1), service.WithQueueSize(5))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When more updates are dispatched than the queue holds", func() {
			res := svc.Rank(ctx, scores(20, "agent"))
			start := time.Now()
			queued := svc.Dispatch(ctx, res)
			took := time.Since(start)

			Convey("Then dispatch returns at once and drops the overflow", func() {
				So(took, ShouldBeLessThan, time.Second)
				So(queued, ShouldBeBetweenOrEqual, 5, 6)
				stats := svc.GetStats()
				So(stats["dropped"], ShouldEqual, int64(20-queued))
			})

			close(gate.release)
			So(svc.Stop(ctx), ShouldBeNil)
			So(gate.count(), ShouldEqual, queued)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		gate := &gateUpdater{release: make(chan struct{})}
		close(gate.release)
		svc := service.New(service.WithLedger(gate), service.WithWorkerCount(8), service.WithQueueSize(10_000))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When many requests rank and dispatch concurrently", func() {
			var wg sync.WaitGroup
			results := make([]ranking.Results, 10)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					results[id] = svc.Rank(ctx, scores(100, fmt.Sprintf("req%d", id)))
					svc.Dispatch(ctx, results[id])
				}(i)
			}
			wg.Wait()
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then each request is ranked independently and every update lands", func() {
				for _, res := range results {
					So(res, ShouldHaveLength, 100)
					So(res[0].Rank, ShouldEqual, 1)
					So(res[99].Percentile, ShouldEqual, 100.0)
				}
				So(gate.count(), ShouldEqual, 1000)
			})
		})
	})
}
