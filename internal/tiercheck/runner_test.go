package tiercheck_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nebulon/tierd/internal/adapters/http/api"
	service "github.com/nebulon/tierd/internal/app"
	"github.com/nebulon/tierd/internal/tiercheck"
	"github.com/nebulon/tierd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a running tier service", t, func() {
		_ = logger.Init()
		ctx := context.Background()

		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := &tiercheck.Config{
			BaseURL:  srv.URL,
			Sets:     12,
			SetSize:  40,
			MaxScore: 5,
			Workers:  4,
			Timeout:  5 * time.Second,
			Seed:     7,
		}

		Convey("When the check runs", func() {
			cfg.OutputFile = filepath.Join(t.TempDir(), "out", "sets.json")
			stats, err := tiercheck.Run(ctx, cfg)

			Convey("Then every set passes", func() {
				So(err, ShouldBeNil)
				So(stats.SetsSubmitted, ShouldEqual, 12)
				So(stats.SetsPassed, ShouldEqual, 12)
				So(stats.SetsFailed, ShouldEqual, 0)
				So(stats.EntriesRanked, ShouldBeGreaterThan, 0)
				_, statErr := os.Stat(cfg.OutputFile)
				So(statErr, ShouldBeNil)
			})
		})
	})

	Convey("Given a service that ranks incorrectly", t, func() {
		_ = logger.Init()
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/tiers", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"tiers":[{"tier_id":1,"name":"All","percentile_ceiling":100,"reward_share":1}]}`))
		})
		mux.HandleFunc("/calculate-tiers", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		stats, err := tiercheck.Run(context.Background(), &tiercheck.Config{
			BaseURL: srv.URL, Sets: 3, SetSize: 5, MaxScore: 10, Workers: 2, Timeout: time.Second, Seed: 1,
		})

		Convey("Then the run reports a verification failure", func() {
			So(errors.Is(err, tiercheck.ErrVerification), ShouldBeTrue)
			So(stats.SetsFailed, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a service that rejects submissions", t, func() {
		_ = logger.Init()
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		mux.HandleFunc("/tiers", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"tiers":[]}`)) })
		mux.HandleFunc("/calculate-tiers", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusBadRequest)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		_, err := tiercheck.Run(context.Background(), &tiercheck.Config{
			BaseURL: srv.URL, Sets: 2, SetSize: 3, MaxScore: 1, Workers: 1, Timeout: time.Second, Seed: 1,
		})

		Convey("Then the submission error surfaces", func() {
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "returned 400"), ShouldBeTrue)
		})
	})
}
