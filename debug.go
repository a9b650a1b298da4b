/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/Seednode/santabox/santa"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "santabox_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "santabox_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"route"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "santabox_generations_total",
			Help: "Total number of draws, by result",
		},
		[]string{"result"},
	)

	decodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "santabox_decode_failures_total",
			Help: "Total number of state fields that failed to decode",
		},
		[]string{"field"},
	)

	socketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "santabox_websocket_messages_total",
			Help: "Total number of websocket commands handled",
		},
		[]string{"type"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metered records request count and latency for route.
func metered(route string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h(rec, r, p)

		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func recordGeneration(err error) {
	switch {
	case err == nil:
		generationsTotal.WithLabelValues("ok").Inc()
	case santa.IsValidation(err):
		generationsTotal.WithLabelValues("invalid").Inc()
	default:
		generationsTotal.WithLabelValues("failed").Inc()
	}
}

func recordDecodeFailure(err error) {
	if err == nil {
		return
	}

	failures := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		failures = joined.Unwrap()
	}

	for _, e := range failures {
		var de *santa.DecodeError
		if errors.As(e, &de) {
			decodeFailuresTotal.WithLabelValues(de.Field).Inc()
		}
	}
}

func registerMetrics(cfg *Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())
}

func registerProfileHandlers(cfg *Config, mux *httprouter.Router) {
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handler("GET", cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	mux.HandlerFunc("GET", cfg.prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/trace", pprof.Trace)
}
