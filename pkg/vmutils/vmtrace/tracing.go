// Copyright (c) 2026 The VirtRunner Authors
//
// SPDX-License-Identifier: Apache-2.0
//

package vmtrace

import (
	"context"
	"io"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"github.com/uber/jaeger-client-go/config"
)

// Implements jaeger-client-go.Logger interface
type traceLogger struct {
}

var vmTraceLogger = logrus.NewEntry(logrus.New())

// TracingSet reports whether tracing was requested for this run. Spans are
// still created when it is false, but through a NOP tracer.
var TracingSet = false

// tracerCloser contains a copy of the closer returned by CreateTracer()
// which is used by StopTracing().
var tracerCloser io.Closer

func (t traceLogger) Error(msg string) {
	vmTraceLogger.Error(msg)
}

func (t traceLogger) Infof(msg string, args ...interface{}) {
	vmTraceLogger.Infof(msg, args...)
}

// SetLogger sets the logger to be used for tracing errors.
func SetLogger(logger *logrus.Entry) {
	vmTraceLogger = logger
}

// CreateTracer creates a tracer for the named service.
func CreateTracer(name string) (opentracing.Tracer, error) {
	cfg := &config.Configuration{
		ServiceName: name,

		// If tracing is disabled, use a NOP trace implementation.
		Disabled: !TracingSet,

		Sampler: &config.SamplerConfig{
			Type:  "const",
			Param: 1,
		},

		Reporter: &config.ReporterConfig{
			LogSpans: TracingSet,
		},
	}

	logger := traceLogger{}

	tracer, closer, err := cfg.NewTracer(config.Logger(logger))
	if err != nil {
		return nil, err
	}

	// save for StopTracing()'s exclusive use
	tracerCloser = closer

	// Ensure non-root spans are logged.
	opentracing.SetGlobalTracer(tracer)

	return tracer, nil
}

// StopTracing ends all tracing, reporting the spans to the collector.
func StopTracing(ctx context.Context) {
	if !TracingSet {
		return
	}

	span := opentracing.SpanFromContext(ctx)

	if span != nil {
		span.Finish()
	}

	// report all possible spans to the collector
	if tracerCloser != nil {
		tracerCloser.Close()
	}
}

// Trace creates a new tracing span based on the specified name and parent
// context. Accepts a logger to report tracing errors on and a variadic
// number of tags in key-value form (key1, value1, key2, value2, ...).
// The number of tags should be even.
func Trace(parent context.Context, logger *logrus.Entry, name string, tags ...string) (opentracing.Span, context.Context) {
	if parent == nil {
		if logger == nil {
			logger = vmTraceLogger
		}
		logger.WithField("type", "bug").Error("trace called before context set")
		parent = context.Background()
	}

	span, ctx := opentracing.StartSpanFromContext(parent, name)

	for i := 0; i < len(tags); i += 2 {
		if i+1 == len(tags) {
			span.SetTag(tags[i], "")
		} else {
			span.SetTag(tags[i], tags[i+1])
		}
	}

	if TracingSet {
		vmTraceLogger.Debugf("created span %v", span)
	}

	return span, ctx
}
