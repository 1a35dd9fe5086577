package logging

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// NewLogger builds the process-wide JSON logger.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// LogWithTrace logs a message with trace information and caller details
func LogWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, fields logrus.Fields) {
	fields, message = decorate(ctx, layer, message, fields)
	logger.WithFields(fields).Info(message)
}

// LogErrorWithTrace logs an error with trace information and caller details
func LogErrorWithTrace(ctx context.Context, logger *logrus.Logger, layer, message string, err error, fields logrus.Fields) {
	fields, message = decorate(ctx, layer, message, fields)
	logger.WithFields(fields).WithError(err).Error(message)
}

// decorate attaches the layer, caller location and Datadog trace/span IDs,
// and prefixes the message with the layer and call site.
func decorate(ctx context.Context, layer, message string, fields logrus.Fields) (logrus.Fields, string) {
	if fields == nil {
		fields = logrus.Fields{}
	}

	// Skip 2 frames to reach the caller of LogWithTrace/LogErrorWithTrace.
	if _, file, line, ok := runtime.Caller(2); ok {
		fields["file"] = file
		fields["line"] = line
		message = fmt.Sprintf("[%s] %s:%d | %s", layer, file, line, message)
	} else {
		message = fmt.Sprintf("[%s] %s", layer, message)
	}

	if span, ok := tracer.SpanFromContext(ctx); ok {
		spanContext := span.Context()
		fields["dd.trace_id"] = spanContext.TraceID()
		fields["dd.span_id"] = spanContext.SpanID()
	}

	fields["layer"] = layer
	return fields, message
}
