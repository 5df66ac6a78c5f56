package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestGORMTracingPluginRecordsStatements(t *testing.T) {
	rec := installRecorder(t)

	db, err := gorm.Open(sqlite.Open("file:telemetry_plugin?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Use(GORMTracingPlugin()))

	type Note struct {
		ID   uint
		Body string
	}
	require.NoError(t, db.AutoMigrate(&Note{}))

	require.NoError(t, db.Create(&Note{Body: "untraced"}).Error)
	assert.Empty(t, rec.Ended(), "statements without a parent span are not traced")

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&Note{Body: "hi"}).Error)
	var notes []Note
	require.NoError(t, db.WithContext(ctx).Find(&notes).Error)
	parent.End()

	names := map[string]bool{}
	for _, span := range rec.Ended() {
		names[span.Name()] = true
		if span.Name() == "db.insert" {
			attrs := map[string]string{}
			for _, kv := range span.Attributes() {
				attrs[string(kv.Key)] = kv.Value.Emit()
			}
			assert.Equal(t, "sqlite", attrs["db.system"])
			assert.Equal(t, "notes", attrs["db.table"])
			assert.Equal(t, "Note", attrs["db.model"])
		}
	}
	assert.True(t, names["db.insert"])
	assert.True(t, names["db.select"])
}

func TestTraceExternalCall(t *testing.T) {
	rec := installRecorder(t)

	_, span := TraceExternalCall(context.Background(), "gemini", "moderate")
	EndExternalCall(span, http.StatusServiceUnavailable, assert.AnError)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "gemini.moderate", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestInstrumentedHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewInstrumentedHTTPClient(time.Second)
	assert.Equal(t, time.Second, client.Timeout)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
