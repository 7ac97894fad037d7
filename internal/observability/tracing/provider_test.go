package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSafeAttributesDropsCustomerData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("customer.name", "Al Faisal"),
		attribute.String("document.number", "INV-0007"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("document.number"), attrs[0].Key)
}

func TestSafeErrorTrimsDetail(t *testing.T) {
	err := SafeError(errors.New("load sale: SELECT * FROM sales WHERE id = 1"))
	require.Error(t, err)
	assert.Equal(t, "load sale", err.Error())
	assert.Nil(t, SafeError(nil))
}

func TestExtractContextReadsTraceparent(t *testing.T) {
	_, err := NewProvider(nil, Config{Enabled: false}, nil)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := ExtractContext(context.Background(), propagation.HeaderCarrier(header))

	sc := trace.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
}
