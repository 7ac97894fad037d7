package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("document_kind", "invoice"),
		attribute.String("customer_name", "Al Faisal"),
		attribute.String("reason", "not_found"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "document_kind" && attrs[1].Key != "document_kind" {
		t.Fatalf("expected document_kind to be retained")
	}
	if attrs[0].Key != "reason" && attrs[1].Key != "reason" {
		t.Fatalf("expected reason to be retained")
	}
}

func TestPageBucket(t *testing.T) {
	cases := map[int]string{0: "1", 1: "1", 2: "2-3", 3: "2-3", 7: "4-10", 11: "10+"}
	for pages, want := range cases {
		if got := pageBucket(pages); got != want {
			t.Fatalf("pageBucket(%d) = %q, want %q", pages, got, want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordDocumentRendered(context.Background(), "invoice", 1)
	m.RecordAssetFallback(context.Background(), "logo", "missing")
	m.RecordLookupDegraded(context.Background(), "query_failed")
	m.RecordNumberReserved(context.Background(), "invoice")

	noop := NewNoop()
	if noop == nil {
		t.Fatalf("expected noop metrics")
	}
	noop.RecordDocumentRendered(context.Background(), "statement", 4)
}
