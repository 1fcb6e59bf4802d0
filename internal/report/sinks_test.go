package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homewatch/internal/sensor"
)

func TestHTTPSinkPostsBatch(t *testing.T) {
	var got Batch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL, "")
	batch := Batch{
		Seq:       7,
		Readings:  []sensor.Reading{{Channel: "temperature", Value: 21.5, Unit: "C", TS: time.Now().UTC()}},
		CreatedAt: time.Now().UTC(),
	}
	if err := sink.Send(context.Background(), batch); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got.Seq != 7 || len(got.Readings) != 1 || got.Readings[0].Channel != "temperature" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestHTTPSinkErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL, "")
	if err := sink.Send(context.Background(), batchWithSeq(1)); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestHTTPSinkAuthToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer collector-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewHTTPSink(server.URL, "collector-token")
	if err := sink.Send(context.Background(), batchWithSeq(1)); err != nil {
		t.Fatalf("expected authorized send, got %v", err)
	}
}
