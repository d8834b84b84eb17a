// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

func TestCollector_Count(t *testing.T) {
	c := NewCollector(ocellus.NewStatistics(), "Serial: /dev/ttyACM0 @ 19200 baud")

	if n := testutil.CollectAndCount(c); n != 11 {
		t.Fatalf("collected %d metrics, want 11", n)
	}
	if n := testutil.CollectAndCount(c, "ocellus_session_busy_retries_total"); n != 1 {
		t.Fatalf("busy retries collected %d times, want 1", n)
	}
}

func TestRegisterIsIdempotentAndServed(t *testing.T) {
	stats := ocellus.NewStatistics()
	Register(stats, "TCP: 127.0.0.1:4000")
	Register(stats, "TCP: 127.0.0.1:4000")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"ocellus_session_transactions_total",
		"ocellus_link_bytes_sent_total",
		`link="TCP: 127.0.0.1:4000"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
