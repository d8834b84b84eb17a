// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports session statistics to Prometheus.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

const namespace = "ocellus"

// Collector reads an ocellus.Statistics snapshot on every scrape
type Collector struct {
	stats *ocellus.Statistics
	link  string

	transactions      *prometheus.Desc
	packetsReceived   *prometheus.Desc
	checksumErrors    *prometheus.Desc
	syncTimeouts      *prometheus.Desc
	transportErrors   *prometheus.Desc
	protocolErrors    *prometheus.Desc
	busyRetries       *prometheus.Desc
	progChangeRetries *prometheus.Desc
	bytesSent         *prometheus.Desc
	bytesReceived     *prometheus.Desc
	uptime            *prometheus.Desc
}

func counterDesc(subsystem, name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, []string{"link"}, nil)
}

// NewCollector creates a collector for stats labelled with the link description
func NewCollector(stats *ocellus.Statistics, link string) *Collector {
	return &Collector{
		stats:             stats,
		link:              link,
		transactions:      counterDesc("session", "transactions_total", "Requests sent to the sensor."),
		packetsReceived:   counterDesc("session", "packets_received_total", "Valid frames received."),
		checksumErrors:    counterDesc("session", "checksum_errors_total", "Frames rejected by checksum."),
		syncTimeouts:      counterDesc("session", "sync_timeouts_total", "Receives with no sync marker."),
		transportErrors:   counterDesc("session", "transport_errors_total", "Link send or receive failures."),
		protocolErrors:    counterDesc("session", "protocol_errors_total", "Error codes reported by the sensor."),
		busyRetries:       counterDesc("session", "busy_retries_total", "Requests repeated because the sensor was busy."),
		progChangeRetries: counterDesc("session", "program_change_retries_total", "Requests repeated during a program change."),
		bytesSent:         counterDesc("link", "bytes_sent_total", "Bytes written to the link."),
		bytesReceived:     counterDesc("link", "bytes_received_total", "Bytes read from the link."),
		uptime:            prometheus.NewDesc(prometheus.BuildFQName(namespace, "session", "uptime_seconds"), "Seconds since the session started.", []string{"link"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.transactions
	ch <- c.packetsReceived
	ch <- c.checksumErrors
	ch <- c.syncTimeouts
	ch <- c.transportErrors
	ch <- c.protocolErrors
	ch <- c.busyRetries
	ch <- c.progChangeRetries
	ch <- c.bytesSent
	ch <- c.bytesReceived
	ch <- c.uptime
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), c.link)
	}

	counter(c.transactions, s.Transactions)
	counter(c.packetsReceived, s.PacketsReceived)
	counter(c.checksumErrors, s.ChecksumErrors)
	counter(c.syncTimeouts, s.SyncTimeouts)
	counter(c.transportErrors, s.TransportErrors)
	counter(c.protocolErrors, s.ProtocolErrors)
	counter(c.busyRetries, s.BusyRetries)
	counter(c.progChangeRetries, s.ProgChangeRetries)
	counter(c.bytesSent, s.BytesSent)
	counter(c.bytesReceived, s.BytesReceived)
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, s.Uptime.Seconds(), c.link)
}

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()
)

// Register adds the session collector to the exporter registry. Only the first
// call registers; the CLI runs one session per process.
func Register(stats *ocellus.Statistics, link string) {
	registerOnce.Do(func() {
		registry.MustRegister(NewCollector(stats, link))
	})
}

// Handler serves the exporter registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
