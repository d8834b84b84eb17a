// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Statistics tracks transaction counters and error rates for one session.
// Counters are atomic so a metrics collector may read them while the session runs.
type Statistics struct {
	startTime time.Time

	transactions      atomic.Uint64
	packetsReceived   atomic.Uint64
	checksumErrors    atomic.Uint64
	syncTimeouts      atomic.Uint64
	transportErrors   atomic.Uint64
	protocolErrors    atomic.Uint64
	busyRetries       atomic.Uint64
	progChangeRetries atomic.Uint64
	bytesSent         atomic.Uint64
	bytesReceived     atomic.Uint64
}

// Snapshot is a point-in-time copy of Statistics
type Snapshot struct {
	Uptime            time.Duration
	Transactions      uint64
	PacketsReceived   uint64
	ChecksumErrors    uint64
	SyncTimeouts      uint64
	TransportErrors   uint64
	ProtocolErrors    uint64
	BusyRetries       uint64
	ProgChangeRetries uint64
	BytesSent         uint64
	BytesReceived     uint64

	// Rates (calculated)
	TransactionRate float64 // transactions/sec
	ErrorRate       float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// recordError classifies a failed receive or send
func (s *Statistics) recordError(err error) {
	var ce *ChecksumError
	switch {
	case errors.As(err, &ce):
		s.checksumErrors.Add(1)
	case errors.Is(err, ErrSyncTimeout):
		s.syncTimeouts.Add(1)
	case IsTransportError(err):
		s.transportErrors.Add(1)
	case IsProtocolError(err):
		s.protocolErrors.Add(1)
	}
}

// Snapshot returns the current counters with derived rates
func (s *Statistics) Snapshot() Snapshot {
	snap := Snapshot{
		Uptime:            time.Since(s.startTime),
		Transactions:      s.transactions.Load(),
		PacketsReceived:   s.packetsReceived.Load(),
		ChecksumErrors:    s.checksumErrors.Load(),
		SyncTimeouts:      s.syncTimeouts.Load(),
		TransportErrors:   s.transportErrors.Load(),
		ProtocolErrors:    s.protocolErrors.Load(),
		BusyRetries:       s.busyRetries.Load(),
		ProgChangeRetries: s.progChangeRetries.Load(),
		BytesSent:         s.bytesSent.Load(),
		BytesReceived:     s.bytesReceived.Load(),
	}

	elapsed := snap.Uptime.Seconds()
	if elapsed > 0 {
		snap.TransactionRate = float64(snap.Transactions) / elapsed
		snap.ErrorRate = float64(snap.Errors()) / elapsed
	}

	return snap
}

// Errors returns the total number of failed packets and device errors
func (s Snapshot) Errors() uint64 {
	return s.ChecksumErrors + s.SyncTimeouts + s.TransportErrors + s.ProtocolErrors
}

// SuccessRate returns the percentage of received packets that were not errors
func (s Snapshot) SuccessRate() float64 {
	total := s.PacketsReceived + s.ChecksumErrors + s.SyncTimeouts + s.TransportErrors
	if total == 0 {
		return 0
	}
	return float64(s.PacketsReceived) / float64(total) * 100
}

// Format returns a one-line summary of the snapshot
func (s Snapshot) Format() string {
	return fmt.Sprintf("tx=%d rx=%d busy=%d cs_err=%d sync_err=%d io_err=%d dev_err=%d ok=%.1f%%",
		s.Transactions, s.PacketsReceived, s.BusyRetries, s.ChecksumErrors,
		s.SyncTimeouts, s.TransportErrors, s.ProtocolErrors, s.SuccessRate())
}
