// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ocellus

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Session owns a link and its packet engine and exposes the command modules.
//
// A Session is not safe for concurrent use: the engine buffer is shared by
// every transaction. Use one Session per goroutine or guard it with a mutex.
type Session struct {
	link   Link
	engine *Engine
	config Config
	log    zerolog.Logger
	stats  *Statistics

	version    *Version
	resolution Resolution

	CCC   *CCC
	Line  *Line
	Video *Video
}

// New creates a session on top of an unopened link.
//
// Example:
//
//	sess := ocellus.New(link.NewUART("/dev/ttyUSB0", 19200, link.DefaultReadTimeout))
//	if err := sess.Init(ctx); err != nil { ... }
//	defer sess.Close()
func New(link Link, opts ...Option) *Session {
	if link == nil {
		panic("link cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Statistics == nil {
		cfg.Statistics = NewStatistics()
	}

	s := &Session{
		link:   link,
		config: cfg,
		log:    cfg.Logger,
		stats:  cfg.Statistics,
	}
	s.engine = NewEngine(link, s.stats)
	s.engine.syncDelay = cfg.SyncDelay
	s.CCC = &CCC{session: s}
	s.Line = &Line{session: s}
	s.Video = &Video{session: s}
	return s
}

// Init opens the link and probes the device with version queries until it
// answers or the handshake timeout elapses. The device drops requests sent
// while it boots, so the probe loop is how readiness is detected. On success
// the frame resolution is cached.
func (s *Session) Init(ctx context.Context) error {
	if err := s.link.Open(); err != nil {
		return &TransportError{Op: "open", Err: err}
	}

	start := time.Now()
	deadline := start.Add(s.config.HandshakeTimeout)
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, err := s.GetVersion(ctx)
		if err == nil {
			s.log.Debug().
				Int("attempts", attempt).
				Dur("elapsed", time.Since(start)).
				Str("firmware", v.Firmware()).
				Msg("handshake complete")

			if _, err := s.GetResolution(ctx); err != nil {
				s.log.Warn().Err(err).Msg("resolution query after handshake failed")
			}
			return nil
		}
		lastErr = err

		if !time.Now().Before(deadline) {
			break
		}
		s.log.Debug().Int("attempt", attempt).Err(err).Msg("device not ready")
		if err := sleep(ctx, s.config.HandshakeDelay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %s: %v", ErrHandshakeTimeout, s.config.HandshakeTimeout, lastErr)
}

// Close closes the underlying link
func (s *Session) Close() error {
	return s.link.Close()
}

// Stats returns the session's statistics tracker
func (s *Session) Stats() *Statistics {
	return s.stats
}

// Version returns the firmware version cached by the last successful GetVersion,
// or nil before the handshake
func (s *Session) Version() *Version {
	return s.version
}

// Resolution returns the frame resolution cached at handshake time and after
// each program change
func (s *Session) Resolution() Resolution {
	return s.resolution
}

// request describes one transaction
type request struct {
	op      string
	msgType uint8
	payload []byte
	expect  uint8 // expected response type
	length  int   // expected payload length, -1 for any
	wait    bool  // retry while the device reports busy
}

// transact runs the request/response state machine shared by every command.
//
// Transport, sync and checksum failures are returned unchanged. A busy error
// response is retried only when req.wait is set; a program-changing response
// is always retried. Any other device error code is returned as a
// ProtocolError.
func (s *Session) transact(ctx context.Context, req request) (*Packet, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.stats.transactions.Add(1)
		if _, err := s.engine.SendPacket(req.msgType, req.payload); err != nil {
			s.fail(req.op, err)
			return nil, err
		}

		p, err := s.engine.RecvPacket()
		if err != nil {
			s.fail(req.op, err)
			return nil, err
		}
		if e := s.log.Trace(); e.Enabled() {
			e.Str("op", req.op).Msg(strings.TrimSuffix(FormatPacket(p), "\n"))
		}

		switch p.Type() {
		case req.expect:
			if req.length >= 0 && int(p.Length()) != req.length {
				return nil, &UnexpectedResponseError{Op: req.op, Type: p.Type(), Length: p.Length()}
			}
			return p, nil

		case TypeResponseError:
			code := errorCode(p)
			switch code {
			case ResultBusy:
				if !req.wait {
					return nil, fmt.Errorf("%s: %w", req.op, ErrBusy)
				}
				s.stats.busyRetries.Add(1)
				s.log.Debug().Str("op", req.op).Int("attempt", attempt).Msg("device busy, retrying")
				if err := sleep(ctx, s.config.BusyDelay); err != nil {
					return nil, err
				}
			case ResultProgChanging:
				s.stats.progChangeRetries.Add(1)
				s.log.Debug().Str("op", req.op).Int("attempt", attempt).Msg("program changing, retrying")
				if err := sleep(ctx, s.config.BusyDelay); err != nil {
					return nil, err
				}
			default:
				err := &ProtocolError{Op: req.op, Code: code}
				s.stats.recordError(err)
				return nil, err
			}

		default:
			return nil, &UnexpectedResponseError{Op: req.op, Type: p.Type(), Length: p.Length()}
		}
	}
}

// command runs a request answered by a single signed 32-bit result.
// Negative results are returned as a ProtocolError carrying the device code.
func (s *Session) command(ctx context.Context, op string, msgType uint8, payload []byte) (int32, error) {
	p, err := s.transact(ctx, request{
		op:      op,
		msgType: msgType,
		payload: payload,
		expect:  TypeResponseResult,
		length:  ResultSize,
	})
	if err != nil {
		return 0, err
	}

	res := resultCode(p)
	if res < 0 {
		err := &ProtocolError{Op: op, Code: res}
		s.stats.recordError(err)
		return res, err
	}
	return res, nil
}

func (s *Session) fail(op string, err error) {
	s.stats.recordError(err)
	s.log.Warn().Str("op", op).Err(err).Msg("transaction failed")
}

// errorCode extracts the signed code carried by an error response
func errorCode(p *Packet) int32 {
	if p.Length() < 1 {
		return ResultError
	}
	return int32(int8(p.Payload()[0]))
}

// resultCode extracts the signed 32-bit value carried by a result response
func resultCode(p *Packet) int32 {
	return int32(binary.LittleEndian.Uint32(p.Payload()[:ResultSize]))
}

// sleep pauses for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
