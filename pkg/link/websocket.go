// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig describes a tunnel to a sensor bridged over WebSocket
type WebSocketConfig struct {
	URL           string
	Username      string
	Password      string
	SkipSSLVerify bool
	ReadTimeout   time.Duration
}

// webSocketConn carries the byte stream in binary messages. A reader
// goroutine drains the socket so a read timeout never breaks the connection.
type webSocketConn struct {
	conn        *websocket.Conn
	readTimeout time.Duration

	msgs chan []byte
	done chan struct{}
	err  error // set before msgs is closed

	buf       []byte
	bufOffset int

	closeOnce sync.Once
}

func newWebSocketConn(conn *websocket.Conn, readTimeout time.Duration) *webSocketConn {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	w := &webSocketConn{
		conn:        conn,
		readTimeout: readTimeout,
		msgs:        make(chan []byte, 64),
		done:        make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *webSocketConn) readLoop() {
	defer close(w.msgs)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.err = err
			return
		}

		// Only binary messages carry protocol bytes
		if messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case w.msgs <- data:
		case <-w.done:
			return
		}
	}
}

func (w *webSocketConn) Read(p []byte) (int, error) {
	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	timer := time.NewTimer(w.readTimeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.msgs:
		if !ok {
			if w.err != nil {
				return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)
			}
			return 0, ErrConnectionClosed
		}
		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	case <-timer.C:
		return 0, ErrReadTimeout
	}
}

func (w *webSocketConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *webSocketConn) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.conn.Close()
}

// DialWebSocket opens a WebSocket tunnel with optional HTTP Basic auth
func DialWebSocket(ctx context.Context, cfg WebSocketConfig) (io.ReadWriteCloser, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConn(conn, cfg.ReadTimeout), nil
}

// NewWebSocket returns an unopened WebSocket tunnel link
func NewWebSocket(cfg WebSocketConfig) *Stream {
	return NewStream("WebSocket: "+cfg.URL, func() (io.ReadWriteCloser, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return DialWebSocket(ctx, cfg)
	})
}
