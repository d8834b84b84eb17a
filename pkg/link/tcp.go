// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// tcpConn bounds every read with a deadline and maps it to ErrReadTimeout
type tcpConn struct {
	net.Conn
	readTimeout time.Duration
}

func (c *tcpConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return 0, err
	}
	n, err := c.Conn.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, ErrReadTimeout
	}
	return n, err
}

// DialTCP connects to a raw TCP serial bridge (e.g. ser2net)
func DialTCP(addr string, readTimeout time.Duration) (io.ReadWriteCloser, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &tcpConn{Conn: conn, readTimeout: readTimeout}, nil
}

// NewTCP returns an unopened TCP tunnel link
func NewTCP(addr string, readTimeout time.Duration) *Stream {
	return NewStream("TCP: "+addr, func() (io.ReadWriteCloser, error) {
		return DialTCP(addr, readTimeout)
	})
}
