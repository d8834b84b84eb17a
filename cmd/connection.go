// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Thermoquad/ocellus/internal/config"
	"github.com/Thermoquad/ocellus/pkg/link"
	"github.com/Thermoquad/ocellus/pkg/ocellus"
)

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("OCELLUS_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// NewLink builds an unopened link for the profile. The returned string
// describes the connection for display.
func NewLink(cfg config.Link) (ocellus.Link, string, error) {
	switch cfg.Kind {
	case config.KindUART:
		l := link.NewUART(cfg.Port, cfg.Baud, cfg.ReadTimeout)
		return l, l.String(), nil

	case config.KindI2C:
		l := link.NewI2C(cfg.Bus, cfg.Address)
		return l, l.String(), nil

	case config.KindSPI:
		l := link.NewSPI(cfg.Device, cfg.SpeedHz)
		return l, l.String(), nil

	case config.KindSPISelect:
		l := link.NewSPIWithSelect(cfg.Device, cfg.SpeedHz)
		return l, l.String(), nil

	case config.KindWebSocket:
		password := ""
		if cfg.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		l := link.NewWebSocket(link.WebSocketConfig{
			URL:           cfg.URL,
			Username:      cfg.Username,
			Password:      password,
			SkipSSLVerify: cfg.NoSSLVerify,
			ReadTimeout:   cfg.ReadTimeout,
		})
		return l, l.String(), nil

	case config.KindTCP:
		l := link.NewTCP(cfg.Addr, cfg.ReadTimeout)
		return l, l.String(), nil
	}

	return nil, "", fmt.Errorf("unknown link kind %q", cfg.Kind)
}

// OpenSession opens the profile's link and completes the device handshake
func OpenSession(ctx context.Context, opts ...ocellus.Option) (*ocellus.Session, string, error) {
	l, connInfo, err := NewLink(profile.Link)
	if err != nil {
		return nil, "", err
	}

	opts = append(profile.SessionOptions(), append([]ocellus.Option{ocellus.WithLogger(logger)}, opts...)...)
	sess := ocellus.New(l, opts...)

	start := time.Now()
	if err := sess.Init(ctx); err != nil {
		sess.Close()
		return nil, connInfo, err
	}
	logger.Info().Str("link", connInfo).Dur("elapsed", time.Since(start)).Msg("connected")

	return sess, connInfo, nil
}

// withSession runs fn against a connected session and closes it afterwards
func withSession(ctx context.Context, fn func(*ocellus.Session) error) error {
	sess, _, err := OpenSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}
