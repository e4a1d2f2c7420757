// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/lib/config"
)

// UserService manages the login session.
type UserService struct {
	store  *config.Store
	client *allcpp.Client
	logger *slog.Logger
}

// NewUserService builds a UserService.
func NewUserService(store *config.Store, client *allcpp.Client, logger *slog.Logger) *UserService {
	return &UserService{store: store, client: client, logger: orDiscard(logger)}
}

// Login signs in with the stored credentials and stores the token.
func (s *UserService) Login(ctx context.Context) LoginStatus {
	account := s.store.Snapshot().Account
	if account.Account == "" {
		return LoginMissingAccount
	}
	if account.Password == "" {
		return LoginMissingPassword
	}

	token, err := s.client.Login(ctx, account.Account, account.Password)
	if err != nil {
		if errors.Is(err, allcpp.ErrBadCredentials) {
			s.logger.Error("account or password rejected", "error", err)
			return LoginError
		}
		s.logger.Error("login request failed", "error", err)
		return LoginFailed
	}

	if err := s.store.SetToken(token); err != nil {
		// The session works without the token on disk; the next start
		// logs in again.
		s.logger.Warn("storing token failed", "error", err)
	}
	return LoginSuccess
}

// RestoreSession installs the stored token, if any, in the client.
func (s *UserService) RestoreSession() bool {
	account := s.store.Snapshot().Account
	if !account.HasToken() {
		return false
	}
	s.client.UseToken(account.TokenValue())
	return true
}

// CheckToken reports whether the stored token still works, by probing
// the purchaser list with it.
func (s *UserService) CheckToken(ctx context.Context) bool {
	if !s.RestoreSession() {
		return false
	}
	if _, err := s.client.Purchasers(ctx); err != nil {
		s.logger.Debug("stored token rejected", "error", err)
		return false
	}
	return true
}

// EnsureSession reuses a working token or logs in.
func (s *UserService) EnsureSession(ctx context.Context) LoginStatus {
	if s.CheckToken(ctx) {
		return LoginSuccess
	}
	return s.Login(ctx)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
