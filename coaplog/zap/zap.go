// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package zap adapts a *zap.SugaredLogger to the coap.Logger interface,
// so an Endpoint's diagnostic events flow into an application's existing
// structured logging pipeline.
package zap

import "go.uber.org/zap"

// Logger wraps a *zap.SugaredLogger to satisfy coap.Logger. The With...
// key-value pairs an Endpoint passes are forwarded to zap's structured
// field mechanism unchanged.
type Logger struct {
	s *zap.SugaredLogger
}

// New wraps l.
func New(l *zap.Logger) Logger { return Logger{s: l.Sugar()} }

func (l Logger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l Logger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l Logger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
