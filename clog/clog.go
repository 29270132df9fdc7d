// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package clog is a small leveled-logging facade used by the transport,
// session and streaming layers to report protocol-level events without
// binding them to a concrete logging backend.
package clog

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogProvider is the backend a Clog delegates to. Critical/Error map to
// protocol failures, Warn to recoverable conditions (retried locale
// negotiation), Info/Debug to informational
// message-queue drains and frame-level tracing.
type LogProvider interface {
	Critical(format string, v ...interface{})
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Clog is the logging facade held by session.Session and netwise.Conn.
type Clog struct {
	provider LogProvider
	// is log output enabled,1: enable, 0: disable
	has uint32
}

// NewLogger creates a Clog whose default provider is a logrus.Logger
// with its "component" field set to prefix, matching the per-connection
// tagging the teacher's defaultLogger did with a text prefix.
func NewLogger(prefix string) Clog {
	l := logrus.New()
	return Clog{
		logrusLogger{l.WithField("component", prefix)},
		0,
	}
}

// LogMode enables or disables log output; disabled by default until the
// caller opts in, same as the teacher package.
func (sf *Clog) LogMode(enable bool) {
	if enable {
		atomic.StoreUint32(&sf.has, 1)
	} else {
		atomic.StoreUint32(&sf.has, 0)
	}
}

// SetLogProvider overrides the backend, e.g. to route into an
// application-wide logrus.Logger or any other LogProvider implementation.
func (sf *Clog) SetLogProvider(p LogProvider) {
	if p != nil {
		sf.provider = p
	}
}

// Critical logs an unrecoverable protocol condition.
func (sf Clog) Critical(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Critical(format, v...)
	}
}

// Error logs a failed RPC or stream operation.
func (sf Clog) Error(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Error(format, v...)
	}
}

// Warn logs a recoverable condition.
func (sf Clog) Warn(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Warn(format, v...)
	}
}

// Info logs low-severity server messages drained from the message queue.
func (sf Clog) Info(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Info(format, v...)
	}
}

// Debug logs frame and wire-level tracing.
func (sf Clog) Debug(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Debug(format, v...)
	}
}

// logrusLogger adapts a logrus.Entry to LogProvider.
type logrusLogger struct {
	*logrus.Entry
}

var _ LogProvider = (*logrusLogger)(nil)

func (sf logrusLogger) Critical(format string, v ...interface{}) {
	sf.Entry.WithField("level", "critical").Errorf(format, v...)
}

func (sf logrusLogger) Error(format string, v ...interface{}) {
	sf.Entry.Errorf(format, v...)
}

func (sf logrusLogger) Warn(format string, v ...interface{}) {
	sf.Entry.Warnf(format, v...)
}

func (sf logrusLogger) Info(format string, v ...interface{}) {
	sf.Entry.Infof(format, v...)
}

func (sf logrusLogger) Debug(format string, v ...interface{}) {
	sf.Entry.Debugf(format, v...)
}
