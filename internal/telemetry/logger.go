// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package telemetry centralises the structured logger used by the Source
// and Sink facades. Callers that don't care about logging get a no-op
// logger; nothing in the engine's hot path ever logs.
package telemetry

import "go.uber.org/zap"

// NewNop returns a logger that discards everything, the default for a
// facade constructed without an explicit logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// NewDevelopment returns a human-readable logger suitable for local
// tooling and the package's own tests.
func NewDevelopment() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return NewNop()
	}
	return logger
}
