// Copyright (c) 2025 The spmcring Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config loads the tunables a demo Source or Sink is started
// with: queue name, capacity, prefetch cache size, and keep-warm
// interval. Capacity and queue name are fixed at segment-placement time.
// Loader.OnChange re-reads every value when the watched config file
// changes; a Source or Sink applies tunables only when it is constructed.
package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Tunables holds every value the facades read from configuration.
type Tunables struct {
	QueueName        string        `mapstructure:"queue_name"`
	Capacity         uint64        `mapstructure:"capacity"`
	PrefetchSize     uint64        `mapstructure:"prefetch_size"`
	KeepWarmInterval time.Duration `mapstructure:"keep_warm_interval"`
}

// defaults are a 1 MiB capacity, a disabled prefetch cache and a
// one-second keep-warm interval; callers override via file/env.
func defaults() Tunables {
	return Tunables{
		QueueName:        "spmc-default",
		Capacity:         1 << 20,
		PrefetchSize:     0,
		KeepWarmInterval: time.Second,
	}
}

// Loader wraps a viper instance scoped to this package's tunables and
// supports hot-reloading PrefetchSize/KeepWarmInterval from a watched
// file without requiring a process restart.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader seeded with defaults, then merges a config
// file at path (if non-empty) and environment variables prefixed SPMC_.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	d := defaults()
	v.SetDefault("queue_name", d.QueueName)
	v.SetDefault("capacity", d.Capacity)
	v.SetDefault("prefetch_size", d.PrefetchSize)
	v.SetDefault("keep_warm_interval", d.KeepWarmInterval)

	v.SetEnvPrefix("SPMC")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return &Loader{v: v}, nil
}

// Tunables returns the currently loaded configuration.
func (l *Loader) Tunables() (Tunables, error) {
	var t Tunables
	if err := l.v.Unmarshal(&t); err != nil {
		return Tunables{}, err
	}
	return t, nil
}

// OnChange re-reads the config file whenever it changes on disk and
// invokes fn with the refreshed tunables. It has no effect if Loader was
// built without a config file.
func (l *Loader) OnChange(fn func(Tunables)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		if t, err := l.Tunables(); err == nil {
			fn(t)
		}
	})
	l.v.WatchConfig()
}
