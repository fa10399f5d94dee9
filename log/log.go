// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log builds slog loggers for runtime diagnostics. The runtime logs
// task lifecycle records at debug level; this package provides the handlers
// to surface or silence them.
package log

import (
	"io"
	"log/slog"
	"math"
	"os"
)

// Default configuration values for a new logger.
const (
	DefaultLevel  = slog.LevelInfo
	DefaultSource = false
	DefaultFormat = FormatText
)

// Format defines the log output format, such as JSON or plain text.
type Format uint8

const (
	FormatText Format = iota // Human-readable text format.
	FormatJSON               // JSON format suitable for machine parsing.
)

// String returns the lower-case string representation of the log format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// New creates and configures a new slog.Logger. By default, it logs at
// slog.LevelInfo in plain text to os.Stdout, without source information.
// These defaults can be overridden by passing in one or more Option
// functions.
func New(opts ...Option) *slog.Logger {
	return slog.New(NewHandler(opts...))
}

// NewHandler creates and configures a new slog.Handler. By default, it sets
// up a text handler logging at slog.LevelInfo to os.Stdout. These defaults
// can be overridden by passing in one or more Option functions.
func NewHandler(opts ...Option) slog.Handler {
	c := config{
		level:  DefaultLevel,
		source: DefaultSource,
		format: DefaultFormat,
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(&c)
	}

	o := &slog.HandlerOptions{
		Level:     c.level,
		AddSource: c.source,
	}

	switch c.format {
	case FormatJSON:
		return slog.NewJSONHandler(c.writer, o)
	default:
		return slog.NewTextHandler(c.writer, o)
	}
}

// Silent creates a logger that discards all output.
func Silent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(math.MaxInt),
	}))
}

// config holds the configuration settings for the logger.
type config struct {
	level  slog.Level
	source bool
	format Format
	writer io.Writer
}

// Option defines a function that modifies the logger configuration.
type Option func(*config)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithFormat sets the log output format. An unknown format falls back to
// plain text.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithSource configures the logger to include the source code position (file
// and line number) in each log entry. This has a performance cost and is
// typically enabled only during development.
func WithSource(add bool) Option {
	return func(c *config) {
		c.source = add
	}
}

// WithWriter sets the output destination for the logs. If the provided
// io.Writer is nil, it is ignored.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writer = w
		}
	}
}
