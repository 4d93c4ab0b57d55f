package main

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/locmirror"
	"github.com/fwojciec/locmirror/crawl"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config kong.ConfigFlag `help:"Load flag values from a YAML file" placeholder:"FILE"`

	RootURL string `arg:"" name:"root-url" help:"Page to start mirroring from"`

	Scope            string        `env:"LOCMIRROR_SCOPE" help:"URL prefix a page must start with to be followed (default: the root URL)"`
	Out              string        `short:"o" default:"results" env:"LOCMIRROR_OUT" help:"Output directory"`
	RetryLimit       int           `default:"20" env:"LOCMIRROR_RETRY_LIMIT" help:"Attempts before a timing-out target is given up"`
	ThrottleOrigin   string        `env:"LOCMIRROR_THROTTLE_ORIGIN" help:"Host suffix fetched one request at a time (default: the root URL host)"`
	ThrottleInterval time.Duration `default:"10s" env:"LOCMIRROR_THROTTLE_INTERVAL" help:"Minimum time between request starts on the throttled origin"`
	AssetOrigin      []string      `env:"LOCMIRROR_ASSET_ORIGIN" help:"Host suffix of a trusted asset origin fetched without throttling (repeatable)"`
	Timeout          time.Duration `short:"t" default:"30s" env:"LOCMIRROR_TIMEOUT" help:"HTTP request timeout"`
	UserAgent        string        `default:"${user_agent}" env:"LOCMIRROR_USER_AGENT" help:"User-Agent header sent with every request"`
	Journal          string        `env:"LOCMIRROR_JOURNAL" help:"Record every fetch attempt in this SQLite database" placeholder:"PATH"`
	Debug            bool          `env:"LOCMIRROR_DEBUG" help:"Log every raw request"`
}

func (c *CLI) validate() error {
	u, err := url.Parse(c.RootURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return locmirror.Errorf(locmirror.EINVALID, "root URL must be an absolute http(s) URL: %q", c.RootURL)
	}
	if c.RetryLimit < 1 {
		return locmirror.Errorf(locmirror.EINVALID, "retry limit must be at least 1")
	}
	if c.ThrottleInterval < 0 {
		return locmirror.Errorf(locmirror.EINVALID, "throttle interval must not be negative")
	}
	if c.Out == "" {
		return locmirror.Errorf(locmirror.EINVALID, "output directory required")
	}
	return nil
}

func (c *CLI) scope() string {
	if c.Scope == "" {
		return c.RootURL
	}
	return c.Scope
}

func (c *CLI) throttleOrigin() string {
	if c.ThrottleOrigin == "" {
		return rootHost(c.RootURL)
	}
	return c.ThrottleOrigin
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Mirror *crawl.Mirror
}
