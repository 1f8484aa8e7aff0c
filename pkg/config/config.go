// Package config holds the statically validated settings of a knack object
// pipeline. Defaults are documented on Default; YAML files and environment
// variables overlay them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-knackobject/pkg/knack"
)

// Environment variables read by ApplyEnv.
const (
	EnvAppID   = "KNACK_APP_ID"
	EnvAPIKey  = "KNACK_API_KEY"
	EnvBaseURL = "KNACK_BASE_URL"
)

// Cycle policies accepted by Config.Cycle.
const (
	CycleTruncate = "truncate"
	CycleFail     = "fail"
)

// Config describes credentials, the default subject and rendering knobs.
type Config struct {
	// AppID and APIKey are the static API credentials. Required.
	AppID  string `yaml:"appId"`
	APIKey string `yaml:"apiKey"`

	// ObjectID and RecordID name the default record to render.
	ObjectID string `yaml:"objectId"`
	RecordID string `yaml:"recordId"`

	// ViewID names the view whose render event triggers rendering.
	ViewID string `yaml:"viewId"`

	// ElementID is the mount target; empty falls back to the scenes container.
	ElementID string `yaml:"elementId"`

	// SkipRecord drops fields with these labels from every schema.
	SkipRecord []string `yaml:"skipRecord"`

	// TemplateKey and TemplateValue are the labels of two-field child records
	// rendered as a label/value pair. Empty TemplateValue disables pairing.
	TemplateKey   string `yaml:"templateKey"`
	TemplateValue string `yaml:"templateValue"`

	// RenderNow renders the default record as soon as the pipeline opens.
	RenderNow bool `yaml:"renderNow"`

	// Debug logs resolved trees and rendered HTML.
	Debug bool `yaml:"debug"`

	BaseURL        string        `yaml:"baseUrl"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxDepth       int           `yaml:"maxDepth"`
	Concurrency    int           `yaml:"concurrency"`
	MaxInFlight    int           `yaml:"maxInFlight"`
	Cycle          string        `yaml:"cycle"`
	Sanitize       bool          `yaml:"sanitize"`
	Renderer       string        `yaml:"renderer"`
	StrictContract bool          `yaml:"strictContract"`
}

// Default returns the documented defaults: templateKey "Title",
// templateValue "Details", the public API host, a 30s request timeout,
// max depth 16, 4 concurrent linked records per field, 8 requests in flight,
// truncating cycles and the markup renderer.
func Default() Config {
	return Config{
		TemplateKey:   "Title",
		TemplateValue: "Details",
		BaseURL:       knack.DefaultBaseURL,
		Timeout:       30 * time.Second,
		MaxDepth:      16,
		Concurrency:   4,
		MaxInFlight:   8,
		Cycle:         CycleTruncate,
		Renderer:      "markup",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays credentials and base URL from the environment. lookup
// defaults to os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup(EnvAppID); ok && value != "" {
		c.AppID = value
	}
	if value, ok := lookup(EnvAPIKey); ok && value != "" {
		c.APIKey = value
	}
	if value, ok := lookup(EnvBaseURL); ok && value != "" {
		c.BaseURL = value
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AppID) == "" {
		errs = append(errs, errors.New("appId is required"))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("apiKey is required"))
	}
	if c.BaseURL != "" {
		if u, err := url.ParseRequestURI(c.BaseURL); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("baseUrl %q is not an absolute URL", c.BaseURL))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.MaxDepth < -1 {
		errs = append(errs, errors.New("maxDepth must be -1 (unlimited) or greater"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	if c.MaxInFlight < 1 {
		errs = append(errs, errors.New("maxInFlight must be at least 1"))
	}
	switch c.Cycle {
	case CycleTruncate, CycleFail:
	default:
		errs = append(errs, fmt.Errorf("cycle must be %q or %q, got %q", CycleTruncate, CycleFail, c.Cycle))
	}
	if strings.TrimSpace(c.Renderer) == "" {
		errs = append(errs, errors.New("renderer is required"))
	}
	if c.RecordID != "" && c.ObjectID == "" {
		errs = append(errs, errors.New("objectId is required when recordId is set"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// HasDefaultRecord reports whether a default subject is configured.
func (c Config) HasDefaultRecord() bool {
	return c.ObjectID != "" && c.RecordID != ""
}
