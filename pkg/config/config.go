package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/racepace/pkg/processing/normalize"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, e.g. "info+:* *:laptime"
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry ("stdout" prints to stdout)
	ProfilingPort     int    // port for profiling
	ServerAddr        string // listen addr for the web server
	TLSServerAddr     string // listen addr for the web server (tls)
	TLSCertFile       string // path to TLS certificate
	TLSKeyFile        string // path to TLS key
	TraefikCerts      string // path to traefik certs file
	TraefikCertDomain string // the domain to lookup within the traefik certs
	SourceBaseURL     string // base url of the results archive
	FetchTimeout      string // timeout of a single download attempt
	CacheExpiration   string // how long downloaded reports are kept
	RosterFile        string // file with rider names, watched for changes
	RosterPath        string // JSONPath selecting the names in a json roster file
	Matcher           string // rider matching strategy (substring, token, fuzzy)
	MaxDistance       int    // max edit distance for the fuzzy matcher
	Workers           int    // number of pages normalized concurrently
	LayoutFile        string // yaml file overriding the report layout
)

// Config holds the configuration values which are used by the application
type Config struct {
	SourceBaseURL   string           `validate:"required,url"`
	FetchTimeout    time.Duration    `validate:"gt=0"`
	CacheExpiration time.Duration    `validate:"gte=0"`
	Matcher         string           `validate:"oneof=substring token fuzzy"`
	MaxDistance     int              `validate:"gte=0"`
	Workers         int              `validate:"gte=0"`
	Layout          normalize.Layout `validate:"required"`
}

// Resolve builds a Config from the package level values.
func Resolve() (*Config, error) {
	ret := &Config{
		SourceBaseURL: SourceBaseURL,
		Matcher:       Matcher,
		MaxDistance:   MaxDistance,
		Workers:       Workers,
		Layout:        normalize.DefaultLayout,
	}
	var err error
	if ret.FetchTimeout, err = parseDuration(FetchTimeout); err != nil {
		return nil, err
	}
	if ret.CacheExpiration, err = parseDuration(CacheExpiration); err != nil {
		return nil, err
	}
	if LayoutFile != "" {
		if ret.Layout, err = LoadLayout(LayoutFile); err != nil {
			return nil, err
		}
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// parseDuration treats an empty value as 0.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// LoadLayout reads a report layout from a yaml file. Missing keys keep the
// values of normalize.DefaultLayout.
func LoadLayout(file string) (normalize.Layout, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return normalize.Layout{}, err
	}
	ret := normalize.DefaultLayout
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return normalize.Layout{}, fmt.Errorf("reading layout %s: %w", file, err)
	}
	return ret, nil
}
