package config

import (
	"fmt"
	"strings"
)

var supportedFrameRates = map[int]bool{
	15: true,
	24: true,
	30: true,
	60: true,
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Validate checks the config for invalid values and returns all errors found.
// Values that would break the pipeline are clamped to safe defaults so a bad
// config degrades rather than preventing a recording.
func (c *Config) Validate() []error {
	var errs []error

	if !supportedFrameRates[c.FrameRate] {
		errs = append(errs, fmt.Errorf("frame_rate %d is not one of 15/24/30/60, using 30", c.FrameRate))
		c.FrameRate = 30
	}

	if c.Bitrate < 100_000 {
		errs = append(errs, fmt.Errorf("bitrate %d is below minimum 100000, clamping", c.Bitrate))
		c.Bitrate = 100_000
	} else if c.Bitrate > 50_000_000 {
		errs = append(errs, fmt.Errorf("bitrate %d exceeds maximum 50000000, clamping", c.Bitrate))
		c.Bitrate = 50_000_000
	}

	if c.Padding < 0 {
		errs = append(errs, fmt.Errorf("padding %d is negative, using 0", c.Padding))
		c.Padding = 0
	} else if c.Padding > 256 {
		errs = append(errs, fmt.Errorf("padding %d exceeds maximum 256, clamping", c.Padding))
		c.Padding = 256
	}

	if c.MaxLongEdge < 320 {
		errs = append(errs, fmt.Errorf("max_long_edge %d is below minimum 320, using 1920", c.MaxLongEdge))
		c.MaxLongEdge = 1920
	} else if c.MaxLongEdge > 7680 {
		errs = append(errs, fmt.Errorf("max_long_edge %d exceeds maximum 7680, clamping", c.MaxLongEdge))
		c.MaxLongEdge = 7680
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("unknown log_level %q, using info", c.LogLevel))
		c.LogLevel = "info"
	}

	if c.LogFormat != "" && !validLogFormats[strings.ToLower(c.LogFormat)] {
		errs = append(errs, fmt.Errorf("unknown log_format %q, using text", c.LogFormat))
		c.LogFormat = "text"
	}

	return errs
}
