// Package config provides configuration structures and utilities for
// climatecrawl. It defines the download settings (target site, politeness,
// limits), the per-station options read from the .climatecrawl YAML file,
// and the CLIMATECRAWL_* environment overrides.
package config
