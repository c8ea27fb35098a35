package config

import (
	"maps"

	"github.com/nao1215/climatecrawl/internal/model"
)

// StationConfig holds configuration for a single station.
type StationConfig struct {
	// Name is a human-readable station name.
	Name string `yaml:"name,omitempty"`

	// Location is the label stored with every record of the station.
	Location string `yaml:"location,omitempty"`

	// Cookie is an HTTP cookie to send with every request for this station.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Epoch overrides the global epoch (YYYY-MM-DD) for this station.
	Epoch string `yaml:"epoch,omitempty"`
}

// RequestHeaders returns the headers to send, with Cookie folded in.
func (sc StationConfig) RequestHeaders() map[string]string {
	if sc.Cookie == "" && len(sc.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(sc.Headers)+1)
	maps.Copy(headers, sc.Headers)
	if sc.Cookie != "" {
		headers["Cookie"] = sc.Cookie
	}
	return headers
}

// File represents the structure of the .climatecrawl configuration file.
type File struct {
	// Stations maps station IDs to their configurations.
	Stations map[int]StationConfig `yaml:"stations,omitempty"`

	// Defaults contains configuration applied to all stations unless
	// overridden in the station-specific configuration.
	Defaults StationConfig `yaml:"defaults,omitempty"`
}

// GetStationConfig returns the configuration for a station ID.
// It merges the station-specific configuration with defaults.
func (cf *File) GetStationConfig(id int) StationConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	if sc, ok := cf.Stations[id]; ok {
		if sc.Name != "" {
			result.Name = sc.Name
		}
		if sc.Location != "" {
			result.Location = sc.Location
		}
		if sc.Cookie != "" {
			result.Cookie = sc.Cookie
		}
		if sc.Epoch != "" {
			result.Epoch = sc.Epoch
		}
		if len(sc.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			maps.Copy(result.Headers, sc.Headers)
		}
	}

	return result
}

// Station returns the station identified by id. Name and location come from
// the config file; the default station keeps its built-in labels otherwise.
func (cf *File) Station(id int) model.Station {
	st := model.Station{ID: id}
	if id == model.DefaultStation.ID {
		st = model.DefaultStation
	}

	sc := cf.GetStationConfig(id)
	if sc.Name != "" {
		st.Name = sc.Name
	}
	if sc.Location != "" {
		st.Location = sc.Location
	}
	return st
}
