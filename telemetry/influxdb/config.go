package influxdb

import (
	"errors"
	"os"
	"time"
)

type Config struct {
	// Addr is the InfluxDB 1.x HTTP endpoint, e.g. http://localhost:8086
	Addr     string
	Database string
	Username string
	Password string

	Interval time.Duration

	// Hostname tags every point. os.Hostname() if empty.
	Hostname string
}

func NewConfig(addr, db string, interval time.Duration) *Config {
	hostname, _ := os.Hostname()
	return &Config{
		Addr:     addr,
		Database: db,
		Interval: interval,
		Hostname: hostname,
	}
}

func (this *Config) Validate() error {
	if this.Addr == "" {
		return errors.New("influxdb Addr required")
	}

	if this.Database == "" {
		return errors.New("influxdb Database required")
	}

	if this.Interval <= 0 {
		return errors.New("influxdb Interval must be positive")
	}

	return nil
}
