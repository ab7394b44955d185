package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAppInfo(); err != nil {
		return err
	}
	if err := c.validateSteamCmd(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAppInfo() error {
	if c.AppInfo.BaseURL == "" {
		return errors.New("appinfo.base_url must be set")
	}
	if c.AppInfo.RequestTimeout <= 0 {
		return errors.New("appinfo.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSteamCmd() error {
	if !c.SteamCmd.Enabled {
		return nil
	}
	if c.SteamCmd.Dir == "" {
		return errors.New("steamcmd.dir must be set when steamcmd is enabled")
	}
	if c.SteamCmd.Timeout <= 0 {
		return errors.New("steamcmd.timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	return nil
}
