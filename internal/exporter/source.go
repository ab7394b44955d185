package exporter

import (
	"context"
	"log/slog"
	"time"

	"luamaker/internal/appinfo"
	"luamaker/internal/config"
	"luamaker/internal/logging"
	"luamaker/internal/steamcmd"
)

// NewSource builds the configured metadata source chain: steamcmd when
// enabled, with the HTTP appinfo service as fallback.
func NewSource(cfg *config.Config, logger *slog.Logger) (MetadataSource, error) {
	fetcher, err := appinfo.NewFetcher(cfg.AppInfo.BaseURL,
		appinfo.WithTimeout(time.Duration(cfg.AppInfo.RequestTimeout)*time.Second))
	if err != nil {
		return nil, err
	}
	if !cfg.SteamCmd.Enabled {
		return fetcher, nil
	}
	return &chainSource{
		runner:   steamcmd.New(cfg, logger),
		fallback: fetcher,
		logger:   logger,
	}, nil
}

// chainSource asks steamcmd first and falls back to the HTTP service
// when steamcmd is unavailable or fails.
type chainSource struct {
	runner   *steamcmd.Runner
	fallback MetadataSource
	logger   *slog.Logger
}

func (s *chainSource) AppInfo(ctx context.Context, appID uint32) (string, error) {
	if err := s.runner.Ensure(ctx); err != nil {
		s.logger.Warn("steamcmd unavailable, falling back to appinfo service", logging.Error(err))
		return s.fallback.AppInfo(ctx, appID)
	}
	raw, err := s.runner.AppInfo(ctx, appID)
	if err != nil {
		s.logger.Warn("steamcmd query failed, falling back to appinfo service", logging.Error(err))
		return s.fallback.AppInfo(ctx, appID)
	}
	return raw, nil
}
