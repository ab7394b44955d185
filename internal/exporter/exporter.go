// Package exporter runs one complete export: obtain app metadata,
// reconcile depots against the local key store, locate and copy
// manifests, and emit the plugin script.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"luamaker/internal/appinfo"
	"luamaker/internal/config"
	"luamaker/internal/depotcache"
	"luamaker/internal/fileutil"
	"luamaker/internal/history"
	"luamaker/internal/keystore"
	"luamaker/internal/logging"
	"luamaker/internal/luagen"
	"luamaker/internal/reconcile"
	"luamaker/internal/steampath"
	"luamaker/internal/vdf"
)

// MetadataSource produces raw appinfo VDF text for an app.
type MetadataSource interface {
	AppInfo(ctx context.Context, appID uint32) (string, error)
}

// Options adjusts a single export run.
type Options struct {
	// AppInfoFile reads raw metadata from a local file instead of any
	// configured source.
	AppInfoFile string
	// OutputDir overrides the configured output directory.
	OutputDir string
}

// Result summarizes one export run. Every depot outcome and copy
// outcome appears here; nothing is dropped silently.
type Result struct {
	AppID      uint32
	AppName    string
	OutputDir  string
	ScriptPath string
	PluginMode bool
	RawLogPath string
	Depots     []reconcile.Depot
	Skipped    []reconcile.Skipped
	Copies     []luagen.CopyResult
}

// Copied returns how many manifest copies succeeded.
func (r *Result) Copied() int {
	count := 0
	for _, c := range r.Copies {
		if c.Err == nil {
			count++
		}
	}
	return count
}

// FailedCopies returns the copy outcomes that failed.
func (r *Result) FailedCopies() []luagen.CopyResult {
	var failed []luagen.CopyResult
	for _, c := range r.Copies {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Exporter holds the collaborators an export run needs.
type Exporter struct {
	cfg     *config.Config
	logger  *slog.Logger
	source  MetadataSource
	history *history.Store
}

// New builds an exporter. The source may be nil when every run supplies
// Options.AppInfoFile; the history store may be nil to disable
// recording.
func New(cfg *config.Config, logger *slog.Logger, source MetadataSource, store *history.Store) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{cfg: cfg, logger: logger, source: source, history: store}
}

// Export performs one run for the given app ID.
func (e *Exporter) Export(ctx context.Context, appID uint32, opts Options) (*Result, error) {
	paths, err := steampath.Discover(e.cfg)
	if err != nil {
		return nil, err
	}

	raw, err := e.rawMetadata(ctx, appID, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{AppID: appID}
	if logPath, err := appinfo.SaveResponse(e.cfg.Paths.LogDir, appID, raw); err != nil {
		e.logger.Warn("could not persist raw metadata response", logging.Error(err))
	} else {
		result.RawLogPath = logPath
	}

	app, err := parseApp(raw, appID)
	if err != nil {
		return nil, err
	}
	result.AppName = app.Name
	e.logger.Info("found app", slog.Uint64("appid", uint64(appID)), slog.String("name", app.Name))

	outputBase := opts.OutputDir
	if outputBase == "" {
		outputBase = e.cfg.Paths.OutputDir
	}
	dirName := fileutil.SanitizeName(fmt.Sprintf("[%d] %s", appID, app.Name))
	result.OutputDir = filepath.Join(outputBase, dirName)

	// One export at a time; concurrent runs would interleave writes to
	// the output folder and the history database.
	lock := flock.New(filepath.Join(e.cfg.Paths.LogDir, "luamaker.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire export lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another luamaker export is already running")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := fileutil.EnsureDir(result.OutputDir); err != nil {
		return nil, err
	}

	pluginPath := paths.PluginPath(appID)
	if isFile(pluginPath) {
		e.logger.Info("plugin script found, using plugin flow", slog.String("path", pluginPath))
		err = e.exportFromPlugin(result, app, paths, pluginPath)
	} else {
		err = e.exportReconciled(result, app, paths)
	}
	if err != nil {
		return nil, err
	}

	e.record(ctx, result)
	return result, nil
}

// exportReconciled is the standard flow: reconcile depots against the
// key store, copy their manifests, and generate a fresh script.
func (e *Exporter) exportReconciled(result *Result, app *appinfo.App, paths steampath.Paths) error {
	keys, err := keystore.Load(paths.KeyStorePath())
	if err != nil {
		return err
	}

	result.Depots, result.Skipped = reconcile.Reconcile(app, keys)
	for _, skip := range result.Skipped {
		e.logger.Info("skipping depot",
			slog.Uint64("depot", uint64(skip.ID)),
			slog.String("reason", skip.Reason.String()))
	}

	known := make(depotcache.Known, len(result.Depots))
	for _, depot := range result.Depots {
		known[depot.ID] = dlcName(app, depot.ID)
	}
	files, err := depotcache.Locate(paths.Depotcache, known)
	if err != nil {
		return err
	}
	result.Copies = luagen.CopyManifests(files, result.OutputDir, e.logger)

	if len(result.Depots) == 0 {
		e.logger.Warn("no depots with decryption keys, skipping script generation")
		return nil
	}
	scriptPath, err := luagen.WriteScriptFile(result.OutputDir, result.AppID, result.Depots)
	if err != nil {
		return err
	}
	result.ScriptPath = scriptPath
	return nil
}

// exportFromPlugin reuses an existing plugin script: copy it as-is and
// fetch the manifests for the depots it registers.
func (e *Exporter) exportFromPlugin(result *Result, app *appinfo.App, paths steampath.Paths, pluginPath string) error {
	result.PluginMode = true

	dest := filepath.Join(result.OutputDir, strconv.FormatUint(uint64(result.AppID), 10)+".lua")
	if err := fileutil.CopyFile(pluginPath, dest); err != nil {
		return fmt.Errorf("copy plugin script: %w", err)
	}
	result.ScriptPath = dest

	file, err := os.Open(pluginPath)
	if err != nil {
		return fmt.Errorf("open plugin script: %w", err)
	}
	ids, err := luagen.ScriptDepotIDs(file)
	_ = file.Close()
	if err != nil {
		return err
	}

	known := make(depotcache.Known, len(ids))
	for _, id := range ids {
		if id == result.AppID {
			continue
		}
		known[id] = dlcName(app, id)
	}
	files, err := depotcache.Locate(paths.Depotcache, known)
	if err != nil {
		return err
	}
	result.Copies = luagen.CopyManifests(files, result.OutputDir, e.logger)
	return nil
}

func (e *Exporter) rawMetadata(ctx context.Context, appID uint32, opts Options) (string, error) {
	if opts.AppInfoFile != "" {
		data, err := os.ReadFile(opts.AppInfoFile)
		if err != nil {
			return "", fmt.Errorf("%w: %v", appinfo.ErrUnavailable, err)
		}
		return string(data), nil
	}
	if e.source == nil {
		return "", fmt.Errorf("%w: no metadata source configured", appinfo.ErrUnavailable)
	}
	return e.source.AppInfo(ctx, appID)
}

func (e *Exporter) record(ctx context.Context, result *Result) {
	if e.history == nil {
		return
	}
	run := history.Run{
		AppID:        result.AppID,
		AppName:      result.AppName,
		Depots:       len(result.Depots),
		Skipped:      len(result.Skipped),
		Copied:       result.Copied(),
		CopyFailures: len(result.FailedCopies()),
		PluginMode:   result.PluginMode,
	}
	if err := e.history.Record(ctx, run); err != nil {
		e.logger.Warn("could not record export in history", logging.Error(err))
	}
}

// parseApp turns raw metadata text into an App. steamcmd console output
// needs its app block extracted first; a plain VDF document parses
// directly.
func parseApp(raw string, appID uint32) (*appinfo.App, error) {
	if block, err := appinfo.ExtractAppBlock(raw, appID); err == nil {
		raw = block
	}
	root, err := vdf.ParseString(raw)
	if err != nil {
		return nil, err
	}
	return appinfo.Parse(root, appID)
}

func dlcName(app *appinfo.App, depotID uint32) string {
	depot, ok := app.Depot(depotID)
	if !ok || depot.DLCAppID == 0 {
		return ""
	}
	return depot.Name
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
