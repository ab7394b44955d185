package appinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"luamaker/internal/vdf"
)

const sampleAppInfo = `
"480"
{
	"appid"	"480"
	"common"
	{
		"name"	"Spacewar"
		"type"	"Game"
	}
	"depots"
	{
		"branches"
		{
			"public"
			{
				"buildid"	"12345"
			}
		}
		"481"
		{
			"name"	"Spacewar Content"
			"manifests"
			{
				"public"
				{
					"gid"	"8589934593"
				}
			}
		}
		"482"
		{
			"name"	"Spacewar Soundtrack"
			"dlcappid"	"490"
			"manifests"
			{
				"public"	"8589934594"
			}
		}
		"483"
		{
			"config"
			{
				"oslist"	"windows"
			}
		}
	}
}
`

func parseSample(t *testing.T) *App {
	t.Helper()
	root, err := vdf.ParseString(sampleAppInfo)
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	app, err := Parse(root, 480)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return app
}

func TestParseApp(t *testing.T) {
	app := parseSample(t)

	if app.ID != 480 || app.Name != "Spacewar" {
		t.Fatalf("app = %d %q", app.ID, app.Name)
	}
	if len(app.Depots) != 3 {
		t.Fatalf("depots = %d, want 3 (branches must be skipped)", len(app.Depots))
	}

	first, ok := app.Depot(481)
	if !ok || first.ManifestGID != "8589934593" || first.DLCAppID != 0 {
		t.Fatalf("depot 481 = %+v", first)
	}

	dlc, ok := app.Depot(482)
	if !ok || dlc.ManifestGID != "8589934594" {
		t.Fatalf("depot 482 flat manifest form = %+v", dlc)
	}
	if dlc.DLCAppID != 490 || dlc.Name != "Spacewar Soundtrack" {
		t.Fatalf("depot 482 dlc linkage = %+v", dlc)
	}

	bare, ok := app.Depot(483)
	if !ok || bare.ManifestGID != "" {
		t.Fatalf("depot 483 without manifests = %+v", bare)
	}
}

func TestParseAppWithoutWrapper(t *testing.T) {
	// The HTTP fallback serves the app block without the appid wrapper.
	inner := strings.TrimSpace(sampleAppInfo)
	inner = strings.TrimPrefix(inner, `"480"`)
	root, err := vdf.ParseString(`"appinfo" ` + strings.TrimSpace(inner))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	block, _ := root.Child("appinfo")
	app, err := Parse(block, 480)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if app.Name != "Spacewar" {
		t.Fatalf("name = %q", app.Name)
	}
}

func TestParseAppMissingName(t *testing.T) {
	root, err := vdf.ParseString(`"100" { "depots" { "101" { } } }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(root, 100); err == nil {
		t.Fatal("expected error for missing common.name")
	}
}

func TestParseAppMissingDepots(t *testing.T) {
	root, err := vdf.ParseString(`"100" { "common" { "name" "Game" } }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(root, 100); err == nil {
		t.Fatal("expected error for missing depots section")
	}
}

func TestExtractAppBlock(t *testing.T) {
	raw := "Steam Console Client (c) Valve\nLoading...OK\n" +
		"AppID : 480, change number : 1\n" +
		"\"480\"\n{\n\t\"common\"\n\t{\n\t\t\"name\"\t\"Spacewar\"\n\t}\n}\ntrailing noise"
	block, err := ExtractAppBlock(raw, 480)
	if err != nil {
		t.Fatalf("ExtractAppBlock: %v", err)
	}
	if !strings.HasPrefix(block, `"480"`) || !strings.HasSuffix(block, "}") {
		t.Fatalf("block boundaries wrong: %q", block)
	}
	root, err := vdf.ParseString(block)
	if err != nil {
		t.Fatalf("extracted block does not parse: %v", err)
	}
	if name, _ := root.GetString("480", "common", "name"); name != "Spacewar" {
		t.Fatalf("name = %q", name)
	}
}

func TestExtractAppBlockErrors(t *testing.T) {
	if _, err := ExtractAppBlock("no vdf here", 480); err == nil {
		t.Fatal("expected error for missing section")
	}
	if _, err := ExtractAppBlock("\"480\"\n{\n\t\"k\" \"v\"\n", 480); err == nil {
		t.Fatal("expected error for unbalanced braces")
	}
}

func TestFetcherAppInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/get_appinfo.php" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("appid") != "480" {
			http.Error(w, "wrong appid", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(sampleAppInfo))
	}))
	defer srv.Close()

	fetcher, err := NewFetcher(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := fetcher.AppInfo(context.Background(), 480)
	if err != nil {
		t.Fatalf("AppInfo: %v", err)
	}
	if !strings.Contains(raw, "Spacewar") {
		t.Fatalf("unexpected body: %q", raw)
	}
}

func TestFetcherAppInfoBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	fetcher, err := NewFetcher(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fetcher.AppInfo(context.Background(), 480); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSaveResponse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	path, err := SaveResponse(dir, 480, "raw payload")
	if err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if filepath.Base(path) != "steam_response_480.log" {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "raw payload" {
		t.Fatalf("content = %q", data)
	}
}
