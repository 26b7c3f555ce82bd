package startup

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"justified-gallery/internal/gallery"
	"justified-gallery/internal/memory"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{name: "Returns default when env var not set", key: "JG_TEST_UNSET", defaultValue: "default", want: "default"},
		{name: "Returns env value when set", key: "JG_TEST_SET", defaultValue: "default", envValue: "custom", want: "custom", setEnv: true},
		{name: "Empty value falls back to default", key: "JG_TEST_EMPTY", defaultValue: "default", envValue: "", want: "default", setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}
			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvTyped(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{"bool true", "true", func(t *testing.T) {
			if !getEnvBool("JG_TEST", false) {
				t.Error("getEnvBool = false, want true")
			}
		}},
		{"bool invalid uses default", "maybe", func(t *testing.T) {
			if !getEnvBool("JG_TEST", true) {
				t.Error("getEnvBool = false, want default true")
			}
		}},
		{"int", "12", func(t *testing.T) {
			if got := getEnvInt("JG_TEST", 3); got != 12 {
				t.Errorf("getEnvInt = %d, want 12", got)
			}
		}},
		{"int negative uses default", "-4", func(t *testing.T) {
			if got := getEnvInt("JG_TEST", 3); got != 3 {
				t.Errorf("getEnvInt = %d, want 3", got)
			}
		}},
		{"duration", "1500ms", func(t *testing.T) {
			if got := getEnvDuration("JG_TEST", time.Second); got != 1500*time.Millisecond {
				t.Errorf("getEnvDuration = %v, want 1.5s", got)
			}
		}},
		{"duration invalid uses default", "soon", func(t *testing.T) {
			if got := getEnvDuration("JG_TEST", time.Second); got != time.Second {
				t.Errorf("getEnvDuration = %v, want 1s", got)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JG_TEST", tt.value)
			tt.check(t)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	base := t.TempDir()
	settingsPath := filepath.Join(base, "gallery.yaml")
	if err := os.WriteFile(settingsPath, []byte("rowHeight: 160\nlastRow: center\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MEDIA_DIR", filepath.Join(base, "media"))
	t.Setenv("CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("PORT", "9000")
	t.Setenv("GALLERY_SETTINGS", settingsPath)
	t.Setenv("PROBE_TIMEOUT", "3s")
	t.Setenv("LAYOUT_TIMEOUT", "")
	t.Setenv("INDEX_INTERVAL", "0s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", cfg.ProbeTimeout)
	}
	if cfg.IndexInterval != 0 {
		t.Errorf("IndexInterval = %v, want 0", cfg.IndexInterval)
	}
	if cfg.LayoutTimeout != 30*time.Second {
		t.Errorf("LayoutTimeout = %v, want default 30s", cfg.LayoutTimeout)
	}
	if cfg.DatabasePath != filepath.Join(base, "db", "gallery.db") {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if !cfg.ThumbnailsEnabled {
		t.Error("ThumbnailsEnabled = false for a writable cache dir")
	}
	if _, err := os.Stat(cfg.ThumbnailDir); err != nil {
		t.Errorf("thumbnail dir not created: %v", err)
	}
	if cfg.Settings.RowHeight != 160 || cfg.Settings.LastRow != gallery.LastRowCenter {
		t.Errorf("Settings = rowHeight %v lastRow %q, want 160 center", cfg.Settings.RowHeight, cfg.Settings.LastRow)
	}
}

func TestLoadConfigBadSettings(t *testing.T) {
	base := t.TempDir()
	settingsPath := filepath.Join(base, "gallery.yaml")
	if err := os.WriteFile(settingsPath, []byte("rowHeight: -5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDIA_DIR", base)
	t.Setenv("CACHE_DIR", base)
	t.Setenv("DATABASE_DIR", base)
	t.Setenv("GALLERY_SETTINGS", settingsPath)

	_, err := LoadConfig()
	if !errors.Is(err, gallery.ErrInvalidSettings) {
		t.Errorf("LoadConfig() error = %v, want ErrInvalidSettings", err)
	}
}

func TestLoadGallerySettings(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, s gallery.Settings)
	}{
		{
			name: "empty document keeps defaults",
			yaml: "",
			check: func(t *testing.T, s gallery.Settings) {
				if s.RowHeight != gallery.DefaultSettings().RowHeight {
					t.Errorf("RowHeight = %v, want default", s.RowHeight)
				}
			},
		},
		{
			name: "numeric suffix keys",
			yaml: "sizeRangeSuffixes:\n  100: _t\n  800: _l\n",
			check: func(t *testing.T, s gallery.Settings) {
				if s.SizeRangeSuffixes["100"] != "_t" || s.SizeRangeSuffixes["800"] != "_l" {
					t.Errorf("SizeRangeSuffixes = %v", s.SizeRangeSuffixes)
				}
			},
		},
		{
			name: "percent max row height and refresh time",
			yaml: "maxRowHeight: \"200%\"\nrefreshTime: 250\n",
			check: func(t *testing.T, s gallery.Settings) {
				if s.MaxRowHeight != gallery.MaxRowHeightPercent(200) {
					t.Errorf("MaxRowHeight = %v, want 200%%", s.MaxRowHeight)
				}
				if s.RefreshTime != 250*time.Millisecond {
					t.Errorf("RefreshTime = %v, want 250ms", s.RefreshTime)
				}
			},
		},
		{name: "not a mapping", yaml: "- a\n- b\n", wantErr: true},
		{name: "invalid last row", yaml: "lastRow: sideways\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			s, err := LoadGallerySettings(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadGallerySettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}

	if _, err := LoadGallerySettings(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("/health", noop).Methods("GET")
	r.HandleFunc("/api/albums", noop).Methods("GET").Name("albums")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("GetRoutes() returned %d routes, want 2", len(routes))
	}
	if routes[1] != (RouteInfo{Method: "GET", Path: "/api/albums", Name: "albums"}) {
		t.Errorf("routes[1] = %+v", routes[1])
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "health"},
		{"/api/albums/{album:.*}/layout", "api/albums"},
		{"/thumb/{path:.*}", "thumb"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLogFunctions(_ *testing.T) {
	LogMemoryConfig(memory.Budget{Source: "none", VipsCacheBytes: memory.DefaultVipsCacheBytes})
	LogMemoryConfig(memory.Budget{Source: "MEMORY_LIMIT", HeapLimit: 750, ContainerLimit: 1000, Ratio: 0.75, VipsCacheBytes: 16 << 20})
	LogDatabaseInit(time.Millisecond, 3)
	LogVipsInit(false)
	LogLibraryInit(1, 2, true)
	LogGallerySettings(gallery.DefaultSettings())
	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090", MetricsEnabled: true})
}
