package memory

import (
	"math"
	"runtime/debug"
	"testing"
)

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		memoryLimit   string
		ratio         string
		vipsCache     string
		wantSource    string
		wantContainer int64
		wantHeap      int64
		wantRatio     float64
		wantVipsCache int
	}{
		{
			name:          "nothing set",
			wantSource:    "none",
			wantVipsCache: DefaultVipsCacheBytes,
		},
		{
			name:          "invalid MEMORY_LIMIT",
			memoryLimit:   "lots",
			wantSource:    "none",
			wantVipsCache: DefaultVipsCacheBytes,
		},
		{
			name:          "bytes with default ratio",
			memoryLimit:   "2147483648",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 2 << 30,
			wantHeap:      int64(float64(2<<30) * DefaultHeapRatio),
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: 128 << 20,
		},
		{
			name:          "kubernetes quantity",
			memoryLimit:   "1Gi",
			ratio:         "0.5",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 1 << 30,
			wantHeap:      512 << 20,
			wantRatio:     0.5,
			wantVipsCache: 128 << 20,
		},
		{
			name:          "small container keeps the minimum cache",
			memoryLimit:   "128Mi",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 128 << 20,
			wantHeap:      96 << 20,
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: minVipsCacheBytes,
		},
		{
			name:          "large container caps the cache",
			memoryLimit:   "16Gi",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 16 << 30,
			wantHeap:      12 << 30,
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: maxVipsCacheBytes,
		},
		{
			name:          "ratio out of range falls back",
			memoryLimit:   "1000000",
			ratio:         "1.5",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 1000000,
			wantHeap:      750000,
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: minVipsCacheBytes,
		},
		{
			name:          "unparsable ratio falls back",
			memoryLimit:   "1000000",
			ratio:         "half",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 1000000,
			wantHeap:      750000,
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: minVipsCacheBytes,
		},
		{
			name:          "explicit vips cache",
			memoryLimit:   "1Gi",
			vipsCache:     "32MiB",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 1 << 30,
			wantHeap:      768 << 20,
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: 32 << 20,
		},
		{
			name:          "invalid vips cache keeps the computed size",
			memoryLimit:   "1Gi",
			vipsCache:     "-1",
			wantSource:    "MEMORY_LIMIT",
			wantContainer: 1 << 30,
			wantHeap:      768 << 20,
			wantRatio:     DefaultHeapRatio,
			wantVipsCache: 64 << 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := debug.SetMemoryLimit(-1)
			t.Cleanup(func() { debug.SetMemoryLimit(old) })

			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.memoryLimit)
			t.Setenv("MEMORY_RATIO", tt.ratio)
			t.Setenv("VIPS_CACHE_MEM", tt.vipsCache)

			b := ConfigureFromEnv()
			if b.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", b.Source, tt.wantSource)
			}
			if b.Configured() != (tt.wantSource != "none") {
				t.Errorf("Configured() = %v for source %q", b.Configured(), tt.wantSource)
			}
			if b.ContainerLimit != tt.wantContainer {
				t.Errorf("ContainerLimit = %d, want %d", b.ContainerLimit, tt.wantContainer)
			}
			if b.HeapLimit != tt.wantHeap {
				t.Errorf("HeapLimit = %d, want %d", b.HeapLimit, tt.wantHeap)
			}
			if b.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", b.Ratio, tt.wantRatio)
			}
			if b.VipsCacheBytes != tt.wantVipsCache {
				t.Errorf("VipsCacheBytes = %d, want %d", b.VipsCacheBytes, tt.wantVipsCache)
			}
			if tt.wantHeap > 0 {
				if got := debug.SetMemoryLimit(-1); got != tt.wantHeap {
					t.Errorf("runtime memory limit = %d, want %d", got, tt.wantHeap)
				}
			}
		})
	}
}

func TestConfigureFromEnvGOMEMLIMIT(t *testing.T) {
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })

	debug.SetMemoryLimit(500 << 20)
	t.Setenv("GOMEMLIMIT", "500MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")
	t.Setenv("VIPS_CACHE_MEM", "")

	b := ConfigureFromEnv()
	if b.Source != "GOMEMLIMIT" {
		t.Errorf("Source = %q, want GOMEMLIMIT", b.Source)
	}
	if b.HeapLimit != 500<<20 {
		t.Errorf("HeapLimit = %d, want %d", b.HeapLimit, int64(500<<20))
	}
	if b.ContainerLimit != 0 {
		t.Errorf("ContainerLimit = %d, want 0 when GOMEMLIMIT wins", b.ContainerLimit)
	}
	if b.VipsCacheBytes != DefaultVipsCacheBytes {
		t.Errorf("VipsCacheBytes = %d, want the default", b.VipsCacheBytes)
	}
	if got := b.MonitorConfig().MemoryLimitBytes; got != 500<<20 {
		t.Errorf("MonitorConfig().MemoryLimitBytes = %d, want the heap limit", got)
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1024", want: 1024},
		{in: " 2Ki ", want: 2048},
		{in: "512Mi", want: 512 << 20},
		{in: "1GiB", want: 1 << 30},
		{in: "3MiB", want: 3 << 20},
		{in: "5M", want: 5000000},
		{in: "2G", want: 2000000000},
		{in: "1.5Gi", wantErr: true},
		{in: "Mi", wantErr: true},
		{in: "-4", wantErr: true},
		{in: "9999999999Gi", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseBytes(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBytes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{10485760, "10.0 MiB"},
		{1610612736, "1.5 GiB"},
		{1099511627776, "1.0 TiB"},
		{math.MaxInt64, "8.0 EiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
