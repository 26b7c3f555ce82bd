package suffix

import (
	"errors"
	"regexp"
	"testing"
)

func newDefault(t *testing.T) *Resolver {
	t.Helper()
	r, err := New(DefaultTable())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestSuffix(t *testing.T) {
	r := newDefault(t)

	tests := []struct {
		name          string
		width, height int
		want          string
	}{
		{name: "tiny", width: 50, height: 40, want: "_t"},
		{name: "exact bound", width: 100, height: 100, want: "_t"},
		{name: "just above bound", width: 101, height: 20, want: "_m"},
		{name: "height is longest", width: 100, height: 300, want: "_n"},
		{name: "empty suffix range", width: 480, height: 300, want: ""},
		{name: "medium", width: 600, height: 400, want: "_z"},
		{name: "large", width: 1000, height: 800, want: "_b"},
		{name: "beyond largest bound", width: 4000, height: 3000, want: "_b"},
		{name: "zero", width: 0, height: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Suffix(tt.width, tt.height); got != tt.want {
				t.Errorf("Suffix(%d, %d) = %q, want %q", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestNewAcceptsPrefixedKeys(t *testing.T) {
	r, err := New(map[string]string{"lt100": "_s", "lt800": "_l"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := r.Suffix(90, 10); got != "_s" {
		t.Errorf("Suffix(90, 10) = %q, want _s", got)
	}
	if got := r.Suffix(900, 10); got != "_l" {
		t.Errorf("Suffix(900, 10) = %q, want _l", got)
	}
	bounds := r.Bounds()
	if len(bounds) != 3 || bounds[0] != 0 || bounds[1] != 100 || bounds[2] != 800 {
		t.Errorf("Bounds() = %v, want [0 100 800]", bounds)
	}
}

func TestNewRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name  string
		table map[string]string
	}{
		{name: "nil table", table: nil},
		{name: "non numeric key", table: map[string]string{"small": "_s"}},
		{name: "uppercase prefix", table: map[string]string{"LT100": "_s"}},
		{name: "negative", table: map[string]string{"-5": "_s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.table)
			if !errors.Is(err, ErrInvalidTable) {
				t.Errorf("New() error = %v, want ErrInvalidTable", err)
			}
		})
	}
}

func TestUsedAndStrip(t *testing.T) {
	r, err := New(map[string]string{"100": "_m", "200": "_mm", "300": ""})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		in, used, stripped string
	}{
		{in: "photo_m", used: "_m", stripped: "photo"},
		{in: "photo_mm", used: "_mm", stripped: "photo"},
		{in: "photo", used: "", stripped: "photo"},
		{in: "", used: "", stripped: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := r.Used(tt.in); got != tt.used {
				t.Errorf("Used(%q) = %q, want %q", tt.in, got, tt.used)
			}
			if got := r.Strip(tt.in); got != tt.stripped {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.stripped)
			}
		})
	}
}

func TestApply(t *testing.T) {
	r := newDefault(t)

	tests := []struct {
		name          string
		src           string
		width, height int
		want          string
	}{
		{name: "unsuffixed", src: "https://x.test/a/photo.jpg", width: 200, height: 120, want: "https://x.test/a/photo_m.jpg"},
		{name: "replaces suffix", src: "https://x.test/a/photo_t.jpg", width: 900, height: 600, want: "https://x.test/a/photo_b.jpg"},
		{name: "empty suffix", src: "/img/photo_t.png", width: 450, height: 300, want: "/img/photo.png"},
		{name: "no extension", src: "/img/photo_t", width: 900, height: 10, want: "/img/photo_b"},
		{name: "dot in directory", src: "/v1.2/photo", width: 90, height: 10, want: "/v1.2/photo_t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Apply(tt.src, tt.width, tt.height, nil); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	r := newDefault(t)
	src := "/albums/trip/beach.jpg"

	once := r.Apply(src, 600, 400, nil)
	twice := r.Apply(once, 600, 400, nil)
	if once != "/albums/trip/beach_z.jpg" {
		t.Fatalf("Apply() = %q, want /albums/trip/beach_z.jpg", once)
	}
	if twice != once {
		t.Errorf("second Apply() = %q, want %q", twice, once)
	}
}

func TestApplyCustomExtension(t *testing.T) {
	r := newDefault(t)
	ext := regexp.MustCompile(`\.jpe?g\?.*$`)
	got := r.Apply("/p/photo.jpg?v=3", 90, 90, ext)
	if got != "/p/photo_t.jpg?v=3" {
		t.Errorf("Apply() = %q", got)
	}
}

func TestBoundAndSplit(t *testing.T) {
	r := newDefault(t)

	if b, ok := r.Bound("_m"); !ok || b != 240 {
		t.Errorf("Bound(_m) = %d, %v, want 240, true", b, ok)
	}
	if b, ok := r.Bound(""); !ok || b != 500 {
		t.Errorf("Bound(\"\") = %d, %v, want 500, true", b, ok)
	}
	if _, ok := r.Bound("_x"); ok {
		t.Error("Bound(_x) ok = true")
	}

	base, sfx, ext := r.Split("beach_z.jpg", nil)
	if base != "beach" || sfx != "_z" || ext != ".jpg" {
		t.Errorf("Split() = %q, %q, %q", base, sfx, ext)
	}
}
