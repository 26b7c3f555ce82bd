package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"justified-gallery/internal/logging"
)

// w3cFields is the #Fields directive of the access log. x-layout is an
// extension field: "w=<width>,rows=<n>,tiles=<n>" for layout requests,
// "-" otherwise.
const w3cFields = "date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Content-Encoding) cs(User-Agent) cs(Referer) x-layout"

// ResponseWriter wrapper to capture status code and bytes written
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	SkipPaths []string
	// ImagePrefixes are the thumbnail and original image routes. A layout
	// fans out into one image request per tile, so they are only logged
	// when LogStaticFiles is set.
	ImagePrefixes   []string
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig returns a sensible default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		ImagePrefixes:   []string{"/thumb/", "/media/"},
		LogHealthChecks: true,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// LayoutSummary describes the layout a request produced, for the access log.
type LayoutSummary struct {
	Width float64
	Rows  int
	Tiles int
}

func (s LayoutSummary) String() string {
	return "w=" + strconv.FormatFloat(s.Width, 'f', -1, 64) +
		",rows=" + strconv.Itoa(s.Rows) +
		",tiles=" + strconv.Itoa(s.Tiles)
}

type layoutNoteKey struct{}

type layoutNote struct {
	mu      sync.Mutex
	summary *LayoutSummary
}

// AnnotateLayout attaches the layout a handler rendered to the access log
// line of its request. It does nothing outside the logging middleware.
func AnnotateLayout(ctx context.Context, s LayoutSummary) {
	note, ok := ctx.Value(layoutNoteKey{}).(*layoutNote)
	if !ok {
		return
	}
	note.mu.Lock()
	note.summary = &s
	note.mu.Unlock()
}

func (n *layoutNote) field() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.summary == nil {
		return "-"
	}
	return n.summary.String()
}

// Logger returns HTTP logging middleware using W3C Extended Log Format.
// The #Fields directive is logged once, when the middleware is built.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	logging.Printf("#Software: JustifiedGallery/1.0")
	logging.Printf("#Fields: %s", w3cFields)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			note := &layoutNote{}
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), layoutNoteKey{}, note)))

			// Every user-controlled field goes through sanitizeLogField.
			logging.Printf("%s", accessLine(r, wrapped, note.field(), start.UTC(), time.Since(start)))
		})
	}
}

// accessLine formats one request in the order of w3cFields.
func accessLine(r *http.Request, rw *responseWriter, layout string, at time.Time, took time.Duration) string {
	fields := []string{
		at.Format("2006-01-02"),
		at.Format("15:04:05"),
		orDash(sanitizeLogField(getClientIP(r))),
		orDash(sanitizeLogField(r.Method)),
		orDash(sanitizeLogField(r.URL.Path)),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(rw.Header().Get("Content-Encoding")),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
		orDash(sanitizeLogField(r.Header.Get("Referer"))),
		layout,
	}
	return strings.Join(fields, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField removes control characters that could be used for log
// injection. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20:
			// NUL, ESC and the rest of C0.
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	if !config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}
	if !config.LogStaticFiles {
		for _, prefix := range config.ImagePrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}
	return false
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// escapeW3CField quotes values containing spaces, tabs or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
