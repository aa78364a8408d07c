package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a request body lands in the log; uploads
// and large payloads are summarized by size instead.
const maxLoggedBody = 4 << 10

// redactedFields covers this domain's payment and attachment identifiers,
// which have no business in application logs. Credentials are matched by
// substring via redactedSubstrings.
var redactedFields = map[string]struct{}{
	"authorization":     {},
	"api_key":           {},
	"payment_reference": {},
	"proof_ref":         {},
	"ref":               {},
}

var redactedSubstrings = []string{"password", "token", "secret"}

// LoggingMiddleware logs one line per request and one per response, with
// redaction applied to request bodies and headers.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logger.Info("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"body", requestBodyForLog(r),
			)

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http response",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", sw.written,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// statusWriter records the status code and byte count without buffering the
// response; bodies are never logged on the way out.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// requestBodyForLog reads (and restores) the request body, redacting
// sensitive JSON fields. Multipart uploads and oversized bodies are
// summarized rather than dumped.
func requestBodyForLog(r *http.Request) string {
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return "[multipart upload]"
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	if err != nil {
		return "[unreadable]"
	}
	rest, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), bytes.NewReader(rest)))

	if len(raw) > maxLoggedBody {
		return "[body truncated]"
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		// non-JSON bodies are not worth the redaction risk
		return "[non-json body]"
	}

	redacted, err := json.Marshal(redactValue(payload))
	if err != nil {
		return "[unloggable body]"
	}
	return string(redacted)
}

func isRedactedField(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := redactedFields[lower]; ok {
		return true
	}
	for _, fragment := range redactedSubstrings {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func redactValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if isRedactedField(k) {
				out[k] = "[REDACTED]"
				continue
			}
			out[k] = redactValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = redactValue(inner)
		}
		return out
	default:
		return val
	}
}
