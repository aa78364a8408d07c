package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"log/slog"
	"os"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("request logging", func() {
	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	Describe("redaction", func() {
		It("masks payment and credential fields but keeps reference numbers", func() {
			payload := map[string]interface{}{
				"reference_number":  "EXP-20260314-AB12",
				"payment_reference": "TRX-9",
				"proof_ref":         "blob-1",
				"password":          "hunter2",
				"amount":            float64(500),
			}

			out, ok := redactValue(payload).(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(out["reference_number"]).To(Equal("EXP-20260314-AB12"))
			Expect(out["amount"]).To(Equal(float64(500)))
			Expect(out["payment_reference"]).To(Equal("[REDACTED]"))
			Expect(out["proof_ref"]).To(Equal("[REDACTED]"))
			Expect(out["password"]).To(Equal("[REDACTED]"))
		})

		It("recurses into nested objects and arrays", func() {
			payload := map[string]interface{}{
				"attachments": []interface{}{
					map[string]interface{}{"ref": "blob-2", "file_name": "receipt.pdf"},
				},
			}

			out := redactValue(payload).(map[string]interface{})
			first := out["attachments"].([]interface{})[0].(map[string]interface{})
			Expect(first["ref"]).To(Equal("[REDACTED]"))
			Expect(first["file_name"]).To(Equal("receipt.pdf"))
		})
	})

	Describe("body capture", func() {
		It("leaves the body readable for the handler", func() {
			var seen string
			handler := LoggingMiddleware(testLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				seen = string(b)
			}))

			body := `{"payment_reference":"TRX-9","amount":500}`
			req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			Expect(seen).To(Equal(body))
		})

		It("summarizes multipart uploads instead of reading them", func() {
			req := httptest.NewRequest(http.MethodPost, "/attachments", strings.NewReader("--boundary--"))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")
			Expect(requestBodyForLog(req)).To(Equal("[multipart upload]"))
		})
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	It("turns a panic into a generic 500 without leaking the panic value", func() {
		handler := RecoveryMiddleware(testLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("secret internal state")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("secret internal state"))

		var envelope map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &envelope)).To(Succeed())
		Expect(envelope["error"]).To(Equal("internal server error"))
	})

	It("passes clean requests through untouched", func() {
		handler := RecoveryMiddleware(testLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})
})

var _ = Describe("RequestID", func() {
	It("echoes a caller-supplied trace id", func() {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set(TraceHeader, "trace-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Header().Get(TraceHeader)).To(Equal("trace-123"))
	})

	It("generates a trace id when the caller sends none", func() {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		Expect(rec.Header().Get(TraceHeader)).NotTo(BeEmpty())
	})
})
