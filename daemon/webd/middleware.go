package webd

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	ghandlers "github.com/gorilla/handlers"
)

// tokenAuthenticationMiddleware is a middleware that checks for a valid token in the Authorization header.
// If the token is not valid, it returns a 403 Forbidden.
// If no token is set, it allows all requests.
func tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := os.Getenv("GLOBE_TOKEN")
		if validToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("Authorization")
		if token == "" {
			token = r.URL.Query().Get("api_token")
		}
		if token != validToken {
			slog.Warn("Invalid token", "method", r.Method, "url", r.URL, "remote-addr", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// https://github.com/gorilla/mux#middleware

func writeLog(_ io.Writer, params ghandlers.LogFormatterParams) {
	slog.Info("HTTP",
		"method", params.Request.Method,
		"url", params.URL.RequestURI(),
		"status", params.StatusCode,
		"size", params.Size,
		"remote", params.Request.RemoteAddr)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, writeLog)
}
