package i18n

import "net/http"

// Middleware injects a localizer for the configured language into every
// request context. A request may override it with a lang query parameter
// (en or pt).
func Middleware(lang string) func(http.Handler) http.Handler {
	def := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def
			if override := r.URL.Query().Get("lang"); override != "" && override != lang {
				loc = NewLocalizer(override)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
