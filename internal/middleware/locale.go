package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey identifies the resolved locale in a request context.
var LocaleKey = localeContextKey{}

var supportedLocales = []language.Tag{
	language.English, // first entry is the fallback
	language.Spanish,
	language.Portuguese,
	language.Indonesian,
	language.German,
	language.French,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Locale resolves the request locale from the X-Locale header or the
// Accept-Language header and stores its base tag in the context. Generation
// prompts use it to pick the output language.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			base, _ := tag.Base()
			return base.String()
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tag, _ := language.MatchStrings(localeMatcher, header); tag != language.Und {
			base, _ := tag.Base()
			return base.String()
		}
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

// LocaleFromContext returns the resolved locale, empty when the middleware
// did not run.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return ""
}
