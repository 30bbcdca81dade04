package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/stn-picking/pkg/logger"
)

const (
	operatorHeader = "X-Operator"
	branchHeader   = "X-Branch"
	maxHeaderLen   = 100
)

// Operator copies the X-Operator and X-Branch headers into the request
// context and the log fields. Both headers are optional.
func Operator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if operator := headerValue(r, operatorHeader); operator != "" {
				ctx = WithOperator(ctx, operator)
				if logg != nil {
					ctx = logg.WithOperator(ctx, operator)
				}
			}
			if branch := headerValue(r, branchHeader); branch != "" {
				ctx = WithBranch(ctx, branch)
				if logg != nil {
					ctx = logg.WithBranch(ctx, branch)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func headerValue(r *http.Request, name string) string {
	v := strings.TrimSpace(r.Header.Get(name))
	if len(v) > maxHeaderLen {
		v = v[:maxHeaderLen]
	}
	return v
}
