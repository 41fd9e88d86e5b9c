package middleware

import (
	"crypto/subtle"
	"net/http"

	"tradeplanner/pkg/crypto"
)

// AdminAuth - middleware для защиты административных endpoints
//
// HTTP Basic Authentication: имя сравнивается в constant time, пароль
// проверяется против bcrypt-хеша из конфигурации. Пустой хеш отключает
// проверку целиком, это режим локального развертывания на машине
// оператора рядом с терминалом.
func AdminAuth(username, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passwordHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="Admin endpoints"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := crypto.CheckPasswordMatch(pass, passwordHash)
			if !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="Admin endpoints"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
