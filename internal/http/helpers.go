package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
)

const (
	msgUnauthenticated = "Usuario no autenticado"
	msgInvalidToken    = "Token no válido"
	msgRateLimited     = "Demasiadas solicitudes, inténtalo de nuevo más tarde"
	msgNoBudget        = "No hay presupuesto guardado"
	msgSaved           = "Presupuesto guardado correctamente"
	msgSaveFailed      = "Error al guardar el presupuesto"
	msgLoadFailed      = "Error al cargar el presupuesto"
	msgInvalidBudget   = "Datos de presupuesto no válidos"
	msgExportFailed    = "Error al exportar el presupuesto"

	maxIdentityLength = 128
)

type identityKey struct{}

// identityFrom returns the identity stored by requireIdentity.
func identityFrom(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

// requireIdentity rejects requests without an identity header or, when a
// token is configured, without the matching bearer token.
func (s *Server) requireIdentity(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken != "" && !validBearer(r.Header.Get("Authorization"), s.apiToken) {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		identity, ok := sanitizeIdentity(r.Header.Get(s.identityHeader))
		if !ok {
			writeError(w, http.StatusUnauthorized, msgUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		logger := log.FromContext(ctx).With(log.FieldIdentity, identity)
		ctx = context.WithValue(ctx, log.LoggerContextKey, logger)
		next(w, r.WithContext(ctx))
	})
}

func validBearer(header, token string) bool {
	got, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) == 1
}

// sanitizeIdentity trims the header value and rejects empty, overlong or
// control-character identities.
func sanitizeIdentity(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxIdentityLength {
		return "", false
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return "", false
	}
	return id, true
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Success: false, Message: message})
}
