package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// SessionCookieName é o cookie que guarda o id da sessão do widget.
const SessionCookieName = "chat_session"

// SessionCookies emite e lê o cookie assinado (e, com blockKey, cifrado)
// que carrega o id da sessão do navegador.
type SessionCookies struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewSessionCookies cria o codec. hashKey deve ter 32 ou 64 bytes;
// blockKey pode ser nil (só assinatura) ou ter 16, 24 ou 32 bytes.
func NewSessionCookies(hashKey, blockKey []byte, maxAge time.Duration, secure bool) *SessionCookies {
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(maxAge.Seconds()))
	return &SessionCookies{codec: codec, maxAge: maxAge, secure: secure}
}

// SessionID devolve o id da sessão do cookie. Cookie ausente, adulterado
// ou expirado conta como ausente.
func (c *SessionCookies) SessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	var sessionID string
	if err := c.codec.Decode(SessionCookieName, cookie.Value, &sessionID); err != nil {
		return "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", false
	}
	return sessionID, true
}

// Issue grava o cookie com sessionID na resposta.
func (c *SessionCookies) Issue(w http.ResponseWriter, sessionID string) error {
	encoded, err := c.codec.Encode(SessionCookieName, sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear apaga o cookie no navegador.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
