package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shinee-collection/tracker-web/internal/catalog"
)

const sessionCookieName = "TRACKER_WEB_SESSION"

// SessionData is the per-browser state kept in the signed session cookie.
type SessionData struct {
	ID        string             `json:"id"`
	Locale    string             `json:"locale,omitempty"`
	CSRFToken string             `json:"csrf,omitempty"`
	Modal     catalog.ModalState `json:"modal,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	// set when the cookie must be rewritten
	dirty bool
}

var (
	sessionSignKey = ephemeralKey()
	sessionSecure  bool
)

// ConfigureSession sets the cookie signing key and Secure flag. An empty key
// keeps the process-ephemeral key, which invalidates sessions on restart.
func ConfigureSession(key string, secure bool) {
	if key != "" {
		sessionSignKey = []byte(key)
	}
	sessionSecure = secure
}

func ephemeralKey() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return []byte("insecure-dev-key-set-TRACKER_WEB_SESSION_SIGNING_KEY")
	}
	return b
}

// Session loads or initializes a session and stores it in request context.
// Modified sessions are written back just before the first response byte.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := readSessionCookie(r)
		if sd.ID == "" {
			now := time.Now().UTC()
			sd.ID = randID()
			sd.CreatedAt = now
			sd.UpdatedAt = now
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				writeSessionCookie(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			writeSessionCookie(w, sd)
		}
	})
}

// GetSession returns the request session, or an empty one outside Session.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok && sd != nil {
		return sd
	}
	return &SessionData{}
}

// MarkDirty schedules the cookie rewrite.
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// OpenModal resets the modal to show a work with every panel closed.
func (s *SessionData) OpenModal(workID string) {
	s.Modal = catalog.OpenModal(workID)
	s.MarkDirty()
}

// CloseModal discards the modal and its panel state.
func (s *SessionData) CloseModal() {
	s.Modal.Close()
	s.MarkDirty()
}

// TogglePanel flips a detail panel and returns the panel now shown.
func (s *SessionData) TogglePanel(editionID string, kind catalog.PanelKind) catalog.PanelKind {
	shown := s.Modal.Toggle(editionID, kind)
	s.MarkDirty()
	return shown
}

func readSessionCookie(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	payloadPart, sigPart, ok := strings.Cut(c.Value, ".")
	if !ok {
		return &SessionData{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return &SessionData{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return &SessionData{}, false
	}
	if !hmac.Equal(sig, sign(payload)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func writeSessionCookie(w http.ResponseWriter, sd *SessionData) {
	b, err := json.Marshal(sd)
	if err != nil {
		return
	}
	val := base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(sign(b))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   sessionSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, sessionSignKey)
	mac.Write(payload)
	return mac.Sum(nil)
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
