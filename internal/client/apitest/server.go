// Package apitest runs an in-process imitation of the catlog backend for
// tests. Routes, envelopes and status codes follow the real REST contract;
// knobs on Server let tests force the odd shapes and failures the client must
// tolerate.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/catlog/internal/client/models"
	"github.com/dmitrijs2005/catlog/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// BasePath is the prefix every route is mounted under.
const BasePath = "/apis"

var signingKey = []byte("apitest-secret")

type account struct {
	ID       int64
	Username string
	Email    string
	Password string
}

// Upload captures the last multipart upload received.
type Upload struct {
	Token      string
	FileName   string
	Content    []byte
	CatEntryID string
	UploadedBy string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account
	valid    map[string]string // token -> username
	entries  map[int64]models.CatEntry
	nextID   int64
	calls    map[string]int
	reqIDs   []string
	upload   *Upload

	// ProfileEnveloped wraps the profile response in {"data": ...}.
	ProfileEnveloped bool
	// ProfileStatus, when non-zero, is returned by the profile endpoint.
	ProfileStatus int
	// ProfileGate, when set, blocks profile requests until it is closed.
	ProfileGate chan struct{}
	// RegisterIssuesToken adds a token to the registration response.
	RegisterIssuesToken bool
}

// New starts a server and closes it when the test ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		accounts: map[string]account{},
		valid:    map[string]string{},
		entries:  map[int64]models.CatEntry{},
		calls:    map[string]int{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the URL the client should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route(BasePath, func(r chi.Router) {
		r.Post("/user/login", s.login)
		r.Post("/user/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/user/profile", s.profile)
			r.Get("/catEntry/list", s.listEntries)
			r.Get("/catEntry/{id}", s.getEntry)
			r.Post("/catEntry/create", s.createEntry)
			r.Put("/catEntry/update", s.updateEntry)
			r.Delete("/catEntry/delete/{id}", s.deleteEntry)
			r.Post("/catEntry/upload-image", s.uploadImage)
		})
	})
	return r
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, email, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password)
}

func (s *Server) addUserLocked(username, email, password string) int64 {
	id := int64(len(s.accounts) + 1)
	s.accounts[username] = account{ID: id, Username: username, Email: email, Password: password}
	return id
}

// IssueToken mints a token for username that the server will accept. A zero
// exp produces a token without an exp claim.
func (s *Server) IssueToken(username string, exp time.Time) string {
	claims := jwt.MapClaims{"sub": username}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	s.Accept(tok, username)
	return tok
}

// Accept makes the server treat an arbitrary string as a valid token.
func (s *Server) Accept(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid[token] = username
}

// AddEntry stores an entry and returns its id.
func (s *Server) AddEntry(e models.CatEntry) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.entries[e.ID] = e
	return e.ID
}

func (s *Server) Entry(id int64) (models.CatEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// Calls returns how many times "METHOD /path" (without BasePath) was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reqIDs...)
}

func (s *Server) LastUpload() *Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upload
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+strings.TrimPrefix(r.URL.Path, BasePath)]++
		s.reqIDs = append(s.reqIDs, r.Header.Get(common.RequestIDHeaderName))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		_, ok := s.valid[bearer(r)]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || acc.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
		return
	}

	tok := s.IssueToken(acc.Username, time.Now().Add(time.Hour))
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"id": acc.ID, "username": acc.Username, "email": acc.Email, "token": tok,
	}})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Username]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username taken"})
		return
	}
	id := s.addUserLocked(req.Username, req.Email, req.Password)
	s.mu.Unlock()

	body := map[string]any{"id": id, "username": req.Username, "email": req.Email}
	if s.RegisterIssuesToken {
		body["token"] = s.IssueToken(req.Username, time.Now().Add(time.Hour))
	}
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	if s.ProfileGate != nil {
		<-s.ProfileGate
	}
	if s.ProfileStatus != 0 {
		writeJSON(w, s.ProfileStatus, map[string]string{"error": "forced"})
		return
	}

	s.mu.Lock()
	acc := s.accounts[s.valid[bearer(r)]]
	s.mu.Unlock()

	var body any = map[string]any{"id": acc.ID, "username": acc.Username, "email": acc.Email}
	if s.ProfileEnveloped {
		body = map[string]any{"data": body}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]models.CatEntry, 0, len(s.entries))
	for id := int64(1); id <= s.nextID; id++ {
		if e, ok := s.entries[id]; ok {
			list = append(list, e)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"data": list}})
}

func (s *Server) entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
		return 0, false
	}
	return id, true
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entryID(w, r)
	if !ok {
		return
	}
	e, found := s.Entry(id)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such entry"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"data": e}})
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var in models.CatEntryCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := s.AddEntry(models.CatEntry{
		CatName: in.CatName, Mood: in.Mood, Location: in.Location,
		Notes: in.Notes, ImageURL: in.ImageURL, CreatedBy: in.CreatedBy,
	})
	e, _ := s.Entry(id)
	writeJSON(w, http.StatusCreated, map[string]any{"data": e})
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var in models.CatEntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	e, ok := s.entries[in.ID]
	if ok {
		e.CatName, e.Mood, e.Location, e.Notes, e.ImageURL = in.CatName, in.Mood, in.Location, in.Notes, in.ImageURL
		e.ModifiedBy = in.ModifiedBy
		s.entries[in.ID] = e
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such entry"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": e})
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entryID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, found := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such entry"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image part missing"})
		return
	}
	defer f.Close()
	content, _ := io.ReadAll(f)

	up := &Upload{
		Token:      bearer(r),
		FileName:   hdr.Filename,
		Content:    content,
		CatEntryID: r.FormValue("catEntryId"),
		UploadedBy: r.FormValue("uploadedBy"),
	}
	s.mu.Lock()
	s.upload = up
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"imageUrl": "/images/" + hdr.Filename,
		"fileId":   fmt.Sprintf("f-%d", len(content)),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
