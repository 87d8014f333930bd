package http

import (
	"net/http"
	"time"

	"walletguru/internal/core"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userView  `json:"user"`
}

// userView is the public shape of a user; the password hash never leaves
// the server.
type userView struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	DateJoined time.Time       `json:"dateJoined"`
	Status     core.UserStatus `json:"status"`
}

func viewOf(u core.User) userView {
	return userView{ID: u.ID, Email: u.Email, DateJoined: u.DateJoined, Status: u.Status}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	fields, err := decodeAndValidate(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if fields != nil {
		validationProblem(w, r, fields)
		return
	}
	u, err := s.deps.Users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.issueToken(w, r, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	fields, err := decodeAndValidate(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if fields != nil {
		validationProblem(w, r, fields)
		return
	}
	u, err := s.deps.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.issueToken(w, r, http.StatusOK, u)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, status int, u core.User) {
	token, exp, err := s.deps.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{Token: token, ExpiresAt: exp, User: viewOf(u)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondError(w, r, errUnauthorized)
		return
	}
	u, err := s.deps.Users.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(u))
}

// handleVerify marks the caller's account as verified.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondError(w, r, errUnauthorized)
		return
	}
	u, err := s.deps.Users.Verify(r.Context(), claims.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(u))
}
