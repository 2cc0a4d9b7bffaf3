package httpserver

import (
	"errors"
	"net/http"
	"strings"

	autherrors "stackit/contexts/identity-access/auth-service/domain/errors"
	authentities "stackit/contexts/identity-access/auth-service/domain/entities"
	authhttp "stackit/contexts/identity-access/auth-service/transport/http"
	questionhttp "stackit/contexts/community-qa/question-service/transport/http"
)

type userProfileResponse struct {
	authhttp.UserResponse
	Stats questionhttp.UserStatsResponse `json:"stats"`
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// requireIdentity writes a 401 and reports false when the request carries no
// valid bearer token.
func (s *Server) requireIdentity(w http.ResponseWriter, r *http.Request) (authentities.Identity, bool) {
	token, present := bearerToken(r)
	if !present {
		writeAuthDomainError(w, autherrors.ErrUnauthorized)
		return authentities.Identity{}, false
	}
	identity, err := s.auth.Service.Authenticate(r.Context(), token)
	if err != nil {
		writeAuthDomainError(w, err)
		return authentities.Identity{}, false
	}
	return identity, true
}

// optionalIdentity returns the anonymous identity when no Authorization
// header is sent. A header that fails verification is still rejected.
func (s *Server) optionalIdentity(w http.ResponseWriter, r *http.Request) (authentities.Identity, bool) {
	if _, present := bearerToken(r); !present {
		return authentities.Identity{}, true
	}
	return s.requireIdentity(w, r)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authhttp.RegisterRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.auth.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authhttp.LoginRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.auth.Handler.LoginHandler(r.Context(), req)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	resp, err := s.auth.Handler.MeHandler(r.Context(), identity.UserID)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, present := bearerToken(r)
	if !present {
		writeAuthDomainError(w, autherrors.ErrUnauthorized)
		return
	}
	resp, err := s.auth.Handler.RefreshHandler(r.Context(), token)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.auth.Handler.ProfileHandler(r.Context(), r.PathValue("username"))
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	stats, err := s.questions.Handler.UserStatsHandler(r.Context(), profile.UserID)
	if err != nil {
		writeQuestionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userProfileResponse{UserResponse: profile, Stats: stats})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	var req authhttp.UpdateProfileRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.auth.Handler.UpdateProfileHandler(r.Context(), identity.UserID, req)
	if err != nil {
		writeAuthDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAuthDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, autherrors.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: err.Error()})
	case errors.Is(err, autherrors.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "invalid_credentials", Message: err.Error()})
	case errors.Is(err, autherrors.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "invalid_token", Message: err.Error()})
	case errors.Is(err, autherrors.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: err.Error()})
	case errors.Is(err, autherrors.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
	case errors.Is(err, autherrors.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Code: "conflict", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal server error"})
	}
}
