package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"stackit/contexts/identity-access/auth-service/application"
	"stackit/contexts/identity-access/auth-service/domain/entities"
	httptransport "stackit/contexts/identity-access/auth-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.SessionResponse, error) {
	session, err := h.Service.Register(ctx, application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return toSessionResponse(session), nil
}

func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) (httptransport.SessionResponse, error) {
	session, err := h.Service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return toSessionResponse(session), nil
}

func (h Handler) RefreshHandler(ctx context.Context, token string) (httptransport.SessionResponse, error) {
	session, err := h.Service.Refresh(ctx, token)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return toSessionResponse(session), nil
}

func (h Handler) MeHandler(ctx context.Context, userID string) (httptransport.UserResponse, error) {
	user, err := h.Service.Me(ctx, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user, true), nil
}

// ProfileHandler returns the public view of a user; the email is omitted.
func (h Handler) ProfileHandler(ctx context.Context, username string) (httptransport.UserResponse, error) {
	user, err := h.Service.Profile(ctx, username)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user, false), nil
}

func (h Handler) UpdateProfileHandler(
	ctx context.Context,
	userID string,
	req httptransport.UpdateProfileRequest,
) (httptransport.UserResponse, error) {
	user, err := h.Service.UpdateProfile(ctx, userID, application.UpdateProfileInput{
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user, true), nil
}

func toSessionResponse(session application.Session) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		AccessToken: session.Token.Token,
		TokenType:   "Bearer",
		ExpiresAt:   session.Token.ExpiresAt.UTC().Format(time.RFC3339),
		User:        toUserResponse(session.User, true),
	}
}

func toUserResponse(user entities.User, includeEmail bool) httptransport.UserResponse {
	response := httptransport.UserResponse{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.Role,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includeEmail {
		response.Email = user.Email
	}
	return response
}
