package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/guest"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// guestName is shown for guest sessions, which have no account.
const guestName = "Guest"

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	users         auth.UserStorage
	jwtManager    *auth.JWTManager
	guests        *guest.Registry
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, users auth.UserStorage, jwtManager *auth.JWTManager, guests *guest.Registry, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		users:         users,
		jwtManager:    jwtManager,
		guests:        guests,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.Name, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.RegisterResponse{
		User:  userToAPI(user),
		Token: token,
	}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{
		User:  userToAPI(user),
		Token: token,
	}), nil
}

// StartGuestSession opens an anonymous session backed by an in-memory store.
func (s *AuthService) StartGuestSession(ctx context.Context, req *connect.Request[api.StartGuestSessionRequest]) (*connect.Response[api.StartGuestSessionResponse], error) {
	sessionID, err := s.guests.NewSession()
	if errors.Is(err, guest.ErrTooManySessions) {
		s.logger.Warn("Guest session refused", "active_sessions", s.guests.Len())
		return nil, connect.NewError(connect.CodeResourceExhausted, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.GenerateGuest(sessionID)
	if err != nil {
		s.logger.Error("Failed to generate guest token", "session_id", sessionID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Guest session started", "session_id", sessionID, "active_sessions", s.guests.Len())
	return connect.NewResponse(&api.StartGuestSessionResponse{
		SessionID: sessionID,
		Token:     token,
	}), nil
}

// GetCurrentUser returns the caller's account, or a placeholder for guests.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID, err := middleware.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if middleware.IsGuest(ctx) {
		return connect.NewResponse(&api.GetCurrentUserResponse{
			User:  &api.User{ID: userID, Name: guestName},
			Guest: true,
		}), nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("GetCurrentUser failed", "user_id", userID, "error", err)
		// A valid token for a deleted account is no longer a valid session.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetCurrentUserResponse{User: userToAPI(user)}), nil
}
