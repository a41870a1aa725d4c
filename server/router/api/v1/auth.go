package v1

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/zenvahq/zenva/server/auth"
	"github.com/zenvahq/zenva/store"
)

const userIDContextKey = "user-id"

// authMiddleware verifies the bearer token and stores the acting user's ID
// on the request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearerToken(c.Request().Header.Get("Authorization"))
		if token == "" {
			return c.JSON(http.StatusUnauthorized, &errorResponse{Code: "UNAUTHENTICATED", Message: "missing access token"})
		}

		userID, err := auth.VerifyAccessToken(token, []byte(s.Secret))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, &errorResponse{Code: "UNAUTHENTICATED", Message: "invalid access token"})
		}

		user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
		if err != nil {
			return internalError(c, err)
		}
		if user == nil || user.RowStatus == store.Archived {
			return c.JSON(http.StatusUnauthorized, &errorResponse{Code: "UNAUTHENTICATED", Message: "user not found"})
		}

		c.Set(userIDContextKey, user.ID)
		return next(c)
	}
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (s *APIV1Service) currentUserID(c echo.Context) int32 {
	userID, _ := c.Get(userIDContextKey).(int32)
	return userID
}

type signUpRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string        `json:"accessToken"`
	User        *userResponse `json:"user"`
}

type userResponse struct {
	ID       int32  `json:"id"`
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func convertUser(user *store.User) *userResponse {
	return &userResponse{
		ID:       user.ID,
		UID:      user.UID,
		Email:    user.Email,
		Nickname: user.Nickname,
		Role:     string(user.Role),
	}
}

// SignUp registers a new user and signs them in.
func (s *APIV1Service) SignUp(c echo.Context) error {
	req := &signUpRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "invalid email address")
	}
	if len(req.Password) < 8 {
		return badRequest(c, "password must be at least 8 characters")
	}

	ctx := c.Request().Context()
	existing, err := s.Store.GetUser(ctx, &store.FindUser{Email: &req.Email})
	if err != nil {
		return internalError(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, &errorResponse{Code: "ALREADY_EXISTS", Message: "email already registered"})
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return internalError(c, err)
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = strings.Split(req.Email, "@")[0]
	}
	user, err := s.Store.CreateUser(ctx, &store.User{
		UID:          shortuuid.New(),
		Email:        req.Email,
		Nickname:     nickname,
		PasswordHash: passwordHash,
		Role:         store.RoleUser,
	})
	if err != nil {
		return internalError(c, err)
	}

	return s.issueToken(c, user, http.StatusCreated)
}

// SignIn exchanges credentials for an access token.
func (s *APIV1Service) SignIn(c echo.Context) error {
	req := &signInRequest{}
	if err := c.Bind(req); err != nil {
		return badRequest(c, "malformed request body")
	}

	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{Email: &req.Email})
	if err != nil {
		return internalError(c, err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, &errorResponse{Code: "UNAUTHENTICATED", Message: "invalid credentials"})
	}

	return s.issueToken(c, user, http.StatusOK)
}

func (s *APIV1Service) issueToken(c echo.Context, user *store.User, status int) error {
	expiresAt := time.Now().Add(auth.AccessTokenDuration)
	token, err := auth.GenerateAccessToken(user.ID, user.Email, expiresAt, []byte(s.Secret))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(status, &authResponse{
		AccessToken: token,
		User:        convertUser(user),
	})
}

// Me returns the authenticated user.
func (s *APIV1Service) Me(c echo.Context) error {
	userID := s.currentUserID(c)
	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
	if err != nil {
		return internalError(c, err)
	}
	if user == nil {
		return notFound(c, "user not found")
	}
	return c.JSON(http.StatusOK, convertUser(user))
}
