package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rohanj-dev/skystash/internal/api/middleware"
	"github.com/rohanj-dev/skystash/internal/api/services"
	"github.com/rohanj-dev/skystash/internal/auth"
	"github.com/rohanj-dev/skystash/internal/config"
	"github.com/rohanj-dev/skystash/internal/models"
	"github.com/rohanj-dev/skystash/internal/repositories"
	"github.com/rohanj-dev/skystash/internal/utils"
)

var validate = validator.New()

type AuthHandler struct {
	cfg    *config.Config
	users  *repositories.UserStore
	tokens *auth.TokenService
	google *services.GoogleOAuth
}

func NewAuthHandler(cfg *config.Config, users *repositories.UserStore, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		users:  users,
		tokens: tokens,
		google: services.NewGoogleOAuth(cfg.Google),
	}
}

// Register godoc
// @Summary Create an account
// @Description Register with name, email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	if err := validate.Struct(input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "All fields are required and email must be valid",
		})
		return
	}

	_, err := h.users.CreateUser(r.Context(), input.Name, input.Email, input.Password)
	switch {
	case errors.Is(err, repositories.ErrDuplicateEmail):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Email already exists",
		})
		return
	case err != nil:
		slog.Error("failed to create user", "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to create user",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "User registered successfully",
	})
}

// Login godoc
// @Summary Log in with email and password
// @Description Issues a session token delivered as an http-only cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	if err := validate.Struct(input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Email and password are required",
		})
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), input.Email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	case err != nil:
		slog.Error("failed to look up user", "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	if !repositories.CheckPassword(user.Password, input.Password) {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	tokenString, expiration, err := h.tokens.Issue(user.ID.String())
	if err != nil {
		slog.Error("failed to sign token", "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to create token",
		})
		return
	}

	h.setSessionCookie(w, tokenString, expiration)

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Login successful",
		Data: map[string]any{
			"token": tokenString,
			"user": map[string]any{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		},
	})
}

// Profile godoc
// @Summary Fetch the caller's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/auth/get [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return
	}

	user, err := h.users.FindUserByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load profile", "err", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to load profile",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Profile fetched",
		Data: map[string]any{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.cfg.IsProd(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Logged out successfully",
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiration time.Time) {
	sameSite := http.SameSiteLaxMode
	if h.cfg.IsProd() {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(time.Until(expiration).Seconds()),
		Secure:   h.cfg.IsProd(),
		HttpOnly: true,
		SameSite: sameSite,
	})
}

// GoogleLogin starts the OAuth flow. The state carries whether the client
// came from the login or register page.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	flow := r.URL.Query().Get("redirect")
	if flow == "" {
		flow = "login"
	}

	state, err := GenerateState(map[string]string{"flow": flow})
	if err != nil {
		http.Error(w, "Failed to generate OAuth state", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateData, err := DecodeState(r.FormValue("state"))
	if err != nil {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	flow := stateData["flow"]

	googleUser, err := h.google.FetchUser(r.Context(), r.FormValue("code"))
	if err != nil {
		slog.Error("google oauth exchange failed", "err", err)
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	user, err := h.users.FindUserByEmail(r.Context(), googleUser.Email)
	switch flow {
	case "register":
		if err == nil {
			http.Redirect(w, r, h.cfg.FrontendURL+"/login?error=user_already_exists", http.StatusTemporaryRedirect)
			return
		}
		user, err = h.createGoogleUser(r.Context(), googleUser.Name, googleUser.Email)
		if err != nil {
			slog.Error("failed to create google user", "err", err)
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
	default: // login
		if errors.Is(err, repositories.ErrNotFound) {
			http.Redirect(w, r, h.cfg.FrontendURL+"/register?error=user_not_found", http.StatusTemporaryRedirect)
			return
		}
		if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
	}

	tokenString, expiration, err := h.tokens.Issue(user.ID.String())
	if err != nil {
		http.Error(w, "Failed to create token", http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, tokenString, expiration)

	http.Redirect(w, r, h.cfg.FrontendURL+"/dashboard?status=success_"+flow, http.StatusTemporaryRedirect)
}

// createGoogleUser registers an account with an unguessable password so the
// credential path stays bcrypt-only.
func (h *AuthHandler) createGoogleUser(ctx context.Context, name, email string) (*models.User, error) {
	password, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, err
	}
	return h.users.CreateUser(ctx, name, email, password)
}
