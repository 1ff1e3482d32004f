package http

import (
	"net/http"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
)

type AuthHandler struct {
	authUsecase usecase.AuthUC
	logger      logger.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUC, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, logger: logger}
}

// register
//
//	@Summary	Регистрация пользователя
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		user	body		RegisterRequest	true	"Данные пользователя"
//	@Success	201		{object}	AuthResponse
//	@Failure	400		{object}	ErrorResponse	"Ошибка валидации или пользователь существует"
//	@Router		/auth/register [post]
func (a *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, a.logger, err)
		return
	}

	res, err := a.authUsecase.Register(r.Context(), &usecase.RegisterReq{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, a.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toAuthResponse("User registered successfully", res))
}

// login
//
//	@Summary	Вход
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		credentials	body		LoginRequest	true	"Email и пароль"
//	@Success	200			{object}	AuthResponse
//	@Failure	400			{object}	ErrorResponse
//	@Failure	401			{object}	ErrorResponse	"Неверный email или пароль"
//	@Router		/auth/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, a.logger, err)
		return
	}

	res, err := a.authUsecase.Login(r.Context(), &usecase.LoginReq{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, a.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAuthResponse("Login successful", res))
}
