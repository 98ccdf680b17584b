package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/storefront-kit/authcore/internal/auth"
	"github.com/storefront-kit/authcore/internal/email"
	"github.com/storefront-kit/authcore/internal/errorsx"
	"github.com/storefront-kit/authcore/internal/ginutil"
	"github.com/storefront-kit/authcore/internal/model"
	"go.uber.org/zap"
)

func (s *Service) Health(c *gin.Context) {
	ginutil.JSON(c, nil, "Success")
}

func (s *Service) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	err := c.BindJSON(&req)
	if err != nil {
		errMsg := "failed to decode login request"
		s.Logger.Error(errMsg, zap.Error(err))
		ginutil.JSONError(c, http.StatusBadRequest, nil, errMsg+": %v", err)
		return
	}

	err = validateEmail(req.Email)
	if err != nil {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
		return
	}
	err = validation.Validate(req.Password, validation.Required.Error("password is required"))
	if err != nil {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
		return
	}

	user, err := s.AuthService.Login(ctx, model.LoginArgs{
		Email:     req.Email,
		Password:  req.Password,
		IpAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			ginutil.JSONError(c, http.StatusUnauthorized, nil, "%v", err.Error())
			return
		}
		errMsg := "failed to do login"
		s.Logger.Error(errMsg, zap.Error(err))
		errorsx.HandleError(c, err)
		return
	}

	signed, expiresAt, err := s.TokenIssuer.Issue(user.DocumentID)
	if err != nil {
		errMsg := "failed to issue session token"
		s.Logger.Error(errMsg, zap.Error(err))
		errorsx.HandleError(c, err)
		return
	}

	ginutil.JSON(c, &LoginResponse{Token: signed, ExpiresAt: expiresAt}, "Success")
}

func validateEmail(email string) error {
	return validation.Validate(
		email,
		validation.Required.Error("email is required"),
		is.Email.Error("valid email is required"))
}

func (s *Service) ChangePassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChangePasswordRequest
	err := c.BindJSON(&req)
	if err != nil {
		errMsg := "failed to decode change-password request"
		s.Logger.Error(errMsg, zap.Error(err))
		ginutil.JSONError(c, http.StatusBadRequest, nil, errMsg+": %v", err)
		return
	}

	err = validation.Errors{
		"oldPassword":     validation.Validate(req.OldPassword, validation.Required),
		"newPassword":     validation.Validate(req.NewPassword, validation.Required),
		"confirmPassword": validation.Validate(req.ConfirmPassword, validation.Required),
	}.Filter()
	if err != nil {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
		return
	}

	// The token subject is authoritative; a body userId is only accepted when
	// it agrees.
	subject := subjectFromContext(c)
	if req.UserId != "" && req.UserId != subject {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "userId does not match the authenticated user")
		return
	}

	err = s.AuthService.ChangePassword(ctx, model.ChangePasswordArgs{
		UserDocID:       subject,
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) || errors.Is(err, auth.ErrWrongOldPassword) {
			ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
			return
		}
		errMsg := "failed to change password"
		s.Logger.Error(errMsg, zap.Error(err))
		errorsx.HandleError(c, err)
		return
	}

	ginutil.JSON(c, nil, "Password has been changed.")
}

func (s *Service) RequestPasswordReset(c *gin.Context) {
	ctx := c.Request.Context()

	var req RequestPasswordResetRequest
	err := c.BindJSON(&req)
	if err != nil {
		errMsg := "failed to decode password reset request"
		s.Logger.Error(errMsg, zap.Error(err))
		ginutil.JSONError(c, http.StatusBadRequest, nil, errMsg+": %v", err)
		return
	}

	err = validateEmail(req.Email)
	if err != nil {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
		return
	}

	err = s.AuthService.RequestReset(ctx, model.RequestResetArgs{Email: req.Email})
	if err != nil {
		// Delivery failure is soft: the code stays stored and simply expires
		// unused, and the response must not reveal whether the email exists.
		if errors.Is(err, email.ErrSendFailed) {
			s.Logger.Warn("reset code email was not delivered", zap.Error(err))
			ginutil.JSON(c, nil, "If the email is registered, a reset code has been sent.")
			return
		}
		errMsg := "failed to request password reset"
		s.Logger.Error(errMsg, zap.Error(err))
		errorsx.HandleError(c, err)
		return
	}

	ginutil.JSON(c, nil, "If the email is registered, a reset code has been sent.")
}

func (s *Service) ConfirmPasswordReset(c *gin.Context) {
	ctx := c.Request.Context()

	var req ConfirmPasswordResetRequest
	err := c.BindJSON(&req)
	if err != nil {
		errMsg := "failed to decode password reset confirmation"
		s.Logger.Error(errMsg, zap.Error(err))
		ginutil.JSONError(c, http.StatusBadRequest, nil, errMsg+": %v", err)
		return
	}

	err = validateEmail(req.Email)
	if err != nil {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
		return
	}
	err = validation.Errors{
		"code":        validation.Validate(req.Code, validation.Required),
		"newPassword": validation.Validate(req.NewPassword, validation.Required),
	}.Filter()
	if err != nil {
		ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
		return
	}

	err = s.AuthService.ConfirmReset(ctx, model.ConfirmResetArgs{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) ||
			errors.Is(err, auth.ErrExpiredCode) ||
			errors.Is(err, auth.ErrCodeAlreadyUsed) {
			ginutil.JSONError(c, http.StatusBadRequest, nil, "%v", err.Error())
			return
		}
		errMsg := "failed to confirm password reset"
		s.Logger.Error(errMsg, zap.Error(err))
		errorsx.HandleError(c, err)
		return
	}

	ginutil.JSON(c, nil, "Password has been successfully reset.")
}
