package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/services"
)

type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	AdminLogin(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	CreateAdmin(ctx context.Context, in services.CreateAdminInput) (*services.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, viewer services.Viewer, current, next string) error
	Profile(ctx context.Context, viewer services.Viewer) (*models.User, error)
	UpdateProfile(ctx context.Context, viewer services.Viewer, in services.ProfileUpdate) (*models.User, error)
}

func Register(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.RegisterInput
		if !bind(c, log, &input) {
			return
		}

		res, err := auth.Register(c.Request.Context(), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"token":   res.Token,
			"user":    res.User,
		})
	}
}

func Login(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.LoginInput
		if !bind(c, log, &input) {
			return
		}

		res, err := auth.Login(c.Request.Context(), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   res.Token,
			"user":    res.User,
		})
	}
}

func AdminLogin(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.LoginInput
		if !bind(c, log, &input) {
			return
		}

		res, err := auth.AdminLogin(c.Request.Context(), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Admin login successful",
			"token":   res.Token,
			"user":    res.User,
		})
	}
}

func CreateAdmin(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.CreateAdminInput
		if !bind(c, log, &input) {
			return
		}

		res, err := auth.CreateAdmin(c.Request.Context(), input)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "Admin created successfully",
			"token":   res.Token,
			"user":    res.User,
		})
	}
}

type forgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword answers the same way whether or not the address is known.
func ForgotPassword(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input forgotPasswordInput
		if !bind(c, log, &input) {
			return
		}

		if err := auth.ForgotPassword(c.Request.Context(), input.Email); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "If an account exists with this email, a password reset link has been sent",
		})
	}
}

type resetTokenInput struct {
	Token string `json:"token" binding:"required"`
}

func VerifyResetToken(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input resetTokenInput
		if !bind(c, log, &input) {
			return
		}

		if err := auth.VerifyResetToken(c.Request.Context(), input.Token); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}

type resetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func ResetPassword(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input resetPasswordInput
		if !bind(c, log, &input) {
			return
		}

		if err := auth.ResetPassword(c.Request.Context(), input.Token, input.Password); err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
	}
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func ChangePassword(auth AuthAPI, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input changePasswordInput
		if !bind(c, log, &input) {
			return
		}

		err := auth.ChangePassword(c.Request.Context(), viewerFrom(c), input.CurrentPassword, input.NewPassword)
		if err != nil {
			fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
