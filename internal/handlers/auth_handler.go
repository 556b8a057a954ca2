package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
	"github.com/BruksfildServices01/barber-booking/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	log    *zap.Logger
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, config: cfg, log: log.With(zap.String("component", "auth"))}
}

// --------- Requests ---------

// RegisterRequest creates a client by default. A barbershop name makes the
// user the owner of a new shop; role barber registers a barber, optionally
// joining an existing shop by slug.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required" errcode:"name_required"`
	Email    string `json:"email" validate:"required,email" errcode:"email_required"`
	Password string `json:"password" validate:"required,min=6" errcode:"password_required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" validate:"omitempty,oneof=client barber" errcode:"invalid_input"`

	BarbershopName     string `json:"barbershop_name"`
	BarbershopSlug     string `json:"barbershop_slug"`
	BarbershopTimezone string `json:"barbershop_timezone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" errcode:"email_required"`
	Password string `json:"password" validate:"required" errcode:"password_required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.BarbershopSlug = strings.ToLower(strings.TrimSpace(req.BarbershopSlug))

	if err := validators.Struct(req); err != nil {
		httperr.Respond(c, err)
		return
	}

	if h.config.CheckEmailDomain && !validators.IsEmailDomainValid(req.Email) {
		httperr.Respond(c, httperr.Validation("invalid_email"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		httperr.Respond(c, httperr.TransientStore("register_failed", err))
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         models.RoleClient,
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return httperr.Conflict("email_taken")
		}

		switch {
		case req.BarbershopName != "":
			shop, err := createShop(tx, req)
			if err != nil {
				return err
			}
			user.Role = models.RoleOwner
			user.ShopID = &shop.ID

		case req.Role == models.RoleBarber:
			user.Role = models.RoleBarber
			if req.BarbershopSlug != "" {
				var shop models.Barbershop
				if err := tx.Where("slug = ?", req.BarbershopSlug).First(&shop).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return httperr.NotFoundErr("provider_not_found")
					}
					return err
				}
				user.ShopID = &shop.ID
			}
		}

		if err := tx.Create(&user).Error; err != nil {
			if httperr.IsUniqueViolation(err) {
				return httperr.Conflict("email_taken")
			}
			return err
		}
		return nil
	})
	if err != nil {
		var be httperr.BusinessError
		if !errors.As(err, &be) {
			h.log.Error("register failed", zap.String("email", user.Email), zap.Error(err))
			err = httperr.TransientStore("register_failed", err)
		}
		httperr.Respond(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, &user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, httperr.Validation("invalid_input"))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validators.Struct(req); err != nil {
		httperr.Respond(c, err)
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", req.Email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Respond(c, httperr.Authentication("invalid_credentials"))
			return
		}
		h.log.Error("login lookup failed", zap.Error(err))
		httperr.Internal(c, "internal_error", httperr.Message("internal_error"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Respond(c, httperr.Authentication("invalid_credentials"))
		return
	}

	h.respondWithToken(c, http.StatusOK, &user)
}

// --------- Helpers ---------

func createShop(tx *gorm.DB, req RegisterRequest) (*models.Barbershop, error) {
	if req.BarbershopSlug == "" {
		return nil, httperr.Validation("slug_required")
	}

	var count int64
	if err := tx.Model(&models.Barbershop{}).Where("slug = ?", req.BarbershopSlug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, httperr.Conflict("slug_taken")
	}

	tz := req.BarbershopTimezone
	if tz == "" {
		tz = timezone.Default()
	}
	if !timezone.IsValid(tz) {
		return nil, httperr.Validation("invalid_timezone")
	}

	shop := models.Barbershop{
		Name:     strings.TrimSpace(req.BarbershopName),
		Slug:     req.BarbershopSlug,
		Timezone: tz,
	}
	if err := tx.Create(&shop).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			return nil, httperr.Conflict("slug_taken")
		}
		return nil, err
	}
	return &shop, nil
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := middleware.SignToken(h.config.JWTSecret, identity.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		ShopID: user.ShopID,
	}, h.config.TokenTTL)
	if err != nil {
		h.log.Error("token signing failed", zap.Uint("user_id", user.ID), zap.Error(err))
		httperr.Internal(c, "internal_error", httperr.Message("internal_error"))
		return
	}

	c.JSON(status, gin.H{
		"user": gin.H{
			"id":      user.ID,
			"name":    user.Name,
			"email":   user.Email,
			"phone":   user.Phone,
			"role":    user.Role,
			"shop_id": user.ShopID,
		},
		"token": token,
	})
}
