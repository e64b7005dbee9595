package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/response"
	domain "user-service/internal/domain/user"
	"user-service/internal/usecase/user"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/i18n"
	"user-service/pkg/logger"
)

// HealthBanner is the body of GET /health.
const HealthBanner = `
  ██████╗ ██╗  ██╗
 ██╔═══██╗██║ ██╔╝
 ██║   ██║█████╔╝
 ██║   ██║██╔═██╗
 ╚██████╔╝██║  ██╗
  ╚═════╝ ╚═╝  ╚═╝
`

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest is the POST /api/users body. Field rules live in the
// domain constructor, so the request carries no binding tags.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toResponse(u user.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Health handles GET /health
func (h *UserHandler) Health(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(HealthBanner))
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid create user body", zap.Error(err))
		response.Error(c, http.StatusBadRequest, response.CodeValidation, i18n.MsgInvalidBody)
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(*resp))
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(*resp))
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toResponse(u)
	}
	c.JSON(http.StatusOK, out)
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
	c.Writer.WriteHeaderNow()
}

func (h *UserHandler) parseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", raw))
		response.Error(c, http.StatusBadRequest, response.CodeValidation, i18n.MsgInvalidID)
		return 0, false
	}
	return id, true
}

// handleError maps application error kinds onto status codes. Database
// failures and unknown errors never leak their cause.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.WithContext(c.Request.Context(), h.log).Error("unclassified error", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, i18n.MsgInternalError)
		return
	}

	switch appErr.Kind {
	case apperrors.KindDomain:
		response.Error(c, http.StatusBadRequest, response.CodeValidation, validationMessage(appErr))
	case apperrors.KindNotFound:
		response.Error(c, http.StatusNotFound, response.CodeNotFound, i18n.MsgNotFound)
	case apperrors.KindDatabase:
		response.Error(c, http.StatusInternalServerError, response.CodeDatabase, i18n.MsgDatabaseError)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, i18n.MsgInternalError)
	}
}

// validationMessages maps domain validation failures to catalog keys.
var validationMessages = map[error]string{
	domain.ErrInvalidName:  i18n.MsgInvalidName,
	domain.ErrInvalidEmail: i18n.MsgInvalidEmail,
}

func validationMessage(appErr *apperrors.AppError) string {
	for sentinel, key := range validationMessages {
		if errors.Is(appErr, sentinel) {
			return key
		}
	}
	return appErr.Message
}
