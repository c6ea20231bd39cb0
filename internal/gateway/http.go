package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/translate"
	"github.com/gin-gonic/gin"
)

const ctxUserKey = "gateway.user"

type handlers struct {
	svc    *Service
	logger logging.Logger
}

// NewRouter builds the public HTTP surface.
func NewRouter(svc *Service, logger logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	h := &handlers{svc: svc, logger: logger.With("module", "http")}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.health)

	auth := r.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)

	r.GET("/me", h.requireAuth, h.me)

	users := r.Group("/users", h.requireAuth)
	users.GET("", h.listUsers)
	users.GET("/:id", h.getUser)
	users.PATCH("/:id", h.updateUser)
	users.DELETE("/:id", h.deleteUser)

	return r
}

// renderError funnels every failure through both translation directions, so
// the HTTP surface can only ever produce the fixed error categories.
func (h *handlers) renderError(c *gin.Context, err error) {
	env := translate.ToEnvelope(err, h.logger)
	status, body := translate.ToHTTP(env, h.logger)
	c.AbortWithStatusJSON(status, body)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) signup(c *gin.Context) {
	var req rpc.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, common.NewStatusError(http.StatusBadRequest, "Malformed request body"))
		return
	}

	session, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *handlers) login(c *gin.Context) {
	var creds rpc.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.renderError(c, common.NewStatusError(http.StatusBadRequest, "Malformed request body"))
		return
	}

	session, err := h.svc.Login(c.Request.Context(), creds)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// requireAuth resolves the bearer token into an account and stores it on
// the request context for the handlers behind it.
func (h *handlers) requireAuth(c *gin.Context) {
	tok, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		h.renderError(c, common.NewStatusError(http.StatusUnauthorized, "Missing authorization token"))
		return
	}

	user, err := h.svc.ResolveSession(c.Request.Context(), tok)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.Set(ctxUserKey, user)
	c.Next()
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

func (h *handlers) me(c *gin.Context) {
	user := c.MustGet(ctxUserKey).(*models.User)
	c.JSON(http.StatusOK, user)
}

func (h *handlers) listUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.svc.users.List(c.Request.Context(), page, limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) getUser(c *gin.Context) {
	user, err := h.svc.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) updateUser(c *gin.Context) {
	var req rpc.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, common.NewStatusError(http.StatusBadRequest, "Malformed request body"))
		return
	}
	req.ID = c.Param("id")

	user, err := h.svc.users.Update(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) deleteUser(c *gin.Context) {
	if err := h.svc.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
