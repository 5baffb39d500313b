package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/kumarchinmay0704/lostfound/internal/cache"
	"github.com/kumarchinmay0704/lostfound/internal/lostfound"
	"github.com/kumarchinmay0704/lostfound/internal/upload"
)

var submissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lostfound_submissions_total",
	Help: "Item submission attempts by outcome.",
}, []string{"outcome"})

// Handler serves the REST API.
type Handler struct {
	svc         *lostfound.Service
	uploads     *upload.Saver
	pages       *cache.ItemPages
	log         *logrus.Logger
	listDefault int
	listMax     int
}

// New builds a handler. pages may be nil when redis is not configured.
func New(svc *lostfound.Service, uploads *upload.Saver, pages *cache.ItemPages, log *logrus.Logger, listDefault, listMax int) *Handler {
	if listDefault <= 0 {
		listDefault = 50
	}
	if listMax < listDefault {
		listMax = listDefault
	}
	return &Handler{svc: svc, uploads: uploads, pages: pages, log: log,
		listDefault: listDefault, listMax: listMax}
}

// ---------- Register / Login ----------

type registerRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Year     string `json:"year"`
	Branch   string `json:"branch"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user := lostfound.User{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Year:     req.Year,
		Branch:   req.Branch,
	}
	if _, err := h.svc.Register(c.Request.Context(), user, req.Password); err != nil {
		if errors.Is(err, lostfound.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email already registered"})
			return
		}
		h.log.WithError(err).Error("registering user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while registering user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Registration successful!"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, lostfound.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
			return
		}
		h.log.WithError(err).Error("logging in user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while logging in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful!", "user": user})
}

// ---------- Items ----------

// SubmitItem accepts a multipart report with zero or more files under the
// "images" field. Files are staged first and only committed once the
// duplicate and opposite-match checks pass, so a rejected submission
// leaves nothing on disk.
func (h *Handler) SubmitItem(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "multipart form expected"})
		return
	}

	staged, err := h.uploads.Stage("images", form.File["images"])
	if err != nil {
		h.log.WithError(err).Error("staging uploads")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while saving images"})
		return
	}

	item := lostfound.Item{
		Status:      c.PostForm("status"),
		Name:        c.PostForm("name"),
		Email:       c.PostForm("email"),
		ContactNo:   c.PostForm("contactNo"),
		ItemType:    c.PostForm("item"),
		Location:    c.PostForm("location"),
		Date:        c.PostForm("date"),
		Description: c.PostForm("description"),
		Images:      staged.Names(),
	}

	res, err := h.svc.Submit(c.Request.Context(), item)
	if err != nil {
		staged.Discard()
		if errors.Is(err, lostfound.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		h.log.WithError(err).Error("submitting item")
		submissions.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while registering item"})
		return
	}

	switch res.Outcome {
	case lostfound.OutcomeDuplicate:
		staged.Discard()
		submissions.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Similar item already exists"})

	case lostfound.OutcomeMatch:
		staged.Discard()
		submissions.WithLabelValues("match").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"success":       false,
			"message":       "We have a match",
			"matchingItems": res.Matches,
		})

	default:
		if err := staged.Commit(); err != nil {
			h.log.WithError(err).Error("committing uploads")
		}
		h.pages.Invalidate(c.Request.Context())
		submissions.WithLabelValues("created").Inc()
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Item registered successfully!",
			"itemId":  res.Item.ID,
		})
	}
}

func (h *Handler) MatchingItems(c *gin.Context) {
	items, err := h.svc.Matches(c.Request.Context(), c.Query("item"), c.Query("description"), c.Query("status"))
	if err != nil {
		if errors.Is(err, lostfound.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		h.log.WithError(err).Error("finding matching items")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while retrieving matching items"})
		return
	}
	if items == nil {
		items = []lostfound.Item{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
}

func (h *Handler) ListItems(c *gin.Context) {
	limit := h.listDefault
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > h.listMax {
		limit = h.listMax
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	if items, ok := h.pages.Get(c.Request.Context(), limit, offset); ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
		return
	}

	items, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.WithError(err).Error("listing items")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while retrieving items"})
		return
	}
	if items == nil {
		items = []lostfound.Item{}
	}
	h.pages.Set(c.Request.Context(), limit, offset, items)

	c.JSON(http.StatusOK, gin.H{"success": true, "items": items})
}

func (h *Handler) MarkClaimed(c *gin.Context) {
	err := h.svc.Claim(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		if errors.Is(err, lostfound.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Item not found or already marked as claimed"})
			return
		}
		h.log.WithError(err).Error("claiming item")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while marking item as claimed"})
		return
	}

	h.pages.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item marked as claimed and deleted successfully"})
}

// ---------- Contact ----------

type contactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
	Desc  string `json:"desc"`
}

func (h *Handler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	msg := lostfound.ContactMessage{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Description: req.Desc,
	}
	if _, err := h.svc.Contact(c.Request.Context(), msg); err != nil {
		h.log.WithError(err).Error("storing contact message")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "An error occurred while storing contact information"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Contact information stored successfully!"})
}
