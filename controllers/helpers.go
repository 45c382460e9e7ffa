package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/dto"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/middleware"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/services"
	"github.com/Avhad-Enterprises/mmv-freelance-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var queryLimits = utils.DefaultQueryLimits

// SetQueryLimits configures the default and maximum page size of every list endpoint.
func SetQueryLimits(l utils.QueryLimits) {
	if l.Default > 0 && l.Max >= l.Default {
		queryLimits = l
	}
}

func pagination(c *gin.Context) utils.Pagination {
	return utils.ParsePagination(c.Query("page"), c.Query("limit"), queryLimits)
}

func listResponse[T any](c *gin.Context, items []T, p utils.Pagination, total int64) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"page":  p.Page,
		"limit": p.Limit,
		"total": total,
	})
}

func paramID(c *gin.Context, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return bson.ObjectID{}, false
	}
	return id, true
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return services.Actor{}, false
	}
	return services.Actor{ID: identity.UserID, Role: identity.Role}, true
}

// optionalActor is for public routes behind OptionalAuth.
func optionalActor(c *gin.Context) *services.Actor {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return nil
	}
	return &services.Actor{ID: identity.UserID, Role: identity.Role}
}

// badRequest reports binding failures, listing the failed rule per field when the
// validator produced them.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Namespace()] = rule
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

// bindData decodes the JSON "data" field of a multipart request.
func bindData(c *gin.Context, out any) bool {
	if err := dto.DecodeData(c.PostForm("data"), out); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func validateUpload(c *gin.Context, v *utils.FileValidator, fh *multipart.FileHeader) (services.Upload, bool) {
	contentType, err := v.ValidateFile(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "file": fh.Filename})
		return services.Upload{}, false
	}
	return services.Upload{File: fh, ContentType: contentType}, true
}

// optionalFile returns nil when the field is absent.
func optionalFile(c *gin.Context, v *utils.FileValidator, field string) (*services.Upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return nil, true
	}
	up, ok := validateUpload(c, v, fh)
	if !ok {
		return nil, false
	}
	return &up, true
}

func formFiles(c *gin.Context, v *utils.FileValidator, field string) ([]services.Upload, bool) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, true
	}
	out := make([]services.Upload, 0, len(form.File[field]))
	for _, fh := range form.File[field] {
		up, ok := validateUpload(c, v, fh)
		if !ok {
			return nil, false
		}
		out = append(out, up)
	}
	return out, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// respondError maps service errors to status codes. Anything unrecognised is recorded on the
// context for the access log and hidden from the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTOTPRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "totpRequired": true})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTooManyRequests):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindWithAttachments accepts either a JSON body or a multipart form carrying a "data" JSON
// field plus "attachments" files.
func bindWithAttachments(c *gin.Context, v *utils.FileValidator, out any) ([]services.Upload, bool) {
	if !isMultipart(c) {
		return nil, bindJSON(c, out)
	}
	if !bindData(c, out) {
		return nil, false
	}
	return formFiles(c, v, "attachments")
}
