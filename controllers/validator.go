package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
)

// Validation constants
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 1000000
	MaxPopularLimit = 10
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by the request
// models ("phone", "slugname", "clock") and reports field errors by their json name.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return models.ValidPhone(fl.Field().String())
		}); err != nil {
			return
		}
		if err = v.RegisterValidation("slugname", func(fl validator.FieldLevel) bool {
			return models.Slugify(fl.Field().String()) != ""
		}); err != nil {
			return
		}
		err = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			return models.ValidClock(fl.Field().String())
		})
	})
	return err
}

// RequestValidator handles query and path parameter parsing
type RequestValidator struct{}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{}
}

// ParsePagination validates and parses pagination parameters
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, apperrors.Validation("Invalid page number")
	}
	if page > MaxPageNumber {
		page = MaxPageNumber
	}

	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(DefaultPageSize)))
	if err != nil || perPage < 1 {
		return 0, 0, apperrors.Validation("Invalid page size")
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}
	return page, perPage, nil
}

// ParseDishFilter reads the dish listing filters: category, search,
// is_vegetarian, is_spicy and ordering.
func (rv *RequestValidator) ParseDishFilter(c *gin.Context) (models.DishFilter, error) {
	var filter models.DishFilter
	var err error

	if filter.Page, filter.PerPage, err = rv.ParsePagination(c); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apperrors.Validation("Invalid category ID format")
		}
		filter.CategoryID = &id
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if filter.IsVegetarian, err = parseBool(c, "is_vegetarian"); err != nil {
		return filter, err
	}
	if filter.IsSpicy, err = parseBool(c, "is_spicy"); err != nil {
		return filter, err
	}
	filter.Ordering = strings.TrimSpace(c.Query("ordering"))
	return filter, nil
}

// ParseLimit reads ?limit= for the popular dishes listing.
func (rv *RequestValidator) ParseLimit(c *gin.Context) (int, error) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(MaxPopularLimit)))
	if err != nil || limit < 1 {
		return 0, apperrors.Validation("Invalid limit")
	}
	if limit > MaxPopularLimit {
		limit = MaxPopularLimit
	}
	return limit, nil
}

// ParseID parses a uuid path parameter.
func (rv *RequestValidator) ParseID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, apperrors.Validation(fmt.Sprintf("Invalid %s format", strings.ReplaceAll(param, "_", " ")))
	}
	return id, nil
}

func parseBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("invalid boolean value for '%s'", key))
	}
	return &v, nil
}

// bindError turns a binding failure into a validation error listing the
// offending fields.
func bindError(err error) *apperrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("Invalid request body")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe.Namespace())] = fe.Tag()
	}
	return apperrors.Validation("Validation failed").With("fields", fields)
}

func fieldName(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.ToLower(namespace)
}
