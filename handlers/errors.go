package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"streamgate/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxJSONBody = 1 << 20

var errInvalidBody = apperr.New(apperr.KindValidation, "invalid request body")

// respondError writes {"error": message} with the status of err's kind.
// Causes outside the taxonomy are logged and replaced by a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// bindJSON decodes the body into v, rejecting unknown fields and trailing
// data, then runs gin's binding validation.
func bindJSON(c *gin.Context, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBody))
	if err != nil {
		return errInvalidBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errInvalidBody
	}

	if err := binding.Validator.ValidateStruct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errInvalidBody
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperr.Validation("%s is required", field)
	case "email":
		return apperr.Validation("invalid email address")
	case "max":
		return apperr.Validation("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return apperr.Validation("%s must be at least %s", field, fe.Param())
	}
	return apperr.Validation("%s is invalid", field)
}
