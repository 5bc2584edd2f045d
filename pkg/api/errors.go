package api

import (
	"fmt"
	"net/http"

	"cleanuri/pkg/errs"

	"github.com/gin-gonic/gin"
)

const problemContentType = "application/problem+json"

// follows RFC 7807: Problem Details for HTTP APIs
type ProblemDetails struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (pd *ProblemDetails) Error() string {
	return fmt.Sprintf("%d %s: %s", pd.Status, pd.Title, pd.Detail)
}

// StatusFor maps an error's code to the HTTP status reported for it.
func StatusFor(err error) int {
	switch errs.Code(err) {
	case errs.ErrInvalidArgument.Code, errs.ErrMissingValue.Code:
		return http.StatusBadRequest
	case errs.ErrNotFound.Code:
		return http.StatusNotFound
	case errs.ErrUnsupportedSite.Code:
		return http.StatusUnprocessableEntity
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func WriteProblem(c *gin.Context, status int, code, detail string) {
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, &ProblemDetails{
		Type:      "about:blank",
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Instance:  c.Request.URL.Path,
		Code:      code,
		RequestID: c.GetString(requestIDKey),
	})
}

// WriteError renders err as problem details and records it on the context
// so the request log carries it.
func WriteError(c *gin.Context, err error) {
	_ = c.Error(err)
	WriteProblem(c, StatusFor(err), errs.Code(err), err.Error())
}

func WriteBadRequest(c *gin.Context, detail string) {
	WriteProblem(c, http.StatusBadRequest, errs.ErrInvalidArgument.Code, detail)
}
