package helpers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// Response is the envelope every endpoint answers with: a result code, its
// message, and the payload on success.
type Response struct {
	ResultCode int    `json:"rtncd"`
	Message    string `json:"rtnmsg"`
	Payload    any    `json:"response,omitempty"`
}

// Respond writes a success envelope.
func Respond(c *gin.Context, status int, payload any) {
	c.JSON(status, Response{
		ResultCode: int(resultcode.Success),
		Message:    resultcode.Success.Message(),
		Payload:    payload,
	})
}

// RespondWithError logs err at its attached severity and writes the error
// envelope with the matching HTTP status.
func RespondWithError(c *gin.Context, err error) {
	code := resultcode.CodeOf(err)
	slog.Log(c.Request.Context(), resultcode.SeverityOf(err),
		"request failed", "path", c.FullPath(), "code", int(code), "error", err)

	c.JSON(httpStatusFor(code), Response{
		ResultCode: int(code),
		Message:    err.Error(),
	})
}

// RespondWithParameterError is the shorthand for request-shape failures
// caught at the binding layer.
func RespondWithParameterError(c *gin.Context, message string) {
	RespondWithError(c, resultcode.Newf(resultcode.ErrorParameterNotExists, slog.LevelWarn, message))
}

func httpStatusFor(code resultcode.Code) int {
	switch code {
	case resultcode.ErrorParameterNotExists,
		resultcode.ErrorParameterType,
		resultcode.ErrorParameterJSONParsing:
		return http.StatusBadRequest
	case resultcode.ErrorAccessDenied:
		return http.StatusForbidden
	case resultcode.ErrorUserNotExists,
		resultcode.ErrorItemNotExists,
		resultcode.ErrorPGCodeNotExists,
		resultcode.ErrorPGNotExists,
		resultcode.ErrorPaymentNotExists,
		resultcode.ErrorPackageNotExists,
		resultcode.ErrorBundleNotExists:
		return http.StatusNotFound
	case resultcode.ErrorPGCodeAlreadyExists,
		resultcode.ErrorPGAlreadyExists,
		resultcode.ErrorPaymentAlreadyExists,
		resultcode.ErrorPackageAlreadyExists,
		resultcode.ErrorBundleAlreadyExists,
		resultcode.ErrorNothingToModify,
		resultcode.ErrorBundleNotPaid,
		resultcode.ErrorBundleAlreadyPaid,
		resultcode.ErrorBundleCanceled,
		resultcode.ErrorBundleAmountMismatch:
		return http.StatusConflict
	case resultcode.ErrorTransactionLimitExceeded,
		resultcode.ErrorDailyLimitExceeded,
		resultcode.ErrorMonthlyLimitExceeded:
		return http.StatusUnprocessableEntity
	case resultcode.ErrorGatewayDeclined:
		return http.StatusPaymentRequired
	case resultcode.ErrorUserConnection,
		resultcode.ErrorUserResponse,
		resultcode.ErrorItemConnection,
		resultcode.ErrorItemResponse,
		resultcode.ErrorGatewayConnection,
		resultcode.ErrorGatewayUnknownOutcome:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
