package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type ErrorBody struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

var (
	successResponse       = mustMarshal(Response{Success: true, Code: 200, Message: "Success"})
	internalErrorResponse = mustMarshal(Response{Success: false, Code: 500, Error: &ErrorBody{Code: "server_error", Detail: "Server error occurred"}})
)

func mustMarshal(v interface{}) []byte {
	b, _ := jsonAPI.Marshal(v)
	return b
}

func writeJSON(c *fiber.Ctx, httpCode int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(httpCode).Send(body)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	if data == nil && httpCode == 200 && message == "Success" {
		return writeJSON(c, httpCode, successResponse)
	}

	body, err := jsonAPI.Marshal(Response{
		Success: true,
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return writeJSON(c, fiber.StatusInternalServerError, internalErrorResponse)
	}
	return writeJSON(c, httpCode, body)
}

// ResponseError renders an AppError as the failure envelope. The wrapped
// cause never leaves the process.
func ResponseError(c *fiber.Ctx, appErr *AppError) error {
	body, err := jsonAPI.Marshal(Response{
		Success: false,
		Code:    appErr.StatusCode,
		Error: &ErrorBody{
			Code:   appErr.Code,
			Detail: appErr.Message,
		},
	})
	if err != nil {
		return writeJSON(c, fiber.StatusInternalServerError, internalErrorResponse)
	}
	return writeJSON(c, appErr.StatusCode, body)
}

func ResponseInternalError(c *fiber.Ctx) error {
	return writeJSON(c, fiber.StatusInternalServerError, internalErrorResponse)
}
