package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
)

const (
  CodeInvalidRequest   = "invalid_request"
  CodeInvalidUser      = "invalid_user"
  CodeNotFound         = "not_found"
  CodeNoContent        = "no_content"
  CodeGenerationFailed = "generation_failed"
  CodeInternalError    = "internal_error"
)

type APIError struct {
  Message     string	`json:"message"`
  Code	      string	`json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error	      APIError	`json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
  c.JSON(http.StatusAccepted, payload)
}
