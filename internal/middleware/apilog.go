package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agendalink/gateway/internal/model"
	apilogService "github.com/agendalink/gateway/internal/service/apilog"
	"github.com/agendalink/gateway/pkg/errors"
)

const (
	contextOperation = "gateway_operation"
	contextClient    = "gateway_client"

	bodySnippetLimit = 2048
)

// Operation tags the route with the gateway operation name the request
// log records.
func Operation(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextOperation, name)
		c.Next()
	}
}

// SetClient stashes the resolved client so the request-log middleware
// can attribute the call.
func SetClient(c *gin.Context, client *model.Client) {
	c.Set(contextClient, client)
}

type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// APILog records every gateway call as an append-only audit entry.
// Requests that never resolve a client (bad id, unknown client) are
// not recorded.
func APILog(logs apilogService.Servicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		writer := &bodyCapture{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		value, ok := c.Get(contextClient)
		if !ok {
			return
		}
		client := value.(*model.Client)

		status := c.Writer.Status()
		entry := &model.APILog{
			ClientID:        client.ID,
			IntegrationType: primaryIntegrationType(client),
			Operation:       c.GetString(contextOperation),
			Method:          c.Request.Method,
			Path:            c.Request.URL.Path,
			StatusCode:      status,
			DurationMs:      time.Since(start).Milliseconds(),
			Success:         status < 400,
			RequestBody:     snippet(requestBody),
			ResponseBody:    snippet(writer.body.Bytes()),
		}
		if len(c.Errors) > 0 {
			entry.ErrorKind = errors.KindOf(c.Errors.Last().Err).String()
		}
		logs.Record(c.Request.Context(), entry)
	}
}

func primaryIntegrationType(client *model.Client) model.IntegrationType {
	if client.IsLegacy() {
		return model.TypeDentalink
	}
	for _, ci := range client.EnabledIntegrations() {
		if ci.Role != model.RoleSecondary {
			return ci.IntegrationType
		}
	}
	return ""
}

func snippet(b []byte) string {
	if len(b) > bodySnippetLimit {
		b = b[:bodySnippetLimit]
	}
	return string(b)
}
