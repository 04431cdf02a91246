package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/clinsight/clinsight/internal/render"
	"github.com/clinsight/clinsight/pkg/models"
)

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (models.ResultSet, error)
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// askHandler answers a question synchronously. On success the projected rows
// are returned as a JSON array; on any pipeline failure the caller gets an
// opaque 500 with no internal detail. The specifics stay in the logs.
func askHandler(svc Answerer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req AskRequest
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid request body")
		}

		rows, err := svc.Answer(c.Request().Context(), req.Question)
		if err != nil {
			log.Error().Err(err).Str("request_id", requestID(c)).Msg("Ask pipeline failed")
			return c.String(http.StatusInternalServerError, "internal server error")
		}

		result := render.Tabular(rows)
		if result == nil {
			result = models.ResultSet{}
		}
		return c.JSON(http.StatusOK, result)
	}
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
