package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsight/clinsight/pkg/models"
)

type stubAnswerer struct {
	gotQuestion string
	rows        models.ResultSet
	err         error
}

func (s *stubAnswerer) Answer(_ context.Context, question string) (models.ResultSet, error) {
	s.gotQuestion = question
	return s.rows, s.err
}

func postAsk(t *testing.T, svc Answerer, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.POST("/ask", askHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAskReturnsRowsAsJSONArray(t *testing.T) {
	svc := &stubAnswerer{rows: models.ResultSet{
		{
			{Name: "measurement", Value: models.TextValue("Hemoglobin")},
			{Name: "answer_value", Value: models.NumberValue(13.2)},
		},
	}}

	rec := postAsk(t, svc, `{"question":"latest hemoglobin"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "latest hemoglobin", svc.gotQuestion)
	assert.JSONEq(t, `[{"measurement":"Hemoglobin","answer_value":13.2}]`, rec.Body.String())
}

func TestAskEmptyResultIsEmptyArray(t *testing.T) {
	svc := &stubAnswerer{rows: nil}

	rec := postAsk(t, svc, `{"question":"anything"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// Pipeline failures surface as an opaque 500: no upstream detail reaches the
// caller.
func TestAskFailureIsOpaque500(t *testing.T) {
	svc := &stubAnswerer{err: errors.New("pq: column \"bogus\" does not exist")}

	rec := postAsk(t, svc, `{"question":"anything"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "bogus")
}

func TestAskRejectsMalformedBody(t *testing.T) {
	svc := &stubAnswerer{}

	rec := postAsk(t, svc, `{"question": 17`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })

	srv := NewServer(0, &stubAnswerer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	logged := buf.String()
	assert.Contains(t, logged, `"uri":"/health"`)
	assert.Contains(t, logged, `"method":"GET"`)
	assert.Contains(t, logged, `"status":200`)
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(0, &stubAnswerer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
