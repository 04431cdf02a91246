package ask

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsight/clinsight/internal/prompt"
	"github.com/clinsight/clinsight/internal/query"
	"github.com/clinsight/clinsight/internal/render"
	"github.com/clinsight/clinsight/internal/translator"
	"github.com/clinsight/clinsight/pkg/models"
)

type fakeTranslator struct {
	gotPrompt string
	sql       string
	err       error
}

func (f *fakeTranslator) Translate(_ context.Context, p string) (string, error) {
	f.gotPrompt = p
	return f.sql, f.err
}

type fakeRunner struct {
	gotSQL string
	calls  int
	rows   models.ResultSet
	err    error
}

func (f *fakeRunner) Run(_ context.Context, sql string) (models.ResultSet, error) {
	f.calls++
	f.gotSQL = sql
	return f.rows, f.err
}

func TestAnswerPassesComposedPromptAndGeneratedSQL(t *testing.T) {
	tr := &fakeTranslator{sql: "SELECT 1 ORDER BY 1"}
	rn := &fakeRunner{rows: models.ResultSet{}}
	svc := NewService(tr, rn)

	_, err := svc.Answer(context.Background(), "how many patients enrolled")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tr.gotPrompt, prompt.Instructions))
	assert.True(t, strings.HasSuffix(tr.gotPrompt, "how many patients enrolled"))
	assert.Equal(t, "SELECT 1 ORDER BY 1", rn.gotSQL)
}

func TestAnswerTranslationFailureSkipsExecution(t *testing.T) {
	tr := &fakeTranslator{err: &translator.TranslationError{Err: errors.New("upstream 500")}}
	rn := &fakeRunner{}
	svc := NewService(tr, rn)

	_, err := svc.Answer(context.Background(), "anything")
	require.Error(t, err)

	var transErr *translator.TranslationError
	assert.True(t, errors.As(err, &transErr))
	assert.Zero(t, rn.calls, "executor must not run after a translation failure")
}

func TestAnswerExecutionFailurePropagates(t *testing.T) {
	tr := &fakeTranslator{sql: "SELEKT broken"}
	rn := &fakeRunner{err: &query.ExecutionError{SQL: "SELEKT broken", Err: errors.New("syntax error")}}
	svc := NewService(tr, rn)

	_, err := svc.Answer(context.Background(), "anything")
	require.Error(t, err)

	var execErr *query.ExecutionError
	assert.True(t, errors.As(err, &execErr))
}

// End to end with mocked collaborators: two measurement rows flow through the
// pipeline and both renderers.
func TestAnswerEndToEnd(t *testing.T) {
	ts := time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC)
	rows := models.ResultSet{
		models.Row{
			{Name: "measurement", Value: models.TextValue("Hemoglobin")},
			{Name: "answer_value", Value: models.NumberValue(13.2)},
			{Name: "evaluation_date_time", Value: models.TimestampValue(ts)},
		},
		models.Row{
			{Name: "measurement", Value: models.TextValue("Hemoglobin")},
			{Name: "answer_value", Value: models.NumberValue(12.8)},
			{Name: "evaluation_date_time", Value: models.TimestampValue(ts.Add(24 * time.Hour))},
		},
	}
	tr := &fakeTranslator{sql: "SELECT measurement, answer_value, evaluation_date_time FROM v_measurement_results ORDER BY evaluation_date_time"}
	rn := &fakeRunner{rows: rows}
	svc := NewService(tr, rn)

	got, err := svc.Answer(context.Background(), "average hemoglobin for clinic 3 last month")
	require.NoError(t, err)

	assert.Equal(t, rows, render.Tabular(got))

	blocks, err := render.BlockMessage(got)
	require.NoError(t, err)
	assert.Len(t, blocks, 3, "two sections separated by one divider")
}
