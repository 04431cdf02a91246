package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeAppendsQuestionVerbatim(t *testing.T) {
	question := "average hemoglobin for clinic 3 last month"
	composed := Compose(question)

	assert.True(t, strings.HasPrefix(composed, Instructions))
	assert.True(t, strings.HasSuffix(composed, question))
	assert.Equal(t, Instructions+question, composed)
}

func TestComposeIsDeterministic(t *testing.T) {
	assert.Equal(t, Compose("same question"), Compose("same question"))
}

func TestComposeEmptyQuestion(t *testing.T) {
	assert.Equal(t, Instructions, Compose(""))
}

func TestInstructionsDescribeBothViews(t *testing.T) {
	assert.Contains(t, Instructions, "v_measurement_results")
	assert.Contains(t, Instructions, "v_patient_summary")
	assert.Contains(t, Instructions, "ILIKE")
	assert.Contains(t, Instructions, "ORDER BY")
}
