// Package ask wires the question-answering pipeline: compose a prompt,
// translate it to SQL, execute the SQL, hand back the rows.
package ask

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinsight/clinsight/internal/prompt"
	"github.com/clinsight/clinsight/internal/query"
	"github.com/clinsight/clinsight/internal/translator"
	"github.com/clinsight/clinsight/pkg/models"
)

// Service runs the pipeline. Stateless per invocation: no caching, no
// dedup of concurrent identical questions, no retries.
type Service struct {
	translator translator.Translator
	runner     query.Runner
}

// NewService builds the pipeline from its two external collaborators.
func NewService(t translator.Translator, r query.Runner) *Service {
	return &Service{translator: t, runner: r}
}

// Answer takes a raw question and returns the projected rows. Errors are
// typed by stage (translator.TranslationError, query.ExecutionError) and
// propagate untouched; the ingress layer decides how much detail to expose.
func (s *Service) Answer(ctx context.Context, question string) (models.ResultSet, error) {
	askID := uuid.NewString()
	logger := log.With().Str("ask_id", askID).Logger()
	logger.Info().Int("question_len", len(question)).Msg("Answering question")

	sql, err := s.translator.Translate(ctx, prompt.Compose(question))
	if err != nil {
		logger.Error().Err(err).Msg("Translation failed")
		return nil, err
	}

	rows, err := s.runner.Run(ctx, sql)
	if err != nil {
		logger.Error().Err(err).Msg("Execution failed")
		return nil, err
	}

	logger.Info().Int("rows", len(rows)).Msg("Question answered")
	return rows, nil
}
