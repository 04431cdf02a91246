package slackbot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/clinsight/clinsight/internal/render"
	"github.com/clinsight/clinsight/pkg/models"
)

// NoDataMessage is posted when a question executes cleanly but matches
// nothing.
const NoDataMessage = "No data found for that question."

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (models.ResultSet, error)
}

// Handler processes Slack Events API deliveries. botUserID is resolved
// before construction and never mutated afterwards; handlers only read it.
type Handler struct {
	poster        Poster
	svc           Answerer
	signingSecret string
	botUserID     string
}

// NewHandler builds the event handler. botUserID may be empty when the
// startup identity fetch failed; self-mention filtering is skipped in that
// case.
func NewHandler(poster Poster, svc Answerer, signingSecret, botUserID string) *Handler {
	return &Handler{
		poster:        poster,
		svc:           svc,
		signingSecret: signingSecret,
		botUserID:     botUserID,
	}
}

// HandleEvent is the webhook endpoint. It verifies the request signature
// against the raw body, answers the Events API URL-verification handshake,
// and dispatches app_mention events. The mention pipeline runs in its own
// goroutine so the HTTP response stays inside Slack's delivery deadline.
func (h *Handler) HandleEvent(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	sv, err := slack.NewSecretsVerifier(c.Request().Header, h.signingSecret)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if _, err := sv.Write(body); err != nil {
		return c.NoContent(http.StatusInternalServerError)
	}
	if err := sv.Ensure(); err != nil {
		log.Warn().Err(err).Msg("Rejected event with bad signature")
		return c.NoContent(http.StatusUnauthorized)
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse event payload")
		return c.NoContent(http.StatusBadRequest)
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return c.NoContent(http.StatusBadRequest)
		}
		return c.String(http.StatusOK, challenge.Challenge)

	case slackevents.CallbackEvent:
		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			h.dispatchMention(mention)
		}
	}

	return c.NoContent(http.StatusOK)
}

func (h *Handler) dispatchMention(ev *slackevents.AppMentionEvent) {
	// A bot mentioning itself must not trigger another answer.
	if ev.BotID != "" || (h.botUserID != "" && ev.User == h.botUserID) {
		return
	}
	go h.handleMention(context.Background(), ev.Channel, ev.Text)
}

// handleMention runs the pipeline for one mention and posts the outcome.
// Pipeline and render failures are logged and suppressed: internal errors
// never land in a shared channel. Only "no data" and real answers post.
func (h *Handler) handleMention(ctx context.Context, channelID, text string) {
	question := h.stripMention(text)

	rows, err := h.svc.Answer(ctx, question)
	if err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("Mention pipeline failed")
		return
	}

	blocks, err := render.BlockMessage(rows)
	switch {
	case errors.Is(err, render.ErrNoData):
		if err := h.poster.PostText(ctx, channelID, NoDataMessage); err != nil {
			log.Error().Err(err).Str("channel", channelID).Msg("Failed to post no-data notice")
		}
	case err != nil:
		log.Error().Err(err).Str("channel", channelID).Msg("Failed to render answer")
	default:
		if err := h.poster.PostBlocks(ctx, channelID, blocks); err != nil {
			log.Error().Err(err).Str("channel", channelID).Msg("Failed to post answer")
		}
	}
}

// stripMention removes the bot's own mention token from the message so the
// pipeline sees just the question.
func (h *Handler) stripMention(text string) string {
	if h.botUserID == "" {
		return strings.TrimSpace(text)
	}
	cleaned := strings.ReplaceAll(text, "<@"+h.botUserID+">", "")
	return strings.TrimSpace(cleaned)
}
