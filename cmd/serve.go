package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/clinsight/clinsight/internal/api"
	"github.com/clinsight/clinsight/internal/ask"
	"github.com/clinsight/clinsight/internal/config"
	"github.com/clinsight/clinsight/internal/database"
	"github.com/clinsight/clinsight/internal/query"
	"github.com/clinsight/clinsight/internal/slackbot"
	"github.com/clinsight/clinsight/internal/translator"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the clinsight API server and Slack event listener",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}

			setupLogging(cfg.Log.Level)

			ctx := context.Background()

			pool, err := database.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			trans := translator.NewOpenAITranslator(cfg.OpenAI.Key, cfg.OpenAI.Model)
			svc := ask.NewService(trans, query.NewExecutor(pool))

			slackClient := slackbot.NewClient(cfg.Slack.Token)

			// Resolve the bot's own identity before the listener accepts
			// events. A failure here is logged, not fatal: the pipeline
			// works without it, only self-mention filtering degrades.
			botUserID := fetchIdentity(ctx, slackClient)

			events := slackbot.NewHandler(slackClient, svc, cfg.Slack.Secret, botUserID)

			server := api.NewServer(cfg.Server.Port, svc, events)
			return server.Start()
		},
	}
}

func fetchIdentity(ctx context.Context, client *slackbot.Client) string {
	authCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	botUserID, err := client.FetchBotUserID(authCtx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not resolve bot identity, continuing without it")
		return ""
	}
	log.Info().Str("bot_user_id", botUserID).Msg("Resolved bot identity")
	return botUserID
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
