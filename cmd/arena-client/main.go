// Command arena-client is the desktop client for the arena server.
//
// Settings are read from a TOML file (default client.toml, optional) and
// can be overridden by ARENA_SERVER_URL and ARENA_USERNAME or by flags.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/arena-io/client"
	"github.com/wricardo/arena-io/client/ebitenui"
	"github.com/wricardo/arena-io/client/render"
)

const Version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("arena client failed")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "arena-client",
		Usage:   "Desktop client for the arena server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "settings",
				Value: "client.toml",
				Usage: "Settings file (missing file means defaults)",
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "Server websocket URL, e.g. ws://localhost:8080/ws",
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Name to play and chat as",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.Bool("debug"), os.Stderr)
			return ctx, nil
		},
		Action: run,
	}
}

func setupLogging(debug bool, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Caller().Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

// loadSettings merges the settings file with flag overrides.
func loadSettings(cmd *cli.Command) (client.Settings, error) {
	settings, err := client.LoadSettings(cmd.String("settings"))
	if err != nil {
		return client.Settings{}, err
	}
	if v := cmd.String("server"); v != "" {
		settings.ServerURL = v
	}
	if v := cmd.String("username"); v != "" {
		settings.Username = v
	}
	return settings, settings.Validate()
}

func run(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	w, h := render.SurfaceSize(settings.WindowWidth, settings.WindowHeight)
	frames := render.NewFrameQueue()
	canvas := ebitenui.NewCanvas(w, h, ebitenui.NewAssets())
	app := client.NewApp(settings, canvas, frames)
	defer app.Close()

	game := ebitenui.NewGame(ctx, app, frames, canvas)
	defer game.Close()

	go func() {
		if err := app.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Could not connect; press R to retry")
		}
	}()

	ebiten.SetWindowSize(settings.WindowWidth, settings.WindowHeight)
	ebiten.SetWindowTitle("Arena")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Info().
		Str("server", settings.ServerURL).
		Str("username", settings.Username).
		Msg("Starting arena client")

	return ebiten.RunGame(&quitOnCancel{Game: game, ctx: ctx})
}

// quitOnCancel ends the ebiten loop when ctx is cancelled.
type quitOnCancel struct {
	*ebitenui.Game
	ctx context.Context
}

func (q *quitOnCancel) Update() error {
	if q.ctx.Err() != nil {
		return ebiten.Termination
	}
	return q.Game.Update()
}
