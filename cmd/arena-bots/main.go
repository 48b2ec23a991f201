// Command arena-bots connects headless players to an arena server. Each bot
// joins the game, steers with a simple strategy and chats now and then,
// which exercises the input throttle, the snapshot stream and the shared
// chat history under load.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	clientchat "github.com/wricardo/arena-io/client/chat"
	"github.com/wricardo/arena-io/client/network"
	"github.com/wricardo/arena-io/client/state"
	"github.com/wricardo/arena-io/protocol"
)

const (
	steerInterval  = 50 * time.Millisecond
	respawnDelay   = time.Second
	resendInterval = 500 * time.Millisecond
)

var phrases = []string{
	"gg",
	"anyone here?",
	"nice shot",
	"watch the walls",
	"brb",
	"that was close",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("arena bots failed")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "arena-bots",
		Usage: "Run headless bots against an arena server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "ws://localhost:8080/ws",
				Usage:   "Server websocket URL",
				Sources: cli.EnvVars("ARENA_SERVER_URL"),
			},
			&cli.IntFlag{
				Name:  "count",
				Value: 5,
				Usage: "Number of bots",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Value: time.Minute,
				Usage: "How long to run (0 runs until interrupted)",
			},
			&cli.DurationFlag{
				Name:  "chat-interval",
				Value: 5 * time.Second,
				Usage: "Average time between chat messages per bot (0 disables chat)",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Value: "hunter",
				Usage: "Steering strategy: hunter or wander",
			},
			&cli.FloatFlag{
				Name:  "map-size",
				Value: 3000,
				Usage: "Map size of the arena the bots join",
			},
			&cli.BoolFlag{
				Name:  "v",
				Usage: "Verbose output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
			return ctx, nil
		},
		Action: run,
	}
}

// stats are shared by every bot.
type stats struct {
	connected atomic.Int64
	updates   atomic.Int64
	deaths    atomic.Int64
	chatSent  atomic.Int64
	resent    atomic.Int64
}

type botOptions struct {
	URL          string
	Strategy     Strategy
	ChatInterval time.Duration
}

type bot struct {
	name     string
	opts     botOptions
	stats    *stats
	store    *state.Store
	chat     *clientchat.Log
	composer *clientchat.Composer
	mgr      *network.Manager
}

func newBot(opts botOptions, st *stats) *bot {
	b := &bot{
		name:     "bot-" + uuid.NewString()[:8],
		opts:     opts,
		stats:    st,
		store:    state.NewStore(),
		chat:     clientchat.NewLog(),
		composer: clientchat.NewComposer(0),
	}
	b.mgr = network.NewManager(network.Options{
		URL:       opts.URL,
		Snapshots: b.store,
		Chat:      b.chat,
		Acker:     b.composer,
	})
	return b
}

func (b *bot) run(ctx context.Context) error {
	if err := b.mgr.Dial(ctx); err != nil {
		return err
	}
	defer b.mgr.Close()

	respawn := make(chan struct{}, 1)
	err := b.mgr.Connect(ctx, func(over protocol.GameOver) {
		b.stats.deaths.Add(1)
		log.Debug().Str("bot", b.name).Int("score", over.Score).Msg("Bot died")
		select {
		case respawn <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	b.stats.connected.Add(1)
	b.mgr.JoinGame(b.name)

	steer := time.NewTicker(steerInterval)
	defer steer.Stop()
	resend := time.NewTicker(resendInterval)
	defer resend.Stop()

	var chatC <-chan time.Time
	if b.opts.ChatInterval > 0 {
		chatC = time.After(jitter(b.opts.ChatInterval))
	}

	var lastT int64 = -1
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.mgr.Done():
			return network.ErrNotConnected
		case <-respawn:
			go func() {
				select {
				case <-time.After(respawnDelay):
					b.mgr.JoinGame(b.name)
				case <-ctx.Done():
				}
			}()
		case now := <-steer.C:
			snap := b.store.Current()
			if snap != nil && snap.T != lastT {
				lastT = snap.T
				b.stats.updates.Add(1)
			}
			if dir, ok := b.opts.Strategy.Next(snap, now); ok {
				b.mgr.SendInput(dir)
			}
		case now := <-resend.C:
			for _, sub := range b.composer.Due(now) {
				b.stats.resent.Add(1)
				b.mgr.SendChat(sub)
			}
		case <-chatC:
			sub := b.composer.Compose(phrases[rand.IntN(len(phrases))], b.name)
			b.composer.Track(sub)
			b.mgr.SendChat(sub)
			b.stats.chatSent.Add(1)
			chatC = time.After(jitter(b.opts.ChatInterval))
		}
	}
}

// jitter spreads d by up to half in either direction.
func jitter(d time.Duration) time.Duration {
	return d/2 + time.Duration(rand.Int64N(int64(d)+1))
}

func run(ctx context.Context, cmd *cli.Command) error {
	count := cmd.Int("count")
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	if d := cmd.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	opts := botOptions{
		URL:          cmd.String("url"),
		Strategy:     newStrategy(cmd.String("strategy"), cmd.Float("map-size")),
		ChatInterval: cmd.Duration("chat-interval"),
	}
	log.Info().Str("url", opts.URL).Int("count", count).Msg("Starting bots")

	var st stats
	var failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		b := newBot(opts, &st)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.run(ctx); err != nil {
				failed.Add(1)
				log.Warn().Err(err).Str("bot", b.name).Msg("Bot stopped")
			}
		}()
	}
	wg.Wait()

	log.Info().
		Int64("connected", st.connected.Load()).
		Int64("failed", failed.Load()).
		Int64("updates", st.updates.Load()).
		Int64("deaths", st.deaths.Load()).
		Int64("chat_sent", st.chatSent.Load()).
		Int64("chat_resent", st.resent.Load()).
		Msg("Bots finished")

	if failed.Load() == int64(count) {
		return fmt.Errorf("all %d bots failed", count)
	}
	return nil
}
