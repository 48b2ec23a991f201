package ebitenui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/client"
	"github.com/wricardo/arena-io/client/network"
	"github.com/wricardo/arena-io/client/render"
	"github.com/wricardo/arena-io/protocol"
)

const (
	chatLines      = 8
	lineHeight     = 16
	maxDraftRunes  = 100
	resendInterval = 500 * time.Millisecond
)

var panelColor = color.RGBA{0, 0, 0, 160}

// Game is the ebiten.Game for the arena client. The render loop paints an
// offscreen canvas; Draw copies it to the screen and adds the HUD on top.
type Game struct {
	ctx    context.Context
	app    *client.App
	frames *render.FrameQueue
	canvas *Canvas
	resize *render.Debouncer[image.Point]

	mu          sync.Mutex
	requested   image.Point
	pendingSize *image.Point
	status      string

	chatOpen   bool
	draft      []rune
	lastCursor image.Point
	nextResend time.Time
}

// NewGame wires an App to the window. frames and canvas must be the
// scheduler and surface the App was built with.
func NewGame(ctx context.Context, app *client.App, frames *render.FrameQueue, canvas *Canvas) *Game {
	g := &Game{
		ctx:    ctx,
		app:    app,
		frames: frames,
		canvas: canvas,
	}
	g.resize = render.NewDebouncer(render.ResizeDebounce, func(size image.Point) {
		g.mu.Lock()
		g.pendingSize = &size
		g.mu.Unlock()
	})
	app.OnGameOver(func(over protocol.GameOver) {
		g.setStatus(fmt.Sprintf("You died: %s (score %d). Press ENTER to play again.", over.Reason, over.Score))
	})
	return g
}

func (g *Game) setStatus(s string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = s
}

func (g *Game) statusLine() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Update handles input. It runs on the game goroutine before Draw.
func (g *Game) Update() error {
	g.applyResize()

	now := time.Now()
	if now.After(g.nextResend) {
		g.app.ResendDue(now)
		g.nextResend = now.Add(resendInterval)
	}

	if g.chatOpen {
		g.updateChat()
		return nil
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
		g.play()
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		g.chatOpen = true
		g.draft = g.draft[:0]
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if g.app.State() == network.Disconnected {
			g.reconnect()
		}
	}

	if g.app.Playing() {
		g.steer()
	}
	return nil
}

func (g *Game) applyResize() {
	g.mu.Lock()
	size := g.pendingSize
	g.pendingSize = nil
	g.mu.Unlock()

	if size != nil {
		g.canvas.Resize(size.X, size.Y)
		log.Debug().Int("width", size.X).Int("height", size.Y).Msg("Canvas resized")
	}
}

func (g *Game) play() {
	err := g.app.Play("")
	switch {
	case err == nil:
		g.setStatus("")
	case errors.Is(err, client.ErrNoUsername):
		g.setStatus("Set a username with --username or ARENA_USERNAME.")
	case errors.Is(err, network.ErrNotConnected):
		g.setStatus("Not connected. Press R to reconnect.")
	default:
		g.setStatus(err.Error())
	}
}

func (g *Game) reconnect() {
	g.setStatus("Reconnecting...")
	go func() {
		if err := g.app.Reconnect(g.ctx); err != nil {
			g.setStatus("Connection failed. Press R to retry.")
			return
		}
		g.setStatus("")
	}()
}

func (g *Game) steer() {
	x, y := ebiten.CursorPosition()
	cursor := image.Pt(x, y)
	if cursor == g.lastCursor {
		return
	}
	g.lastCursor = cursor

	w, h := g.canvas.Size()
	g.app.Steer(client.DirectionTo(float64(x), float64(y), w, h))
}

func (g *Game) updateChat() {
	for _, r := range ebiten.AppendInputChars(nil) {
		if len(g.draft) < maxDraftRunes {
			g.draft = append(g.draft, r)
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		if len(g.draft) > 0 {
			g.draft = g.draft[:len(g.draft)-1]
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.chatOpen = false
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
		text := string(g.draft)
		g.chatOpen = false
		if err := g.app.Say(text); err != nil && !errors.Is(err, client.ErrEmptyMessage) {
			g.setStatus(fmt.Sprintf("Chat not sent: %v", err))
		}
	}
}

// Draw runs due render frames, then draws the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	g.frames.Flush(time.Now())
	screen.DrawImage(g.canvas.Image(), nil)

	g.drawStatus(screen)
	g.drawLeaderboard(screen)
	g.drawChat(screen)
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	lines := []string{fmt.Sprintf("%s | %s", g.app.State(), g.app.Username())}

	if snap := g.app.Snapshot(); snap != nil && snap.Me != nil && g.app.Playing() {
		lines = append(lines, fmt.Sprintf("HP %.0f  pos %.0f,%.0f", snap.Me.HP, snap.Me.X, snap.Me.Y))
	} else {
		switch {
		case g.app.State() == network.Disconnected:
			lines = append(lines, "Disconnected. Press R to reconnect.")
		case !g.app.Playing():
			lines = append(lines, "Press ENTER to play, T to chat.")
		}
	}
	if s := g.statusLine(); s != "" {
		lines = append(lines, s)
	}

	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*lineHeight)
	}
}

func (g *Game) drawLeaderboard(screen *ebiten.Image) {
	snap := g.app.Snapshot()
	if snap == nil || len(snap.Leaderboard) == 0 {
		return
	}
	x := screen.Bounds().Dx() - 180
	ebitenutil.DebugPrintAt(screen, "Leaderboard", x, 10)
	for i, e := range snap.Leaderboard {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d. %s %d", i+1, e.Username, e.Score), x, 10+(i+1)*lineHeight)
	}
}

func (g *Game) drawChat(screen *ebiten.Image) {
	lines := g.app.Chat().Tail(chatLines)
	if g.chatOpen {
		lines = append(lines, "> "+string(g.draft)+"_")
	}
	if len(lines) == 0 {
		return
	}

	h := screen.Bounds().Dy()
	top := h - 10 - len(lines)*lineHeight
	vector.DrawFilledRect(screen, 5, float32(top-4), 420, float32(len(lines)*lineHeight+8), panelColor, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, truncate(line, 68), 10, top+i*lineHeight)
	}
}

// Layout sizes the screen to the canvas. Window size changes reach the
// canvas through the resize debouncer.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	want := image.Pt(render.SurfaceSize(outsideWidth, outsideHeight))
	g.mu.Lock()
	changed := want != g.requested
	g.requested = want
	g.mu.Unlock()

	// Layout runs every frame; only a new size restarts the quiet period.
	if changed && want.X > 0 && want.Y > 0 {
		g.resize.Trigger(want)
	}
	size := g.canvas.Bounds()
	return size.X, size.Y
}

// Close stops background work owned by the game.
func (g *Game) Close() {
	g.resize.Stop()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

var _ ebiten.Game = (*Game)(nil)
