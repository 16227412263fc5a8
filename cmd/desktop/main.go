package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/logger"
	"gochip8/pkg/render"
	"gochip8/pkg/session"
	"gochip8/pkg/sound"
	"gochip8/pkg/statsview"
	"gochip8/pkg/store"
	"gochip8/pkg/utils"
)

// logical screen: the 128x64 display at 4x, large enough for the overlay text
const (
	screenScale  = 4
	screenWidth  = render.Width * screenScale
	screenHeight = render.Height * screenScale

	overlayLogLines = 6

	volumeStep = 0.05
)

// hostKeys follows session.Layout.
var hostKeys = [chip8.NumKeys]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF,
	ebiten.KeyZ, ebiten.KeyX, ebiten.KeyC, ebiten.KeyV,
}

// readKeypad reports the keypad state given a host key poll.
func readKeypad(pressed func(ebiten.Key) bool) [chip8.NumKeys]bool {
	var keys [chip8.NumKeys]bool
	for i, k := range hostKeys {
		keys[session.Keypad[i]] = pressed(k)
	}
	return keys
}

type Game struct {
	s        *session.Session
	renderer *render.Renderer
	frame    *image.RGBA
	title    string

	displayImg *ebiten.Image // reused 128x64 canvas
	player     *audio.Player

	overlay bool
	slot    int
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleHotkeys()

	if err := g.s.RunFrame(readKeypad(ebiten.IsKeyPressed)); err != nil {
		// stays paused until reset or a state load
		g.overlay = true
	}
	if g.s.Done() {
		logger.Log(logger.Allow, "desktop", "program exited")
		return ebiten.Termination
	}

	g.frame = g.renderer.Update(g.s.Machine.Display())
	return nil
}

func (g *Game) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		if g.s.Fault() == nil {
			g.s.SetPaused(!g.s.Paused())
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		g.overlay = !g.overlay
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		if err := g.s.Reset(); err != nil {
			logger.Logf(logger.Allow, "desktop", "reset: %v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		g.slot = (g.slot + 1) % store.NumSlots
		logger.Logf(logger.Allow, "desktop", "slot %d selected", g.slot)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		g.slot = (g.slot + store.NumSlots - 1) % store.NumSlots
		logger.Logf(logger.Allow, "desktop", "slot %d selected", g.slot)
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if err := g.s.SaveSlot(g.slot); err != nil {
			logger.Logf(logger.Allow, "desktop", "save: %v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		if err := g.s.LoadSlot(g.slot); err != nil {
			logger.Logf(logger.Allow, "desktop", "load: %v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete):
		if err := g.s.DeleteSlot(g.slot); err != nil {
			logger.Logf(logger.Allow, "desktop", "delete: %v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.s.SetVolume(g.s.Volume() - volumeStep)
		logger.Logf(logger.Allow, "desktop", "volume %.0f%%", g.s.Volume()*100)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.s.SetVolume(g.s.Volume() + volumeStep)
		logger.Logf(logger.Allow, "desktop", "volume %.0f%%", g.s.Volume()*100)
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		g.screenshot()
	}
}

func (g *Game) screenshot() {
	if g.frame == nil {
		return
	}
	name := fmt.Sprintf("%s_%s.png", g.title, time.Now().Format("20060102_150405"))
	if err := render.SaveScreenshot(g.frame, g.s.Config().Scale, name); err != nil {
		logger.Logf(logger.Allow, "desktop", "screenshot: %v", err)
		return
	}
	logger.Logf(logger.Allow, "desktop", "screenshot saved to %s", name)
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.displayImg == nil {
		g.displayImg = ebiten.NewImage(render.Width, render.Height)
	}
	if g.frame != nil {
		g.displayImg.WritePixels(g.frame.Pix)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(screenScale, screenScale)
	screen.DrawImage(g.displayImg, op)

	if g.s.Paused() {
		ebitenutil.DebugPrintAt(screen, "PAUSED", screenWidth-48, 0)
	}
	if !g.overlay {
		return
	}

	ebitenutil.DebugPrint(screen, g.s.Machine.DebugState())
	ebitenutil.DebugPrintAt(screen, slotSummary(g.slot, g.s.Slots(), g.s.Store.FreeSpace()), 0, screenHeight-16*(overlayLogLines+1))
	if err := g.s.Fault(); err != nil {
		ebitenutil.DebugPrintAt(screen, "fault: "+err.Error(), 0, screenHeight-16*(overlayLogLines+2))
	}

	var tail strings.Builder
	logger.Tail(&tail, overlayLogLines)
	ebitenutil.DebugPrintAt(screen, tail.String(), 0, screenHeight-16*overlayLogLines)
}

// slotSummary is the overlay line listing the saved slots, the selected one
// in brackets.
func slotSummary(selected int, saved []int, free int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "slot %d  saved:", selected)
	if len(saved) == 0 {
		b.WriteString(" none")
	}
	for _, slot := range saved {
		if slot == selected {
			fmt.Fprintf(&b, " [%d]", slot)
		} else {
			fmt.Fprintf(&b, " %d", slot)
		}
	}
	fmt.Fprintf(&b, "  %d KiB free", free>>10)
	return b.String()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// startAudio plays the session voice through ebiten. The voice is silent
// whenever the sound timer is zero, so the player runs for the lifetime of
// the game.
func startAudio(v *sound.Voice) (*audio.Player, error) {
	ctx := audio.NewContext(sound.SampleRate)
	p, err := ctx.NewPlayer(v)
	if err != nil {
		return nil, err
	}
	p.SetBufferSize(50 * time.Millisecond)
	p.Play()
	return p, nil
}

func main() {
	stats := flag.String("statsview", "", "serve runtime charts on this address (needs the statsview build tag)")
	cfg, err := config.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] <rom>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if cfg.Log {
		logger.SetEcho(os.Stderr)
	}
	stopStats := func() {}
	if *stats != "" {
		stopStats = statsview.Launch(*stats, os.Stdout)
	}

	rom, fullPath, err := utils.ReadROM(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read rom: %v", err)
	}

	palette, err := render.PaletteFromRGB(cfg.Palette)
	if err != nil {
		log.Fatalf("Bad palette: %v", err)
	}

	s, err := session.New(cfg, rom)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// flushes flags and save states every few seconds
	if err := s.StartSync(); err != nil {
		logger.Logf(logger.Allow, "desktop", "storage disabled: %v", err)
	}

	game := &Game{
		s:        s,
		renderer: render.New(palette, cfg.Decay),
		title:    utils.RomTitle(fullPath),
	}
	if game.player, err = startAudio(s.Voice); err != nil {
		logger.Logf(logger.Allow, "desktop", "audio disabled: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(render.Width*cfg.Scale, render.Height*cfg.Scale)
	ebiten.SetWindowTitle("gochip8 - " + game.title)
	ebiten.SetTPS(60)

	runErr := ebiten.RunGame(game)
	stopStats()

	// graceful shutdown: stop the syncer, final flush
	if err := s.Close(); err != nil {
		logger.Logf(logger.Allow, "desktop", "storage: %v", err)
	}
	if runErr != nil {
		var dump bytes.Buffer
		logger.Write(&dump)
		log.Fatalf("%v\n%s", runErr, dump.String())
	}
}
