package engine_test

import (
	"context"
	"encoding/binary"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine"
	"github.com/spaghettifunk/anima-frames/engine/assets"
	"github.com/spaghettifunk/anima-frames/engine/assets/loaders"
	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
	"github.com/spaghettifunk/anima-frames/engine/renderer/rendertest"
)

// scriptedPlatform hands out one batch of events per poll and asks to
// close once the script is exhausted.
type scriptedPlatform struct {
	polls [][]core.Event
	n     int
}

func (p *scriptedPlatform) PollEvents() iter.Seq[core.Event] {
	batch := []core.Event{core.CloseEvent()}
	if p.n < len(p.polls) {
		batch = p.polls[p.n]
	}
	p.n++
	return func(yield func(core.Event) bool) {
		for _, e := range batch {
			if !yield(e) {
				return
			}
		}
	}
}

func writeSpirv(t *testing.T, path string, words ...uint32) {
	t.Helper()
	data := binary.LittleEndian.AppendUint32(nil, loaders.SpirvMagic)
	for _, w := range words {
		data = binary.LittleEndian.AppendUint32(data, w)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

type recordingGame struct {
	game      *engine.Game
	extents   []renderer.Extent
	resizes   int
	reloads   []assets.ShaderPair
	shutdowns int
	shaders   assets.ShaderPair
}

func newGame(t *testing.T, b *rendertest.Backend) *recordingGame {
	t.Helper()
	dir := t.TempDir()
	vert := filepath.Join(dir, "test.vert.spv")
	frag := filepath.Join(dir, "test.frag.spv")
	writeSpirv(t, vert, 1)
	writeSpirv(t, frag, 2, 3)

	rg := &recordingGame{}
	rg.game = &engine.Game{
		ApplicationConfig: &engine.ApplicationConfig{
			Name:           "test",
			StartWidth:     640,
			StartHeight:    480,
			Renderer:       renderer.Config{ClearColor: renderer.ClearColor{0, 0, 0, 1}},
			VertexShader:   vert,
			FragmentShader: frag,
		},
		FnInitialize: func(r *renderer.Renderer, shaders assets.ShaderPair) error {
			rg.shaders = shaders
			return nil
		},
		FnRender: func(extent renderer.Extent, deltaTime float64) (*renderer.FrameScene, error) {
			rg.extents = append(rg.extents, extent)
			return nil, nil
		},
		FnOnResize: func(width, height uint32) error {
			rg.resizes++
			b.SetExtent(width, height)
			return nil
		},
		FnReload: func(shaders assets.ShaderPair) error {
			rg.reloads = append(rg.reloads, shaders)
			return nil
		},
		FnShutdown: func() error {
			rg.shutdowns++
			return nil
		},
	}
	return rg
}

func newEngine(t *testing.T, b *rendertest.Backend, rg *recordingGame, polls ...[]core.Event) *engine.Engine {
	t.Helper()
	e, err := engine.New(rg.game, &scriptedPlatform{polls: polls}, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	return e
}

func checkReleased(t *testing.T, b *rendertest.Backend) {
	t.Helper()
	for _, kind := range []string{"swapchain", "image view", "framebuffer", "semaphore", "fence", "command pool", "render pass"} {
		if n := b.Live(kind); n != 0 {
			t.Errorf("%d live %s after shutdown", n, kind)
		}
	}
}

func TestRunPresentsUntilClose(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg, nil, nil, nil, nil, nil)

	if len(rg.shaders.Vertex) != 8 || len(rg.shaders.Fragment) != 12 {
		t.Fatalf("shaders = %d, %d bytes", len(rg.shaders.Vertex), len(rg.shaders.Fragment))
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	m := e.Metrics()
	if m.Presented != 5 || m.Skipped != 0 || m.Rebuilds != 0 {
		t.Errorf("presented %d, skipped %d, rebuilds %d", m.Presented, m.Skipped, m.Rebuilds)
	}
	if len(rg.extents) != 5 {
		t.Errorf("%d frames rendered", len(rg.extents))
	}
	if rg.shutdowns != 1 {
		t.Errorf("game shut down %d times", rg.shutdowns)
	}
	if e.Stage() != engine.EngineStageStopped {
		t.Errorf("stage = %d", e.Stage())
	}
	checkReleased(t, b)
}

func TestRunRebuildsAfterResize(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg,
		nil,
		[]core.Event{core.ResizeEvent(800, 600)},
		nil,
	)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []renderer.Extent{{Width: 640, Height: 480}, {Width: 800, Height: 600}, {Width: 800, Height: 600}}
	if len(rg.extents) != len(want) {
		t.Fatalf("extents = %v", rg.extents)
	}
	for i := range want {
		if rg.extents[i] != want[i] {
			t.Errorf("frame %d extent = %v, want %v", i, rg.extents[i], want[i])
		}
	}
	if rg.resizes != 1 || e.Metrics().Rebuilds != 1 {
		t.Errorf("resizes %d, rebuilds %d", rg.resizes, e.Metrics().Rebuilds)
	}

	// The old swapchain is gone before the new one acquires.
	calls := b.Log.Calls()
	destroyed := b.Log.Index("destroy swapchain 1")
	created := b.Log.Index("create swapchain 2")
	if destroyed < 0 || created < destroyed {
		t.Errorf("destroy at %d, create at %d", destroyed, created)
	}
	for _, c := range calls[destroyed:created] {
		if strings.HasPrefix(c, "acquire") {
			t.Errorf("acquire between teardown and rebuild: %s", c)
		}
	}
	checkReleased(t, b)
}

func TestCloseWithPendingResizeTearsDownWithoutRebuild(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg,
		nil,
		[]core.Event{core.ResizeEvent(800, 600), core.CloseEvent()},
	)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.Log.Index("destroy swapchain 1") < 0 {
		t.Error("swapchain not torn down")
	}
	if b.Log.Index("create swapchain 2") >= 0 {
		t.Error("swapchain rebuilt after the close request")
	}
	checkReleased(t, b)
}

func TestRunSkipsMinimizedFrames(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg,
		[]core.Event{core.ResizeEvent(0, 0)},
		nil,
		[]core.Event{core.ResizeEvent(640, 480)},
	)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	m := e.Metrics()
	if m.Skipped != 2 || m.Presented != 1 {
		t.Errorf("presented %d, skipped %d", m.Presented, m.Skipped)
	}
	checkReleased(t, b)
}

func TestEscapeStopsTheLoop(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg,
		[]core.Event{core.KeyEvent(core.KEY_A, true)},
		[]core.Event{core.KeyEvent(core.KEY_ESCAPE, true)},
		nil,
	)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Metrics().Presented != 1 {
		t.Errorf("presented %d", e.Metrics().Presented)
	}
}

func TestRunHonorsContext(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rg.extents) != 0 || rg.shutdowns != 1 {
		t.Errorf("frames %d, shutdowns %d", len(rg.extents), rg.shutdowns)
	}
	checkReleased(t, b)
}

func TestRenderErrorStopsTheLoop(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	boom := errors.New("boom")
	rg.game.FnRender = func(renderer.Extent, float64) (*renderer.FrameScene, error) {
		return nil, boom
	}
	e := newEngine(t, b, rg, nil, nil)

	if err := e.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if rg.shutdowns != 1 {
		t.Errorf("shutdowns %d", rg.shutdowns)
	}
	checkReleased(t, b)
}

func TestReloadShaders(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e := newEngine(t, b, rg)
	defer e.Shutdown()

	writeSpirv(t, rg.game.ApplicationConfig.VertexShader, 1, 2, 3)
	b.Log.Reset()
	if err := e.ReloadShaders(); err != nil {
		t.Fatal(err)
	}
	if len(rg.reloads) != 1 || len(rg.reloads[0].Vertex) != 16 {
		t.Fatalf("reloads = %v", rg.reloads)
	}
	if b.Log.Count("wait idle") != 1 {
		t.Errorf("calls = %v", b.Log.Calls())
	}

	// A broken blob keeps the old pipeline.
	if err := os.WriteFile(rg.game.ApplicationConfig.VertexShader, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.ReloadShaders(); err != nil {
		t.Fatal(err)
	}
	if len(rg.reloads) != 1 {
		t.Errorf("%d reloads after a broken blob", len(rg.reloads))
	}
}

func TestNewValidates(t *testing.T) {
	b := rendertest.New()
	if _, err := engine.New(&engine.Game{}, &scriptedPlatform{}, b, nil); err == nil {
		t.Error("game without config accepted")
	}
	rg := newGame(t, b)
	rg.game.FnRender = nil
	if _, err := engine.New(rg.game, &scriptedPlatform{}, b, nil); err == nil {
		t.Error("game without render function accepted")
	}
}

func TestRunRequiresInitialize(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	e, err := engine.New(rg.game, &scriptedPlatform{}, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(context.Background()); err == nil {
		t.Fatal("Run before Initialize succeeded")
	}
}

func TestMissingShaderFailsInitialize(t *testing.T) {
	b := rendertest.New()
	rg := newGame(t, b)
	rg.game.ApplicationConfig.FragmentShader = filepath.Join(t.TempDir(), "missing.spv")
	e, err := engine.New(rg.game, &scriptedPlatform{}, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); !errors.Is(err, core.ErrShaderMissing) {
		t.Fatalf("err = %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	checkReleased(t, b)
}
