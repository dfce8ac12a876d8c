package testbed

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine"
	"github.com/spaghettifunk/anima-frames/engine/assets"
	"github.com/spaghettifunk/anima-frames/engine/core"
	"github.com/spaghettifunk/anima-frames/engine/math"
	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

type TestGame struct {
	*engine.Game
	keyboard *core.KeyboardState
}

type gameState struct {
	scene    Scene
	renderer *renderer.Renderer

	pipeline   renderer.Pipeline
	vertices   *renderer.BoundBuffer
	uniforms   *renderer.BoundBuffer
	uniformSet renderer.DescriptorSet

	// Animation time, frozen while paused.
	seconds float64
	paused  bool

	width  uint32
	height uint32
}

func NewTestGame(config *engine.ApplicationConfig, sceneName string) (*TestGame, error) {
	scene, err := ParseScene(sceneName)
	if err != nil {
		return nil, err
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				scene:  scene,
				width:  config.StartWidth,
				height: config.StartHeight,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnReload = tg.Reload
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

// SetKeyboard gives the game the engine's keyboard state. P toggles the
// animation.
func (g *TestGame) SetKeyboard(ks *core.KeyboardState) {
	g.keyboard = ks
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(r *renderer.Renderer, shaders assets.ShaderPair) error {
	state := g.state()
	state.renderer = r
	device := r.Backend()

	if state.scene.usesVertexBuffer() {
		vb, err := renderer.CreateBuffer(device, renderer.BufferUsageVertex, renderer.MemoryUpload, diamond)
		if err != nil {
			return errors.Wrap(err, "create vertex buffer")
		}
		state.vertices = vb
	}

	if state.scene.usesUniform() {
		ub, err := renderer.EmptyBuffer[uniformBlock](device, renderer.BufferUsageUniform, renderer.MemoryUpload, 1)
		if err != nil {
			return errors.Wrap(err, "create uniform buffer")
		}
		state.uniforms = ub
	}

	if err := g.buildPipeline(shaders); err != nil {
		return err
	}
	core.LogInfo("scene %s initialized", state.scene)
	return nil
}

// buildPipeline creates the pipeline for the scene and, when the scene has
// a uniform buffer, its descriptor set. The previous ones are destroyed
// only once both exist.
func (g *TestGame) buildPipeline(shaders assets.ShaderPair) error {
	state := g.state()
	device := state.renderer.Backend()

	desc := renderer.PipelineDesc{
		RenderPass:     state.renderer.RenderPass(),
		VertexShader:   shaders.Vertex,
		FragmentShader: shaders.Fragment,
		Uniform:        state.scene.usesUniform(),
	}
	if state.scene.usesVertexBuffer() {
		desc.VertexStride = uint32(state.vertices.Stride)
		desc.Attributes = vertexAttributes
	}
	if state.scene.usesPushConstants() {
		desc.PushConstantWords = pushConstantWords
	}

	pipeline, err := device.NewPipeline(desc)
	if err != nil {
		return errors.Wrap(err, "create pipeline")
	}

	var set renderer.DescriptorSet
	if desc.Uniform {
		set, err = device.NewUniformSet(pipeline, state.uniforms.Buffer, state.uniforms.Size())
		if err != nil {
			pipeline.Destroy()
			return errors.Wrap(err, "create uniform set")
		}
	}

	g.releasePipeline()
	state.pipeline = pipeline
	state.uniformSet = set
	return nil
}

func (g *TestGame) releasePipeline() {
	state := g.state()
	if state.uniformSet != nil {
		state.uniformSet.Destroy()
		state.uniformSet = nil
	}
	if state.pipeline != nil {
		state.pipeline.Destroy()
		state.pipeline = nil
	}
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()

	if g.keyboard != nil && g.keyboard.IsKeyUp(core.KEY_P) && g.keyboard.WasKeyDown(core.KEY_P) {
		state.paused = !state.paused
		core.LogDebug("animation paused: %t", state.paused)
	}
	if !state.paused {
		state.seconds += deltaTime
	}
	return nil
}

func (g *TestGame) Render(extent renderer.Extent, deltaTime float64) (*renderer.FrameScene, error) {
	state := g.state()
	scene := &renderer.FrameScene{Pipeline: state.pipeline}

	if !state.scene.usesVertexBuffer() {
		scene.Draws = []renderer.DrawCall{{Vertices: renderer.Range{Count: triangleVertices}}}
		return scene, nil
	}

	scene.VertexBuffers = []renderer.VertexBufferBinding{{Binding: 0, Buffer: state.vertices.Buffer}}
	mesh := renderer.Range{Count: uint32(state.vertices.Count)}

	if state.scene.usesUniform() {
		block := uniformBlock{Projection: math.AspectCorrectedZoom(extent.Width, extent.Height, state.seconds)}
		if err := renderer.FillBuffer(state.uniforms, []uniformBlock{block}); err != nil {
			return nil, errors.Wrap(err, "update uniform buffer")
		}
		scene.DescriptorSets = []renderer.DescriptorSet{state.uniformSet}
	}

	if !state.scene.usesPushConstants() {
		scene.Draws = []renderer.DrawCall{{Vertices: mesh}}
		return scene, nil
	}

	scene.Draws = make([]renderer.DrawCall, 0, len(instances))
	for _, inst := range instances {
		words, err := inst.words()
		if err != nil {
			return nil, err
		}
		scene.Draws = append(scene.Draws, renderer.DrawCall{Vertices: mesh, PushConstants: words})
	}
	return scene, nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

// Reload swaps in a pipeline built from the new shaders. The engine waits
// for the device before calling it.
func (g *TestGame) Reload(shaders assets.ShaderPair) error {
	if err := g.buildPipeline(shaders); err != nil {
		return err
	}
	core.LogInfo("scene %s pipeline reloaded", g.state().scene)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	g.releasePipeline()
	if state.uniforms != nil {
		state.uniforms.Destroy()
		state.uniforms = nil
	}
	if state.vertices != nil {
		state.vertices.Destroy()
		state.vertices = nil
	}
	core.LogInfo("testbed shut down after %.1fs of animation", state.seconds)
	return nil
}
