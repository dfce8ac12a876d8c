package testbed

import (
	"github.com/pkg/errors"
	"golang.org/x/image/math/f32"

	"github.com/spaghettifunk/anima-frames/engine/renderer"
)

// Scene is one step of the tutorial progression. Each step keeps what the
// previous one draws and adds one mechanism.
type Scene uint8

const (
	// Three vertices generated by the vertex shader.
	SceneTriangle Scene = iota
	// A diamond read from a host visible vertex buffer.
	SceneVertexBuffer
	// Adds a projection uniform buffer bound through a descriptor set.
	SceneUniform
	// Draws the diamond four times with per draw push constants.
	ScenePushConstants
)

var sceneNames = map[string]Scene{
	"triangle":       SceneTriangle,
	"vertex_buffer":  SceneVertexBuffer,
	"uniform":        SceneUniform,
	"push_constants": ScenePushConstants,
}

func ParseScene(name string) (Scene, error) {
	s, ok := sceneNames[name]
	if !ok {
		return SceneTriangle, errors.Errorf("unknown scene %q", name)
	}
	return s, nil
}

func (s Scene) String() string {
	for name, scene := range sceneNames {
		if scene == s {
			return name
		}
	}
	return "unknown"
}

func (s Scene) usesVertexBuffer() bool  { return s >= SceneVertexBuffer }
func (s Scene) usesUniform() bool       { return s >= SceneUniform }
func (s Scene) usesPushConstants() bool { return s == ScenePushConstants }

// Vertex matches the vertex shader inputs: location 0 is the position,
// location 1 the colour.
type Vertex struct {
	Position f32.Vec3
	Colour   f32.Vec4
}

var vertexAttributes = []renderer.VertexAttribute{
	{Location: 0, Offset: 0, Format: renderer.VertexFloat3},
	{Location: 1, Offset: 12, Format: renderer.VertexFloat4},
}

// Two triangles, no index buffer.
var diamond = []Vertex{
	{Position: f32.Vec3{0.0, -0.5, 0.0}, Colour: f32.Vec4{1.0, 0.0, 0.0, 1.0}},
	{Position: f32.Vec3{0.5, 0.0, 0.0}, Colour: f32.Vec4{0.0, 1.0, 0.0, 1.0}},
	{Position: f32.Vec3{-0.5, 0.0, 0.0}, Colour: f32.Vec4{0.0, 0.0, 1.0, 1.0}},
	{Position: f32.Vec3{-0.5, 0.0, 0.0}, Colour: f32.Vec4{0.0, 0.0, 1.0, 1.0}},
	{Position: f32.Vec3{0.5, 0.0, 0.0}, Colour: f32.Vec4{0.0, 1.0, 0.0, 1.0}},
	{Position: f32.Vec3{0.0, 0.5, 0.0}, Colour: f32.Vec4{1.0, 1.0, 0.0, 1.0}},
}

const triangleVertices = 3

// uniformBlock is the set 0, binding 0 block of the vertex shader.
type uniformBlock struct {
	Projection f32.Mat4
}

// instance is what each draw of the push constant scene pushes:
// a vec4 tint followed by a vec2 offset.
type instance struct {
	tint   f32.Vec4
	offset f32.Vec2
}

const pushConstantWords = 6

var instances = []instance{
	{tint: f32.Vec4{1.0, 0.3, 0.3, 1.0}, offset: f32.Vec2{-0.5, -0.5}},
	{tint: f32.Vec4{0.3, 1.0, 0.3, 1.0}, offset: f32.Vec2{0.5, -0.5}},
	{tint: f32.Vec4{0.3, 0.3, 1.0, 1.0}, offset: f32.Vec2{-0.5, 0.5}},
	{tint: f32.Vec4{1.0, 1.0, 1.0, 1.0}, offset: f32.Vec2{0.5, 0.5}},
}

func (i instance) words() ([]uint32, error) {
	return renderer.NewPushConstantWriter().
		Vec4("tint", i.tint).
		Vec2("offset", i.offset).
		Words()
}
