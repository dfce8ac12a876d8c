package renderer

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/core"
)

type SwapchainState uint8

const (
	SwapchainAbsent SwapchainState = iota
	SwapchainBuilding
	SwapchainValid
	SwapchainInvalidated
	SwapchainDestroying
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainAbsent:
		return "absent"
	case SwapchainBuilding:
		return "building"
	case SwapchainValid:
		return "valid"
	case SwapchainInvalidated:
		return "invalidated"
	case SwapchainDestroying:
		return "destroying"
	}
	return "unknown"
}

// MaxCapabilityAttempts bounds the surface queries of a single build.
const MaxCapabilityAttempts = 3

// Resetter is reset after the device went idle and before swapchain
// resources are destroyed. The recorder's command pool is one.
type Resetter interface {
	Reset() error
}

// SwapchainResources is the swapchain and everything derived from it. It is
// created and destroyed as a unit.
type SwapchainResources struct {
	// Generation id, logged to correlate rebuilds.
	ID           uuid.UUID
	Swapchain    Swapchain
	Config       SwapchainConfig
	Views        []ImageView
	Framebuffers []Framebuffer
}

func (r *SwapchainResources) Extent() Extent {
	return r.Config.Extent
}

// Framebuffer returns the framebuffer drawing into the image at index.
// Opaque backbuffers have a single framebuffer used for every index.
func (r *SwapchainResources) Framebuffer(index uint32) (Framebuffer, error) {
	if len(r.Views) == 0 && len(r.Framebuffers) == 1 {
		return r.Framebuffers[0], nil
	}
	if int(index) >= len(r.Framebuffers) {
		return nil, errors.Errorf("image index %d out of range, %d framebuffers", index, len(r.Framebuffers))
	}
	return r.Framebuffers[index], nil
}

// SwapchainManager owns the current swapchain resources and rebuilds them
// when the surface changes.
type SwapchainManager struct {
	device    SwapchainDevice
	format    SurfaceFormat
	pass      RenderPass
	preferred PresentMode
	window    Extent

	resources *SwapchainResources
	state     SwapchainState
	builds    uint64
}

// NewSwapchainManager starts absent. window is the framebuffer size used when
// the surface does not dictate one.
func NewSwapchainManager(device SwapchainDevice, format SurfaceFormat, pass RenderPass, preferred PresentMode, window Extent) *SwapchainManager {
	return &SwapchainManager{
		device:    device,
		format:    format,
		pass:      pass,
		preferred: preferred,
		window:    window,
		state:     SwapchainAbsent,
	}
}

func (m *SwapchainManager) State() SwapchainState {
	return m.state
}

// Builds counts the swapchains built so far.
func (m *SwapchainManager) Builds() uint64 {
	return m.builds
}

// Current returns the live resources, nil when absent.
func (m *SwapchainManager) Current() *SwapchainResources {
	return m.resources
}

// Resize records the new framebuffer size and invalidates the swapchain.
func (m *SwapchainManager) Resize(window Extent) {
	m.window = window
	m.Invalidate()
}

// Invalidate marks the current swapchain for teardown. It has no effect
// when no swapchain exists.
func (m *SwapchainManager) Invalidate() {
	if m.state == SwapchainValid {
		m.state = SwapchainInvalidated
	}
}

// NeedsTeardown reports whether Teardown must run before the next frame.
func (m *SwapchainManager) NeedsTeardown() bool {
	return m.state == SwapchainInvalidated
}

// Teardown destroys the current resources: wait for the device to go idle,
// reset pool, then destroy framebuffers, views and the swapchain.
func (m *SwapchainManager) Teardown(pool Resetter) error {
	if m.resources == nil {
		m.state = SwapchainAbsent
		return nil
	}
	m.state = SwapchainDestroying
	res := m.resources

	if err := m.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait device idle")
	}
	if pool != nil {
		if err := pool.Reset(); err != nil {
			return err
		}
	}
	for _, fb := range res.Framebuffers {
		fb.Destroy()
	}
	for _, v := range res.Views {
		v.Destroy()
	}
	res.Swapchain.Destroy()

	core.LogDebug("swapchain %s destroyed", res.ID)
	m.resources = nil
	m.state = SwapchainAbsent
	return nil
}

// Ensure returns the current resources, building them when absent. It
// returns nil without error when the surface has a zero extent, as with a
// minimized window.
func (m *SwapchainManager) Ensure() (*SwapchainResources, error) {
	switch m.state {
	case SwapchainValid:
		return m.resources, nil
	case SwapchainAbsent:
		return m.build()
	}
	return nil, errors.Wrapf(ErrSwapchainInvalidated, "ensure while %s", m.state)
}

func (m *SwapchainManager) capabilities() (SurfaceCapabilities, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxCapabilityAttempts; attempt++ {
		caps, err := m.device.SurfaceCapabilities()
		if err == nil {
			return caps, nil
		}
		core.LogWarn("surface capability query %d/%d failed: %s", attempt, MaxCapabilityAttempts, err)
		lastErr = err
	}
	return SurfaceCapabilities{}, errors.Wrapf(ErrSurfaceLost, "after %d attempts: %v", MaxCapabilityAttempts, lastErr)
}

func (m *SwapchainManager) build() (*SwapchainResources, error) {
	m.state = SwapchainBuilding

	caps, err := m.capabilities()
	if err != nil {
		m.state = SwapchainAbsent
		return nil, err
	}

	config := DeriveSwapchainConfig(caps, m.format, m.preferred, m.window)
	if config.Extent.IsZero() {
		core.LogDebug("surface extent is %dx%d, skipping swapchain build", config.Extent.Width, config.Extent.Height)
		m.state = SwapchainAbsent
		return nil, nil
	}

	sc, err := m.device.NewSwapchain(config)
	if err != nil {
		m.state = SwapchainAbsent
		return nil, errors.Wrap(err, "create swapchain")
	}

	res := &SwapchainResources{
		ID:        uuid.New(),
		Swapchain: sc,
		Config:    sc.Config(),
	}

	bb := sc.Backbuffer()
	if bb.IsOpaque() {
		res.Framebuffers = []Framebuffer{bb.Framebuffer}
	} else {
		res.Views = make([]ImageView, 0, len(bb.Images))
		res.Framebuffers = make([]Framebuffer, 0, len(bb.Images))
		for i, img := range bb.Images {
			view, err := m.device.NewImageView(img, res.Config.Format)
			if err != nil {
				m.discard(res)
				return nil, errors.Wrapf(err, "create image view %d", i)
			}
			res.Views = append(res.Views, view)

			fb, err := m.device.NewFramebuffer(m.pass, view, res.Config.Extent)
			if err != nil {
				m.discard(res)
				return nil, errors.Wrapf(err, "create framebuffer %d", i)
			}
			res.Framebuffers = append(res.Framebuffers, fb)
		}
	}

	m.resources = res
	m.state = SwapchainValid
	m.builds++
	core.LogInfo("swapchain %s built: %dx%d, %d images, %s, %s",
		res.ID, res.Config.Extent.Width, res.Config.Extent.Height,
		len(res.Framebuffers), res.Config.PresentMode, res.Config.Format)
	return res, nil
}

// discard destroys a partially built resource set. Nothing was submitted
// against it.
func (m *SwapchainManager) discard(res *SwapchainResources) {
	for _, fb := range res.Framebuffers {
		fb.Destroy()
	}
	for _, v := range res.Views {
		v.Destroy()
	}
	res.Swapchain.Destroy()
	m.state = SwapchainAbsent
}
