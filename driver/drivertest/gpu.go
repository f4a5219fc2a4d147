// Package drivertest provides a simulated GPU implementing driver.Driver.
//
// The simulation keeps a FIFO of submitted work. In the default mode a
// fence wait completes queued submissions in order until the fence is
// signaled, which models a GPU that is always just fast enough. In
// manual mode waits block until the test calls CompleteNext or
// CompleteAll, so the blocking behavior of the CPU side can be observed.
//
// Misuse that a validation layer would report (waiting an unsignaled
// binary semaphore, destroying a framebuffer still referenced by queued
// work, re-recording a pending command buffer, ...) is collected and
// returned by Violations.
package drivertest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/andewx/vkframe/driver"
)

// SubmitRecord describes one batch passed to QueueSubmit.
type SubmitRecord struct {
	Queue          driver.Queue
	Wait           []driver.Semaphore
	Signal         []driver.Semaphore
	CommandBuffers []driver.CommandBuffer
	Framebuffers   []driver.Framebuffer
	Fence          driver.Fence
	Draws          int
}

// PresentRecord describes one call to QueuePresent.
type PresentRecord struct {
	Queue      driver.Queue
	Wait       []driver.Semaphore
	Swapchain  driver.Swapchain
	ImageIndex uint32
	Result     driver.Result
}

// AcquireRecord describes one call to AcquireNextImage.
type AcquireRecord struct {
	Swapchain  driver.Swapchain
	Semaphore  driver.Semaphore
	ImageIndex uint32
	Result     driver.Result
}

type fenceState struct {
	signaled bool
	pending  bool
}

type swapchainState struct {
	info      driver.SwapchainCreateInfo
	images    []driver.Image
	acquired  []bool
	next      int
	outOfDate bool
}

type commandState struct {
	pool         driver.CommandPool
	recording    bool
	pending      int
	framebuffers []driver.Framebuffer
	renderPasses []driver.RenderPass
	pipelines    []driver.Pipeline
	draws        int
}

type submission struct {
	fence   driver.Fence
	cbs     []driver.CommandBuffer
	signals []driver.Semaphore
}

// GPU is a simulated driver.Driver. It is safe for concurrent use.
type GPU struct {
	mu   sync.Mutex
	cond *sync.Cond
	next driver.Handle

	caps            driver.SurfaceCapabilities
	formats         []driver.SurfaceFormat
	modes           []driver.PresentMode
	families        []driver.QueueFamily
	presentFamilies map[uint32]bool
	extensions      []string
	memoryTypes     []driver.MemoryType
	manual          bool
	alwaysOutOfDate bool

	live           map[driver.Handle]string
	queues         map[[2]uint32]driver.Queue
	semaphores     map[driver.Semaphore]bool
	fences         map[driver.Fence]*fenceState
	swapchains     map[driver.Swapchain]*swapchainState
	images         map[driver.Image]driver.Swapchain
	views          map[driver.ImageView]driver.Image
	framebuffers   map[driver.Framebuffer][]driver.ImageView
	commandBuffers map[driver.CommandBuffer]*commandState
	memory         map[driver.DeviceMemory][]byte
	pending        []*submission

	acquireCalls  int
	presentCalls  int
	submitCalls   int
	acquireFaults map[int]driver.Result
	presentFaults map[int]driver.Result
	submitFaults  map[int]driver.Result

	createdSwapchains int
	submits           []SubmitRecord
	presents          []PresentRecord
	acquires          []AcquireRecord
	violations        []string
	maxInFlight       int
	blocked           chan driver.Fence
}

var _ driver.Driver = (*GPU)(nil)

// Option configures a GPU.
type Option func(*GPU)

// WithCapabilities sets the surface capabilities reported for every surface.
func WithCapabilities(caps driver.SurfaceCapabilities) Option {
	return func(g *GPU) { g.caps = caps }
}

// WithFormats sets the supported surface formats.
func WithFormats(formats ...driver.SurfaceFormat) Option {
	return func(g *GPU) { g.formats = formats }
}

// WithPresentModes sets the supported present modes.
func WithPresentModes(modes ...driver.PresentMode) Option {
	return func(g *GPU) { g.modes = modes }
}

// WithQueueFamilies sets the queue families of the physical device.
func WithQueueFamilies(families ...driver.QueueFamily) Option {
	return func(g *GPU) { g.families = families }
}

// WithPresentFamilies restricts presentation support to the given
// family indices. By default every family can present.
func WithPresentFamilies(families ...uint32) Option {
	return func(g *GPU) {
		g.presentFamilies = make(map[uint32]bool, len(families))
		for _, f := range families {
			g.presentFamilies[f] = true
		}
	}
}

// WithExtensions sets the device extensions reported by the physical device.
func WithExtensions(names ...string) Option {
	return func(g *GPU) { g.extensions = names }
}

// Manual makes fence waits block until work is completed explicitly.
func Manual() Option {
	return func(g *GPU) { g.manual = true }
}

// AlwaysOutOfDate makes every swapchain out of date from creation,
// modelling a surface that never becomes usable.
func AlwaysOutOfDate() Option {
	return func(g *GPU) { g.alwaysOutOfDate = true }
}

// New returns a simulated GPU with one physical device exposing a single
// graphics/compute/transfer family that can present, surface image count
// bounds [2, 4] and an 800x600 extent.
func New(opts ...Option) *GPU {
	g := &GPU{
		caps: driver.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  4,
			CurrentExtent:  driver.Extent2D{Width: 800, Height: 600},
			MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: driver.Extent2D{Width: 4096, Height: 4096},
		},
		formats: []driver.SurfaceFormat{
			{Format: driver.FormatB8g8r8a8Srgb, ColorSpace: driver.ColorSpaceSrgbNonlinear},
			{Format: driver.FormatB8g8r8a8Unorm, ColorSpace: driver.ColorSpaceSrgbNonlinear},
		},
		modes: []driver.PresentMode{driver.PresentModeFifo, driver.PresentModeMailbox},
		families: []driver.QueueFamily{
			{Flags: driver.QueueGraphics | driver.QueueCompute | driver.QueueTransfer, Count: 1},
		},
		extensions: []string{"VK_KHR_swapchain"},
		memoryTypes: []driver.MemoryType{
			{Flags: driver.MemoryDeviceLocal, Heap: 0},
			{Flags: driver.MemoryHostVisible | driver.MemoryHostCoherent, Heap: 1},
		},
		live:           make(map[driver.Handle]string),
		queues:         make(map[[2]uint32]driver.Queue),
		semaphores:     make(map[driver.Semaphore]bool),
		fences:         make(map[driver.Fence]*fenceState),
		swapchains:     make(map[driver.Swapchain]*swapchainState),
		images:         make(map[driver.Image]driver.Swapchain),
		views:          make(map[driver.ImageView]driver.Image),
		framebuffers:   make(map[driver.Framebuffer][]driver.ImageView),
		commandBuffers: make(map[driver.CommandBuffer]*commandState),
		memory:         make(map[driver.DeviceMemory][]byte),
		acquireFaults:  make(map[int]driver.Result),
		presentFaults:  make(map[int]driver.Result),
		submitFaults:   make(map[int]driver.Result),
		blocked:        make(chan driver.Fence, 16),
	}
	g.cond = sync.NewCond(&g.mu)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GPU) newHandle(kind string) driver.Handle {
	g.next++
	g.live[g.next] = kind
	return g.next
}

func (g *GPU) release(h driver.Handle, kind string) bool {
	if h == driver.NullHandle {
		return false
	}
	if k, ok := g.live[h]; !ok || k != kind {
		g.violate("destroy of unknown %s %d", kind, h)
		return false
	}
	delete(g.live, h)
	return true
}

func (g *GPU) violate(format string, args ...any) {
	g.violations = append(g.violations, fmt.Sprintf(format, args...))
}

// NewSurface returns a presentation surface handle.
func (g *GPU) NewSurface() driver.Surface {
	g.mu.Lock()
	defer g.mu.Unlock()
	return driver.Surface(g.newHandle("surface"))
}

// DestroySurface releases a surface returned by NewSurface.
func (g *GPU) DestroySurface(s driver.Surface) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(driver.Handle(s), "surface")
}

// SetCapabilities replaces the surface capabilities, e.g. after a resize.
func (g *GPU) SetCapabilities(caps driver.SurfaceCapabilities) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.caps = caps
}

// SetOutOfDate marks every existing swapchain out of date, as a window
// resize would.
func (g *GPU) SetOutOfDate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sc := range g.swapchains {
		sc.outOfDate = true
	}
}

// FailAcquire makes the n-th call to AcquireNextImage (1-based) return res.
// ErrorOutOfDate leaves the swapchain out of date until it is replaced.
func (g *GPU) FailAcquire(n int, res driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquireFaults[n] = res
}

// FailPresent makes the n-th call to QueuePresent (1-based) return res.
func (g *GPU) FailPresent(n int, res driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.presentFaults[n] = res
}

// FailSubmit makes the n-th call to QueueSubmit (1-based) return res
// without queueing any work.
func (g *GPU) FailSubmit(n int, res driver.Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitFaults[n] = res
}

// Blocked receives a fence every time a wait on it blocks in manual mode.
func (g *GPU) Blocked() <-chan driver.Fence {
	return g.blocked
}

// CompleteNext completes the oldest pending submission.
// It reports false if nothing was pending.
func (g *GPU) CompleteNext() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completeNext()
}

// CompleteAll completes every pending submission.
func (g *GPU) CompleteAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.completeNext() {
	}
}

func (g *GPU) completeNext() bool {
	if len(g.pending) == 0 {
		return false
	}
	s := g.pending[0]
	g.pending = g.pending[1:]
	if f, ok := g.fences[s.fence]; ok {
		f.signaled = true
		f.pending = false
	}
	for _, cb := range s.cbs {
		if cs, ok := g.commandBuffers[cb]; ok {
			cs.pending--
		}
	}
	g.cond.Broadcast()
	return true
}

// InFlight returns the number of submissions not yet completed.
func (g *GPU) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// MaxInFlight returns the highest number of simultaneously pending
// submissions observed.
func (g *GPU) MaxInFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxInFlight
}

// Violations returns the misuse reports collected so far.
func (g *GPU) Violations() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.violations...)
}

// Submits returns every recorded submission batch.
func (g *GPU) Submits() []SubmitRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SubmitRecord(nil), g.submits...)
}

// Presents returns every recorded present call.
func (g *GPU) Presents() []PresentRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]PresentRecord(nil), g.presents...)
}

// Acquires returns every recorded acquisition.
func (g *GPU) Acquires() []AcquireRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]AcquireRecord(nil), g.acquires...)
}

// CreatedSwapchains returns how many swapchains have been created.
func (g *GPU) CreatedSwapchains() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createdSwapchains
}

// Live returns the number of live objects per kind.
func (g *GPU) Live() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := make(map[string]int)
	for _, kind := range g.live {
		m[kind]++
	}
	return m
}

// LiveKinds returns the sorted kinds that still have live objects.
func (g *GPU) LiveKinds() []string {
	m := g.Live()
	kinds := make([]string, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Memory returns the bytes last written to mem.
func (g *GPU) Memory(mem driver.DeviceMemory) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]byte(nil), g.memory[mem]...)
}
