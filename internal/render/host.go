package render

// StaticHost is a chart.HostEnv for headless embedding: a fixed container
// box and no spontaneous resize signals. The engine's polling watchdog is
// the only trigger that fires, which is exactly the degraded-host case the
// watchdog exists for.
type StaticHost struct {
	Width  int
	Height int
}

func (h *StaticHost) ContainerSize() (int, int) { return h.Width, h.Height }

func (h *StaticHost) OnContainerShapeChange(fn func()) func() { return func() {} }

func (h *StaticHost) OnGlobalResize(fn func()) func() { return func() {} }

func (h *StaticHost) OnShellTransitionEnd(fn func()) func() { return func() {} }

// RequestFrame has no frame clock to defer to; it runs fn immediately.
func (h *StaticHost) RequestFrame(fn func()) { fn() }
