package chart

// ResizeReconciler keeps the surface's pixel dimensions correct under a host
// that drops resize signals. One idempotent Resync is wired to four
// redundant triggers: shape observers on the container and its parent,
// global resize events deferred one frame, a fixed polling watchdog, and
// shell transition-end events. The watchdog is a deliberate inefficiency
// traded for correctness on embedded hosts.
type ResizeReconciler struct {
	surface RenderSurface
	host    HostEnv
	overlay *OverlaySynchronizer
	sched   Scheduler
	cfg     Config

	cancels []func()
}

// NewResizeReconciler builds the reconciler; triggers attach at Mount.
func NewResizeReconciler(surface RenderSurface, host HostEnv, overlay *OverlaySynchronizer, sched Scheduler, cfg Config) *ResizeReconciler {
	return &ResizeReconciler{
		surface: surface,
		host:    host,
		overlay: overlay,
		sched:   sched,
		cfg:     cfg,
	}
}

// Resync measures the container and applies its pixel box to the surface.
// A non-positive box (mid-layout, hidden panel) is skipped.
func (r *ResizeReconciler) Resync() {
	w, h := r.host.ContainerSize()
	if w <= 0 || h <= 0 {
		return
	}
	r.surface.Resize(w, h)
	r.overlay.Reposition()
}

// Mount attaches all four trigger sources and runs one immediate sync.
func (r *ResizeReconciler) Mount() {
	r.cancels = append(r.cancels,
		r.host.OnContainerShapeChange(r.Resync),
		r.host.OnGlobalResize(func() {
			// Let layout settle before measuring.
			r.host.RequestFrame(r.Resync)
		}),
		r.host.OnShellTransitionEnd(r.Resync),
		r.sched.Every(r.cfg.WatchdogInterval, r.Resync),
	)
	r.Resync()
}

// Unmount releases every trigger acquired at Mount.
func (r *ResizeReconciler) Unmount() {
	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
}
