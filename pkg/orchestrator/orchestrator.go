// Package orchestrator sequences the framing core once per camera frame:
// it records the source geometry, dispatches detectors, checks tracking
// staleness, decides whether pose estimation runs, resolves the guidance
// message and publishes an immutable overlay snapshot.
//
// An Orchestrator is not safe for concurrent use. Loop owns one and
// serialises frames and UI events onto a single goroutine.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-framing/internal/log"
	"github.com/teslashibe/go-framing/pkg/camera"
	framedebug "github.com/teslashibe/go-framing/pkg/debug"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/guide"
	"github.com/teslashibe/go-framing/pkg/overlay"
	"github.com/teslashibe/go-framing/pkg/pose"
	"github.com/teslashibe/go-framing/pkg/ratio"
	"github.com/teslashibe/go-framing/pkg/selection"
	"github.com/teslashibe/go-framing/pkg/transform"
)

// Detectors are the models the orchestrator dispatches. Pose may be nil, in
// which case guidance runs without body measurements.
type Detectors struct {
	Object detection.ObjectDetector
	Pose   detection.PoseDetector
}

// Stats are cumulative counters.
type Stats struct {
	SessionID        string `json:"session_id"`
	Frames           uint64 `json:"frames"`
	ObjectResults    uint64 `json:"object_results"`
	PoseResults      uint64 `json:"pose_results"`
	DetectorErrors   uint64 `json:"detector_errors"`
	BusyDrops        uint64 `json:"busy_drops"`
	StaleDeactivates uint64 `json:"stale_deactivates"`
}

// Orchestrator is the per-frame entry point of the framing core. It owns all
// cross-frame state: the transform cache, tracking memory, guidance state and
// the ratio window.
type Orchestrator struct {
	config    Config
	detectors Detectors
	logger    *slog.Logger
	now       func() time.Time
	control   camera.Control
	store     *overlay.Store
	sessionID uuid.UUID

	viewport   transform.Viewport
	selector   *selection.Selector
	machine    *guide.Machine
	stabilizer *ratio.Stabilizer

	objects *detection.Dispatcher[[]detection.DetectedObject]
	poses   *detection.Dispatcher[pose.Result]

	frameCount  uint64
	frontFacing bool
	detections  []detection.DetectedObject
	pose        *pose.Result
	mask        *overlay.Mask
	orientation guide.Orientation
	zoom        float64
	focusPoint  *geom.Point
	focusAt     time.Time
	frame       camera.FrameConfig

	// Stats
	objectResults    atomic.Uint64
	poseResults      atomic.Uint64
	detectorErrors   atomic.Uint64
	busyDrops        atomic.Uint64
	staleDeactivates atomic.Uint64
}

// New creates an orchestrator in Idle with nothing tracked.
func New(cfg Config, detectors Detectors, opts ...Option) *Orchestrator {
	if cfg.StaleEvery == 0 {
		cfg.StaleEvery = DefaultConfig().StaleEvery
	}

	o := &Orchestrator{
		config:     cfg,
		detectors:  detectors,
		now:        time.Now,
		control:    camera.NopControl{},
		sessionID:  uuid.New(),
		viewport:   transform.New(cfg.Mode),
		selector:   selection.New(cfg.Selection),
		machine:    guide.NewMachine(cfg.Guide),
		stabilizer: ratio.NewStabilizer(cfg.Ratio),
		objects:    detection.NewDispatcher[[]detection.DetectedObject]("object"),
		poses:      detection.NewDispatcher[pose.Result]("pose"),
		zoom:       1,
		frame:      camera.DefaultFrameConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.L()
	}
	o.logger = o.logger.With("component", "orchestrator", "session", o.sessionID.String())
	if o.store == nil {
		o.store = overlay.NewStore()
	}
	return o
}

// SessionID identifies this orchestrator instance.
func (o *Orchestrator) SessionID() string {
	return o.sessionID.String()
}

// Store returns the snapshot store.
func (o *Orchestrator) Store() *overlay.Store {
	return o.store
}

// ProcessFrame runs the per-frame sequence and returns the published
// snapshot. Results from detectors dispatched on earlier frames are applied
// first. It never panics and never returns an error: detector failures are
// logged and leave the previous contribution of that detector in place.
func (o *Orchestrator) ProcessFrame(ctx context.Context, frame detection.Frame) (st *overlay.State) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("frame processing panicked",
				"frame", frame.Seq, "panic", r, "stack", string(debug.Stack()))
			st = o.store.Load()
		}
	}()

	o.collect()

	// 1. Source geometry
	o.OnFrame(frame.Width, frame.Height, frame.RotationDegrees, frame.FrontFacing)
	o.frameCount++

	// 2. Always-on detector
	o.dispatchObjects(ctx, frame)

	// 3. Decimated staleness check
	if o.frameCount%o.config.StaleEvery == 0 && o.selector.IsStale(o.now()) {
		if o.machine.Active() {
			o.staleDeactivates.Add(1)
			framedebug.FrameLog("tracking stale", "frame", frame.Seq, "tracked", o.selector.Tracked())
		}
		o.machine.Deactivate()
	}

	// 4. Pose admission
	plan := o.machine.Plan(frame.FrontFacing)
	if plan.RunPose {
		mirrored := frame
		mirrored.FrontFacing = plan.MirrorPose
		o.dispatchPose(ctx, mirrored)
	} else {
		o.clearGuidance()
	}

	// 5. Message
	o.machine.Resolve(o.orientation)

	// 6. Publish
	return o.publish()
}

// collect applies results published by detectors since the last frame.
func (o *Orchestrator) collect() {
	if r, ok := o.objects.Poll(); ok {
		if r.Err != nil {
			o.detectorFailed(o.objects.Name(), r.Seq, r.Err)
		} else {
			o.objectResults.Add(1)
			o.OnLightDetectorResult(r.Value)
		}
	}
	if r, ok := o.poses.Poll(); ok {
		switch {
		case r.Err != nil:
			o.detectorFailed(o.poses.Name(), r.Seq, r.Err)
		case !o.machine.Plan(false).RunPose:
			// Guidance ended while the call was in flight.
		default:
			o.poseResults.Add(1)
			o.OnSecondaryDetectorResult(r.Value)
		}
	}
}

func (o *Orchestrator) detectorFailed(name string, seq uint64, err error) {
	o.detectorErrors.Add(1)
	o.logger.Warn("detector failed", "detector", name, "frame", seq, "error", err)
}

func (o *Orchestrator) dispatchObjects(ctx context.Context, frame detection.Frame) {
	if o.detectors.Object == nil {
		return
	}
	det := o.detectors.Object
	err := o.objects.Dispatch(ctx, frame.Seq, func(ctx context.Context) ([]detection.DetectedObject, error) {
		ctx, cancel := o.withTimeout(ctx)
		defer cancel()
		return det.Detect(ctx, frame)
	})
	if err != nil {
		o.busyDrops.Add(1)
		framedebug.FrameLog("object dispatch dropped", "frame", frame.Seq, "error", err)
	}
}

func (o *Orchestrator) dispatchPose(ctx context.Context, frame detection.Frame) {
	if o.detectors.Pose == nil {
		return
	}
	det := o.detectors.Pose
	err := o.poses.Dispatch(ctx, frame.Seq, func(ctx context.Context) (pose.Result, error) {
		ctx, cancel := o.withTimeout(ctx)
		defer cancel()
		return det.DetectPose(ctx, frame)
	})
	if err != nil {
		o.busyDrops.Add(1)
		framedebug.FrameLog("pose dispatch dropped", "frame", frame.Seq, "error", err)
	}
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.config.DetectorTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.config.DetectorTimeout)
}

// clearGuidance drops pose output when pose estimation is not admitted.
// Returning to Idle also resets the ratio window.
func (o *Orchestrator) clearGuidance() {
	o.pose = nil
	if o.machine.State() == guide.Idle && o.stabilizer.Len() > 0 {
		o.stabilizer.Reset()
	}
}

// OnFrame records the source dimensions and mirroring of the incoming
// frame. Quarter-turn rotations swap width and height.
func (o *Orchestrator) OnFrame(width, height, rotationDegrees int, frontFacing bool) {
	w, h := detection.Frame{Width: width, Height: height, RotationDegrees: rotationDegrees}.Upright()
	o.viewport = o.viewport.WithSource(w, h, frontFacing)
	o.frontFacing = frontFacing
}

// OnLightDetectorResult replaces the visible detections and confirms any
// tracked identity among them. The first tracked detection also steers the
// camera focus point.
func (o *Orchestrator) OnLightDetectorResult(dets []detection.DetectedObject) {
	o.detections = detection.CloneAll(dets)

	seen := o.selector.ConfirmVisible(o.detections, o.now())
	if len(seen) == 0 {
		return
	}
	if err := o.control.SetFocusPoint(seen[0].Box.Center()); err != nil {
		o.logger.Debug("tracking focus failed", "error", err)
	}
}

// OnSecondaryDetectorResult stores the pose result and feeds the body ratio
// of the first person into the stabilizer. Measurements with a zero torso
// length are skipped.
func (o *Orchestrator) OnSecondaryDetectorResult(res pose.Result) {
	o.pose = &res
	if res.Empty() {
		return
	}

	m, ok := pose.MeasureBody(res.People[0], res.LayoutOf())
	if !ok {
		return
	}
	if stable, ok := o.stabilizer.UpdateLengths(m.HipToAnkle, m.ShoulderToHip); ok {
		framedebug.FrameLog("body ratio", "torso", m.ShoulderToHip, "legs", m.HipToAnkle, "stable", stable)
	}
}

// OnSegmentationResult stores the latest segmentation mask. An empty mask
// clears it.
func (o *Orchestrator) OnSegmentationResult(mask overlay.Mask) {
	if mask.Empty() {
		o.mask = nil
		return
	}
	o.mask = &mask
}

// OnUserTap runs click-to-select at a view-space point and publishes the
// result. A newly tracked identity is confirmed immediately so it is not
// reported stale before the detector sees it again.
func (o *Orchestrator) OnUserTap(p geom.Point) (id int, hit bool) {
	vp := o.currentViewport()
	id, hit = o.selector.Click(p, o.detections, vp, o.machine)
	if hit && o.selector.IsTracked(id) {
		o.selector.Confirm(id, o.now())
	}
	o.logger.Info("tap", "x", p.X, "y", p.Y, "hit", hit, "id", id, "state", o.machine.State().String())

	o.machine.Resolve(o.orientation)
	o.publish()
	return id, hit
}

// OnUserPinchZoom multiplies the zoom ratio by factor and forwards it to the
// camera. Non-positive factors are ignored.
func (o *Orchestrator) OnUserPinchZoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	o.zoom = camera.ClampZoom(o.zoom * factor)
	if err := o.control.SetZoom(o.zoom); err != nil {
		o.logger.Warn("zoom failed", "zoom", o.zoom, "error", err)
	}
	o.publish()
}

// OnUserDragFocus sets a view-space focus point, shows the focus ring and
// forwards the source-space point to the camera.
func (o *Orchestrator) OnUserDragFocus(p geom.Point) {
	o.focusPoint = &p
	o.focusAt = o.now()

	src := o.currentViewport().Invert(p)
	if err := o.control.SetFocusPoint(src); err != nil {
		o.logger.Warn("focus failed", "x", src.X, "y", src.Y, "error", err)
	}
	o.publish()
}

// SetExposure clamps and forwards an exposure compensation value.
func (o *Orchestrator) SetExposure(ev float64) {
	if err := o.control.SetExposure(camera.ClampExposure(ev)); err != nil {
		o.logger.Warn("exposure failed", "ev", ev, "error", err)
	}
}

// OnOrientation records the device attitude used for the angle message and
// the level indicator.
func (o *Orchestrator) OnOrientation(or guide.Orientation) {
	o.orientation = or
}

// SetViewSize changes the view box. The transform is recomputed on the next
// publish.
func (o *Orchestrator) SetViewSize(width, height float64) {
	o.config.ViewWidth = width
	o.config.ViewHeight = height
}

// SetAspect switches the preview frame proportion.
func (o *Orchestrator) SetAspect(a camera.AspectRatio) camera.FrameConfig {
	if setter, ok := o.control.(interface {
		SetAspect(camera.AspectRatio) camera.FrameConfig
	}); ok {
		o.frame = setter.SetAspect(a)
	} else {
		o.frame = a.Apply(o.frame)
	}
	o.publish()
	return o.frame
}

// Advance applies an externally decided guidance transition.
func (o *Orchestrator) Advance(to guide.State) error {
	from := o.machine.State()
	if err := o.machine.Advance(to); err != nil {
		return err
	}
	o.logger.Info("guidance advanced", "from", from.String(), "to", to.String())
	o.machine.Resolve(o.orientation)
	o.publish()
	return nil
}

// CurrentOverlayState returns the latest published snapshot. Safe for
// concurrent use.
func (o *Orchestrator) CurrentOverlayState() *overlay.State {
	return o.store.Load()
}

// CurrentGuideMessage returns the published guidance text and visibility.
// Safe for concurrent use.
func (o *Orchestrator) CurrentGuideMessage() (text string, visible bool) {
	m := o.store.Load().Message
	return m.Text, m.Visible
}

// BodyRatio returns the published stable body ratio and whether it is ideal.
// Safe for concurrent use.
func (o *Orchestrator) BodyRatio() (ratio float64, ideal bool) {
	st := o.store.Load()
	return st.BodyRatio, st.IdealRatio
}

// Stats returns the cumulative counters. Safe for concurrent use.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		SessionID:        o.sessionID.String(),
		Frames:           o.store.Load().Seq,
		ObjectResults:    o.objectResults.Load(),
		PoseResults:      o.poseResults.Load(),
		DetectorErrors:   o.detectorErrors.Load(),
		BusyDrops:        o.busyDrops.Load(),
		StaleDeactivates: o.staleDeactivates.Load(),
	}
}

// Close waits for in-flight detector calls to finish.
func (o *Orchestrator) Close() {
	o.objects.Wait()
	o.poses.Wait()
}

func (o *Orchestrator) currentViewport() transform.Viewport {
	o.viewport = o.viewport.Recompute(o.config.ViewWidth, o.config.ViewHeight)
	return o.viewport
}

// publish builds a fresh snapshot from the owned state and replaces the
// current one.
func (o *Orchestrator) publish() *overlay.State {
	now := o.now()
	st := &overlay.State{
		Seq:               o.frameCount,
		Viewport:          o.currentViewport(),
		Detections:        detection.CloneAll(o.detections),
		ClickedPoint:      o.selector.ClickedPoint(),
		TrackedIdentities: o.selector.Tracked(),
		GuideState:        o.machine.State(),
		Message:           o.machine.Message(),
		BodyRatio:         o.stabilizer.Stable(),
		IdealRatio:        o.stabilizer.IsIdeal(),
		Orientation:       o.orientation,
		Zoom:              o.zoom,
		FocusAt:           o.focusAt,
		Frame:             o.frame,
		Pose:              o.pose,
		Mask:              o.mask,
	}
	if o.focusPoint != nil {
		p := *o.focusPoint
		st.FocusPoint = &p
	}
	st.Overlays = overlay.Compose(st, now, o.config.Compose)
	return o.store.Publish(st)
}

// String describes the orchestrator for logs.
func (o *Orchestrator) String() string {
	return fmt.Sprintf("orchestrator(%s, frame %d, %s)", o.sessionID, o.frameCount, o.machine.State())
}
