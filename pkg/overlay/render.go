package overlay

// Renderer draws overlays. Implementations receive each variant through its
// own method.
type Renderer interface {
	ObjectBox(ObjectBox)
	PoseSkeleton(PoseSkeleton)
	SegmentationMask(SegmentationMask)
	FocusRing(FocusRing)
}

// Dispatch draws the overlays in order.
func Dispatch(r Renderer, overlays List) {
	for _, o := range overlays {
		switch v := o.(type) {
		case ObjectBox:
			r.ObjectBox(v)
		case PoseSkeleton:
			r.PoseSkeleton(v)
		case SegmentationMask:
			r.SegmentationMask(v)
		case FocusRing:
			r.FocusRing(v)
		}
	}
}
