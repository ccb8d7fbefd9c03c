package signature

// Point is a surface-local coordinate in pad pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the pad's bounding box in client coordinates at the time of the event.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Input is a raw device event position. Both mouse and touch take the same path
// through Locate.
type Input interface {
	client() (x, y float64, ok bool)
}

type PointerInput struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

func (p PointerInput) client() (float64, float64, bool) {
	return p.ClientX, p.ClientY, true
}

type Touch struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// TouchInput carries every active contact; only the first one is tracked.
type TouchInput struct {
	Touches []Touch `json:"touches"`
}

func (t TouchInput) client() (float64, float64, bool) {
	if len(t.Touches) == 0 {
		return 0, 0, false
	}
	return t.Touches[0].ClientX, t.Touches[0].ClientY, true
}

// Locate converts a device event into a surface-local point by subtracting the
// bounding-box origin. It reports false for a touch event with no contacts.
func Locate(in Input, b Bounds) (Point, bool) {
	if in == nil {
		return Point{}, false
	}
	x, y, ok := in.client()
	if !ok {
		return Point{}, false
	}
	return Point{X: x - b.Left, Y: y - b.Top}, true
}
