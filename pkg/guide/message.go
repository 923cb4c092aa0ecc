package guide

// MessageKey identifies a guidance message in the catalog.
type MessageKey string

// Catalog keys.
const (
	MessageNone           MessageKey = ""
	MessageLocateToTarget MessageKey = "locate_to_target_area"
	MessageLowerCamera    MessageKey = "lower_camera"
	MessageSetAngle       MessageKey = "set_angle"
)

var catalog = map[MessageKey]string{
	MessageLocateToTarget: "Move the camera so the subject is inside the target area.",
	MessageLowerCamera:    "Lower the camera to the marked position.",
	MessageSetAngle:       "Adjust the camera angle as shown.",
}

// Text returns the display text for the key.
func (k MessageKey) Text() string {
	return catalog[k]
}

// Message is the resolved guidance message.
type Message struct {
	Key     MessageKey `json:"key"`
	Text    string     `json:"text"`
	Visible bool       `json:"visible"`
}
