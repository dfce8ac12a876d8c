package core

import "fmt"

type EventKind uint8

const (
	// The window close button was pressed or the OS asked the application to quit.
	EventCloseRequested EventKind = iota + 1
	// The framebuffer was resized. Width and Height carry the new size in pixels.
	EventResizeRequested
	// A keyboard key changed state. Key and Pressed carry the transition.
	EventKeyInput
)

func (k EventKind) String() string {
	switch k {
	case EventCloseRequested:
		return "CloseRequested"
	case EventResizeRequested:
		return "ResizeRequested"
	case EventKeyInput:
		return "KeyInput"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a single window system notification.
type Event struct {
	Kind    EventKind
	Width   uint32
	Height  uint32
	Key     KeyCode
	Pressed bool
}

func CloseEvent() Event {
	return Event{Kind: EventCloseRequested}
}

func ResizeEvent(width, height uint32) Event {
	return Event{Kind: EventResizeRequested, Width: width, Height: height}
}

func KeyEvent(key KeyCode, pressed bool) Event {
	return Event{Kind: EventKeyInput, Key: key, Pressed: pressed}
}

// IsQuit reports whether the event asks the loop to terminate: a close
// request or an Escape key press.
func (e Event) IsQuit() bool {
	switch e.Kind {
	case EventCloseRequested:
		return true
	case EventKeyInput:
		return e.Key == KEY_ESCAPE && e.Pressed
	}
	return false
}
