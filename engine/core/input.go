package core

// Key code definitions
type KeyCode uint16

const (
	KEY_UNKNOWN   KeyCode = 0x00
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28

	KEY_0 KeyCode = 0x30
	KEY_1 KeyCode = 0x31
	KEY_2 KeyCode = 0x32
	KEY_3 KeyCode = 0x33
	KEY_4 KeyCode = 0x34
	KEY_5 KeyCode = 0x35
	KEY_6 KeyCode = 0x36
	KEY_7 KeyCode = 0x37
	KEY_8 KeyCode = 0x38
	KEY_9 KeyCode = 0x39

	KEY_A KeyCode = 0x41
	KEY_B KeyCode = 0x42
	KEY_C KeyCode = 0x43
	KEY_D KeyCode = 0x44
	KEY_E KeyCode = 0x45
	KEY_F KeyCode = 0x46
	KEY_G KeyCode = 0x47
	KEY_H KeyCode = 0x48
	KEY_I KeyCode = 0x49
	KEY_J KeyCode = 0x4A
	KEY_K KeyCode = 0x4B
	KEY_L KeyCode = 0x4C
	KEY_M KeyCode = 0x4D
	KEY_N KeyCode = 0x4E
	KEY_O KeyCode = 0x4F
	KEY_P KeyCode = 0x50
	KEY_Q KeyCode = 0x51
	KEY_R KeyCode = 0x52
	KEY_S KeyCode = 0x53
	KEY_T KeyCode = 0x54
	KEY_U KeyCode = 0x55
	KEY_V KeyCode = 0x56
	KEY_W KeyCode = 0x57
	KEY_X KeyCode = 0x58
	KEY_Y KeyCode = 0x59
	KEY_Z KeyCode = 0x5A

	KEY_F1 KeyCode = 0x70
	KEY_F2 KeyCode = 0x71
	KEY_F3 KeyCode = 0x72
	KEY_F4 KeyCode = 0x73

	KEYS_MAX_KEYS KeyCode = 0xFF
)

// KeyboardState keeps the current and previous pressed state of every key.
type KeyboardState struct {
	current  [KEYS_MAX_KEYS]bool
	previous [KEYS_MAX_KEYS]bool
}

func NewKeyboardState() *KeyboardState {
	return &KeyboardState{}
}

// Update copies the current state into the previous one. Call once per frame
// after all events were handled.
func (ks *KeyboardState) Update() {
	ks.previous = ks.current
}

// Process records a key transition and reports whether it changed the state.
func (ks *KeyboardState) Process(key KeyCode, pressed bool) bool {
	if key >= KEYS_MAX_KEYS {
		return false
	}
	if ks.current[key] == pressed {
		return false
	}
	ks.current[key] = pressed
	return true
}

func (ks *KeyboardState) IsKeyDown(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && ks.current[key]
}

func (ks *KeyboardState) IsKeyUp(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && !ks.current[key]
}

func (ks *KeyboardState) WasKeyDown(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && ks.previous[key]
}

func (ks *KeyboardState) WasKeyUp(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && !ks.previous[key]
}
