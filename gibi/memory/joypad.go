package memory

import "github.com/mkoenig/go-gibi/gibi/bit"

// Joypad tracks the physical button/d-pad state and the P1 register's
// selection bits, firing an interrupt callback when a press pulls a line of
// a selected row from 1 to 0 (released to pressed).
type Joypad struct {
	buttons uint8 // low nibble: A,B,Select,Start, 1 = released
	dpad    uint8 // low nibble: Right,Left,Up,Down, 1 = released
	line    uint8 // P1 bits 4-5, as last written

	OnTransition func()
}

// NewJoypad creates a Joypad with all buttons released.
func NewJoypad() *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
	}
}

// Register computes the full P1 byte as the CPU would read it: bits 6-7
// always 1, bits 4-5 echo the last selection write, bits 0-3 reflect
// whichever button group(s) are selected (both ANDed together if both are).
func (j *Joypad) Register() uint8 {
	result := uint8(0b11000000) | (j.line & 0b00110000)

	selectDpad := !bit.IsSet(4, j.line)
	selectButtons := !bit.IsSet(5, j.line)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= j.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad & 0x0F
	default:
		result |= 0x0F
	}

	return result
}

// WriteSelect updates the selection bits (4-5) written through P1.
func (j *Joypad) WriteSelect(value uint8) {
	j.line = value & 0b00110000
}

// Press marks the key as held. The joypad interrupt only fires when the
// press pulls a line low on a currently selected row; keys on an unselected
// row change state silently.
func (j *Joypad) Press(key JoypadKey) {
	oldButtons, oldDpad := j.buttons, j.dpad
	j.set(key, false)

	selectDpad := !bit.IsSet(4, j.line)
	selectButtons := !bit.IsSet(5, j.line)

	buttonTransitions := oldButtons & ^j.buttons
	dpadTransitions := oldDpad & ^j.dpad
	fired := (selectButtons && buttonTransitions != 0) || (selectDpad && dpadTransitions != 0)
	if fired && j.OnTransition != nil {
		j.OnTransition()
	}
}

func (j *Joypad) Release(key JoypadKey) {
	j.set(key, true)
}

func (j *Joypad) set(key JoypadKey, released bool) {
	var group *uint8
	var bitIdx uint8

	switch key {
	case JoypadRight:
		group, bitIdx = &j.dpad, 0
	case JoypadLeft:
		group, bitIdx = &j.dpad, 1
	case JoypadUp:
		group, bitIdx = &j.dpad, 2
	case JoypadDown:
		group, bitIdx = &j.dpad, 3
	case JoypadA:
		group, bitIdx = &j.buttons, 0
	case JoypadB:
		group, bitIdx = &j.buttons, 1
	case JoypadSelect:
		group, bitIdx = &j.buttons, 2
	case JoypadStart:
		group, bitIdx = &j.buttons, 3
	default:
		return
	}

	if released {
		*group = bit.Set(bitIdx, *group)
	} else {
		*group = bit.Reset(bitIdx, *group)
	}
}
