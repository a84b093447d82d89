package editor

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Action is what a key press asks the editor or its host to do
type Action int

const (
	ActionNone Action = iota
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionWordLeft
	ActionWordRight
	ActionHome
	ActionEnd
	ActionBackspace
	ActionWordBackspace
	ActionDelete
	ActionNewline
	ActionInsertTab
	ActionDuplicateLine
	ActionSwapUp
	ActionSwapDown

	// host actions, not handled by the editor itself
	ActionRun
	ActionClose
	ActionFocus
	ActionHelp
	ActionMenu
	ActionSave
	ActionScrollUp
	ActionScrollDown
	ActionQuit
)

var actionNames = []string{
	"none", "left", "right", "up", "down", "word-left", "word-right", "home",
	"end", "backspace", "word-backspace", "delete", "newline", "tab",
	"duplicate-line", "swap-up", "swap-down", "run", "close", "focus", "help",
	"menu", "save", "scroll-up", "scroll-down", "quit",
}

// String returns the string representation of Action
func (a Action) String() string {
	if int(a) >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction converts an action name to an Action
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name && i != int(ActionNone) {
			return Action(i), nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action: %s", name)
}

// IsEdit reports whether the editor handles the action itself
func (a Action) IsEdit() bool {
	return a > ActionNone && a < ActionRun
}

// Repeats reports whether holding the key should repeat the action
func (a Action) Repeats() bool {
	switch a {
	case ActionMoveLeft, ActionMoveRight, ActionMoveUp, ActionMoveDown,
		ActionWordLeft, ActionWordRight, ActionBackspace, ActionWordBackspace, ActionDelete:
		return true
	}
	return false
}

// Binding maps a key combination to an action
type Binding struct {
	Key    tcell.Key
	Char   rune
	Mods   tcell.ModMask
	Action Action
}

// Matches checks if the given key event matches this binding. Shift is
// ignored unless the binding asks for it.
func (b Binding) Matches(key tcell.Key, char rune, mods tcell.ModMask) bool {
	mods &^= tcell.ModMeta
	if b.Mods&tcell.ModShift == 0 {
		mods &^= tcell.ModShift
	}
	if b.Mods != mods {
		return false
	}
	if b.Key != tcell.KeyRune {
		return b.Key == key
	}
	return key == tcell.KeyRune && b.Char == char
}

// String formats the key combination for display
func (b Binding) String() string {
	var parts []string
	if b.Mods&tcell.ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if b.Mods&tcell.ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if b.Mods&tcell.ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if b.Key == tcell.KeyRune {
		parts = append(parts, string(b.Char))
	} else {
		parts = append(parts, keyToString(b.Key))
	}
	return strings.Join(parts, "+")
}

// Keymap resolves key events to actions. The first matching binding wins.
type Keymap struct {
	bindings []Binding
}

// DefaultKeymap returns the standard bindings
func DefaultKeymap() *Keymap {
	return &Keymap{bindings: []Binding{
		{Key: tcell.KeyLeft, Action: ActionMoveLeft},
		{Key: tcell.KeyRight, Action: ActionMoveRight},
		{Key: tcell.KeyUp, Action: ActionMoveUp},
		{Key: tcell.KeyDown, Action: ActionMoveDown},
		{Key: tcell.KeyLeft, Mods: tcell.ModCtrl, Action: ActionWordLeft},
		{Key: tcell.KeyRight, Mods: tcell.ModCtrl, Action: ActionWordRight},
		{Key: tcell.KeyHome, Action: ActionHome},
		{Key: tcell.KeyEnd, Action: ActionEnd},
		{Key: tcell.KeyBackspace2, Action: ActionBackspace},
		// most terminals send ^H for ctrl+backspace
		{Key: tcell.KeyBackspace, Action: ActionWordBackspace},
		{Key: tcell.KeyBackspace2, Mods: tcell.ModCtrl, Action: ActionWordBackspace},
		{Key: tcell.KeyBackspace2, Mods: tcell.ModAlt, Action: ActionWordBackspace},
		{Key: tcell.KeyCtrlW, Mods: tcell.ModCtrl, Action: ActionWordBackspace},
		{Key: tcell.KeyDelete, Action: ActionDelete},
		{Key: tcell.KeyEnter, Action: ActionNewline},
		{Key: tcell.KeyTab, Action: ActionInsertTab},
		{Key: tcell.KeyCtrlD, Mods: tcell.ModCtrl, Action: ActionDuplicateLine},
		{Key: tcell.KeyUp, Mods: tcell.ModAlt, Action: ActionSwapUp},
		{Key: tcell.KeyDown, Mods: tcell.ModAlt, Action: ActionSwapDown},

		{Key: tcell.KeyF5, Action: ActionRun},
		{Key: tcell.KeyEscape, Action: ActionClose},
		{Key: tcell.KeyF2, Action: ActionFocus},
		{Key: tcell.KeyF1, Action: ActionHelp},
		{Key: tcell.KeyF10, Action: ActionMenu},
		{Key: tcell.KeyCtrlS, Mods: tcell.ModCtrl, Action: ActionSave},
		{Key: tcell.KeyPgUp, Action: ActionScrollUp},
		{Key: tcell.KeyPgDn, Action: ActionScrollDown},
		{Key: tcell.KeyCtrlQ, Mods: tcell.ModCtrl, Action: ActionQuit},
	}}
}

// Lookup returns the action bound to the key combination
func (k *Keymap) Lookup(key tcell.Key, char rune, mods tcell.ModMask) (Action, bool) {
	for _, b := range k.bindings {
		if b.Matches(key, char, mods) {
			return b.Action, true
		}
	}
	return ActionNone, false
}

// Resolve returns the action bound to ev
func (k *Keymap) Resolve(ev *tcell.EventKey) (Action, bool) {
	return k.Lookup(ev.Key(), ev.Rune(), ev.Modifiers())
}

// Bind adds a binding ahead of the existing ones
func (k *Keymap) Bind(b Binding) {
	k.bindings = append([]Binding{b}, k.bindings...)
}

// BindKey binds a key described like "Ctrl+S" or "F5" to the named action
func (k *Keymap) BindKey(desc, action string) error {
	a, err := ParseAction(action)
	if err != nil {
		return err
	}
	b, err := ParseBinding(desc)
	if err != nil {
		return err
	}
	b.Action = a
	k.Bind(b)
	return nil
}

// Bindings returns the bindings in lookup order
func (k *Keymap) Bindings() []Binding {
	return append([]Binding(nil), k.bindings...)
}

// Help returns one line per host action binding
func (k *Keymap) Help() []string {
	var lines []string
	seen := map[Action]bool{}
	for _, b := range k.bindings {
		if b.Action.IsEdit() || seen[b.Action] {
			continue
		}
		seen[b.Action] = true
		lines = append(lines, fmt.Sprintf("  %-12s %s", b.String(), b.Action))
	}
	return lines
}

// ParseBinding parses a key description such as "Ctrl+Left", "Alt+x" or "F5"
func ParseBinding(desc string) (Binding, error) {
	parts := strings.Split(desc, "+")
	var b Binding
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl":
			b.Mods |= tcell.ModCtrl
		case "alt":
			b.Mods |= tcell.ModAlt
		case "shift":
			b.Mods |= tcell.ModShift
		default:
			return Binding{}, fmt.Errorf("unknown modifier %q in %q", mod, desc)
		}
	}

	name := strings.TrimSpace(parts[len(parts)-1])
	if key, err := stringToKey(name); err == nil {
		b.Key = key
		return b, nil
	}
	runes := []rune(name)
	if len(runes) != 1 {
		return Binding{}, fmt.Errorf("unknown key: %s", name)
	}

	// tcell reports ctrl+letter as a control key
	if b.Mods&tcell.ModCtrl != 0 {
		r := runes[0] | 0x20
		if r >= 'a' && r <= 'z' {
			b.Key = tcell.KeyCtrlA + tcell.Key(r-'a')
			return b, nil
		}
	}
	b.Key = tcell.KeyRune
	b.Char = runes[0]
	return b, nil
}

var keyNames = map[tcell.Key]string{
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
	tcell.KeyEnter:      "Enter",
	tcell.KeyTab:        "Tab",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyBackspace:  "CtrlBackspace",
	tcell.KeyDelete:     "Delete",
	tcell.KeyInsert:     "Insert",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PgUp",
	tcell.KeyPgDn:       "PgDn",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyEscape:     "Esc",
}

func keyToString(key tcell.Key) string {
	if name, ok := keyNames[key]; ok {
		return name
	}
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return string(rune('A' + key - tcell.KeyCtrlA))
	}
	return "Unknown"
}

func stringToKey(name string) (tcell.Key, error) {
	for key, n := range keyNames {
		if strings.EqualFold(n, name) {
			return key, nil
		}
	}
	return tcell.KeyRune, fmt.Errorf("unknown key: %s", name)
}
