package app

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Menu is a centered overlay listing host actions
type Menu struct {
	items    []MenuItem
	selected int
	visible  bool
	screen   tcell.Screen
	x, y     int
	width    int
	height   int
	title    string

	onError func(err error)
}

// MenuItem represents a single menu item
type MenuItem struct {
	Label     string
	Shortcut  string
	Action    func() error
	Enabled   bool
	Separator bool
}

// NewMenu creates a new menu
func NewMenu(title string, screen tcell.Screen) *Menu {
	m := &Menu{title: title, screen: screen}
	m.updateDimensions()
	return m
}

// AddItem adds a menu item
func (m *Menu) AddItem(label, shortcut string, action func() error) {
	m.items = append(m.items, MenuItem{
		Label:    label,
		Shortcut: shortcut,
		Action:   action,
		Enabled:  true,
	})
	m.updateDimensions()
}

// AddSeparator adds a separator line
func (m *Menu) AddSeparator() {
	m.items = append(m.items, MenuItem{Separator: true})
	m.updateDimensions()
}

// Items returns the menu items
func (m *Menu) Items() []MenuItem {
	return append([]MenuItem(nil), m.items...)
}

// Selected returns the index of the highlighted item
func (m *Menu) Selected() int {
	return m.selected
}

// SetOnError sets the callback for failed item actions
func (m *Menu) SetOnError(callback func(err error)) {
	m.onError = callback
}

// Show opens the menu with the first enabled item selected
func (m *Menu) Show() {
	m.visible = true
	m.selected = -1
	m.moveSelection(1)
}

// Hide closes the menu
func (m *Menu) Hide() {
	m.visible = false
}

// IsVisible returns whether the menu is visible
func (m *Menu) IsVisible() bool {
	return m.visible
}

// EnableItem enables or disables a menu item
func (m *Menu) EnableItem(index int, enabled bool) {
	if index >= 0 && index < len(m.items) {
		m.items[index].Enabled = enabled
	}
}

// HandleKey processes keyboard input while the menu is open
func (m *Menu) HandleKey(ev *tcell.EventKey) bool {
	if !m.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyF10:
		m.Hide()
	case tcell.KeyUp:
		m.moveSelection(-1)
	case tcell.KeyDown:
		m.moveSelection(1)
	case tcell.KeyEnter:
		m.activate(m.selected)
	case tcell.KeyRune:
		for i, item := range m.items {
			if item.Enabled && !item.Separator && item.Shortcut == string(ev.Rune()) {
				m.activate(i)
				break
			}
		}
	}
	return true
}

// Draw renders the menu centered on screen
func (m *Menu) Draw() {
	if !m.visible {
		return
	}

	style := tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	selectedStyle := tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	disabledStyle := style.Foreground(tcell.ColorGray)

	screenWidth, screenHeight := m.screen.Size()
	m.x = max(0, (screenWidth-m.width)/2)
	m.y = max(0, (screenHeight-m.height)/2)
	m.drawBorder(style)

	itemY := m.y + 1
	if m.title != "" {
		m.drawText(m.x+(m.width-runewidth.StringWidth(m.title))/2, itemY, m.title, style.Bold(true))
		itemY++
		m.drawRule(itemY, style)
		itemY++
	}

	for i, item := range m.items {
		if item.Separator {
			m.drawRule(itemY, style)
			itemY++
			continue
		}

		itemStyle := style
		if !item.Enabled {
			itemStyle = disabledStyle
		} else if i == m.selected {
			itemStyle = selectedStyle
		}
		for x := m.x + 1; x < m.x+m.width-1; x++ {
			m.screen.SetContent(x, itemY, ' ', nil, itemStyle)
		}
		m.drawText(m.x+2, itemY, item.Label, itemStyle)
		if item.Shortcut != "" {
			m.drawText(m.x+m.width-runewidth.StringWidth(item.Shortcut)-2, itemY, item.Shortcut, itemStyle)
		}
		itemY++
	}
}

func (m *Menu) activate(index int) {
	if index < 0 || index >= len(m.items) {
		return
	}
	item := m.items[index]
	if !item.Enabled || item.Separator || item.Action == nil {
		return
	}
	m.Hide()
	if err := item.Action(); err != nil && m.onError != nil {
		m.onError(err)
	}
}

// moveSelection moves the selection up or down, skipping separators and
// disabled items
func (m *Menu) moveSelection(direction int) {
	n := len(m.items)
	for step := 1; step <= n; step++ {
		i := ((m.selected+direction*step)%n + n) % n
		if !m.items[i].Separator && m.items[i].Enabled {
			m.selected = i
			return
		}
	}
}

func (m *Menu) drawBorder(style tcell.Style) {
	right, bottom := m.x+m.width-1, m.y+m.height-1
	m.screen.SetContent(m.x, m.y, '┌', nil, style)
	m.screen.SetContent(right, m.y, '┐', nil, style)
	m.screen.SetContent(m.x, bottom, '└', nil, style)
	m.screen.SetContent(right, bottom, '┘', nil, style)
	for x := m.x + 1; x < right; x++ {
		m.screen.SetContent(x, m.y, '─', nil, style)
		m.screen.SetContent(x, bottom, '─', nil, style)
	}
	for y := m.y + 1; y < bottom; y++ {
		m.screen.SetContent(m.x, y, '│', nil, style)
		m.screen.SetContent(right, y, '│', nil, style)
		for x := m.x + 1; x < right; x++ {
			m.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func (m *Menu) drawRule(y int, style tcell.Style) {
	for x := m.x + 1; x < m.x+m.width-1; x++ {
		m.screen.SetContent(x, y, '─', nil, style)
	}
}

func (m *Menu) drawText(x, y int, text string, style tcell.Style) {
	for _, ch := range text {
		m.screen.SetContent(x, y, ch, nil, style)
		x += runewidth.RuneWidth(ch)
	}
}

// updateDimensions updates menu dimensions based on items
func (m *Menu) updateDimensions() {
	maxWidth := runewidth.StringWidth(m.title) + 4
	for _, item := range m.items {
		if item.Separator {
			continue
		}
		if w := runewidth.StringWidth(item.Label) + runewidth.StringWidth(item.Shortcut) + 8; w > maxWidth {
			maxWidth = w
		}
	}

	m.width = maxWidth
	m.height = len(m.items) + 2
	if m.title != "" {
		m.height += 2
	}
}
