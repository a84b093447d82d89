package history

// Cursor walks the command history for replay in the input line. Position
// len(commands) is the fresh line being typed.
type Cursor struct {
	commands []string
	pos      int
	draft    string
}

// NewCursor creates a cursor positioned after the newest command
func NewCursor(commands []string) *Cursor {
	c := &Cursor{}
	c.Reset(commands)
	return c
}

// Reset replaces the commands and moves back to the fresh line
func (c *Cursor) Reset(commands []string) {
	c.commands = append([]string(nil), commands...)
	c.pos = len(c.commands)
	c.draft = ""
}

// Push appends a command and moves back to the fresh line
func (c *Cursor) Push(command string) {
	c.commands = append(c.commands, command)
	c.pos = len(c.commands)
	c.draft = ""
}

// Prev moves to the previous command. current is the text of the input line,
// kept as the draft when leaving the fresh line.
func (c *Cursor) Prev(current string) (string, error) {
	if c.pos == 0 {
		return "", ErrEndOfHistory
	}
	if c.pos == len(c.commands) {
		c.draft = current
	}
	c.pos--
	return c.commands[c.pos], nil
}

// Next moves to the next command, returning the draft when reaching the fresh line
func (c *Cursor) Next() (string, error) {
	if c.pos >= len(c.commands) {
		return "", ErrEndOfHistory
	}
	c.pos++
	if c.pos == len(c.commands) {
		return c.draft, nil
	}
	return c.commands[c.pos], nil
}

// Commands returns a copy of the commands
func (c *Cursor) Commands() []string {
	return append([]string(nil), c.commands...)
}
