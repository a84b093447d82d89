package command

import (
	"fmt"
	"strings"
)

// Handler runs a command with its positional arguments
type Handler func(env *Env, args []string) error

// Command describes one terminal verb
type Command struct {
	Name    string
	Args    int
	Usage   string
	Summary string
	Run     Handler
}

// Tokenize splits a line on single spaces. The first token is the command
// name and is trimmed; the rest are kept literally. A blank line has no tokens.
func Tokenize(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	tokens := strings.Split(line, " ")
	tokens[0] = strings.TrimSpace(tokens[0])
	return tokens
}

// CheckArity reports whether line carries exactly expected arguments
func CheckArity(line string, expected int) bool {
	return len(Tokenize(line)) == expected+1
}

// Dispatcher routes submitted lines to registered commands
type Dispatcher struct {
	commands map[string]*Command
	order    []string
}

// NewDispatcher creates a dispatcher with the built-in commands registered
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{commands: make(map[string]*Command)}
	for _, cmd := range builtinCommands(d) {
		if err := d.Register(cmd); err != nil {
			panic(err)
		}
	}
	return d
}

// Register adds a command
func (d *Dispatcher) Register(cmd Command) error {
	if cmd.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if strings.ContainsAny(cmd.Name, " \t") {
		return fmt.Errorf("command name cannot contain whitespace: %q", cmd.Name)
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}
	if _, exists := d.commands[cmd.Name]; exists {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}
	if cmd.Usage == "" {
		cmd.Usage = cmd.Name
	}
	d.commands[cmd.Name] = &cmd
	d.order = append(d.order, cmd.Name)
	return nil
}

// Lookup returns the command called name
func (d *Dispatcher) Lookup(name string) (*Command, bool) {
	cmd, ok := d.commands[name]
	return cmd, ok
}

// Commands returns the registered commands in registration order
func (d *Dispatcher) Commands() []*Command {
	cmds := make([]*Command, 0, len(d.order))
	for _, name := range d.order {
		cmds = append(cmds, d.commands[name])
	}
	return cmds
}

// Names returns the registered command names in registration order
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.order...)
}

// Execute runs one submitted line. Failures are printed to the environment's
// output and returned. A panic inside a handler is logged and returned as an
// internal error without being printed.
func (d *Dispatcher) Execute(env *Env, line string) (err error) {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil
	}
	name := tokens[0]
	if env.History != nil {
		env.History.Record(strings.TrimRight(line, "\r\n"))
	}

	defer func() {
		if r := recover(); r != nil {
			env.logger().Error("command panicked", "command", name, "panic", r)
			err = NewCommandError(ErrorInternal, name, "internal error", fmt.Errorf("%v", r))
		}
	}()

	cmd, ok := d.commands[name]
	if !ok {
		err = notACommand(name)
		env.println("%s", err.Error())
		return err
	}
	if !CheckArity(line, cmd.Args) {
		err = usageError(cmd)
		env.println("%s", err.Error())
		return err
	}

	env.logger().Debug("executing command", "command", name, "args", tokens[1:])
	if err = cmd.Run(env, tokens[1:]); err != nil {
		env.println("%s", err.Error())
	}
	return err
}
