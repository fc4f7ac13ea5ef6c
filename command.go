package routeros

import (
	"strings"

	"github.com/ShafiqSadat/RouterOSClient/internal/protocol"
)

// Row is one data row of a command reply, attribute keys to values.
type Row map[string]string

// Command is one API command: a path plus argument tokens. Argument
// tokens written as key=value gain the attribute marker on the wire;
// tokens already carrying a marker byte pass through untouched.
type Command struct {
	Path string
	Args []string

	raw []string
}

func NewCommand(path string, args ...string) Command {
	return Command{Path: path, Args: args}
}

// RawCommand sends words exactly as given, bypassing token marking.
func RawCommand(words ...string) Command {
	return Command{raw: words}
}

// ParseCommand splits a command line on whitespace: the first field is
// the path, the rest are argument tokens. Values with spaces need
// RawCommand or NewCommand instead.
func ParseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Path: fields[0], Args: fields[1:]}
}

func (c Command) words() protocol.Sentence {
	if len(c.raw) > 0 {
		return protocol.Sentence(c.raw)
	}
	return protocol.CommandWords(c.Path, c.Args)
}

// name is the command's path for errors and logs.
func (c Command) name() string {
	if len(c.raw) > 0 {
		return c.raw[0]
	}
	return c.Path
}

func (c Command) empty() bool {
	return len(c.raw) == 0 && strings.TrimSpace(c.Path) == ""
}
