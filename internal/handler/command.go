package handler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type commandKind int

const (
	cmdOpenModal commandKind = iota
	cmdAdd
	cmdRename
	cmdDelete
	cmdDone
	cmdList
	cmdHelp
)

type command struct {
	kind  commandKind
	index int
	name  string
}

const usage = "Usage: `add [name]`, `rename <index> <name>`, `delete <index>`, `done <index>`, `list`"

// parseCommand parses slash command text. An empty text or a bare "add"
// asks for the add-habit modal.
func parseCommand(text string) (command, error) {
	verb, rest := splitWord(text)

	switch strings.ToLower(verb) {
	case "", "add":
		if rest == "" {
			return command{kind: cmdOpenModal}, nil
		}
		return command{kind: cmdAdd, name: rest}, nil

	case "rename":
		raw, name := splitWord(rest)
		index, err := parseIndex(raw)
		if err != nil {
			return command{}, err
		}
		if name == "" {
			return command{}, fmt.Errorf("rename needs a new name")
		}
		return command{kind: cmdRename, index: index, name: name}, nil

	case "delete", "done":
		index, err := parseIndex(rest)
		if err != nil {
			return command{}, err
		}
		kind := cmdDelete
		if strings.EqualFold(verb, "done") {
			kind = cmdDone
		}
		return command{kind: kind, index: index}, nil

	case "list":
		return command{kind: cmdList}, nil

	case "help":
		return command{kind: cmdHelp}, nil
	}

	return command{}, fmt.Errorf("unknown command %q", verb)
}

func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func parseIndex(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing habit index")
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("habit index %q is not a number", raw)
	}
	return index, nil
}
