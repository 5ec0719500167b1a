package models

import "strings"

// CommandType enumerates the quick-entry commands accepted over WhatsApp.
type CommandType string

const (
	CommandExpense CommandType = "expense"
	CommandIncome  CommandType = "income"
	CommandTasks   CommandType = "tasks"
	CommandDone    CommandType = "done"
	CommandReport  CommandType = "report"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command is a parsed quick-entry message. Args keep their original case so
// descriptions and sources survive as typed.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. The leading slash is
// optional and the command word is case-insensitive.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return cmd
	}

	switch head := CommandType(strings.ToLower(strings.TrimPrefix(tokens[0], "/"))); head {
	case CommandExpense, CommandIncome, CommandTasks, CommandDone, CommandReport, CommandHelp:
		cmd.Type = head
	case "expenses":
		cmd.Type = CommandExpense
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
