// twinchat/utils/color/color.go
package color

import (
	"twinchat/twinchat/types"

	"github.com/fatih/color"
)

var (
	prompt  = color.New(color.FgCyan, color.Bold)
	info    = color.New(color.FgGreen)
	notice  = color.New(color.FgYellow, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
	success = color.New(color.FgGreen, color.Bold)

	speakers = map[types.Role]*color.Color{
		types.RoleUser:  color.New(color.FgHiBlue),
		types.RoleAgent: color.New(color.FgHiYellow, color.Bold),
	}
)

func Prompt(s string) string  { return prompt.Sprint(s) }
func Info(s string) string    { return info.Sprint(s) }
func Error(s string) string   { return failure.Sprint(s) }
func Success(s string) string { return success.Sprint(s) }

// Notice is for conditions the user can wait out, like a send still in flight.
func Notice(s string) string { return notice.Sprint(s) }

// Speaker labels a chat line with its author, "you: " or "agent: ".
func Speaker(role types.Role) string {
	label := "agent: "
	if role == types.RoleUser {
		label = "you: "
	}
	if c, ok := speakers[role]; ok {
		return c.Sprint(label)
	}
	return label
}

// Disable turns colouring off, e.g. when output is not a terminal.
func Disable() {
	color.NoColor = true
}
