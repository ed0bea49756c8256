package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"twinchat/twinchat/controllers"
	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/color"
)

// Session is what the chat loop drives.
type Session interface {
	Open(ctx context.Context, agentID, userID string) ([]types.Message, error)
	Submit(ctx context.Context, agentID, userID, text string) (*types.Exchange, error)
	Close(agentID, userID string)
}

var _ Session = (*controllers.ChatController)(nil)

// runChat prints the session history and then reads one message per line
// until EOF, "exit" or "quit". A failed send is printed and the loop goes on.
func runChat(ctx context.Context, s Session, agentID, userID string, in io.Reader, out io.Writer) error {
	if userID == "" {
		return apierror.ErrMissingUser
	}
	defer s.Close(agentID, userID)

	history, err := s.Open(ctx, agentID, userID)
	if err != nil {
		return err
	}
	for _, m := range history {
		printMessage(out, m)
	}
	fmt.Fprintln(out, color.Info("Type your message or 'exit' to quit."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, color.Prompt("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		ex, err := s.Submit(ctx, agentID, userID, line)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, apierror.ErrSessionBusy) {
				fmt.Fprintln(out, color.Notice("still waiting for the last reply, try again"))
				continue
			}
			fmt.Fprintln(out, color.Error("error: "+apierror.Normalize(err).Message))
			continue
		}
		printMessage(out, ex.Agent)
	}
}

func printMessage(out io.Writer, m types.Message) {
	fmt.Fprintln(out, color.Speaker(m.Role)+m.Content)
}
