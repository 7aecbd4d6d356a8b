package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Target receives the intents typed at the terminal.
type Target interface {
	ToggleRecord()
	NewTrial()
}

// ReadKeys turns input lines into intents until the user quits or input ends.
// An empty line (enter) or "r" toggles recording; "n" picks a new word.
func ReadKeys(ctx context.Context, in io.Reader, target Target) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "r":
				target.ToggleRecord()
			case "n":
				target.NewTrial()
			case "q", "quit", "exit":
				return nil
			}
		}
	}
}
