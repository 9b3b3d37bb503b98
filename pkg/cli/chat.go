package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/repository/bolt"
	"github.com/secmon-lab/termfolio/pkg/repository/memory"
	"github.com/secmon-lab/termfolio/pkg/service/chatapi"
	"github.com/secmon-lab/termfolio/pkg/session"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
	"github.com/secmon-lab/termfolio/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const (
	replClear = "/clear"
	replExit  = "/exit"
	prompt    = "> "
)

var (
	userColor      = color.New(color.FgHiGreen, color.Bold)
	assistantColor = color.New(color.FgHiCyan)
	noticeColor    = color.New(color.FgYellow)
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".termfolio", "history.db")
}

func cmdChat() *cli.Command {
	var serverURL string
	var historyPath string
	var stream bool

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Chat with the portfolio assistant in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "Base URL of the termfolio server",
				Value:       chatapi.DefaultBaseURL,
				Sources:     cli.EnvVars("TERMFOLIO_SERVER_URL"),
				Destination: &serverURL,
			},
			&cli.StringFlag{
				Name:        "history",
				Usage:       "Path of the local history database (empty keeps history in memory)",
				Value:       defaultHistoryPath(),
				Sources:     cli.EnvVars("TERMFOLIO_HISTORY"),
				Destination: &historyPath,
			},
			&cli.BoolFlag{
				Name:        "stream",
				Usage:       "Stream replies as they are generated",
				Sources:     cli.EnvVars("TERMFOLIO_STREAM"),
				Destination: &stream,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := openHistory(historyPath)
			if err != nil {
				return err
			}
			if closer, ok := store.(io.Closer); ok {
				defer safe.Close(ctx, closer)
			}

			logging.From(ctx).Debug("Starting chat", "server", serverURL, "history", historyPath, "stream", stream)

			sess := session.New(ctx, store, chatapi.New(serverURL))
			return runREPL(ctx, sess, os.Stdin, os.Stdout, stream)
		},
	}
}

func openHistory(path string) (interfaces.HistoryStore, error) {
	if path == "" {
		return memory.NewHistoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, goerr.Wrap(err, "failed to create history directory", goerr.V("path", path))
	}
	store, err := bolt.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open history database", goerr.V("path", path))
	}
	return store, nil
}

func printMessage(w io.Writer, msg *model.ChatMessage) {
	if msg.IsUser {
		userColor.Fprintf(w, "%s%s\n", prompt, msg.Text)
		return
	}
	assistantColor.Fprintln(w, msg.Text)
}

// runREPL reads one message per line from in until EOF, /exit or
// cancellation of ctx.
func runREPL(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer, stream bool) error {
	for _, msg := range sess.Messages() {
		printMessage(out, msg)
	}
	noticeColor.Fprintf(out, "Type %s to reset the conversation, %s to quit.\n", replClear, replExit)

	scanner := bufio.NewScanner(in)
	for {
		userColor.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case replExit:
			return nil
		case replClear:
			if err := sess.Clear(ctx); err != nil {
				return goerr.Wrap(err, "failed to clear session")
			}
			printMessage(out, sess.Messages()[0])
			continue
		}

		if stream {
			printed := false
			reply, err := sess.SendStream(ctx, line, func(chunk string) {
				printed = true
				assistantColor.Fprint(out, chunk)
			})
			if printed {
				fmt.Fprintln(out)
			}
			if err != nil {
				logging.From(ctx).Debug("stream failed", logging.ErrAttr(err))
			}
			if !printed && reply != nil {
				printMessage(out, reply)
			}
			continue
		}

		reply, err := sess.Send(ctx, line)
		if err != nil {
			logging.From(ctx).Debug("request failed", logging.ErrAttr(err))
		}
		if reply != nil {
			printMessage(out, reply)
		}
	}
}
