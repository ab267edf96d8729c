package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
)

// Commands handled by the terminal front end on top of the session ones.
const (
	commandImage = "/image"
	commandLink  = "/link"
	commandQuit  = "/quit"
)

// terminal drives an orchestrator.Session from line based input.
type terminal struct {
	in        *bufio.Scanner
	out       io.Writer
	launcher  launcher
	readImage func(path string) (domain.Image, error)

	session orchestrator.Session
}

func newTerminal(in io.Reader, out io.Writer, l launcher) *terminal {
	return &terminal{
		in:        bufio.NewScanner(in),
		out:       out,
		launcher:  l,
		readImage: readImage,
	}
}

func (t *terminal) show(reply orchestrator.Reply) {
	if reply.Error != "" {
		fmt.Fprintln(t.out, reply.Error)
	}
	fmt.Fprintln(t.out, reply.Prompt)
}

// run reads lines until EOF or /quit. Launch failures are reported and the
// session returns to idle.
func (t *terminal) run(ctx context.Context) error {
	fmt.Fprintln(t.out, t.session.Prompt())

	for t.in.Scan() {
		line := strings.TrimSpace(t.in.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case commandQuit:
			return nil
		case commandImage:
			t.attachImage(arg)
			continue
		case commandLink:
			t.setLink(arg)
			continue
		}

		next, reply := t.session.Handle(line)
		t.session = next
		t.show(reply)

		if reply.Request != nil {
			// A failed launch is already reported by runLaunch.
			_, _ = runLaunch(ctx, t.out, t.launcher, reply.Request)
			t.session = t.session.Complete()
			fmt.Fprintln(t.out, t.session.Prompt())
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return t.in.Err()
}

func (t *terminal) attachImage(path string) {
	if path == "" {
		fmt.Fprintln(t.out, "Error: usage /image <path>")
		return
	}
	img, err := t.readImage(path)
	if err != nil {
		fmt.Fprintln(t.out, "Error: "+err.Error())
		return
	}
	next, reply := t.session.AttachImage(img)
	t.session = next
	if reply.Error == "" {
		fmt.Fprintln(t.out, "Image attached.")
	}
	t.show(reply)
}

// setLink handles "/link x|website|telegram <url>".
func (t *terminal) setLink(arg string) {
	kind, url, _ := strings.Cut(arg, " ")
	url = strings.TrimSpace(url)

	links := t.session.Draft.Links
	switch kind {
	case "x", "twitter":
		links.X = url
	case "website":
		links.Website = url
	case "telegram":
		links.Telegram = url
	default:
		fmt.Fprintln(t.out, "Error: usage /link x|website|telegram <url>")
		return
	}
	t.session = t.session.SetLinks(links)
	fmt.Fprintln(t.out, t.session.Prompt())
}

func interactiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Create a token step by step",
		Long: "Walks through name, ticker, description, image and initial buy. " +
			"Attach the image with /image <path>, set links with /link x|website|telegram <url>, " +
			"start over with /reset and leave with /quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return newTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), a.Orchestrator).run(cmd.Context())
		},
	}
}
