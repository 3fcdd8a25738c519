package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/lease-desk/internal/model/chat"
	"github.com/zhouzirui/lease-desk/internal/model/quickaction"
	"github.com/zhouzirui/lease-desk/internal/model/request"
	"github.com/zhouzirui/lease-desk/internal/service/attachment"
	"github.com/zhouzirui/lease-desk/internal/service/coordinator"
)

var (
	youLabel       = color.New(color.FgGreen, color.Bold).SprintFunc()
	assistantLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
	noticeColor    = color.New(color.FgYellow).SprintFunc()
	errorColor     = color.New(color.FgRed).SprintFunc()
	dimColor       = color.New(color.Faint).SprintFunc()
)

const chatHelp = `Commands:
  /attach <path>...   attach files to the next message
  /remove <id>        drop a pending attachment
  /files              list pending attachments
  /quick [n]          list quick actions or send quick action n
  /speak [id]         read an assistant message aloud (default: latest)
  /stop               stop playback
  /requests           show the maintenance request board
  /help               show this help
  /quit               exit`

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session with the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			console := newConsoleObserver(out)
			a := newApp(cfg, console)
			defer a.Close()

			repl := &chatREPL{
				app:     a,
				console: console,
				actions: quickaction.NewMemoryStore(quickaction.Seed()),
				out:     out,
			}
			return repl.run(ctx, cmd.InOrStdin())
		},
	}
}

// consoleObserver renders streamed assistant text as it arrives.
type consoleObserver struct {
	coordinator.Nop

	mu      sync.Mutex
	out     io.Writer
	printed map[string]string
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out, printed: make(map[string]string)}
}

func (c *consoleObserver) MessageUpdated(msg chat.Message) {
	if !msg.IsAssistant() || msg.Content == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, tracked := c.printed[msg.ID]
	if !tracked {
		return
	}
	if strings.HasPrefix(msg.Content, prev) {
		fmt.Fprint(c.out, msg.Content[len(prev):])
	} else {
		fmt.Fprint(c.out, "\n"+msg.Content)
	}
	c.printed[msg.ID] = msg.Content
}

func (c *consoleObserver) RequestObserved(draft request.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, noticeColor(fmt.Sprintf("Maintenance request %s created (%s, %s)", draft.ID, draft.Urgency, draft.Category)))
}

func (c *consoleObserver) NotifyError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, errorColor("! "+err.Error()))
}

// track starts rendering updates of the placeholder id.
func (c *consoleObserver) track(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printed[id] = ""
}

// settle stops tracking id and prints final if nothing was streamed.
func (c *consoleObserver) settle(id, final string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	shown := c.printed[id]
	delete(c.printed, id)
	if shown == "" {
		fmt.Fprint(c.out, final)
	} else if shown != final {
		fmt.Fprint(c.out, "\n"+final)
	}
	fmt.Fprintln(c.out)
}

type chatREPL struct {
	app         *app
	console     *consoleObserver
	actions     quickaction.Store
	out         io.Writer
	lastReplyID string
}

func (r *chatREPL) run(ctx context.Context, in io.Reader) error {
	for _, msg := range r.app.coord.Messages() {
		if msg.IsAssistant() {
			fmt.Fprintf(r.out, "%s %s\n", assistantLabel("Assistant:"), msg.Content)
			r.lastReplyID = msg.ID
		}
	}
	fmt.Fprintln(r.out, dimColor("Type /help for commands."))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, youLabel("You: "))
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.submit(ctx, line)
	}
}

func (r *chatREPL) submit(ctx context.Context, text string) {
	sub, ok := r.app.coord.Submit(text)
	if !ok {
		fmt.Fprintln(r.out, dimColor("Nothing to send."))
		return
	}

	r.console.track(sub.AssistantMessageID)
	fmt.Fprint(r.out, assistantLabel("Assistant: "))
	result, err := sub.Wait(ctx)
	if err != nil {
		fmt.Fprintln(r.out)
		return
	}
	r.console.settle(sub.AssistantMessageID, result.Text)
	r.lastReplyID = sub.AssistantMessageID
}

func (r *chatREPL) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	manager := r.app.coord.Attachments()

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/attach":
		if len(args) == 0 {
			fmt.Fprintln(r.out, errorColor("usage: /attach <path>..."))
			return false
		}
		files := make([]attachment.File, 0, len(args))
		for _, path := range args {
			f, err := attachment.FileFromPath(path)
			if err != nil {
				fmt.Fprintln(r.out, errorColor(err.Error()))
				return false
			}
			files = append(files, f)
		}
		added, err := manager.Add(files...)
		if err != nil {
			fmt.Fprintln(r.out, errorColor(err.Error()))
			return false
		}
		for _, a := range added {
			fmt.Fprintf(r.out, "%s %s (%s, %d bytes)\n", dimColor(a.ID), a.Name, a.MediaType, a.Size)
		}
	case "/remove":
		if len(args) != 1 {
			fmt.Fprintln(r.out, errorColor("usage: /remove <id>"))
			return false
		}
		if !manager.Remove(args[0]) {
			fmt.Fprintln(r.out, dimColor("No such attachment."))
		}
	case "/files":
		pending := manager.Pending()
		if len(pending) == 0 {
			fmt.Fprintln(r.out, dimColor("No pending attachments."))
		}
		for _, a := range pending {
			fmt.Fprintf(r.out, "%s %s (%s, %d bytes)\n", dimColor(a.ID), a.Name, a.MediaType, a.Size)
		}
	case "/quick":
		if len(args) == 0 {
			for i, action := range r.actions.List() {
				fmt.Fprintf(r.out, "%d. %s\n", i+1, action.Label)
			}
			return false
		}
		action, ok := r.actions.FindByID(args[0])
		if !ok {
			fmt.Fprintln(r.out, errorColor("unknown quick action "+args[0]))
			return false
		}
		fmt.Fprintf(r.out, "%s %s\n", youLabel("You:"), action.Prompt)
		r.submit(ctx, action.Prompt)
	case "/speak":
		id := r.lastReplyID
		if len(args) > 0 {
			id = args[0]
		}
		if id == "" {
			fmt.Fprintln(r.out, dimColor("Nothing to read yet."))
			return false
		}
		if err := r.app.coord.Speak(ctx, id); err != nil {
			fmt.Fprintln(r.out, errorColor(err.Error()))
		}
	case "/stop":
		if !r.app.coord.StopPlayback() {
			fmt.Fprintln(r.out, dimColor("Nothing is playing."))
		}
	case "/requests":
		printBoard(r.out, r.app.board.List())
		stats := r.app.board.Stats()
		fmt.Fprintf(r.out, "%s\n", dimColor(fmt.Sprintf("total %d, open %d, in progress %d, resolved %d",
			stats.Total, stats.Open, stats.InProgress, stats.Resolved)))
	default:
		fmt.Fprintln(r.out, errorColor("unknown command "+name+", try /help"))
	}
	return false
}

func printBoard(out io.Writer, records []request.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, dimColor("No maintenance requests."))
		return
	}
	for _, rec := range records {
		urgency := string(rec.Urgency)
		if rec.Urgency == request.UrgencyUrgent || rec.Urgency == request.UrgencyHigh {
			urgency = errorColor(urgency)
		}
		fmt.Fprintf(out, "%-16s %-10s %-8s %-11s %s\n", rec.ID, rec.Date, urgency, rec.Status, truncate(rec.Description, 60))
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
