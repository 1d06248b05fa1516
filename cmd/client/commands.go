package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harrylevesque/taskboard/internal/dashboard"
	"github.com/harrylevesque/taskboard/internal/files"
	"github.com/harrylevesque/taskboard/internal/models"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in and save the session cookie",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		email := ""
		if len(args) == 1 {
			email = args[0]
		} else {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			line, _ := in.ReadString('\n')
			email = strings.TrimSpace(line)
		}
		password, err := readPassword(cmd, in)
		if err != nil {
			return err
		}

		ctx, cancel := withTimeout(cmd)
		defer cancel()
		cookie, err := dashboard.Login(ctx, nil, cfg.Client.ServerURL, email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := sessionStore().Save(files.SavedSession{Server: cfg.Client.ServerURL, Email: email, Cookie: cookie}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
		return nil
	},
}

func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if pw := os.Getenv("TASKBOARD_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionStore().Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"show"},
	Short:   "Fetch and print the dashboard once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		_, st, err := loaded(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), st)
	},
}

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the dashboard and reprint it whenever tasks change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loadCtx, cancel := context.WithTimeout(ctx, timeout)
		c, st, err := loaded(loadCtx)
		cancel()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := render(out, st); err != nil {
			return err
		}

		interval := watchInterval
		if interval <= 0 {
			interval = cfg.Client.RefreshInterval
		}
		p := dashboard.NewPoller(c, interval, func(st dashboard.State) {
			fmt.Fprintf(out, "\n--- updated %s ---\n", st.LoadedAt.Format(time.Kitchen))
			_ = render(out, st)
		}, logger.Named("poller"))
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var (
	addDue       string
	addCategory  string
	addReasoning string
)

var addCmd = &cobra.Command{
	Use:   "add <task name>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController()
		if err != nil {
			return err
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		ack, err := c.AddTask(ctx, dashboard.NewTask{
			Name:      strings.Join(args, " "),
			DueDate:   addDue,
			Category:  addCategory,
			Reasoning: addReasoning,
		})
		if err != nil {
			return err
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

var suggestAccept bool

var suggestCmd = &cobra.Command{
	Use:   "suggest <free text>",
	Short: "Ask the assistant to draft a task from free text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController()
		if err != nil {
			return err
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		draft, err := c.SuggestTask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		renderDraft(out, draft)
		if !suggestAccept {
			fmt.Fprintln(out, "Run again with --accept to add it.")
			return nil
		}
		ack, err := c.AcceptDraft(ctx, draft)
		if err != nil {
			return err
		}
		return printAck(out, ack)
	},
}

func statusCommand(use, short string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			c, _, err := loaded(ctx)
			if err != nil {
				return err
			}
			ack, err := c.SetTaskStatus(ctx, args[0], done)
			if err != nil {
				return err
			}
			return printAck(cmd.OutOrStdout(), ack)
		},
	}
}

var (
	doneCmd = statusCommand("done", "Mark a task done", true)
	undoCmd = statusCommand("undo", "Mark a task pending again", false)
)

var extendCmd = &cobra.Command{
	Use:   "extend <task_id> [days]",
	Short: "Push a task's due date back (default one day)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("days must be a positive number, got %q", args[1])
			}
			days = n
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		c, _, err := loaded(ctx)
		if err != nil {
			return err
		}
		ack, err := c.ExtendDueDate(ctx, args[0], days)
		if err != nil {
			return err
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <text>",
	Short: "Send feedback to the assistant",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController()
		if err != nil {
			return err
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		ack, err := c.SendFeedback(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

var goalUpdate dashboard.GoalUpdate

var goalCmd = &cobra.Command{
	Use:   "goal <goal_id>",
	Short: "Update a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController()
		if err != nil {
			return err
		}
		u := goalUpdate
		u.GoalID = args[0]
		status, _ := cmd.Flags().GetString("status")
		u.Status = models.GoalStatus(status)
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		ack, err := c.UpdateGoal(ctx, u)
		if err != nil {
			return err
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

var (
	profileJob    string
	profileStatus string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your job and current status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileJob == "" && profileStatus == "" {
			return errors.New("set --job or --status")
		}
		c, err := newController()
		if err != nil {
			return err
		}
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		ack, err := c.UpdateProfile(ctx, profileJob, profileStatus)
		if err != nil {
			return err
		}
		return printAck(cmd.OutOrStdout(), ack)
	},
}

var showCacheCmd = &cobra.Command{
	Use:   "show-cache",
	Short: "Print the locally cached profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := profileStore()
		p, err := store.Load()
		if errors.Is(err, files.ErrNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No cached profile at %s\n", store.Path())
			return nil
		}
		if err != nil {
			return err
		}
		return renderCache(cmd.OutOrStdout(), store.Path(), p)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "refresh interval (default from config)")

	addCmd.Flags().StringVar(&addDue, "due", "", "due date, YYYY-MM-DD (default today)")
	addCmd.Flags().StringVar(&addCategory, "category", "", "category")
	addCmd.Flags().StringVar(&addReasoning, "reasoning", "", "why this task matters")

	suggestCmd.Flags().BoolVar(&suggestAccept, "accept", false, "add the drafted task immediately")

	goalCmd.Flags().StringVar(&goalUpdate.Title, "title", "", "goal title")
	goalCmd.Flags().StringVar(&goalUpdate.Description, "description", "", "goal description")
	goalCmd.Flags().IntVar(&goalUpdate.Progress, "progress", 0, "progress percent")
	goalCmd.Flags().String("status", "", "not_started, in_progress or completed")
	goalCmd.Flags().StringVar(&goalUpdate.TargetDate, "target", "", "target date, YYYY-MM-DD")

	profileCmd.Flags().StringVar(&profileJob, "job", "", "job or role")
	profileCmd.Flags().StringVar(&profileStatus, "status", "", "current status")
}
