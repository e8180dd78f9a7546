package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/akawula/TaskMatic/internal/config"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/store"
	"github.com/akawula/TaskMatic/store/sqlc"
)

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "userctl:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "userctl",
		Short:         "Administrative tasks for TaskMatic",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateUserCmd(), newHoursCmd())
	return root
}

func newCreateUserCmd() *cobra.Command {
	var (
		username string
		password string
		fullName string
		role     string
		salary   string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with a bcrypt-hashed password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = os.Getenv("USERNAME")
			}
			if password == "" {
				password = os.Getenv("PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("--username and --password (or USERNAME and PASSWORD) must be set")
			}
			if role != "manager" && role != "employee" {
				return fmt.Errorf("--role must be manager or employee, got %q", role)
			}
			amount, err := decimal.NewFromString(salary)
			if err != nil || amount.IsNegative() {
				return fmt.Errorf("--salary must be a non-negative amount, got %q", salary)
			}

			dbConf, err := config.DatabaseFromEnv()
			if err != nil {
				return err
			}
			logger := config.Logger()
			ctx := cmd.Context()

			if err := store.WaitForDatabase(ctx, dbConf.URL(), 5, 5*time.Second, logger); err != nil {
				return err
			}
			db, err := store.NewPostgres(ctx, dbConf.URL(), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			newUser, err := db.CreateUser(ctx, sqlc.CreateUserParams{
				Username:       username,
				HashedPassword: string(hashedPassword),
				FullName:       fullName,
				Role:           role,
				MonthlySalary:  amount.StringFixed(2),
			})
			if err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return fmt.Errorf("username '%s' already exists", username)
				}
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully created user: ID=%d, Username=%s, Role=%s\n", newUser.ID, newUser.Username, newUser.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name (default $USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (default $PASSWORD)")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "employee", "manager or employee")
	cmd.Flags().StringVar(&salary, "salary", "0", "Monthly salary")
	return cmd
}

func newHoursCmd() *cobra.Command {
	var (
		startStr     string
		endStr       string
		calendarPath string
	)

	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Print business hours between two timestamps",
		Example: `  userctl hours --start 2025-01-09T17:00:00 --end 2025-01-11T10:00:00
  userctl hours --start 2025-01-06T10:00:00+03:00 --end 2025-01-06T14:00:00+03:00 --calendar calendar.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := loadCalendar(calendarPath)
			if err != nil {
				return err
			}

			start, err := timeutils.ParseTimestamp(startStr, cal.Location())
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := timeutils.ParseTimestamp(endStr, cal.Location())
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			hours := timeutils.CalculateElapsedHours(start, end, cal)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", timeutils.FormatHours(hours), cal)
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start timestamp (RFC3339 or 2006-01-02T15:04:05)")
	cmd.Flags().StringVar(&endStr, "end", "", "End timestamp")
	cmd.Flags().StringVar(&calendarPath, "calendar", "", "Calendar YAML file (default $CALENDAR_FILE or the built-in calendar)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func loadCalendar(path string) (timeutils.WorkingCalendar, error) {
	if path != "" {
		return timeutils.LoadCalendar(path)
	}
	return timeutils.LoadCalendarFromEnv()
}
