package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/report"
	"github.com/erazemk/najdeno/internal/service"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage staff accounts",
}

var staffAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a staff account",
	Long: `Creates a staff account that logs in with email and password. Without
--password a random one is generated and printed.`,
	Args: cobra.NoArgs,
	RunE: runStaffAdd,
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive active items older than --days",
	Args:  cobra.NoArgs,
	RunE:  runArchive,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the item report as CSV",
	Long: `Writes one row per item with its claim count and latest claim date.
Use --out - to write to standard output.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	f := staffAddCmd.Flags()
	f.String("email", "", "login email (required)")
	f.String("first-name", "", "first name (required)")
	f.String("last-name", "", "last name")
	f.String("password", "", "password (default: generated)")
	_ = staffAddCmd.MarkFlagRequired("email")
	_ = staffAddCmd.MarkFlagRequired("first-name")
	staffCmd.AddCommand(staffAddCmd)

	archiveCmd.Flags().Int("days", 0, "age in days after which active items are archived (default: archive_days)")
	exportCmd.Flags().StringP("out", "o", "", "output file (default: lost-found-report-<date>.csv)")
}

func runStaffAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	email, _ := f.GetString("email")
	first, _ := f.GetString("first-name")
	last, _ := f.GetString("last-name")
	password, _ := f.GetString("password")

	generated := password == ""
	if generated {
		var err error
		if password, err = generatePassword(16); err != nil {
			return fmt.Errorf("generating password: %w", err)
		}
	}

	database, err := openDatabase(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := service.New(database, service.Options{})
	user, err := svc.CreateStaff(ctx, service.StaffRequest{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Password:  password,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Staff account created: %s (%s)\n", *user.Email, user.ID)
	if generated {
		fmt.Fprintf(out, "  Password: %s\n", password)
	}
	return nil
}

func runArchive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	days, _ := cmd.Flags().GetInt("days")
	if days == 0 {
		days = cfg.ArchiveDays
	}

	database, err := openDatabase(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := service.New(database, service.Options{}).ArchiveSweep(ctx, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d item(s) older than %d days.\n", n, days)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = report.Filename(time.Now())
	}

	database, err := openDatabase(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := service.New(database, service.Options{Publisher: notify.Discard})

	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := svc.WriteReport(ctx, w); err != nil {
		return err
	}
	if path != "-" {
		slog.Info("report written", "path", path)
	}
	return nil
}
