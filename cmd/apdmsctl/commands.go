package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "time/tzdata"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/compliance"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/repository"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/service"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/config"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/database"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/morbidity"
)

type cliOptions struct {
	timezone string
	now      func() time.Time
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{now: time.Now}
	root := &cobra.Command{
		Use:           "apdmsctl",
		Short:         "Morbidity calendar and compliance tools for the APDMS portal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.timezone, "timezone", "Asia/Manila", "reporting time zone")

	root.AddCommand(weekCmd(opts))
	root.AddCommand(weeksCmd(opts))
	root.AddCommand(periodCmd(opts))
	root.AddCommand(complianceCmd(opts))
	return root
}

func (o *cliOptions) calendar() (*service.CalendarService, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", o.timezone, err)
	}
	return service.NewCalendarService(loc, o.now, zap.NewNop()), nil
}

func weekCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "week [YYYY-MM-DD | YEAR WEEK]",
		Short: "Show the morbidity week for today, a date, or a year and week number",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.calendar()
			if err != nil {
				return err
			}
			switch len(args) {
			case 0:
				return printJSON(cmd.OutOrStdout(), cal.CurrentWeek())
			case 1:
				day, err := time.ParseInLocation(time.DateOnly, args[0], cal.Location())
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), dto.NewWeekResponse(morbidity.Of(day), cal.Location()))
			default:
				year, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid year %q", args[0])
				}
				number, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid week %q", args[1])
				}
				week, err := cal.WeekRange(year, number)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), week)
			}
		},
	}
}

func weeksCmd(opts *cliOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "List recent morbidity week numbers of the current year, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > 53 {
				return fmt.Errorf("count must be between 1 and 53")
			}
			cal, err := opts.calendar()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cal.RecentWeeks(count))
		},
	}
	cmd.Flags().IntVar(&count, "count", 4, "number of weeks to list")
	return cmd
}

func periodCmd(opts *cliOptions) *cobra.Command {
	var (
		reportType           string
		year                 int
		week, month, quarter int
	)
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Resolve a report type and period selector into a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := opts.calendar()
			if err != nil {
				return err
			}
			params := compliance.PeriodParams{}
			if cmd.Flags().Changed("week") {
				params.Week = &week
			}
			if cmd.Flags().Changed("month") {
				params.Month = &month
			}
			if cmd.Flags().Changed("quarter") {
				params.Quarter = &quarter
			}
			window, err := cal.ResolvePeriod(reportType, year, params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.PeriodResponse{
				Type:      string(window.Type),
				Title:     window.Title,
				StartDate: window.Start,
				EndDate:   window.End,
			})
		},
	}
	cmd.Flags().StringVar(&reportType, "type", "", "Weekly, Monthly, Quarterly or Annual")
	cmd.Flags().IntVar(&year, "year", 0, "report year")
	cmd.Flags().IntVar(&week, "week", 0, "morbidity week for weekly reports")
	cmd.Flags().IntVar(&month, "month", 0, "month for monthly reports")
	cmd.Flags().IntVar(&quarter, "quarter", 0, "quarter for quarterly reports")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func complianceCmd(opts *cliOptions) *cobra.Command {
	var facilityID string
	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "Compute the compliance dashboard, or one facility, from the portal database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timezone") {
				cfg.Timezone = opts.timezone
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			svc := service.NewComplianceService(service.ComplianceServiceParams{
				Submissions: repository.NewSubmissionRepository(db),
				Programs:    repository.NewProgramRepository(db),
				Facilities:  repository.NewFacilityRepository(db),
				Users:       repository.NewUserRepository(db),
				Metrics:     service.NewMetricsService(),
				Now:         opts.now,
				Config:      service.ComplianceServiceConfig{Location: loc},
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if facilityID != "" {
				status, err := svc.FacilityStatus(ctx, facilityID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			}
			dashboard, _, err := svc.Dashboard(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dashboard)
		},
	}
	cmd.Flags().StringVar(&facilityID, "facility", "", "limit output to one facility")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
