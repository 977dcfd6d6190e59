package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/PizzaHomicide/haven/internal/actionlog"
	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func parseVideoID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q", arg)
	}
	return id, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))).
		Headers(headers...)
}

func newProgressCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "List saved progress for every video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.progress.FetchProgress(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch progress: %w", err)
			}
			if len(records) == 0 {
				cmd.Println("No progress saved yet")
				return nil
			}

			sort.Slice(records, func(i, j int) bool { return records[i].VideoID < records[j].VideoID })
			t := newTable("Video", "Progress", "Rating", "Save for later")
			for _, r := range records {
				t.Row(strconv.Itoa(r.VideoID), fmt.Sprintf("%d%%", r.PercentComplete), formatRating(r), formatBool(r.SaveForLater))
			}
			cmd.Println(t.String())
			return nil
		},
	}
}

func newRateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <video-id> <1-5>",
		Short: "Rate a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}

			record, err := a.progress.Rate(cmd.Context(), videoID, rating)
			if err != nil {
				return err
			}
			cmd.Printf("Rated video %d: %s\n", videoID, formatRating(record))
			return nil
		},
	}
}

func newSaveForLaterCommand(a *app) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "save-for-later <video-id>",
		Short: "Flag a video to watch later",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseVideoID(args[0])
			if err != nil {
				return err
			}

			record, err := a.progress.SaveForLater(cmd.Context(), videoID, !off)
			if err != nil {
				return err
			}
			cmd.Printf("Video %d save for later: %s\n", videoID, formatBool(record.SaveForLater))
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Remove the flag instead of setting it")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List videos recently watched past the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := actionlog.NewStore(a.cfg.ActionLog.Path)
			if err != nil {
				return fmt.Errorf("failed to open action log: %w", err)
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("Nothing watched yet")
				return nil
			}

			t := newTable("Watched at", "Video", "Session")
			for _, e := range entries {
				t.Row(e.WatchedAt.Local().Format(time.DateTime), strconv.Itoa(e.VideoID), e.SessionID)
			}
			cmd.Println(t.String())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func formatRating(r *domain.ProgressRecord) string {
	if r == nil || r.Rating == nil {
		return "-"
	}
	return fmt.Sprintf("%d/5", *r.Rating)
}

func formatBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
