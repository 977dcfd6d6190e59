package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PizzaHomicide/haven/internal/actionlog"
	"github.com/PizzaHomicide/haven/internal/analytics"
	"github.com/PizzaHomicide/haven/internal/config"
	"github.com/PizzaHomicide/haven/internal/domain"
	"github.com/PizzaHomicide/haven/internal/log"
	"github.com/PizzaHomicide/haven/internal/playback"
	"github.com/PizzaHomicide/haven/internal/player"
	"github.com/PizzaHomicide/haven/internal/repository/graphql"
	"github.com/PizzaHomicide/haven/internal/service"
	"github.com/PizzaHomicide/haven/internal/ui/tui"
	"github.com/PizzaHomicide/haven/internal/ui/tui/components"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const unmountTimeout = 15 * time.Second

type playFlags struct {
	manifest string
	playlist string
	file     string
	poster   string
	title    string
	captions bool
	headless bool
}

func newPlayCommand(a *app) *cobra.Command {
	var flags playFlags

	cmd := &cobra.Command{
		Use:   "play <video-id>",
		Short: "Play a video and save how far you got",
		Long: "Play a video in mpv.  The adaptive manifest is preferred when the player supports it, then the " +
			"streaming playlist, then the progressive file.  Progress is saved when playback stops.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			src := domain.MediaSource{
				VideoID:              videoID,
				Title:                flags.title,
				AdaptiveManifestURL:  flags.manifest,
				StreamingPlaylistURL: flags.playlist,
				ProgressiveFileURL:   flags.file,
				PosterURL:            flags.poster,
				CaptionsPresent:      flags.captions,
			}
			return a.play(cmd.Context(), src, flags.headless)
		},
	}

	cmd.Flags().StringVar(&flags.manifest, "manifest", "", "Adaptive (DASH) manifest URL")
	cmd.Flags().StringVar(&flags.playlist, "playlist", "", "Streaming (HLS) playlist URL")
	cmd.Flags().StringVar(&flags.file, "file", "", "Progressive file URL")
	cmd.Flags().StringVar(&flags.poster, "poster", "", "Poster image URL")
	cmd.Flags().StringVar(&flags.title, "title", "", "Title to display")
	cmd.Flags().BoolVar(&flags.captions, "captions", false, "The video has caption tracks")
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "Play without the terminal UI")
	return cmd
}

func (a *app) play(ctx context.Context, src domain.MediaSource, headless bool) error {
	stopMetrics := a.serveMetrics()
	defer stopMetrics()

	sessionID := uuid.NewString()
	logger := log.With("session_id", sessionID, "video_id", src.VideoID)

	reporter := graphql.NewReporter(a.client, sessionID)
	defer reporter.Close()

	trackers := analytics.Multi{analytics.NewLogTracker(logger)}
	if a.cfg.Analytics.Forward {
		trackers = append(trackers, reporter)
	}

	store, err := actionlog.NewStore(a.cfg.ActionLog.Path)
	if err != nil {
		return fmt.Errorf("failed to open action log: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close action log", "error", err)
		}
	}()

	mpv, err := player.CreatePlayer(a.cfg.Player)
	if err != nil {
		return err
	}
	if err := mpv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	// The controller only destroys the player when it acted as the decoder
	defer func() { _ = mpv.Destroy() }()

	prefs := config.NewCaptionPreference(a.cfg)
	anchor := components.NewCaptionAnchor()

	playbackService := service.NewPlaybackService(a.progress, playback.Dependencies{
		Preferences: prefs,
		Analytics:   trackers,
		Heartbeat:   reporter,
		ActionLog:   store,
		Placement:   anchor,
	}, playback.Options{
		AdaptiveStreaming: a.cfg.Player.AdaptiveStreamingEnabled(),
		WatchedThreshold:  a.cfg.Progress.WatchedThreshold,
		HeartbeatInterval: a.cfg.Heartbeat.Interval,
		SessionID:         sessionID,
	})

	mount, err := playbackService.Mount(ctx, mpv, src, prefs.CaptionsEnabled())
	if err != nil {
		return err
	}

	var runErr error
	if headless {
		logger.Info("Playing without the terminal UI")
		mount.Pump(ctx, nil)
	} else {
		runErr = tui.Run(ctx, mount, mount.Pump, src, anchor)
	}

	// Teardown is idempotent, so this only does work when the UI did not get to it
	unmountCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unmountTimeout)
	defer cancel()
	return errors.Join(runErr, mount.Unmount(unmountCtx))
}
