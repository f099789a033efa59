package main

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"podshelf/internal/config"
	"podshelf/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <video-url-or-id> [more...]",
		Short: "Queue episodes for processing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					videoID, err := parseVideoID(arg)
					if err != nil {
						return err
					}
					existing, err := store.GetByVideoID(cmd.Context(), videoID)
					if err != nil {
						return err
					}
					if existing != nil {
						fmt.Fprintf(out, "Episode %d already queued for video %s (%s)\n", existing.ID, videoID, existing.Status)
						continue
					}
					episode, err := store.Add(cmd.Context(), videoID, strings.TrimSpace(title))
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Added episode %d for video %s\n", episode.ID, videoID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Episode title (recommended; used for guest detection)")
	return cmd
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// parseVideoID accepts a bare video identifier or any of the common URL
// shapes: watch?v=, youtu.be/, /shorts/, /embed/.
func parseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty video reference")
	}
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse video url %q: %w", raw, err)
	}
	if id := parsed.Query().Get("v"); id != "" && videoIDPattern.MatchString(id) {
		return id, nil
	}
	path := strings.Trim(parsed.Path, "/")
	for _, prefix := range []string{"shorts/", "embed/", "live/"} {
		path = strings.TrimPrefix(path, prefix)
	}
	if segments := strings.Split(path, "/"); len(segments) > 0 {
		candidate := segments[len(segments)-1]
		if videoIDPattern.MatchString(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not find a video id in %q", raw)
}
