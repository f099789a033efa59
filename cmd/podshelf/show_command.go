package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podshelf/internal/config"
	"podshelf/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show <episode-id>",
		Short: "Show an episode and its recommendations",
		Long:  "Show one episode with its display-eligible recommendations. Pass --all to include items held back by the completeness gate.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid episode id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				episode, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if episode == nil {
					return fmt.Errorf("episode %d not found", id)
				}

				fmt.Fprintf(out, "Episode %d  video=%s  status=%s\n", episode.ID, episode.VideoID, episode.Status)
				if episode.Title != "" {
					fmt.Fprintf(out, "Title: %s\n", episode.Title)
				}
				if len(episode.GuestNames) > 0 {
					fmt.Fprintf(out, "Guests: %s\n", strings.Join(episode.GuestNames, ", "))
				}
				if episode.ErrorMessage != "" {
					fmt.Fprintf(out, "Error: %s\n", episode.ErrorMessage)
				}

				recommendations, err := store.RecommendationsForEpisode(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !all {
					eligible := recommendations[:0]
					for _, rec := range recommendations {
						if rec.DisplayEligible {
							eligible = append(eligible, rec)
						}
					}
					recommendations = eligible
				}
				if len(recommendations) == 0 {
					fmt.Fprintln(out, "No recommendations to display")
					return nil
				}

				rows := make([][]string, 0, len(recommendations))
				for _, rec := range recommendations {
					rows = append(rows, []string{
						rec.Type,
						truncate(rec.Title, 42),
						truncate(rec.AuthorCreator, 28),
						strings.Join(rec.Speakers, ", "),
						fmt.Sprintf("%.2f", rec.Confidence),
						strconv.Itoa(rec.MentionCount),
						yesNo(rec.DisplayEligible),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Type", "Title", "Author/Creator", "Recommended By", "Conf", "Mentions", "Eligible"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include recommendations hidden by the display gate")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
