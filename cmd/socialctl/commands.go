package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
)

func newTreeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the directory tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a.svc.Walk(func(e domain.Entry, depth int) {
				name := e.Name()
				if e.Kind() == domain.EntryKindGroup {
					name += "/"
				}
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), name)
			})
			return nil
		},
	}
}

func newStatsCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show directory statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			switch format {
			case "text":
				s := a.svc.Stats()
				fmt.Fprintf(out, "Users:              %d\n", s.Users)
				fmt.Fprintf(out, "Groups:             %d\n", s.Groups)
				fmt.Fprintf(out, "Posts:              %d\n", s.Posts)
				fmt.Fprintf(out, "Positive posts:     %d%%\n", s.PositivePercent)
				fmt.Fprintf(out, "Names valid:        %t\n", s.NamesValid)
				fmt.Fprintf(out, "Most recent poster: %s\n", s.MostRecentPoster)
				return nil

			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(a.svc.Stats())

			case "prometheus":
				reg := prometheus.NewRegistry()
				if err := reg.Register(a.collector); err != nil {
					return errors.Wrap(err, "register collector")
				}
				families, err := reg.Gather()
				if err != nil {
					return errors.Wrap(err, "gather metrics")
				}
				for _, mf := range families {
					if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
						return errors.Wrap(err, "write metrics")
					}
				}
				return nil

			default:
				return errors.Errorf("unknown format %q (text, json, prometheus)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or prometheus")
	return cmd
}

func newFollowingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "following <user>",
		Short: "List who a user follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.svc.FollowingList(args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newFeedCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed <user>",
		Short: "Show a user's feed, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.svc.Feed(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "(empty)")
				return nil
			}
			for _, d := range items {
				fmt.Fprintf(out, "%s  %s: %s\n", d.PostedAt.Format(time.RFC3339), d.Poster, d.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum items to show (0 for all)")
	return cmd
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <user>",
		Short: "Show details about a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.svc.UserInfo(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:        %s\n", info.Name)
			fmt.Fprintf(out, "Group:       %s\n", info.Group)
			fmt.Fprintf(out, "Created:     %s\n", info.CreatedAt.Format(time.RFC3339))
			if info.LastPostedAt.IsZero() {
				fmt.Fprintf(out, "Last post:   never\n")
			} else {
				fmt.Fprintf(out, "Last post:   %s\n", info.LastPostedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Posts:       %d\n", info.PostCount)
			fmt.Fprintf(out, "Followers:   %d\n", info.Followers)
			fmt.Fprintf(out, "Following:   %s\n", strings.Join(info.Following, ", "))
			return nil
		},
	}
}

func newPostCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "post <user> <text>",
		Short: "Publish a post to the user's followers",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if err := a.svc.PostContent(cmd.Context(), args[0], text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s posted %q\n", args[0], text)
			return nil
		},
	}
}

func newFollowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <user> <target>",
		Short: "Make a user follow another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Follow(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now follows %s\n", args[0], args[1])
			return nil
		},
	}
}

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every name is unique and has no whitespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.svc.ValidateNames() {
				return errors.New("directory contains duplicate or whitespace names")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all names valid")
			return nil
		},
	}
}
