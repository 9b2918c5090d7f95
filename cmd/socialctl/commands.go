package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fathima-sithara/social-service/internal/client"
	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL string
	token   string
	userID  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.baseURL, client.WithSession(o.token, o.userID))
}

func (o *rootOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "socialctl",
		Short:        "Command-line client for social-service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("SOCIAL_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SOCIAL_TOKEN"), "bearer token from login")
	root.PersistentFlags().StringVar(&opts.userID, "user", os.Getenv("SOCIAL_USER"), "acting user id")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(
		registerCmd(opts),
		loginCmd(opts),
		feedCmd(opts),
		profileCmd(opts),
		userPostsCmd(opts),
		updateProfileCmd(opts),
		followCmd(opts, true),
		followCmd(opts, false),
		postCmd(opts),
		likeCmd(opts),
		commentCmd(opts),
		deleteCmd(opts),
	)
	return root
}

func registerCmd(opts *rootOptions) *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			res, err := opts.client().Register(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "username")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "10 digit phone number")
	for _, f := range []string{"username", "name", "email", "password", "phone"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func loginCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the token and user id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			res, err := opts.client().Login(ctx, email, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func feedCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		before string
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			c := opts.client()
			if limit <= 0 && before == "" {
				posts, err := c.Feed(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), posts)
			}
			posts, next, err := c.FeedPage(ctx, limit, before)
			if err != nil {
				return err
			}
			if next != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "next cursor: %s\n", next)
			}
			return printJSON(cmd.OutOrStdout(), posts)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "page size; 0 lists everything")
	cmd.Flags().StringVar(&before, "before", "", "cursor from a previous page")
	return cmd
}

func profileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [userId]",
		Short: "Show a profile, the acting user's by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := opts.userID
			if len(args) == 1 {
				id = args[0]
			}
			ctx, cancel := opts.context()
			defer cancel()
			p, err := opts.client().Profile(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func userPostsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "posts <userId>",
		Short: "List the posts written by a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			posts, err := opts.client().UserPosts(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), posts)
		},
	}
}

func updateProfileCmd(opts *rootOptions) *cobra.Command {
	var name, bio, picture string
	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Change name, bio or profile picture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			ptr := func(flag, v string) *string {
				if flags.Changed(flag) {
					return &v
				}
				return nil
			}
			ctx, cancel := opts.context()
			defer cancel()
			u, err := opts.client().UpdateProfile(ctx, ptr("name", name), ptr("bio", bio), ptr("picture", picture))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "bio, at most 150 characters")
	cmd.Flags().StringVar(&picture, "picture", "", "profile picture URL")
	return cmd
}

func followCmd(opts *rootOptions, follow bool) *cobra.Command {
	use, short := "follow <targetUserId>", "Follow a user"
	if !follow {
		use, short = "unfollow <targetUserId>", "Stop following a user"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			c := opts.client()
			var err error
			if follow {
				err = c.Follow(ctx, args[0])
			} else {
				err = c.Unfollow(ctx, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func postCmd(opts *rootOptions) *cobra.Command {
	var (
		caption string
		images  []string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create a post",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			p, err := opts.client().CreatePost(ctx, caption, images)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "caption")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image URL, repeatable")
	return cmd
}

func likeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <postId>",
		Short: "Toggle the acting user's like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			p, err := opts.client().ToggleLike(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func commentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <postId> <content>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			p, err := opts.client().AddComment(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func deleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the acting user's account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			if err := opts.client().DeleteUser(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
