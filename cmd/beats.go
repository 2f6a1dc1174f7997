package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heronhoga/bars-fe/core/api"
	"github.com/heronhoga/bars-fe/core/feed"
	"github.com/heronhoga/bars-fe/model"
)

var (
	beatsToken string
	beatsPage  int
	beatsAll   bool
)

var beatsCmd = &cobra.Command{
	Use:   "beats",
	Short: "BARS API 命令行工具",
	Long:  `直接调用上游 REST API 查看 beats，便于排查接口问题`,
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "列出首页推荐的 beats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		beats, err := newAPIClient().FavoriteBeats(cmd.Context())
		if err != nil {
			return err
		}
		return printBeats(cmd.OutOrStdout(), beats)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出 feed 中的 beats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		fetch := func(ctx context.Context, page int) (*model.Page[model.Beat], error) {
			return client.ListBeats(ctx, beatsToken, page)
		}
		if !beatsAll {
			res, err := feed.FetchPage[model.Beat](cmd.Context(), fetch, beatsPage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d\n", res.Pager.Current, res.Pager.TotalPages)
			return printBeats(cmd.OutOrStdout(), res.Items)
		}

		beats, err := walkFeed(cmd.Context(), fetch)
		if err != nil {
			return err
		}
		return printBeats(cmd.OutOrStdout(), beats)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "按标题或作者搜索 beats",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()
		query := strings.Join(args, " ")
		fetch := func(ctx context.Context, page int) (*model.Page[model.Beat], error) {
			return client.SearchBeats(ctx, beatsToken, query, page)
		}
		res, err := feed.FetchPage[model.Beat](cmd.Context(), fetch, beatsPage)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "results for %q, page %d/%d\n", query, res.Pager.Current, res.Pager.TotalPages)
		return printBeats(cmd.OutOrStdout(), res.Items)
	},
}

func newAPIClient() *api.Client {
	client := api.NewClient(cfg.APIBaseURL, cfg.AppKey, cfg.APITimeout)
	client.SetRateLimit(cfg.APIRateLimit)
	return client
}

// walkFeed loads pages the way the home feed scrolls until the feed ends.
func walkFeed(ctx context.Context, fetch feed.PageFunc[model.Beat]) ([]model.Beat, error) {
	f := feed.New(fetch)
	defer f.Close()

	res, err := f.Load(ctx, 1)
	for err == nil && !res.Done {
		res, err = f.LoadMore(ctx)
	}
	if err != nil && !errors.Is(err, feed.ErrExhausted) {
		return f.Items(), err
	}
	return f.Items(), nil
}

func printBeats(out io.Writer, beats []model.Beat) error {
	if len(beats) == 0 {
		fmt.Fprintln(out, "no beats")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tGENRE\tLIKES\tSIZE")
	for _, b := range beats {
		liked := ""
		if b.Liked() {
			liked = " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%s\t%s\n", b.ID, b.Title, b.Username, b.Genre, b.Likes, liked, b.HumanSize())
	}
	return w.Flush()
}

func init() {
	beatsCmd.PersistentFlags().StringVar(&beatsToken, "token", os.Getenv("BARS_TOKEN"), "session token (defaults to $BARS_TOKEN)")
	beatsCmd.PersistentFlags().IntVar(&beatsPage, "page", 1, "page to fetch")
	listCmd.Flags().BoolVar(&beatsAll, "all", false, "walk every page until the feed ends")

	beatsCmd.AddCommand(favoritesCmd, listCmd, searchCmd)
	rootCmd.AddCommand(beatsCmd)
}
