package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cli"
)

var postCmd = &cobra.Command{
	Use:     "post",
	Aliases: []string{"p"},
	Short:   "Browse, like and save media posts",
}

var postMediaType string

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		page, err := c.Posts(postMediaType, pageLimit, pageOffset)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(page.Posts))
		for _, post := range page.Posts {
			rows = append(rows, []string{post.ID, truncate(post.Title, 40), string(post.MediaType), fmt.Sprint(post.Views), fmt.Sprint(post.LikeCount)})
		}
		p := cli.NewPrinter()
		if err := p.Table([]string{"ID", "Title", "Media", "Views", "Likes"}, rows); err != nil {
			return err
		}
		if !p.JSON() {
			p.Info("%d of %d", len(page.Posts), page.Total)
		}
		return nil
	},
}

var postLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Toggle your like on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		res, err := c.LikePost(args[0])
		if err != nil {
			return err
		}
		return printToggle(res, res.Liked, "Liked", "Unliked", res.LikeCount)
	},
}

var postSaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Toggle a post in your saved collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		res, err := c.SavePost(args[0])
		if err != nil {
			return err
		}
		return printToggle(res, res.Saved, "Saved to "+res.Bucket, "Removed from "+res.Bucket, res.SavedCount)
	},
}

func init() {
	postListCmd.Flags().IntVar(&pageLimit, "limit", 20, "Page size")
	postListCmd.Flags().IntVar(&pageOffset, "offset", 0, "Rows to skip")
	postListCmd.Flags().StringVar(&postMediaType, "media-type", "", "image, video, text or audio")

	postCmd.AddCommand(postListCmd, postLikeCmd, postSaveCmd)
}
