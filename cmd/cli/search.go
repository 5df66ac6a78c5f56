package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cli"
)

var searchType string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over posts or writings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		res, err := c.Search(args[0], searchType, pageLimit, pageOffset)
		if err != nil {
			return err
		}
		p := cli.NewPrinter()
		if p.JSON() {
			return p.Print(res)
		}
		rows := make([][]string, 0, len(res.Hits))
		for _, hit := range res.Hits {
			rows = append(rows, []string{hit.ID, truncate(hit.Title, 40), hit.AuthorName, fmt.Sprintf("%.2f", hit.Score)})
		}
		if err := p.Table([]string{"ID", "Title", "Author", "Score"}, rows); err != nil {
			return err
		}
		p.Info("%d hits from %s", res.Total, res.Source)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "writings", "posts or writings")
	searchCmd.Flags().IntVar(&pageLimit, "limit", 20, "Page size")
	searchCmd.Flags().IntVar(&pageOffset, "offset", 0, "Rows to skip")
}
