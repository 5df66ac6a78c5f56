package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cli"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
)

var writingCmd = &cobra.Command{
	Use:     "writing",
	Aliases: []string{"w"},
	Short:   "Browse, publish and react to writings",
}

var (
	pageLimit  int
	pageOffset int
	listSearch string
	listMine   bool
	listStatus string
	saveID     string
	saveTitle  string
	saveFile   string
	saveTags   []string
	saveDraft  bool
)

var writingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published writings, or your own with --mine",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		var writings []models.Writing
		var total int64
		if listMine {
			writings, err = c.MyWritings(listStatus)
			total = int64(len(writings))
		} else {
			var page *cli.WritingPage
			page, err = c.PublishedWritings(listSearch, pageLimit, pageOffset)
			if page != nil {
				writings, total = page.Writings, page.Total
			}
		}
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(writings))
		for _, w := range writings {
			rows = append(rows, []string{w.ID, truncate(w.Title, 40), string(w.Status), fmt.Sprint(w.LikeCount), fmt.Sprint(w.CommentCount)})
		}
		p := cli.NewPrinter()
		if err := p.Table([]string{"ID", "Title", "Status", "Likes", "Comments"}, rows); err != nil {
			return err
		}
		if !p.JSON() {
			p.Info("%d of %d", len(writings), total)
		}
		return nil
	},
}

var writingShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		w, err := c.Writing(args[0])
		if err != nil {
			return err
		}
		p := cli.NewPrinter()
		if p.JSON() {
			return p.Print(w)
		}
		p.Success("%s", w.Title)
		fmt.Fprintf(p.Out, "%s\n\n", strings.Join(w.Tags, ", "))
		fmt.Fprintln(p.Out, w.Content)
		p.Info("%d likes, %d bookmarks, %d comments", w.LikeCount, w.BookmarkCount, w.CommentCount)
		return nil
	},
}

var writingSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a writing from a file (or stdin with -f -)",
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(saveFile)
		if err != nil {
			return err
		}
		status := string(models.WritingPublished)
		if saveDraft {
			status = string(models.WritingDraft)
		}
		c, err := client()
		if err != nil {
			return err
		}
		w, err := c.SaveWriting(saveID, saveTitle, content, status, saveTags)
		if err != nil {
			return err
		}
		cli.NewPrinter().Success("Saved %s (%s)", w.ID, w.Status)
		return nil
	},
}

var writingLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Toggle your like on a writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		res, err := c.LikeWriting(args[0])
		if err != nil {
			return err
		}
		return printToggle(res, res.Liked, "Liked", "Unliked", res.Likes)
	},
}

var writingBookmarkCmd = &cobra.Command{
	Use:   "bookmark <id>",
	Short: "Toggle your bookmark on a writing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		res, err := c.BookmarkWriting(args[0])
		if err != nil {
			return err
		}
		return printToggle(res, res.Bookmarked, "Bookmarked", "Bookmark removed", res.Bookmarks)
	},
}

func init() {
	writingListCmd.Flags().IntVar(&pageLimit, "limit", 20, "Page size")
	writingListCmd.Flags().IntVar(&pageOffset, "offset", 0, "Rows to skip")
	writingListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Match title, content or author name")
	writingListCmd.Flags().BoolVar(&listMine, "mine", false, "List your own writings, drafts included")
	writingListCmd.Flags().StringVar(&listStatus, "status", "", "With --mine: draft or published")

	writingSaveCmd.Flags().StringVar(&saveID, "id", "", "Existing writing to update")
	writingSaveCmd.Flags().StringVarP(&saveTitle, "title", "t", "", "Title")
	writingSaveCmd.Flags().StringVarP(&saveFile, "file", "f", "", "Content file, - for stdin")
	writingSaveCmd.Flags().StringSliceVar(&saveTags, "tag", nil, "Tag (repeatable)")
	writingSaveCmd.Flags().BoolVar(&saveDraft, "draft", false, "Save as draft instead of publishing")
	_ = writingSaveCmd.MarkFlagRequired("file")

	writingCmd.AddCommand(writingListCmd, writingShowCmd, writingSaveCmd, writingLikeCmd, writingBookmarkCmd)
}

func readContent(path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		return string(raw), err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(raw), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printToggle(res *cli.ToggleResult, active bool, on, off string, count int) error {
	p := cli.NewPrinter()
	if p.JSON() {
		return p.Print(res)
	}
	if active {
		p.Success("%s (%d)", on, count)
	} else {
		p.Info("%s (%d)", off, count)
	}
	return nil
}
