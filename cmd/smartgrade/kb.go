package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/knowledge"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the reference knowledge base",
}

var (
	kbSubject  string
	kbTitle    string
	kbContent  string
	kbKeywords []string
)

// optionalSubject parses --subject; an empty flag means all subjects.
func optionalSubject() (*homework.Subject, error) {
	if kbSubject == "" {
		return nil, nil
	}
	s, err := homework.ParseSubject(kbSubject)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func requiredSubject() (homework.Subject, error) {
	if kbSubject == "" {
		return "", errors.New("--subject is required")
	}
	return homework.ParseSubject(kbSubject)
}

func printItems(items []knowledge.Item) {
	if len(items) == 0 {
		fmt.Println("No entries.")
		return
	}
	for _, it := range items {
		fmt.Printf("  [%s] %s (%s)\n", it.ID, it.Title, it.Subject.Label())
		if len(it.Keywords) > 0 {
			fmt.Printf("        %s\n", strings.Join(it.Keywords, ", "))
		}
	}
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := optionalSubject()
		if err != nil {
			return err
		}
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		var items []knowledge.Item
		if subject != nil {
			items, err = store.BySubject(*subject)
		} else {
			items, err = store.All()
		}
		if err != nil {
			return err
		}
		printItems(items)
		return nil
	},
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search titles, content and keywords",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := optionalSubject()
		if err != nil {
			return err
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := store.Search(query, subject)
		if err != nil {
			return err
		}
		fmt.Printf("%d match(es)\n", res.Total)
		printItems(res.Items)
		return nil
	},
}

var kbShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		it, err := store.Get(args[0])
		if errors.Is(err, knowledge.ErrNotFound) {
			return fmt.Errorf("entry %s not found", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n\n", it.Title)
		fmt.Printf("id:       %s\n", it.ID)
		fmt.Printf("subject:  %s\n", it.Subject.Label())
		fmt.Printf("keywords: %s\n", strings.Join(it.Keywords, ", "))
		fmt.Printf("updated:  %s\n\n", it.UpdatedAt.Local().Format(time.DateTime))
		fmt.Println(it.Content)
		return nil
	},
}

var kbAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := requiredSubject()
		if err != nil {
			return err
		}
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		it, err := store.Add(knowledge.NewItem{
			Title:    kbTitle,
			Content:  kbContent,
			Subject:  subject,
			Keywords: kbKeywords,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added [%s]: %s\n", it.ID, it.Title)
		return nil
	},
}

var kbUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p knowledge.Patch
		flags := cmd.Flags()
		if flags.Changed("title") {
			p.Title = &kbTitle
		}
		if flags.Changed("content") {
			p.Content = &kbContent
		}
		if flags.Changed("keywords") {
			p.Keywords = &kbKeywords
		}
		if flags.Changed("subject") {
			s, err := homework.ParseSubject(kbSubject)
			if err != nil {
				return err
			}
			p.Subject = &s
		}

		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		it, err := store.Update(args[0], p)
		if errors.Is(err, knowledge.ErrNotFound) {
			return fmt.Errorf("entry %s not found", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Updated [%s]: %s\n", it.ID, it.Title)
		return nil
	},
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := store.Delete(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("entry %s not found", args[0])
		}
		fmt.Printf("Deleted [%s]\n", args[0])
		return nil
	},
}

var kbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the knowledge base with the default entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		store := knowledge.NewStore(db)
		if err := store.Reset(); err != nil {
			return err
		}
		all, err := store.All()
		if err != nil {
			return err
		}
		fmt.Printf("Knowledge base reset: %d default entries\n", len(all))
		return nil
	},
}

var kbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarize the knowledge base per subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := optionalSubject()
		if err != nil {
			return err
		}
		subjects := homework.Subjects
		if subject != nil {
			subjects = []homework.Subject{*subject}
		}

		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		for _, s := range subjects {
			sum, err := store.Summary(s)
			if err != nil {
				return err
			}
			fmt.Printf("%s [%s]: %d entries\n  %s\n", sum.Name, sum.ID, sum.ItemCount, sum.Description)
		}
		return nil
	},
}

var kbImportFeedCmd = &cobra.Command{
	Use:   "import-feed <url>",
	Short: "Import entries from an RSS or Atom feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := requiredSubject()
		if err != nil {
			return err
		}
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		im := knowledge.NewImporter(store, 0, cfg.Knowledge.ImportLimit)
		res, err := im.ImportFeed(context.Background(), args[0], subject)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d entries (%d duplicates, %d empty skipped)\n", len(res.Added), res.Duplicates, res.Empty)
		printItems(res.Added)
		return nil
	},
}

var kbImportPageCmd = &cobra.Command{
	Use:   "import-page <url>",
	Short: "Import the readable text of a web page as one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := requiredSubject()
		if err != nil {
			return err
		}
		db, store, err := openKnowledge()
		if err != nil {
			return err
		}
		defer db.Close()

		im := knowledge.NewImporter(store, 0, cfg.Knowledge.ImportLimit)
		it, err := im.ImportPage(context.Background(), args[0], subject, kbKeywords)
		if err != nil {
			return err
		}
		fmt.Printf("Imported [%s]: %s\n", it.ID, it.Title)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{kbListCmd, kbSearchCmd, kbInfoCmd, kbAddCmd, kbUpdateCmd, kbImportFeedCmd, kbImportPageCmd} {
		c.Flags().StringVarP(&kbSubject, "subject", "s", "", "Subject: chinese, math or english")
	}
	for _, c := range []*cobra.Command{kbAddCmd, kbUpdateCmd} {
		c.Flags().StringVar(&kbTitle, "title", "", "Entry title")
		c.Flags().StringVar(&kbContent, "content", "", "Entry content (Markdown)")
	}
	for _, c := range []*cobra.Command{kbAddCmd, kbUpdateCmd, kbImportPageCmd} {
		c.Flags().StringSliceVarP(&kbKeywords, "keywords", "k", nil, "Comma-separated keywords")
	}

	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbSearchCmd)
	kbCmd.AddCommand(kbShowCmd)
	kbCmd.AddCommand(kbAddCmd)
	kbCmd.AddCommand(kbUpdateCmd)
	kbCmd.AddCommand(kbDeleteCmd)
	kbCmd.AddCommand(kbResetCmd)
	kbCmd.AddCommand(kbInfoCmd)
	kbCmd.AddCommand(kbImportFeedCmd)
	kbCmd.AddCommand(kbImportPageCmd)
}
