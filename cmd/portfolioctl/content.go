package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
	"github.com/ashureev/portfolio/internal/skills"
	"github.com/spf13/cobra"
)

func init() {
	var view string
	skillsCmd := &cobra.Command{
		Use:   "skills",
		Short: "Print the skill frequency table",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return runSkills(snap, view, os.Stdout)
		},
	}
	skillsCmd.Flags().StringVar(&view, "view", "combined", "combined, experience or works")
	rootCmd.AddCommand(skillsCmd)

	sectionCmd := &cobra.Command{
		Use:   "section NAME",
		Short: "Print one section as the assistant sees it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return runSection(snap, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(sectionCmd)

	linksCmd := &cobra.Command{
		Use:   "links",
		Short: "Print every link grouped by kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return runLinks(snap, os.Stdout)
		},
	}
	rootCmd.AddCommand(linksCmd)

	preambleCmd := &cobra.Command{
		Use:   "preamble",
		Short: "Print the text an assistant conversation opens with",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, grounding.Preamble(snap, time.Now()))
			return err
		},
	}
	rootCmd.AddCommand(preambleCmd)
}

func runSkills(snap *domain.ContentSnapshot, view string, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SKILL\tCOUNT\tCOLOR")
	for _, s := range skills.ForSnapshot(snap, skills.ParseView(view)) {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, s.Frequency, s.Color)
	}
	return tw.Flush()
}

func runSection(snap *domain.ContentSnapshot, name string, out io.Writer) error {
	section, ok := domain.ParseSection(name)
	if !ok {
		return fmt.Errorf("unknown section %q", name)
	}
	_, err := fmt.Fprintln(out, grounding.FormatSection(snap, section))
	return err
}

func runLinks(snap *domain.ContentSnapshot, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(grounding.ExtractLinks(snap))
}
