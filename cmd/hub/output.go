package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/datauri"
)

// print writes v as indented JSON with --json, otherwise calls text.
func (a *app) print(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	if a.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(out)
}

// writeStudentTable prints one row per student.
func writeStudentTable(w io.Writer, students []student.Student) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NRP\tNAME\tPROGRAM\tEMAIL")
	for _, s := range students {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.NRP, s.Name, s.Program, s.Email)
	}
	return tw.Flush()
}

// writeStudentCard prints every field of one student.
func writeStudentCard(w io.Writer, s student.Student) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NRP:\t%s\n", s.NRP)
	fmt.Fprintf(tw, "Name:\t%s\n", s.Name)
	fmt.Fprintf(tw, "Email:\t%s\n", s.Email)
	fmt.Fprintf(tw, "Program:\t%s\n", s.Program)
	fmt.Fprintf(tw, "About:\t%s\n", oneLine(s.AboutMe))
	fmt.Fprintf(tw, "Courses:\t%s\n", oneLine(s.CourseList))
	fmt.Fprintf(tw, "Experiences:\t%s\n", oneLine(s.Experiences))
	fmt.Fprintf(tw, "Photo:\t%s\n", photoSummary(s.PhotoURL))
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// photoSummary keeps embedded images from flooding the terminal.
func photoSummary(url string) string {
	const maxLen = 60
	if datauri.IsDataURI(url) {
		mime, data, err := datauri.Decode(url)
		if err != nil {
			return "embedded, unreadable"
		}
		return fmt.Sprintf("embedded %s (%d bytes)", mime, len(data))
	}
	if len(url) > maxLen {
		return url[:maxLen] + "..."
	}
	return url
}
