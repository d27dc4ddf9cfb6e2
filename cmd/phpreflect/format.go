package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatClassText prints the class header followed by aligned member
// tables.
func formatClassText(w io.Writer, c CLIClass) {
	header := c.Kind + " " + c.Name
	if c.Parent != "" {
		header += " extends " + c.Parent
	}
	fmt.Fprintln(w, header)
	if c.File != "" {
		fmt.Fprintf(w, "  file: %s:%d\n", c.File, c.StartLine)
	}
	if len(c.Interfaces) > 0 {
		fmt.Fprintf(w, "  implements: %s\n", strings.Join(c.Interfaces, ", "))
	}
	if len(c.Traits) > 0 {
		fmt.Fprintf(w, "  uses: %s\n", strings.Join(c.Traits, ", "))
	}
	for _, line := range c.Annotations {
		fmt.Fprintf(w, "  %s\n", line)
	}

	members := make([]CLIMember, 0, len(c.Constants)+len(c.Properties)+len(c.Methods))
	members = append(members, c.Constants...)
	members = append(members, c.Properties...)
	members = append(members, c.Methods...)
	if len(members) == 0 {
		return
	}
	fmt.Fprintln(w)
	formatMembersText(w, members)
}

// formatMembersText formats CLIMember results as aligned columns.
func formatMembersText(w io.Writer, members []CLIMember) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tDOC TYPES\tSIGNATURE")
	for _, m := range members {
		docs := strings.Join(m.DocTypes, "|")
		if m.DocError != "" {
			docs = "!" + m.DocError
		}
		if docs == "" {
			docs = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Kind, m.Name, docs, m.Signature)
	}
	tw.Flush()
}

// formatUsesText formats CLIUse results as aligned columns.
func formatUsesText(w io.Writer, uses []CLIUse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tNAME\tKIND")
	for _, u := range uses {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Alias, u.Name, u.Kind)
	}
	tw.Flush()
}

func formatResolutionText(w io.Writer, r CLIResolution) {
	if !r.Found {
		fmt.Fprintf(w, "%s: unresolved in %s\n", r.Short, r.Class)
		return
	}
	fmt.Fprintln(w, r.Resolved)
}

func formatAnnotationsText(w io.Writer, a CLIAnnotations) {
	for _, line := range a.Lines {
		fmt.Fprintln(w, line)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIClass:
		formatClassText(w, v)
	case []CLIUse:
		formatUsesText(w, v)
	case CLIResolution:
		formatResolutionText(w, v)
	case CLIAnnotations:
		formatAnnotationsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
