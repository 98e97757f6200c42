package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

func (c *cli) printOutput(v any) error {
	switch c.outputFormat() {
	case "json":
		return c.printJSON(v)
	case "yaml":
		return c.printYAML(v)
	default:
		return fmt.Errorf("unsupported output format for structured data: %s (use json or yaml)", c.outputFormat())
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printYAML(v any) error {
	// Go through JSON so keys follow the json tags.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.out)
	enc.SetIndent(2)
	return enc.Encode(m)
}

func (c *cli) printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(c.out, 0, 8, 2, ' ', 0)

	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(w, strings.Join(upper, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// printOptions prints an option list as a table or a document.
func (c *cli) printOptions(opts []formdeps.Option) error {
	if c.outputFormat() != "table" {
		return c.printOutput(opts)
	}
	rows := make([][]string, len(opts))
	for i, o := range opts {
		rows[i] = []string{o.ID.String(), truncate(o.Label, 60)}
	}
	c.printTable([]string{"ID", "Name"}, rows)
	return nil
}

// truncate shortens s to max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
