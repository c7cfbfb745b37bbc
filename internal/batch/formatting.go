package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
)

// formatBatchResults formats the items in the specified format.
func formatBatchResults(items []Item, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(items)
	case "csv":
		return formatCSV(items)
	case "text", "":
		return formatText(items)
	default:
		return "", fmt.Errorf("unsupported format %q (must be text, json or csv)", format)
	}
}

// formatJSON formats items as {"items": [...], "count": n}.
func formatJSON(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	doc := struct {
		Items []Item `json:"items"`
		Count int    `json:"count"`
	}{items, len(items)}

	bts, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

// formatCSV formats items as CSV with a header row.
func formatCSV(items []Item) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	rows := [][]string{{
		"source", "line", "name", "payload", "requested_type", "type", "algorithm",
		"width", "height", "placeholder", "output", "card_id",
	}}
	for _, it := range items {
		rows = append(rows, []string{
			it.Source,
			strconv.Itoa(it.Line),
			it.Name,
			it.Payload,
			it.Requested.String(),
			it.Type.String(),
			string(it.Algorithm),
			strconv.Itoa(it.Width),
			strconv.Itoa(it.Height),
			strconv.FormatBool(it.Placeholder),
			it.Output,
			it.CardID,
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return output.String(), nil
}

// formatText prints one aligned line per item.
func formatText(items []Item) (string, error) {
	var output strings.Builder
	tw := tabwriter.NewWriter(&output, 0, 4, 2, ' ', 0)
	for _, it := range items {
		note := ""
		switch {
		case it.Placeholder:
			note = "placeholder"
		case it.Type != it.Requested:
			note = "requested " + it.Requested.String()
		}
		_, _ = fmt.Fprintf(tw, "%s:%d\t%s\t%s\t%s\t%s\n",
			it.Source, it.Line, it.Name, it.Type, note, it.Output)
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return output.String(), nil
}
