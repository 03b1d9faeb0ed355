package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/filsalgado/simpleRGN/internal/application"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybeString(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func printRecordPage(page application.RecordPage) {
	rows := make([][]string, 0, len(page.Data))
	for _, item := range page.Data {
		rows = append(rows, []string{
			uintToString(item.ID),
			string(item.Type),
			item.Date,
			item.ParishName,
			item.MainName,
		})
	}
	printTable([]string{"ID", "TYPE", "DATE", "PARISH", "NAME"}, rows)
	fmt.Printf("page %d/%d, %d records\n", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
}

func printRecord(record application.Record) {
	ev := record.Event
	parish := ev.ParishName
	if parish == "" {
		parish = uintToString(ev.ParishID)
	}
	printKV([][2]string{
		{"id", uintToString(ev.ID)},
		{"type", string(ev.Type)},
		{"parish", parish},
		{"source", formatMaybeString(ev.SourceURL)},
		{"notes", formatMaybeString(ev.Notes)},
	})

	var lines []string
	collectPerson(&lines, record.Subjects.Primary, "", "")
	collectPerson(&lines, record.Subjects.Secondary, "", "")
	for i := range record.Participants {
		collectPerson(&lines, &record.Participants[i], "", "")
	}
	if len(lines) > 0 {
		fmt.Println()
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

// collectPerson renders one tree node per line, indented by generation.
func collectPerson(lines *[]string, node *application.PersonNode, indent, hop string) {
	if node == nil {
		return
	}
	label := node.Role
	if hop != "" {
		label = hop
	}
	id := "new"
	if existing, ok := node.ID.Existing(); ok {
		id = uintToString(existing)
	}
	*lines = append(*lines, fmt.Sprintf("%s%s: %s [%s] #%s", indent, label, node.Name, node.LineageIndex, id))
	collectPerson(lines, node.Father, indent+"  ", "father")
	collectPerson(lines, node.Mother, indent+"  ", "mother")
}
