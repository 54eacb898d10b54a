package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pricingboard/internal/api"
	"pricingboard/internal/board"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    48,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderTasks(tasks []api.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			t.Title,
			board.Stage(t.Status).Label(),
			dash(t.CreatedBy),
			dash(t.DueDate),
			strconv.Itoa(len(t.Attachments)),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Stage", "Created By", "Due", "Files"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func renderAttachments(atts []api.Attachment) string {
	rows := make([][]string, 0, len(atts))
	for _, a := range atts {
		rows = append(rows, []string{board.Stage(a.Folder).Label(), a.Name, a.FilePath})
	}
	return renderTable([]string{"Folder", "Name", "Location"}, rows, nil)
}

func renderUsers(users []api.User) string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.DisplayName, dash(u.Email), u.RoleLabel})
	}
	return renderTable([]string{"ID", "Name", "Email", "Role"}, rows, nil)
}
