package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/harrisonrobin/opsboard/pkg/columns"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/review"
)

const shortIDLen = 8

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	invalidStyle = cellStyle.Foreground(lipgloss.Color("203"))
	mutedStyle   = cellStyle.Foreground(lipgloss.Color("244"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// renderSession draws the staged records with their selection and validity.
func renderSession(s *review.Session) string {
	recs := s.All()
	rows := make([][]string, len(recs))
	for i, r := range recs {
		mark := "[ ]"
		if r.Selected {
			mark = "[x]"
		}
		status := "ok"
		if !r.IsValid {
			status = r.Reason
		}
		rows[i] = []string{
			mark,
			strconv.Itoa(r.OriginalIndex + 1),
			shortID(r.ID),
			r.ProjectName,
			strconv.Itoa(r.Pages),
			r.Rate.StringFixed(2),
			r.Total().StringFixed(2),
			string(r.WorkStatus),
			string(r.PaymentStatus),
			r.AcceptedDate.String(),
			r.SubmissionDate.String(),
			status,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "Row", "ID", "Project", "Pages", "Rate", "Total", "Work", "Payment", "Accepted", "Due", "Check").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(recs) && !recs[row].IsValid:
				return invalidStyle
			case row >= 0 && row < len(recs) && !recs[row].Selected:
				return mutedStyle
			}
			return cellStyle
		})

	sum := s.Summary()
	footer := summaryStyle.Render(fmt.Sprintf("%d staged, %d valid, %d selected", sum.Total, sum.Valid, sum.Selected))
	return t.String() + "\n" + footer
}

func renderClients(clients []model.Client) string {
	rows := make([][]string, len(clients))
	for i, c := range clients {
		rows[i] = []string{c.ID, c.Name, c.Email}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Email").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func fieldValue(r review.StagedRecord, f columns.Field) string {
	switch f {
	case columns.ProjectName:
		return r.ProjectName
	case columns.Pages:
		return strconv.Itoa(r.Pages)
	case columns.Rate:
		return r.Rate.String()
	case columns.WorkStatus:
		return string(r.WorkStatus)
	case columns.PaymentStatus:
		return string(r.PaymentStatus)
	case columns.Notes:
		return r.Notes
	case columns.AcceptedDate:
		return r.AcceptedDate.String()
	case columns.SubmissionDate:
		return r.SubmissionDate.String()
	}
	return ""
}

// renderRecord shows one staged record next to the source cells it came
// from, including the columns the mapper left out.
func renderRecord(r review.StagedRecord) string {
	var b strings.Builder
	state := "valid"
	if !r.IsValid {
		state = "invalid: " + r.Reason
	}
	mark := "not selected"
	if r.Selected {
		mark = "selected"
	}
	fmt.Fprintf(&b, "%s\n", summaryStyle.Render(fmt.Sprintf("Row %d  %s  %s  %s", r.OriginalIndex+1, r.ID, mark, state)))

	raw := r.RawSource
	plan := columns.Resolve(raw.Headers)
	fields := columns.Fields()
	rows := make([][]string, len(fields))
	for i, f := range fields {
		source, cell := "", ""
		if idx, ok := plan[f]; ok {
			source = raw.Headers[idx]
			if idx < len(raw.Values) {
				cell = raw.Values[idx]
			}
		}
		rows[i] = []string{string(f), fieldValue(r, f), source, cell}
	}
	b.WriteString(table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Field", "Value", "Source column", "Source value").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String())
	b.WriteString("\n")

	unmapped := columns.Unmapped(raw.Headers)
	if len(unmapped) == 0 {
		b.WriteString("Unmapped columns: none")
		return b.String()
	}
	cells := raw.Map()
	extra := make([][]string, len(unmapped))
	for i, h := range unmapped {
		extra[i] = []string{h, cells[h]}
	}
	b.WriteString("Unmapped columns:\n")
	b.WriteString(table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Column", "Value").
		Rows(extra...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return mutedStyle
		}).
		String())
	return b.String()
}

func renderTasks(tasks []*model.Task) string {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			strconv.Itoa(t.SlNo),
			t.ProjectName,
			strconv.Itoa(t.Pages),
			t.Rate.StringFixed(2),
			t.Total.StringFixed(2),
			string(t.WorkStatus),
			string(t.PaymentStatus),
			t.AcceptedDate.Format("2006-01-02"),
			t.SubmissionDate.Format("2006-01-02"),
			shortID(t.ClientID),
		}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Sl No", "Project", "Pages", "Rate", "Total", "Work", "Payment", "Accepted", "Due", "Client").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
