package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fireops-orders/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(export model.ScheduleExport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, export); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, checklist := range export.Checklists {
		sheetName := buildSheetName(checklist.Checklist.Name, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeChecklist(file, sheetName, checklist); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, export model.ScheduleExport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Project")
	set("B1", export.Project.Title)
	set("A2", "Status")
	set("B2", string(export.Project.Status))
	set("A3", "Start date")
	set("B3", formatDate(&export.Project.StartDate))
	set("A4", "End date")
	set("B4", formatDate(export.Project.EndDate))
	set("A5", "Total value")
	set("B5", export.Project.TotalValue)

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Checklist")
	set(fmt.Sprintf("B%d", tableRow), "Items")
	set(fmt.Sprintf("C%d", tableRow), "Completed")
	set(fmt.Sprintf("D%d", tableRow), "Value")

	for i, checklist := range export.Checklists {
		completed := 0
		value := 0.0
		for _, item := range checklist.Items {
			if item.IsCompleted {
				completed++
			}
			value += item.Price
		}
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), checklist.Checklist.Name)
		set(fmt.Sprintf("B%d", row), len(checklist.Items))
		set(fmt.Sprintf("C%d", row), completed)
		set(fmt.Sprintf("D%d", row), value)
	}
	return nil
}

func (g *Generator) writeChecklist(file *excelize.File, sheet string, checklist model.ChecklistSchedule) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"#", "Work order", "Type", "Scheduled", "Stage", "Payment", "Price"}
	for i, header := range headers {
		column, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		set(column+"1", header)
	}

	for i, item := range checklist.Items {
		row := i + 2
		set(fmt.Sprintf("A%d", row), i+1)
		set(fmt.Sprintf("B%d", row), item.Name)
		set(fmt.Sprintf("C%d", row), string(item.WorkType))
		set(fmt.Sprintf("D%d", row), formatDate(item.ScheduledDate))
		set(fmt.Sprintf("E%d", row), string(item.Stage))
		set(fmt.Sprintf("F%d", row), string(item.PaymentStatus))
		set(fmt.Sprintf("G%d", row), item.Price)
	}
	return nil
}

// buildSheetName keeps excelize's 31 character sheet limit and
// deduplicates repeated checklist names.
func buildSheetName(name string, used map[string]struct{}) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "Checklist"
	}
	if len(base) > 28 {
		base = base[:28]
	}

	candidate := base
	for i := 2; ; i++ {
		if _, taken := used[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s %d", base, i)
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}
