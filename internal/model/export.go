package model

// ScheduleExport is the flattened view of a project's work-order
// schedule consumed by the spreadsheet generator.
type ScheduleExport struct {
	Project    Project
	Checklists []ChecklistSchedule
}

type ChecklistSchedule struct {
	Checklist Checklist
	Items     []WorkOrder
}
