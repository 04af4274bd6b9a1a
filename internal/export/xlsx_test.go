package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestWriteShifts(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	start := time.Date(2024, 3, 4, 8, 5, 0, 0, loc)
	end := time.Date(2024, 3, 4, 16, 0, 0, 0, loc)

	summary, err := json.Marshal(domain.ShiftSummary{
		Date:     "2024-03-04",
		PlanMode: domain.PlanModeTemplate,
		Deviations: []domain.Deviation{
			{Kind: domain.DeviationLateEntry, Severity: domain.SeverityWarning, Message: "比计划晚 5 分钟开始工作"},
		},
		Advisories: []domain.Deviation{
			{Kind: domain.AdvisoryBelowTarget, Severity: domain.SeverityWarning, Message: "工作时长比目标少 5 分钟"},
		},
		Metrics: domain.PlanMetrics{LateMinutes: 5},
	})
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	shifts := []*domain.Shift{
		{
			ID:            1,
			EmployeeName:  "张三",
			StartTime:     start,
			EndTime:       &end,
			State:         domain.ShiftStateClosed,
			WorkedMinutes: 475,
			BreakMinutes:  30,
			Summary:       summary,
		},
		{
			ID:           2,
			EmployeeName: "李四",
			StartTime:    start,
			State:        domain.ShiftStateOpen,
		},
	}

	var buf bytes.Buffer
	if err := WriteShifts(&buf, shifts, loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ShiftsSheet)
	if err != nil {
		t.Fatalf("read shifts sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "张三" || rows[1][2] != "2024-03-04" || rows[1][6] != "475" || rows[1][10] != "5" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][5] != string(domain.ShiftStateOpen) {
		t.Fatalf("unexpected second row: %v", rows[2])
	}

	deviations, err := f.GetRows(DeviationsSheet)
	if err != nil {
		t.Fatalf("read deviations sheet: %v", err)
	}
	if len(deviations) != 3 {
		t.Fatalf("expected header and 2 deviation rows, got %d", len(deviations))
	}
	if deviations[1][4] != domain.DeviationLateEntry || deviations[2][4] != domain.AdvisoryBelowTarget {
		t.Fatalf("unexpected deviation rows: %v", deviations[1:])
	}
}
