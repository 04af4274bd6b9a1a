package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	ShiftsSheet     = "班次"
	DeviationsSheet = "偏差"
)

var shiftHeaders = []string{
	"班次ID", "员工", "日期", "开始", "结束", "状态",
	"工作分钟", "休息分钟", "加班分钟", "计划模式", "迟到分钟", "早退分钟",
	"偏差数", "提示数", "关闭原因", "异常说明",
}

var deviationHeaders = []string{"班次ID", "员工", "日期", "类别", "类型", "级别", "说明"}

// WriteShifts 把班次及其汇总文档写成 xlsx，汇总为空的班次只输出基础字段
func WriteShifts(w io.Writer, shifts []*domain.Shift, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(ShiftsSheet)
	if err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(DeviationsSheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeRow(f, ShiftsSheet, 1, toAny(shiftHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, DeviationsSheet, 1, toAny(deviationHeaders)); err != nil {
		return err
	}
	for _, sheet := range []string{ShiftsSheet, DeviationsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(ShiftsSheet, "B", "B", 18)
	_ = f.SetColWidth(ShiftsSheet, "P", "P", 40)
	_ = f.SetColWidth(DeviationsSheet, "G", "G", 50)

	deviationRow := 2
	for i, shift := range shifts {
		var summary domain.ShiftSummary
		if len(shift.Summary) > 0 && string(shift.Summary) != "null" {
			if err := json.Unmarshal(shift.Summary, &summary); err != nil {
				return fmt.Errorf("班次 %d 的汇总文档无法解析: %w", shift.ID, err)
			}
		}

		date := summary.Date
		if date == "" {
			date = shift.StartTime.In(loc).Format("2006-01-02")
		}
		end := ""
		if shift.EndTime != nil {
			end = shift.EndTime.In(loc).Format("2006-01-02 15:04")
		}

		values := []any{
			shift.ID,
			shift.EmployeeName,
			date,
			shift.StartTime.In(loc).Format("2006-01-02 15:04"),
			end,
			string(shift.State),
			shift.WorkedMinutes,
			shift.BreakMinutes,
			shift.OvertimeMinutes,
			summary.PlanMode,
			summary.Metrics.LateMinutes,
			summary.Metrics.EarlyLeaveMinutes,
			len(summary.Deviations),
			len(summary.Advisories),
			shift.CloseReason,
			shift.IncidentNote,
		}
		if err := writeRow(f, ShiftsSheet, i+2, values); err != nil {
			return err
		}

		for _, group := range []struct {
			label string
			items []domain.Deviation
		}{
			{"偏差", summary.Deviations},
			{"提示", summary.Advisories},
		} {
			for _, d := range group.items {
				values := []any{shift.ID, shift.EmployeeName, date, group.label, d.Kind, string(d.Severity), d.Message}
				if err := writeRow(f, DeviationsSheet, deviationRow, values); err != nil {
					return err
				}
				deviationRow++
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入 Excel 失败: %w", err)
	}

	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(values []string) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}
