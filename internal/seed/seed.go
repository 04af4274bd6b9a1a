package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/repository"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/utils"
)

type Recomputer interface {
	Recompute(ctx context.Context, shiftID int64) (*domain.Shift, error)
}

func hours(v float64) *float64 { return &v }
func minutes(v int32) *int32   { return &v }

var demoPolicies = []domain.Policy{
	{
		Name:             "标准全职",
		DailyTargetHours: hours(8),
		MaxHoursPerDay:   hours(10),
		MaxHoursPerWeek:  hours(40),
		MinBreakMinutes:  minutes(30),
		MaxBreakMinutes:  minutes(90),
		NightWorkAllowed: false,
		MaxShiftHours:    hours(12),
	},
	{
		Name:             "夜班",
		DailyTargetHours: hours(8),
		MaxHoursPerDay:   hours(12),
		MinBreakMinutes:  minutes(20),
		NightWorkAllowed: true,
	},
}

var demoPlanTemplate = domain.PlanTemplate{
	Name:        "办公室 9-18",
	Description: "工作日 9:00-18:00，中午休息一小时，上午为必须出勤时段",
	Blocks: []domain.PlanTemplateBlock{
		{Kind: domain.IntervalWork, StartTime: "09:00", EndTime: "13:00", Mandatory: true, ApplicableDays: []int32{1, 2, 3, 4, 5}},
		{Kind: domain.IntervalBreak, StartTime: "13:00", EndTime: "14:00", ApplicableDays: []int32{1, 2, 3, 4, 5}},
		{Kind: domain.IntervalWork, StartTime: "14:00", EndTime: "18:00", ApplicableDays: []int32{1, 2, 3, 4, 5}},
	},
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == constraint
}

// SeedCatalog 插入演示用的 turno 和计划模板，已存在时直接复用
func SeedCatalog(ctx context.Context, r *repository.Repository, companyID int64) ([]*domain.Policy, *domain.PlanTemplate, error) {
	existingPolicies, err := r.GetAllPolicies(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}

	policies := make([]*domain.Policy, 0, len(demoPolicies))
	for _, demo := range demoPolicies {
		policy := demo
		policy.CompanyID = companyID

		found := false
		for _, existing := range existingPolicies {
			if existing.Name == policy.Name {
				policies = append(policies, existing)
				found = true
				break
			}
		}
		if found {
			continue
		}

		if err := r.CreatePolicy(ctx, &policy); err != nil {
			return nil, nil, fmt.Errorf("插入 turno %s 失败: %w", policy.Name, err)
		}
		policies = append(policies, &policy)
	}

	templates, err := r.GetAllPlanTemplates(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	for _, template := range templates {
		if template.Name == demoPlanTemplate.Name {
			return policies, template, nil
		}
	}

	template := demoPlanTemplate
	template.CompanyID = companyID
	template.Blocks = append([]domain.PlanTemplateBlock(nil), demoPlanTemplate.Blocks...)
	if err := utils.ValidatePlanTemplateBlocks(&template); err != nil {
		return nil, nil, err
	}
	if err := r.CreatePlanTemplate(ctx, &template); err != nil {
		if isUniqueViolation(err, "plan_templates_company_id_name_key") {
			return nil, nil, fmt.Errorf("计划模板 %s 已被并发创建: %w", template.Name, err)
		}
		return nil, nil, err
	}

	return policies, &template, nil
}

// SeedEmployees 插入 n 个随机员工，大部分使用第一个 turno 和计划模板
func SeedEmployees(ctx context.Context, r *repository.Repository, companyID int64, n int, emailDomain string, policies []*domain.Policy, template *domain.PlanTemplate) ([]*domain.Employee, error) {
	employees := make([]*domain.Employee, 0, n)
	for i := 0; i < n; i++ {
		employee := utils.GenerateRandomEmployee(companyID, emailDomain)

		if len(policies) > 0 {
			// 每四个人里安排一个夜班
			policy := policies[0]
			if i%4 == 3 && len(policies) > 1 {
				policy = policies[1]
			}
			employee.PolicyID = &policy.ID
		}
		if template != nil && i%5 != 4 {
			employee.PlanTemplateID = &template.ID
		}

		if err := r.CreateEmployee(ctx, employee); err != nil {
			slog.Error("插入员工失败", "error", err)
			continue
		}
		employees = append(employees, employee)
	}

	return employees, nil
}

type punch struct {
	kind domain.ClockEventKind
	at   time.Time
}

// jitter 返回 [-maxMinutes, maxMinutes] 内的随机分钟偏移
func jitter(rnd *rand.Rand, maxMinutes int) time.Duration {
	return time.Duration(rnd.Intn(2*maxMinutes+1)-maxMinutes) * time.Minute
}

// demoDay 生成某一天比较真实的一组打卡：偶尔迟到、偶尔加班、偶尔忘记打下班卡
func demoDay(day time.Time, loc *time.Location, rnd *rand.Rand) []punch {
	at := func(hour, minute int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	}

	entry := at(9, 0).Add(jitter(rnd, 20))
	breakStart := at(13, 0).Add(jitter(rnd, 10))
	breakEnd := breakStart.Add(time.Duration(40+rnd.Intn(40)) * time.Minute)
	exit := at(18, 0).Add(jitter(rnd, 30))
	if rnd.Intn(6) == 0 {
		exit = exit.Add(2 * time.Hour)
	}

	punches := []punch{
		{domain.ClockEventEntry, entry},
		{domain.ClockEventBreakStart, breakStart},
		{domain.ClockEventBreakEnd, breakEnd},
	}
	if rnd.Intn(10) != 0 {
		punches = append(punches, punch{domain.ClockEventExit, exit})
	}

	return punches
}

// SeedClockEvents 为每个员工生成最近 days 个工作日的打卡，并在每个班次结束后重算摘要
func SeedClockEvents(ctx context.Context, r *repository.Repository, rc Recomputer, companyID int64, employees []*domain.Employee, days int, loc *time.Location, now time.Time) (int, error) {
	rnd := rand.New(rand.NewSource(now.UnixNano()))
	today := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)

	cnt := 0
	for _, employee := range employees {
		for d := days; d >= 1; d-- {
			day := today.AddDate(0, 0, -d)
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}

			var shiftID int64
			for _, p := range demoDay(day, loc, rnd) {
				event := &domain.ClockEvent{
					EmployeeID: employee.ID,
					Kind:       p.kind,
					Timestamp:  p.at,
					Origin:     domain.ClockEventOriginDevice,
				}
				id, err := r.RecordClockEvent(ctx, companyID, event)
				if err != nil {
					slog.Error("插入打卡记录失败", "employeeID", employee.ID, "kind", p.kind, "error", err)
					break
				}
				shiftID = id
				cnt++
			}

			if shiftID != 0 {
				if _, err := rc.Recompute(ctx, shiftID); err != nil {
					return cnt, fmt.Errorf("重算班次 %d 失败: %w", shiftID, err)
				}
			}
		}
	}

	return cnt, nil
}

type csvEvent struct {
	email string
	event domain.ClockEvent
}

var csvHeaders = []string{"邮箱", "类型", "时间", "备注"}

// parseClockEventCSV 读取考勤机导出的 CSV，时间按 loc 解释
func parseClockEventCSV(reader io.Reader, loc *time.Location) ([]csvEvent, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = len(csvHeaders)

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i, header := range csvHeaders {
		if strings.TrimSpace(headers[i]) != header {
			return nil, fmt.Errorf("第 %d 列应为 %s", i+1, header)
		}
	}

	events := make([]csvEvent, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}

		kind := domain.ClockEventKind(strings.TrimSpace(row[1]))
		switch kind {
		case domain.ClockEventEntry, domain.ClockEventExit, domain.ClockEventBreakStart, domain.ClockEventBreakEnd:
		default:
			return nil, fmt.Errorf("第 %d 行的打卡类型 %q 无效", line, row[1])
		}

		ts, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(row[2]), loc)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行的时间无效: %w", line, err)
		}

		events = append(events, csvEvent{
			email: strings.ToLower(strings.TrimSpace(row[0])),
			event: domain.ClockEvent{
				Kind:      kind,
				Timestamp: ts,
				Note:      strings.TrimSpace(row[3]),
				Origin:    domain.ClockEventOriginManual,
				Manual:    true,
			},
		})
	}

	return events, nil
}

// ImportClockEvents 按邮箱匹配员工并导入 CSV 中的打卡，最后重算涉及到的班次
func ImportClockEvents(ctx context.Context, r *repository.Repository, rc Recomputer, companyID int64, reader io.Reader, loc *time.Location) (int, error) {
	records, err := parseClockEventCSV(reader, loc)
	if err != nil {
		return 0, err
	}

	employees, err := r.GetAllEmployees(ctx, companyID)
	if err != nil {
		return 0, err
	}
	byEmail := make(map[string]int64, len(employees))
	for _, employee := range employees {
		byEmail[strings.ToLower(employee.Email)] = employee.ID
	}

	touched := make([]int64, 0)
	seen := make(map[int64]bool)
	cnt := 0
	for _, record := range records {
		employeeID, ok := byEmail[record.email]
		if !ok {
			slog.Error("没有找到员工", "email", record.email)
			continue
		}

		event := record.event
		event.EmployeeID = employeeID
		shiftID, err := r.RecordClockEvent(ctx, companyID, &event)
		if err != nil {
			slog.Error("导入打卡记录失败", "email", record.email, "kind", event.Kind, "error", err)
			continue
		}
		cnt++

		if !seen[shiftID] {
			seen[shiftID] = true
			touched = append(touched, shiftID)
		}
	}

	for _, shiftID := range touched {
		if _, err := rc.Recompute(ctx, shiftID); err != nil {
			return cnt, fmt.Errorf("重算班次 %d 失败: %w", shiftID, err)
		}
	}

	return cnt, nil
}
