package domain

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// 计划对比产生的偏差
const (
	DeviationNoExpectedBlocks        = "sin_bloques_esperados"
	DeviationLateEntry               = "entrada_tarde"
	DeviationEarlyDeparture          = "salida_anticipada"
	DeviationWorkOutsideBlock        = "trabajo_fuera_bloque"
	DeviationBreakOutsideBlock       = "descanso_fuera_bloque"
	DeviationMandatoryBlockUncovered = "bloque_obligatorio_no_cubierto"
)

// 与计划无关、只依赖 turno 的提示
const (
	AdvisoryNoPolicy          = "sin_turno"
	AdvisoryBelowTarget       = "horas_bajo_objetivo"
	AdvisoryDailyMaxExceeded  = "exceso_horas_dia"
	AdvisoryWeeklyMaxExceeded = "exceso_horas_semana"
	AdvisoryBreakTooShort     = "descanso_insuficiente"
	AdvisoryBreakTooLong      = "descanso_excesivo"
	AdvisoryNightWork         = "trabajo_nocturno_no_permitido"
)

type Deviation struct {
	Kind     string         `json:"kind"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Meta     map[string]any `json:"meta"`
}
