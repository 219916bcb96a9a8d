// internal/service/abono/domain/modality.go
package domain

// Modality 是 abono 的包期模式。历史系统用大小写混乱的自由文本
// （"por día"/"por semana"/"por mes"）表示，这里收敛为封闭枚举，
// 统一从以天计的时长推导。
type Modality string

const (
	ModalityDaily   Modality = "daily"
	ModalityWeekly  Modality = "weekly"
	ModalityMonthly Modality = "monthly"
)

// 各模式在服务未配置时长时的兜底包期天数。
const (
	fallbackDailyDays   = 1
	fallbackWeeklyDays  = 7
	fallbackMonthlyDays = 30
)

// ModalityFromDays 按固定阈值把包期天数归类：
// 1 天为日卡，6–8 天为周卡，28–31 天为月卡。
func ModalityFromDays(days int) (Modality, bool) {
	switch {
	case days == 1:
		return ModalityDaily, true
	case days >= 6 && days <= 8:
		return ModalityWeekly, true
	case days >= 28 && days <= 31:
		return ModalityMonthly, true
	default:
		return "", false
	}
}

// InferModality 从既有首期的实际跨度反推模式。
// 允许 ±1 天的容差，吸收续期宽限日带来的取整误差。
func InferModality(spanDays int) (Modality, bool) {
	for _, d := range []int{spanDays, spanDays - 1, spanDays + 1} {
		if m, ok := ModalityFromDays(d); ok {
			return m, true
		}
	}
	return "", false
}

// DefaultDays 返回该模式的兜底包期天数。
func (m Modality) DefaultDays() int {
	switch m {
	case ModalityWeekly:
		return fallbackWeeklyDays
	case ModalityMonthly:
		return fallbackMonthlyDays
	default:
		return fallbackDailyDays
	}
}

// PeriodDays 计算一个包期的天数：优先用服务配置的计价时长
// （分钟向上取整成天），未配置时落回模式的固定天数。
func PeriodDays(durationMinutes *int, m Modality) int {
	if durationMinutes == nil || *durationMinutes <= 0 {
		return m.DefaultDays()
	}
	return (*durationMinutes + minutesPerDay - 1) / minutesPerDay
}

const minutesPerDay = 24 * 60
