// Пакет schedule — чистая логика регламента обслуживания: вычисление
// следующей даты по периодичности и классификация статуса по сроку.
// Никакого I/O, все функции детерминированы.
package schedule

import "time"

// Frequency — периодичность обслуживания. Хранится в БД строкой,
// значения фиксированы для совместимости с историческими данными.
type Frequency string

const (
	FrequencyAnnual     Frequency = "Annual"
	FrequencySemiAnnual Frequency = "Semi-Annual"
	FrequencyQuarterly  Frequency = "Quarterly"
	FrequencyMonthly    Frequency = "Monthly"
)

// Status — статус оборудования относительно срока обслуживания.
type Status string

const (
	StatusOK      Status = "OK"
	StatusDueSoon Status = "Due Soon"
	StatusOverDue Status = "Over Due"
	StatusUnknown Status = "Unknown"
)

// DueSoonWindowDays — за сколько дней до срока статус становится "Due Soon".
// Граница включительная: ровно 30 дней — ещё "Due Soon".
const DueSoonWindowDays = 30

// Months возвращает интервал периодичности в месяцах.
// Неизвестное значение (в том числе пустое) — 0: регламент не настроен.
func (f Frequency) Months() int {
	switch f {
	case FrequencyAnnual:
		return 12
	case FrequencySemiAnnual:
		return 6
	case FrequencyQuarterly:
		return 3
	case FrequencyMonthly:
		return 1
	}
	return 0
}

// IsValid сообщает, входит ли значение в известный набор периодичностей.
func (f Frequency) IsValid() bool {
	return f.Months() > 0
}

// NextDue выводит следующую дату обслуживания из последней даты и периодичности.
// Без базовой даты или с ненастроенным регламентом расписания нет — nil.
// Вызывается при каждом создании/обновлении исходных полей, чтобы производная
// дата никогда не расходилась с ними.
func NextDue(last *time.Time, f Frequency) *time.Time {
	if last == nil {
		return nil
	}
	months := f.Months()
	if months == 0 {
		return nil
	}
	next := AddMonths(*last, months)
	return &next
}

// AddMonths прибавляет календарные месяцы с прижатием числа к последнему
// дню целевого месяца: 2024-01-31 + 1 месяц = 2024-02-29. Стандартный
// time.AddDate здесь не подходит — он нормализует перенос (31 февраля -> 2 марта).
func AddMonths(d time.Time, months int) time.Time {
	year, month, day := d.Date()

	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)

	if last := daysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, d.Location())
}

func daysIn(year int, month time.Month) int {
	// День 0 следующего месяца — последний день текущего.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Classify определяет статус по дате срока и текущей дате.
// Сравнение ведётся по календарным дням, время суток не учитывается.
func Classify(due *time.Time, today time.Time) Status {
	if due == nil {
		return StatusUnknown
	}

	daysLeft := daysBetween(truncateToDay(today), truncateToDay(*due))
	switch {
	case daysLeft < 0:
		return StatusOverDue
	case daysLeft <= DueSoonWindowDays:
		return StatusDueSoon
	}
	return StatusOK
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
