package models

import "strings"

// AlertStatus статус жизненного цикла алерта
type AlertStatus string

const (
	StatusPending    AlertStatus = "pending"
	StatusAssigned   AlertStatus = "assigned"
	StatusAccepted   AlertStatus = "accepted"
	StatusInProgress AlertStatus = "in_progress"
	StatusResolved   AlertStatus = "resolved"
	StatusCancelled  AlertStatus = "cancelled"

	// StatusDeclined запрашивается исполнителем и возвращает алерт в pending.
	StatusDeclined AlertStatus = "declined"
	// StatusDone устаревший терминальный статус, эквивалент resolved с коротким автоудалением.
	StatusDone AlertStatus = "done"
	// StatusOpen устаревший синоним pending у старых клиентов.
	StatusOpen AlertStatus = "open"
)

// transitions таблица допустимых переходов: текущий -> разрешенные следующие
var transitions = map[AlertStatus][]AlertStatus{
	StatusPending:    {StatusAssigned, StatusInProgress, StatusResolved, StatusCancelled, StatusDone},
	StatusAssigned:   {StatusAccepted, StatusInProgress, StatusResolved, StatusCancelled, StatusDeclined, StatusDone},
	StatusAccepted:   {StatusInProgress, StatusResolved, StatusCancelled, StatusDone},
	StatusInProgress: {StatusResolved, StatusCancelled, StatusDone},
	StatusResolved:   {},
	StatusCancelled:  {},
	StatusDone:       {},
}

// ParseAlertStatus нормализует статус из внешнего ввода
func ParseAlertStatus(s string) AlertStatus {
	st := AlertStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == StatusOpen {
		return StatusPending
	}
	return st
}

// Known сообщает, является ли статус частью машины состояний
func (s AlertStatus) Known() bool {
	if s == StatusDeclined || s == StatusOpen {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// Terminal статусы, из которых переходов нет
func (s AlertStatus) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled || s == StatusDone
}

// Open алерт ждет назначения исполнителя
func (s AlertStatus) Open() bool {
	return s == StatusPending || s == StatusOpen
}

// Active алерт еще не завершен
func (s AlertStatus) Active() bool {
	return s.Known() && !s.Terminal() && s != StatusDeclined
}

// HasAssignee статусы, в которых у алерта обязан быть исполнитель
func (s AlertStatus) HasAssignee() bool {
	return s == StatusAssigned || s == StatusAccepted || s == StatusInProgress
}

// CanTransition проверяет переход по таблице
func CanTransition(from, to AlertStatus) bool {
	from = ParseAlertStatus(string(from))
	to = ParseAlertStatus(string(to))
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Resolve возвращает статус, который будет сохранен после перехода.
// declined не хранится: алерт возвращается в pending.
func (s AlertStatus) Resolve() AlertStatus {
	if s == StatusDeclined {
		return StatusPending
	}
	return ParseAlertStatus(string(s))
}

// ActiveStatuses статусы, которые показываются в выборке "open"
func ActiveStatuses() []AlertStatus {
	return []AlertStatus{StatusPending, StatusAssigned, StatusAccepted, StatusInProgress}
}

// AllStatuses все хранимые статусы
func AllStatuses() []AlertStatus {
	return []AlertStatus{
		StatusPending, StatusAssigned, StatusAccepted, StatusInProgress,
		StatusResolved, StatusCancelled, StatusDone,
	}
}
