package clock

import "time"

// Clock отдаёт текущее время. Внедряется во все места, где считается
// cutoff или "слот уже в прошлом", чтобы тесты могли зафиксировать время.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System возвращает часы на основе time.Now
func System() Clock {
	return systemClock{}
}

// Fixed возвращает часы, которые всегда показывают t (для тестов)
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
