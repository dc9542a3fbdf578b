package service

import "errors"

// Сентинельные ошибки сервисного слоя. Контроллер по ним выбирает
// текст ответа пользователю, не разбирая формулировки.
var (
	// ErrValidation — входные данные осмысленны, но нарушают правило
	// (несмежные слоты, прошедшее время, кривой интервал)
	ErrValidation = errors.New("validation failed")

	// ErrConflict — состояние успело измениться: слот заняли, отзыв уже есть
	ErrConflict = errors.New("conflict")

	// ErrState — сохранённое состояние диалога не бьётся с пришедшим апдейтом
	ErrState = errors.New("conversation state mismatch")

	// ErrUnauthorized — действие над чужой бронью или админ-команда не от админа
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound — объект не существует
	ErrNotFound = errors.New("not found")
)
