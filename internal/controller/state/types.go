package state

// Step шаг диалога. Шаг определяет тип payload: для шагов бронирования
// это BookingDraft, для отзыва — ReviewData. Blob чужого шага не
// декодируется «на удачу», а отклоняется менеджером.
type Step string

const (
	StepNone Step = ""

	// Шаги бронирования
	StepSelectSlots   Step = "select_slots"
	StepConfirm       Step = "confirm"
	StepCommentChoice Step = "comment_choice"
	StepComment       Step = "comment"

	// Ожидание текста отзыва
	StepReview Step = "review"
)

// IsBooking сообщает, относится ли шаг к сценарию бронирования
func (s Step) IsBooking() bool {
	switch s {
	case StepSelectSlots, StepConfirm, StepCommentChoice, StepComment:
		return true
	}
	return false
}

// BookingDraft накопленный выбор сценария бронирования.
// Date в формате 2006-01-02, ChosenIDs всегда отсортированы.
type BookingDraft struct {
	Date      string  `json:"date"`
	ChosenIDs []int64 `json:"chosen_ids"`
	Comment   *string `json:"comment,omitempty"`
}

// ReviewData слот, к которому ждём текст отзыва
type ReviewData struct {
	SlotID int64 `json:"slot_id"`
}

// ToggleID добавляет id в отсортированный список или убирает, если он
// там уже есть. Исходный срез не модифицируется.
func ToggleID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids)+1)
	inserted := false

	for _, v := range ids {
		if v == id {
			// уже был выбран: пропускаем, это снятие выбора
			inserted = true
			continue
		}
		if !inserted && v > id {
			out = append(out, id)
			inserted = true
		}
		out = append(out, v)
	}
	if !inserted {
		out = append(out, id)
	}

	return out
}
