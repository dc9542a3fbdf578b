package keyboard

import (
	"fmt"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/slotpizza/pizza_bot/internal/model"
)

const slotsPerRow = 3

// Русские сокращения дней недели, time.Weekday начинается с воскресенья
var weekdayShort = [7]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// Dates строит клавиатуру выбора даты, по одной дате в ряд
func Dates(dates []time.Time) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	for _, d := range dates {
		label := fmt.Sprintf("%s %s", weekdayShort[d.Weekday()], d.Format("02.01"))
		b.Row(Button(label, "date:"+d.Format("2006-01-02")))
	}
	return b.Build()
}

// SlotsGrid строит сетку свободных слотов даты по три в ряд.
// Выбранные помечаются галочкой; нажатие на любой слот — toggle.
func SlotsGrid(slots []*model.Slot, chosen []int64) *models.InlineKeyboardMarkup {
	chosenSet := make(map[int64]bool, len(chosen))
	for _, id := range chosen {
		chosenSet[id] = true
	}

	b := NewBuilder()
	row := make([]models.InlineKeyboardButton, 0, slotsPerRow)
	for _, slot := range slots {
		label := slot.SlotTime.Format("15:04")
		if chosenSet[slot.ID] {
			label = "✅ " + label
		}
		row = append(row, Button(label, fmt.Sprintf("slot:%d", slot.ID)))

		if len(row) == slotsPerRow {
			b.AddRow(row)
			row = make([]models.InlineKeyboardButton, 0, slotsPerRow)
		}
	}
	b.AddRow(row)

	b.Row(
		Button("✅ Готово", "slots_done"),
		Button("❌ Отмена", "flow_cancel"),
	)

	return b.Build()
}

// Confirm клавиатура подтверждения брони
func Confirm() *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("✅ Подтверждаю", "booking_confirm"),
			Button("❌ Отмена", "flow_cancel"),
		).
		Build()
}

// CommentChoice клавиатура выбора "добавить комментарий?"
func CommentChoice() *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("💬 Добавить комментарий", "comment_add"),
			Button("➡️ Без комментария", "comment_skip"),
		).
		Build()
}

// MyBookings строит список броней пользователя с кнопками отмены
func MyBookings(slots []*model.Slot) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	for _, slot := range slots {
		label := fmt.Sprintf("❌ Отменить %s %s",
			slot.SlotTime.Format("02.01"), slot.SlotTime.Format("15:04"))
		b.Row(Button(label, fmt.Sprintf("cancel_booking:%d", slot.ID)))
	}
	return b.Build()
}

// AdminBookedSlots строит админский список занятых слотов с действиями.
// Выполненные слоты без кнопок: выдачу уже не отменить.
func AdminBookedSlots(slots []*model.Slot) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	for _, slot := range slots {
		if slot.IsCompleted {
			continue
		}
		t := slot.SlotTime.Format("02.01 15:04")
		b.Row(
			Button("🍕 "+t+" выдан", fmt.Sprintf("complete:%d", slot.ID)),
			Button("🧹 снять", fmt.Sprintf("admin_clear:%d", slot.ID)),
		)
	}
	return b.Build()
}
