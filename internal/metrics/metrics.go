package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Счётчики бота. promauto регистрирует их в глобальном реестре при
// инициализации пакета.
var (
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizza_bot_updates_total",
		Help: "Incoming Telegram updates by kind.",
	}, []string{"kind"})

	BookingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pizza_bot_bookings_total",
		Help: "Successfully committed bookings.",
	})

	BookingConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pizza_bot_booking_conflicts_total",
		Help: "Bookings rejected because a chosen slot was taken meanwhile.",
	})

	CancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pizza_bot_cancellations_total",
		Help: "Bookings cancelled by clients or admins.",
	})

	SlotsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pizza_bot_slots_generated_total",
		Help: "Slots created by the generator.",
	})

	ReviewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pizza_bot_reviews_total",
		Help: "Reviews attached to completed orders.",
	})

	BroadcastSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizza_bot_broadcast_sends_total",
		Help: "Broadcast deliveries by result.",
	}, []string{"result"})
)

// Handler возвращает HTTP-обработчик для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
