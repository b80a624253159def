package views

import (
	"github.com/wattshare/wattshare-api/internal/models"
)

// Perspective определяет, с чьей стороны смотрят на заявку:
// податель смотрит на свою заявку, владелец — на заявку к своей сделке.
type Perspective string

const (
	PerspectiveApplicant Perspective = "applicant"
	PerspectiveOwner     Perspective = "owner"
)

// Presentation — данные для отрисовки бейджа/баннера статуса
type Presentation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// fallbackPresentation возвращается для любой пары (статус, перспектива),
// у которой нет записи в таблице. Неизвестный статус — не ошибка.
var fallbackPresentation = Presentation{
	Title:       "Заявка в обработке",
	Description: "Статус заявки обрабатывается",
	Color:       "gray",
	Icon:        "clock",
}

// statusPresentations — плоская таблица презентаций, ключ — перспектива
// и статус. Все варианты перечислены здесь, ветвлений по статусу в
// коде отрисовки нет.
var statusPresentations = map[Perspective]map[models.AcceptanceStatus]Presentation{
	PerspectiveApplicant: {
		models.AcceptanceApplied: {
			Title:       "Заявка подана",
			Description: "Владелец сделки еще не принял решение",
			Color:       "yellow",
			Icon:        "clock",
		},
		models.AcceptanceAwarded: {
			Title:       "Заявка выбрана",
			Description: "Владелец выбрал вашу заявку. Ожидайте передачи контактов",
			Color:       "blue",
			Icon:        "award",
		},
		models.AcceptanceContacted: {
			Title:       "Контакты получены",
			Description: "Владелец поделился контактами. Свяжитесь с ним для завершения обмена",
			Color:       "green",
			Icon:        "phone",
		},
		models.AcceptanceOwnerRejected: {
			Title:       "Заявка отклонена",
			Description: "Владелец сделки отклонил вашу заявку",
			Color:       "red",
			Icon:        "x-circle",
		},
	},
	PerspectiveOwner: {
		models.AcceptanceApplied: {
			Title:       "Новая заявка",
			Description: "Пользователь откликнулся на вашу сделку",
			Color:       "yellow",
			Icon:        "inbox",
		},
		models.AcceptanceAwarded: {
			Title:       "Заявка одобрена",
			Description: "Вы выбрали эту заявку. Поделитесь контактами, чтобы завершить обмен",
			Color:       "blue",
			Icon:        "award",
		},
		models.AcceptanceContacted: {
			Title:       "Контакты переданы",
			Description: "Вы поделились контактами с подателем заявки",
			Color:       "green",
			Icon:        "phone",
		},
		models.AcceptanceOwnerRejected: {
			Title:       "Заявка отклонена",
			Description: "Вы отклонили эту заявку",
			Color:       "red",
			Icon:        "x-circle",
		},
	},
}

// PresentationFor возвращает презентацию для пары (статус, перспектива).
// Для неизвестного статуса или перспективы возвращается общий
// запасной вариант — функция никогда не паникует.
func PresentationFor(status models.AcceptanceStatus, perspective Perspective) Presentation {
	byStatus, ok := statusPresentations[perspective]
	if !ok {
		return fallbackPresentation
	}
	if p, ok := byStatus[status]; ok {
		return p
	}
	return fallbackPresentation
}
