package views

import (
	"testing"

	"github.com/wattshare/wattshare-api/internal/models"
)

func TestPresentationFor_KnownStatuses(t *testing.T) {
	// Податель видит переданные контакты как успех
	p := PresentationFor(models.AcceptanceContacted, PerspectiveApplicant)
	if p.Title != "Контакты получены" || p.Color != "green" {
		t.Errorf("contacted/applicant: получили %+v", p)
	}

	// Владелец ту же запись видит со своей стороны
	p = PresentationFor(models.AcceptanceContacted, PerspectiveOwner)
	if p.Title != "Контакты переданы" {
		t.Errorf("contacted/owner: получили %+v", p)
	}

	p = PresentationFor(models.AcceptanceApplied, PerspectiveApplicant)
	if p.Title != "Заявка подана" || p.Color != "yellow" {
		t.Errorf("applied/applicant: получили %+v", p)
	}

	p = PresentationFor(models.AcceptanceOwnerRejected, PerspectiveOwner)
	if p.Color != "red" || p.Icon != "x-circle" {
		t.Errorf("owner_rejected/owner: получили %+v", p)
	}
}

func TestPresentationFor_UnknownStatusFallsBack(t *testing.T) {
	p := PresentationFor(models.AcceptanceStatus("foo"), PerspectiveApplicant)
	if p != fallbackPresentation {
		t.Errorf("неизвестный статус должен давать запасную презентацию, получили %+v", p)
	}

	// Пустой статус (заявка без вложенных данных) тоже уходит в запасной вариант
	p = PresentationFor("", PerspectiveOwner)
	if p != fallbackPresentation {
		t.Errorf("пустой статус должен давать запасную презентацию, получили %+v", p)
	}
}

func TestPresentationFor_UnknownPerspectiveFallsBack(t *testing.T) {
	p := PresentationFor(models.AcceptanceApplied, Perspective("moderator"))
	if p != fallbackPresentation {
		t.Errorf("неизвестная перспектива должна давать запасную презентацию, получили %+v", p)
	}
}

func TestSummarizeTrade_Defaults(t *testing.T) {
	// Сделка удалена после подачи заявки: карточка собирается из заглушек
	s := SummarizeTrade(nil)
	if s.HouseholdName != NotSpecified || s.Type != NotSpecified {
		t.Errorf("nil-сделка должна давать заглушки: %+v", s)
	}
	if s.EnergyKWh != 0 || s.PricePerKWh != 0 {
		t.Errorf("nil-сделка должна давать нулевые объемы: %+v", s)
	}

	// Сделка без названия домохозяйства
	trade := &models.Trade{Type: models.TradeTypeSell, EnergyKWh: 120, PricePerKWh: 4.5, Status: models.TradeStatusPending}
	s = SummarizeTrade(trade)
	if s.HouseholdName != NotSpecified {
		t.Errorf("отсутствующее домохозяйство должно давать заглушку: %+v", s)
	}
	if s.EnergyKWh != 120 {
		t.Errorf("energy_kwh = %v, ожидали 120", s.EnergyKWh)
	}
}

func TestApplicantName(t *testing.T) {
	if got := ApplicantName(nil); got != NotSpecified {
		t.Errorf("nil-пользователь: %q", got)
	}
	if got := ApplicantName(&models.User{}); got != NotSpecified {
		t.Errorf("пользователь без имени: %q", got)
	}
	if got := ApplicantName(&models.User{FirstName: "Анна", LastName: "Петрова"}); got != "Анна Петрова" {
		t.Errorf("полное имя: %q", got)
	}
	if got := ApplicantName(&models.User{FirstName: "Анна"}); got != "Анна" {
		t.Errorf("только имя: %q", got)
	}
}
