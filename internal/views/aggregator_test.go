package views

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wattshare/wattshare-api/internal/models"
)

func newTrade(tradeType models.TradeType, status models.TradeStatus, householdID *uuid.UUID, createdAt time.Time) models.Trade {
	t := models.Trade{
		ID:        uuid.New(),
		Type:      tradeType,
		Status:    status,
		CreatedAt: createdAt,
	}
	if tradeType == models.TradeTypeSell {
		t.SellerHouseholdID = householdID
	} else {
		t.BuyerHouseholdID = householdID
	}
	return t
}

func TestBuild_OwnershipPartition(t *testing.T) {
	h1 := uuid.New()
	now := time.Now()

	sell := newTrade(models.TradeTypeSell, models.TradeStatusPending, &h1, now)
	buy := newTrade(models.TradeTypeBuy, models.TradeStatusPending, &h1, now.Add(-time.Hour))

	// Чужая сделка: не должна попасть ни в один раздел
	other := uuid.New()
	foreign := newTrade(models.TradeTypeSell, models.TradeStatusPending, &other, now.Add(-2*time.Hour))

	d := Build(Snapshot{
		Trades:       []models.Trade{sell, buy, foreign},
		HouseholdIDs: []uuid.UUID{h1},
	})

	if len(d.MyListings) != 1 || d.MyListings[0].ID != sell.ID {
		t.Fatalf("ожидали одну продажу %s в my_listings, получили %+v", sell.ID, d.MyListings)
	}
	if len(d.MyRequests) != 1 || d.MyRequests[0].ID != buy.ID {
		t.Fatalf("ожидали одну покупку %s в my_requests, получили %+v", buy.ID, d.MyRequests)
	}
	if d.Stats.ActiveSellListings != 1 {
		t.Errorf("active_sell_listings = %d, ожидали 1", d.Stats.ActiveSellListings)
	}
	if d.Stats.ActiveBuyRequests != 1 {
		t.Errorf("active_buy_requests = %d, ожидали 1", d.Stats.ActiveBuyRequests)
	}

	// Каждая сделка попадает не более чем в один раздел
	seen := make(map[uuid.UUID]int)
	for _, tr := range d.MyListings {
		seen[tr.ID]++
	}
	for _, tr := range d.MyRequests {
		seen[tr.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("сделка %s попала в %d разделов", id, n)
		}
	}
	if _, ok := seen[foreign.ID]; ok {
		t.Errorf("чужая сделка %s не должна попадать в разделы", foreign.ID)
	}
}

func TestBuild_TradeWithoutHouseholdID(t *testing.T) {
	// Сделка без ссылки на домохозяйство не падает и не попадает в разделы
	broken := models.Trade{
		ID:        uuid.New(),
		Type:      models.TradeTypeSell,
		Status:    models.TradeStatusPending,
		CreatedAt: time.Now(),
	}

	d := Build(Snapshot{
		Trades:       []models.Trade{broken},
		HouseholdIDs: []uuid.UUID{uuid.New()},
	})

	if len(d.MyListings) != 0 || len(d.MyRequests) != 0 {
		t.Fatalf("сделка без household_id не должна попадать в разделы: %+v", d)
	}
}

func TestSortTrades_StableDescending(t *testing.T) {
	base := time.Now()
	t1 := newTrade(models.TradeTypeSell, models.TradeStatusPending, nil, base.Add(2*time.Hour))
	t2 := newTrade(models.TradeTypeSell, models.TradeStatusPending, nil, base.Add(time.Hour))
	t3 := newTrade(models.TradeTypeSell, models.TradeStatusPending, nil, base)

	// Две сделки с одинаковым временем: исходный порядок сохраняется
	tie1 := newTrade(models.TradeTypeSell, models.TradeStatusPending, nil, base)
	tie2 := newTrade(models.TradeTypeSell, models.TradeStatusPending, nil, base)

	sorted := SortTrades([]models.Trade{t3, tie1, t1, tie2, t2})

	want := []uuid.UUID{t1.ID, t2.ID, t3.ID, tie1.ID, tie2.ID}
	if len(sorted) != len(want) {
		t.Fatalf("длина %d, ожидали %d", len(sorted), len(want))
	}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("позиция %d: получили %s, ожидали %s", i, sorted[i].ID, id)
		}
	}
}

func TestCountApplications(t *testing.T) {
	tradeA := uuid.New()
	tradeB := uuid.New()

	apps := []models.TradeApplication{
		// ID сделки из вложенной заявки
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{TradeID: tradeA}},
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{TradeID: tradeA}},
		// Вложенной заявки нет, используется плоское поле
		{ID: uuid.New(), TradeID: tradeB},
		// Плоское поле противоречит вложенному: вложенное важнее
		{ID: uuid.New(), TradeID: tradeB, Acceptance: &models.TradeAcceptance{TradeID: tradeA}},
		// Сделку определить нельзя — заявка не учитывается
		{ID: uuid.New()},
	}

	counts := CountApplications(apps)

	if counts[tradeA] != 3 {
		t.Errorf("счетчик для tradeA = %d, ожидали 3", counts[tradeA])
	}
	if counts[tradeB] != 1 {
		t.Errorf("счетчик для tradeB = %d, ожидали 1", counts[tradeB])
	}
	// Отсутствие записи означает ноль
	if n := counts[uuid.New()]; n != 0 {
		t.Errorf("счетчик для сделки без заявок = %d, ожидали 0", n)
	}
}

func TestBuild_AnnotatesCounts(t *testing.T) {
	h1 := uuid.New()
	trade := newTrade(models.TradeTypeSell, models.TradeStatusPending, &h1, time.Now())

	apps := []models.TradeApplication{
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{TradeID: trade.ID, Status: models.AcceptanceApplied}},
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{TradeID: trade.ID, Status: models.AcceptanceApplied}},
	}

	d := Build(Snapshot{
		Trades:       []models.Trade{trade},
		Applications: apps,
		HouseholdIDs: []uuid.UUID{h1},
	})

	if len(d.MyListings) != 1 {
		t.Fatalf("ожидали одну сделку, получили %d", len(d.MyListings))
	}
	if d.MyListings[0].ApplicationCount != 2 {
		t.Errorf("application_count = %d, ожидали 2", d.MyListings[0].ApplicationCount)
	}
}

func TestBuild_FinalityPartition(t *testing.T) {
	acceptances := []models.TradeAcceptance{
		{ID: uuid.New(), Status: models.AcceptanceApplied},
		{ID: uuid.New(), Status: models.AcceptanceAwarded},
		{ID: uuid.New(), Status: models.AcceptanceContacted},
		{ID: uuid.New(), Status: models.AcceptanceOwnerRejected},
	}

	d := Build(Snapshot{Acceptances: acceptances})

	// applied и awarded активны, contacted и owner_rejected завершены
	if len(d.ActiveAcceptances) != 2 {
		t.Errorf("активных заявок %d, ожидали 2", len(d.ActiveAcceptances))
	}
	if len(d.FinalizedAcceptances) != 2 {
		t.Errorf("завершенных заявок %d, ожидали 2", len(d.FinalizedAcceptances))
	}

	// Каждая заявка ровно в одном разделе
	if len(d.ActiveAcceptances)+len(d.FinalizedAcceptances) != len(acceptances) {
		t.Errorf("разделы не покрывают все заявки: %d + %d != %d",
			len(d.ActiveAcceptances), len(d.FinalizedAcceptances), len(acceptances))
	}
}

func TestBuild_ApplicationsPartitionedByNestedStatus(t *testing.T) {
	apps := []models.TradeApplication{
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{Status: models.AcceptanceApplied}},
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{Status: models.AcceptanceContacted}},
		// Без вложенной заявки: пустой статус не терминальный, заявка активна
		{ID: uuid.New()},
	}

	d := Build(Snapshot{Applications: apps})

	if len(d.ActiveApplications) != 2 {
		t.Errorf("активных заявок %d, ожидали 2", len(d.ActiveApplications))
	}
	if len(d.FinalizedApplications) != 1 {
		t.Errorf("завершенных заявок %d, ожидали 1", len(d.FinalizedApplications))
	}
}

func TestBuild_CompletedTrades(t *testing.T) {
	acceptances := []models.TradeAcceptance{
		{ID: uuid.New(), Status: models.AcceptanceAwarded},
		{ID: uuid.New(), Status: models.AcceptanceContacted},
		{ID: uuid.New(), Status: models.AcceptanceOwnerRejected}, // не успех
		{ID: uuid.New(), Status: models.AcceptanceApplied},       // не успех
	}
	apps := []models.TradeApplication{
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{Status: models.AcceptanceContacted}},
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{Status: models.AcceptanceOwnerRejected}},
	}

	d := Build(Snapshot{Acceptances: acceptances, Applications: apps})

	// awarded + contacted из acceptances (2) + contacted из applications (1)
	if d.Stats.CompletedTrades != 3 {
		t.Errorf("completed_trades = %d, ожидали 3", d.Stats.CompletedTrades)
	}
}

func TestBuild_TotalActivityAdditive(t *testing.T) {
	h1 := uuid.New()
	trade := newTrade(models.TradeTypeSell, models.TradeStatusPending, &h1, time.Now())

	// Сделка принадлежит пользователю и имеет заявку против себя:
	// учитывается и как сделка, и через заявку (без дедупликации)
	apps := []models.TradeApplication{
		{ID: uuid.New(), Acceptance: &models.TradeAcceptance{TradeID: trade.ID, Status: models.AcceptanceApplied}},
	}
	acceptances := []models.TradeAcceptance{
		{ID: uuid.New(), TradeID: uuid.New(), Status: models.AcceptanceApplied},
	}

	d := Build(Snapshot{
		Trades:       []models.Trade{trade},
		Acceptances:  acceptances,
		Applications: apps,
		HouseholdIDs: []uuid.UUID{h1},
	})

	if d.Stats.TotalActivity != 3 {
		t.Errorf("total_activity = %d, ожидали 3 (1 сделка + 1 отклик + 1 заявка)", d.Stats.TotalActivity)
	}
}

func TestBuild_AvailableOffers(t *testing.T) {
	offers := []models.Trade{
		newTrade(models.TradeTypeSell, models.TradeStatusPending, nil, time.Now()),
		newTrade(models.TradeTypeBuy, models.TradeStatusPending, nil, time.Now()),
	}

	d := Build(Snapshot{Offers: offers})

	if d.Stats.AvailableOffers != 2 {
		t.Errorf("available_offers = %d, ожидали 2", d.Stats.AvailableOffers)
	}
}

func TestBuild_EmptySnapshot(t *testing.T) {
	d := Build(Snapshot{})

	if d.MyListings == nil || d.MyRequests == nil ||
		d.ActiveAcceptances == nil || d.FinalizedAcceptances == nil ||
		d.ActiveApplications == nil || d.FinalizedApplications == nil {
		t.Fatal("пустой снимок должен давать пустые, а не nil, наборы")
	}
	if d.Stats != (Stats{}) {
		t.Errorf("статистика пустого снимка должна быть нулевой: %+v", d.Stats)
	}
}

func TestBuild_SortedOutput(t *testing.T) {
	h1 := uuid.New()
	base := time.Now()

	older := newTrade(models.TradeTypeSell, models.TradeStatusPending, &h1, base.Add(-time.Hour))
	newer := newTrade(models.TradeTypeSell, models.TradeStatusPending, &h1, base)

	// Подаем в "неправильном" порядке
	d := Build(Snapshot{
		Trades:       []models.Trade{older, newer},
		HouseholdIDs: []uuid.UUID{h1},
	})

	if len(d.MyListings) != 2 {
		t.Fatalf("ожидали 2 сделки, получили %d", len(d.MyListings))
	}
	if d.MyListings[0].ID != newer.ID || d.MyListings[1].ID != older.ID {
		t.Errorf("сделки должны идти от новых к старым: %+v", d.MyListings)
	}
}
