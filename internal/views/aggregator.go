package views

import (
	"sort"

	"github.com/google/uuid"
	"github.com/wattshare/wattshare-api/internal/models"
)

// Snapshot — входные данные агрегатора: четыре независимо загруженные
// коллекции плюс домохозяйства текущего пользователя. Любая коллекция
// может быть пустой или еще не загруженной — агрегатор в этом случае
// выдает пустые производные наборы, а не ошибку.
type Snapshot struct {
	Trades       []models.Trade
	Offers       []models.Trade
	Acceptances  []models.TradeAcceptance
	Applications []models.TradeApplication
	HouseholdIDs []uuid.UUID
	Loaded       LoadedFlags
}

// LoadedFlags отличает "коллекция загружена и пуста" от "коллекция
// еще грузится или не загрузилась из-за ошибки"
type LoadedFlags struct {
	Trades       bool `json:"trades"`
	Offers       bool `json:"offers"`
	Acceptances  bool `json:"acceptances"`
	Applications bool `json:"applications"`
}

// TradeWithCount — сделка, аннотированная числом поданных на нее заявок
type TradeWithCount struct {
	models.Trade
	ApplicationCount int `json:"application_count"`
}

// Stats — сводная статистика для панели дашборда
type Stats struct {
	// TotalActivity считается аддитивно: сделка, которая принадлежит
	// пользователю и одновременно имеет заявки, учитывается и как
	// сделка, и через каждую заявку. Это намеренное поведение.
	TotalActivity      int `json:"total_activity"`
	ActiveSellListings int `json:"active_sell_listings"`
	ActiveBuyRequests  int `json:"active_buy_requests"`
	CompletedTrades    int `json:"completed_trades"`
	AvailableOffers    int `json:"available_offers"`
}

// Dashboard — производное состояние страницы "хранилище".
// Все поля — простые сериализуемые данные без поведения.
type Dashboard struct {
	MyListings []TradeWithCount `json:"my_listings"`
	MyRequests []TradeWithCount `json:"my_requests"`

	ActiveAcceptances    []models.TradeAcceptance `json:"active_acceptances"`
	FinalizedAcceptances []models.TradeAcceptance `json:"finalized_acceptances"`

	ActiveApplications    []models.TradeApplication `json:"active_applications"`
	FinalizedApplications []models.TradeApplication `json:"finalized_applications"`

	Stats  Stats       `json:"stats"`
	Loaded LoadedFlags `json:"loaded"`
}

// Build пересчитывает все производные представления из снимка входных
// данных. Функция чистая: без побочных эффектов, детерминированная,
// пересчет идет целиком при каждом изменении любой коллекции —
// объемы данных пользовательские, инкрементальные обновления не нужны.
func Build(s Snapshot) Dashboard {
	households := householdSet(s.HouseholdIDs)
	trades := SortTrades(s.Trades)
	counts := CountApplications(s.Applications)

	var d Dashboard
	d.MyListings = make([]TradeWithCount, 0)
	d.MyRequests = make([]TradeWithCount, 0)
	d.ActiveAcceptances = make([]models.TradeAcceptance, 0)
	d.FinalizedAcceptances = make([]models.TradeAcceptance, 0)
	d.ActiveApplications = make([]models.TradeApplication, 0)
	d.FinalizedApplications = make([]models.TradeApplication, 0)
	d.Loaded = s.Loaded

	ownedTrades := 0
	for _, t := range trades {
		annotated := TradeWithCount{Trade: t, ApplicationCount: counts[t.ID]}

		switch {
		case isMyListing(&t, households):
			d.MyListings = append(d.MyListings, annotated)
			ownedTrades++
			if t.Status == models.TradeStatusPending {
				d.Stats.ActiveSellListings++
			}
		case isMyRequest(&t, households):
			d.MyRequests = append(d.MyRequests, annotated)
			ownedTrades++
			if t.Status == models.TradeStatusPending {
				d.Stats.ActiveBuyRequests++
			}
		}
	}

	for _, a := range s.Acceptances {
		if a.Status.IsFinalized() {
			d.FinalizedAcceptances = append(d.FinalizedAcceptances, a)
		} else {
			d.ActiveAcceptances = append(d.ActiveAcceptances, a)
		}
		if a.Status.IsSuccessful() {
			d.Stats.CompletedTrades++
		}
	}

	for _, a := range s.Applications {
		if a.Status().IsFinalized() {
			d.FinalizedApplications = append(d.FinalizedApplications, a)
		} else {
			d.ActiveApplications = append(d.ActiveApplications, a)
		}
		if a.Status().IsSuccessful() {
			d.Stats.CompletedTrades++
		}
	}

	d.Stats.TotalActivity = ownedTrades + len(s.Acceptances) + len(s.Applications)
	d.Stats.AvailableOffers = len(s.Offers)

	return d
}

// SortTrades возвращает копию списка сделок, отсортированную по убыванию
// времени создания. Сортировка стабильная: равные метки времени
// сохраняют исходный порядок.
func SortTrades(trades []models.Trade) []models.Trade {
	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// CountApplications строит отображение "ID сделки → число заявок на нее".
// ID сделки берется из вложенной заявки, при ее отсутствии — из
// плоского поля; заявки без определимой сделки не учитываются.
// Для сделок без заявок записи в отображении нет — это означает ноль.
func CountApplications(applications []models.TradeApplication) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for i := range applications {
		if tradeID, ok := applications[i].ResolvedTradeID(); ok {
			counts[tradeID]++
		}
	}
	return counts
}

func householdSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// isMyListing: сделка на продажу, чье домохозяйство-продавец
// принадлежит пользователю
func isMyListing(t *models.Trade, households map[uuid.UUID]bool) bool {
	return t.Type == models.TradeTypeSell &&
		t.SellerHouseholdID != nil && households[*t.SellerHouseholdID]
}

// isMyRequest: сделка на покупку, чье домохозяйство-покупатель
// принадлежит пользователю
func isMyRequest(t *models.Trade, households map[uuid.UUID]bool) bool {
	return t.Type == models.TradeTypeBuy &&
		t.BuyerHouseholdID != nil && households[*t.BuyerHouseholdID]
}
