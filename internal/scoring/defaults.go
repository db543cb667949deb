package scoring

import "NewsPipeline/internal/domain"

// DefaultConfig returns the built-in keyword sets. The gazetteer is empty
// on purpose: place names always come from deployment configuration.
func DefaultConfig() Config {
	return Config{
		FreshnessKeywords: map[domain.Category][]string{
			domain.CategoryEmergency: {"breaking", "right now", "currently", "immediately", "ongoing"},
			domain.CategoryTransport: {"today", "currently", "until further notice", "delays", "this morning"},
			domain.CategoryWeather:   {"today", "tonight", "tomorrow", "this week", "expected"},
			domain.CategoryEvents:    {"today", "tomorrow", "tonight", "this weekend", "this week"},
			domain.CategoryLocal:     {"today", "yesterday", "this week", "recently"},
			domain.CategoryBusiness:  {"now open", "opening", "starting", "this month"},
			domain.CategoryCommunity: {"upcoming", "this week", "join", "this month"},
			domain.CategoryGeneral:   {"today", "this week"},
		},
		CategoryVocabulary: map[domain.Category][]string{
			domain.CategoryEmergency: {"police", "fire", "alert", "warning", "evacuation"},
			domain.CategoryTransport: {"bus", "train", "line", "station", "detour", "closure"},
			domain.CategoryWeather:   {"storm", "rain", "snow", "temperature", "forecast"},
			domain.CategoryEvents:    {"event", "concert", "festival", "market", "exhibition"},
			domain.CategoryLocal:     {"street", "district", "residents", "neighborhood"},
			domain.CategoryBusiness:  {"shop", "store", "restaurant", "cafe", "opening hours"},
			domain.CategoryCommunity: {"volunteer", "meeting", "initiative", "association"},
		},
	}
}
