package services

import (
	"fmt"
	"sort"

	"pr-radar/internal/features/radar/models"
)

// DeriveAlerts returns one alert per negative article, newest-published first
func DeriveAlerts(articles []models.Article) []models.Alert {
	alerts := make([]models.Alert, 0)
	for _, article := range articles {
		if !article.IsNegative {
			continue
		}
		alerts = append(alerts, models.Alert{
			ArticleID: article.ID,
			Time:      article.PublishedAt,
			Message:   AlertMessage(article),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Time.After(alerts[j].Time)
	})
	return alerts
}

// AlertMessage formats the warning shown for a negative article
func AlertMessage(article models.Article) string {
	return fmt.Sprintf("[경고] 부정 키워드(%s) 감지 - %s", article.HitsLabel(), article.Title)
}
