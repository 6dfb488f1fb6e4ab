package models

// Dashboard is the overview of today's coverage and open work
type Dashboard struct {
	CollectedToday     int       `json:"collected_today"`
	SavedThisWeek      int       `json:"saved_this_week"`
	CorrectionsPending int       `json:"corrections_pending"`
	RecentAlerts       []Alert   `json:"recent_alerts"`
	RecentArticles     []Article `json:"recent_articles"`
}

// KeywordRequest adds or removes watched keywords
type KeywordRequest struct {
	Name  string   `json:"name,omitempty"`
	Names []string `json:"names,omitempty"`
}
