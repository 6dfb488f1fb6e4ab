package services

import (
	"net/url"
	"regexp"
	"strings"

	"pr-radar/internal/core"
)

// UnknownPress is returned when neither the label nor the link name a publisher
const UnknownPress = "언론사 미상"

var hangul = regexp.MustCompile(`[가-힣]`)

// DefaultPressAliases maps lowercase publisher tokens to canonical names, in match order
func DefaultPressAliases() []core.Alias {
	return []core.Alias{
		{Key: "yna", Name: "연합뉴스"},
		{Key: "yonhap", Name: "연합뉴스"},
		{Key: "mk", Name: "매일경제"},
		{Key: "hankyung", Name: "한국경제"},
		{Key: "mt", Name: "머니투데이"},
		{Key: "sedaily", Name: "서울경제"},
		{Key: "etnews", Name: "전자신문"},
		{Key: "heraldcorp", Name: "헤럴드경제"},
		{Key: "chosunbiz", Name: "조선비즈"},
		{Key: "asiae", Name: "아시아경제"},
	}
}

// PressNormalizer maps raw source labels and links to canonical publisher names
type PressNormalizer struct {
	aliases []core.Alias
}

// NewPressNormalizer creates a normalizer over an ordered alias table
func NewPressNormalizer(aliases []core.Alias) *PressNormalizer {
	if len(aliases) == 0 {
		aliases = DefaultPressAliases()
	}

	cleaned := make([]core.Alias, 0, len(aliases))
	for _, alias := range aliases {
		key := strings.ToLower(strings.TrimSpace(alias.Key))
		if key == "" || alias.Name == "" {
			continue
		}
		cleaned = append(cleaned, core.Alias{Key: key, Name: alias.Name})
	}

	return &PressNormalizer{aliases: cleaned}
}

// Normalize returns the canonical publisher name. Labels already written in
// Korean are trusted as-is; otherwise the label and then the link's domain are
// matched against the alias table.
func (n *PressNormalizer) Normalize(raw, link string) string {
	value := strings.TrimSpace(raw)
	if value != "" && hangul.MatchString(value) {
		return value
	}

	if name, ok := n.lookup(value); ok {
		return name
	}

	hostGuess := GuessPressFromLink(link)
	if name, ok := n.lookup(hostGuess); ok {
		return name
	}

	if value != "" {
		return value
	}
	return hostGuess
}

func (n *PressNormalizer) lookup(token string) (string, bool) {
	token = strings.ToLower(strings.ReplaceAll(token, " ", ""))
	if token == "" {
		return "", false
	}

	for _, alias := range n.aliases {
		if strings.Contains(token, alias.Key) {
			return alias.Name, true
		}
	}
	return "", false
}

// GuessPressFromLink returns the second-level label of the link's host
func GuessPressFromLink(link string) string {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return UnknownPress
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host == "" {
		return UnknownPress
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return host
}
