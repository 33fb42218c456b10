package samsbet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseNextData extracts the JSON embedded by Next.js in the
// script#__NEXT_DATA__ tag of a provider page
func ParseNextData(html []byte) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var raw string
	doc.Find("script#__NEXT_DATA__").Each(func(i int, s *goquery.Selection) {
		raw = s.Text()
	})
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("could not find __NEXT_DATA__ script tag")
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("__NEXT_DATA__ is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// TeamsFromNextData collects the teams of every standings row found in the
// page data. Rows are any objects inside a "rows" array carrying a team with
// an id and a name. Teams are returned once, in page order.
func TeamsFromNextData(data json.RawMessage) ([]LeagueTeam, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode page data: %w", err)
	}
	seen := map[int64]bool{}
	var teams []LeagueTeam
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if rows, ok := t["rows"].([]any); ok {
				for _, r := range rows {
					if team, ok := standingTeam(r); ok && !seen[team.ID] {
						seen[team.ID] = true
						teams = append(teams, team)
					}
				}
			}
			for _, k := range sortedKeys(t) {
				if k != "rows" {
					walk(t[k])
				}
			}
		case []any:
			for _, e := range t {
				walk(e)
			}
		}
	}
	walk(root)
	if len(teams) == 0 {
		return nil, fmt.Errorf("no standings rows in page data: %w", ErrNoStats)
	}
	return teams, nil
}

func standingTeam(row any) (LeagueTeam, bool) {
	m, ok := row.(map[string]any)
	if !ok {
		return LeagueTeam{}, false
	}
	team, ok := m["team"].(map[string]any)
	if !ok {
		return LeagueTeam{}, false
	}
	id, ok := team["id"].(float64)
	name, nameOK := team["name"].(string)
	if !ok || !nameOK || id <= 0 {
		return LeagueTeam{}, false
	}
	return LeagueTeam{ID: int64(id), Name: name}, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
