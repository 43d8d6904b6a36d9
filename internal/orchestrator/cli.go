package orchestrator

import "strings"

// ParseSitesFlag splits a --sites=a,b,c CLI value into individual site IDs,
// trimming whitespace and dropping empty entries. An empty csv means "all
// configured sites" and is represented as a nil slice.
func ParseSitesFlag(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilterSites returns the subset of sites whose ID appears in selected. A
// nil or empty selected means "no filter — return all sites unchanged."
func FilterSites(sites []Site, selected []string) []Site {
	if len(selected) == 0 {
		return sites
	}
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	var out []Site
	for _, s := range sites {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
