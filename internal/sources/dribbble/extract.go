package dribbble

import (
	"regexp"
	"strings"
)

// System pages that appear as profile links in search markdown but are not
// designers.
var excludedUsernames = map[string]struct{}{
	"signups": {}, "session": {}, "pro": {}, "shots": {}, "search": {},
	"designers": {}, "instantmatch": {}, "stories": {}, "jobs": {},
	"contact": {}, "about": {}, "careers": {}, "advertise": {},
	"hiring": {}, "for-designers": {}, "browse-project-briefs": {},
	"services": {}, "freshbooks": {}, "designer-advertising": {}, "tags": {},
}

// Designer is one profile discovered on a search page, with the shots that
// appeared alongside it.
type Designer struct {
	Username    string
	DisplayName string
	ProfileURL  string
	Shots       []Shot
}

// Shot is one portfolio image.
type Shot struct {
	Title    string
	ImageURL string
}

var (
	// [![Image 3: Name](avatar)Name](https://dribbble.com/username)
	userPattern = regexp.MustCompile(`\[!\[Image \d+: ([^\]]*)\]\([^)]+\)([^\]]*)\]\(https://dribbble\.com/([a-zA-Z0-9_\-]+)\)`)

	// ![Image 7: Title](https://cdn.dribbble.com/userupload/...)
	searchShotPattern = regexp.MustCompile(`!\[Image \d+: ([^\]]*)\]\((https://cdn\.dribbble\.com/userupload/[^\s\)]+)\)`)

	// Any CDN image on a profile page.
	profileShotPattern = regexp.MustCompile(`!\[Image \d+: ([^\]]*)\]\((https://cdn\.dribbble\.com/[^\s\)]+)\)`)

	queryString = regexp.MustCompile(`\?.*$`)
)

// ExtractDesigners pulls unique designers out of search-page markdown and
// pairs each with the shots rendered immediately above their profile link.
func ExtractDesigners(markdown string) []Designer {
	seen := make(map[string]int)
	var designers []Designer

	var pending []Shot
	for _, line := range strings.Split(markdown, "\n") {
		if m := searchShotPattern.FindStringSubmatch(line); m != nil {
			pending = append(pending, Shot{
				Title:    strings.TrimSpace(m[1]),
				ImageURL: m[2],
			})
			continue
		}

		m := userPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		username := strings.TrimSpace(m[3])
		if _, excluded := excludedUsernames[username]; excluded || strings.HasPrefix(username, "shots") {
			pending = nil
			continue
		}

		if i, ok := seen[username]; ok {
			designers[i].Shots = append(designers[i].Shots, pending...)
			pending = nil
			continue
		}

		seen[username] = len(designers)
		designers = append(designers, Designer{
			Username:    username,
			DisplayName: strings.TrimSpace(m[1]),
			ProfileURL:  "https://dribbble.com/" + username,
			Shots:       pending,
		})
		pending = nil
	}

	return designers
}

// ExtractShots pulls portfolio images out of profile-page markdown,
// deduplicated by URL without its query string and skipping avatars.
func ExtractShots(markdown string) []Shot {
	seen := make(map[string]struct{})
	var shots []Shot

	for _, m := range profileShotPattern.FindAllStringSubmatch(markdown, -1) {
		title := strings.TrimSpace(m[1])
		imageURL := m[2]

		if strings.Contains(strings.ToLower(imageURL), "avatar") {
			continue
		}

		clean := queryString.ReplaceAllString(imageURL, "")
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}

		if title == "" {
			title = "Untitled"
		}
		if len(title) > 80 {
			title = title[:80]
		}
		shots = append(shots, Shot{Title: title, ImageURL: imageURL})
	}

	return shots
}
