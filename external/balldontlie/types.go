package balldontlie

// Envelope structs mirror the provider's JSON shapes exactly; decoding into
// them is the validation boundary for upstream payloads.

type gamesEnvelope struct {
	Data []gameRecord `json:"data"`
	Meta pageMeta     `json:"meta"`
}

type pageMeta struct {
	NextCursor *int64 `json:"next_cursor"`
	PerPage    int    `json:"per_page"`
}

type gameRecord struct {
	ID               int64      `json:"id"`
	Date             string     `json:"date"`
	Status           string     `json:"status"`
	Period           int        `json:"period"`
	Time             string     `json:"time"`
	Postseason       bool       `json:"postseason"`
	HomeTeamScore    int        `json:"home_team_score"`
	VisitorTeamScore int        `json:"visitor_team_score"`
	HomeTeam         teamRecord `json:"home_team"`
	VisitorTeam      teamRecord `json:"visitor_team"`
}

type teamRecord struct {
	ID           int64  `json:"id"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
	FullName     string `json:"full_name"`
	Name         string `json:"name"`
}
