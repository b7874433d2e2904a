package youtube

// Envelope structs mirror the provider's JSON shapes; statistics counters
// arrive as decimal strings.

type searchEnvelope struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID searchItemID `json:"id"`
}

type searchItemID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type videosEnvelope struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string         `json:"id"`
	Snippet        videoSnippet   `json:"snippet"`
	ContentDetails contentDetails `json:"contentDetails"`
	Statistics     videoStats     `json:"statistics"`
}

type videoSnippet struct {
	Title        string     `json:"title"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  string     `json:"publishedAt"`
	Thumbnails   thumbnails `json:"thumbnails"`
}

type thumbnails struct {
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
	Default thumbnail `json:"default"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type contentDetails struct {
	Duration string `json:"duration"`
}

type videoStats struct {
	ViewCount string `json:"viewCount"`
	LikeCount string `json:"likeCount"`
}
