package webhook

import (
	"time"

	"github.com/ruenh/tiktok-monitor/pkg/models"
)

// PayloadStats mirrors the engagement counters in the delivered JSON body.
type PayloadStats struct {
	Plays    int64 `json:"plays"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// Payload is the JSON body posted to the webhook endpoint for one video.
// Optional fields are omitted entirely when the source did not provide them.
type Payload struct {
	VideoID      string        `json:"video_id"`
	VideoURL     string        `json:"video_url"`
	Description  string        `json:"description"`
	Author       string        `json:"author"`
	PublishedAt  string        `json:"published_at"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Duration     int           `json:"duration,omitempty"`
	Stats        *PayloadStats `json:"stats,omitempty"`
}

// BuildPayload maps a video to its webhook body. PublishedAt is rendered as
// RFC 3339 in UTC.
func BuildPayload(video models.Video) Payload {
	p := Payload{
		VideoID:      video.ID,
		VideoURL:     video.URL,
		Description:  video.Description,
		Author:       video.Author,
		PublishedAt:  video.PublishedAt.UTC().Format(time.RFC3339),
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
	}
	if video.Stats != nil {
		p.Stats = &PayloadStats{
			Plays:    video.Stats.Plays,
			Likes:    video.Stats.Likes,
			Comments: video.Stats.Comments,
			Shares:   video.Stats.Shares,
		}
	}
	return p
}
