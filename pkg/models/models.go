package models

import "time"

// VideoStats holds engagement counters reported by TikTok for a video.
type VideoStats struct {
	Plays    int64 `json:"plays"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// Video is a single video from an author's feed. ID is the stable
// identifier used for deduplication.
type Video struct {
	ID           string      `json:"id"`
	URL          string      `json:"url"`
	Description  string      `json:"description"`
	Author       string      `json:"author"`
	PublishedAt  time.Time   `json:"published_at"`
	DownloadURL  string      `json:"download_url,omitempty"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Duration     int         `json:"duration,omitempty"` // seconds
	Stats        *VideoStats `json:"stats,omitempty"`
}

// FeedResponse is the wire shape of the author feed endpoint.
type FeedResponse struct {
	StatusCode int        `json:"status_code"`
	ItemList   []FeedItem `json:"itemList"`
	HasMore    bool       `json:"hasMore"`
	Cursor     string     `json:"cursor"`
}

// ItemResponse is the wire shape of the single-item endpoint.
type ItemResponse struct {
	StatusCode int       `json:"status_code"`
	ItemInfo   *ItemInfo `json:"itemInfo"`
}

// ItemInfo wraps the item struct in single-item responses.
type ItemInfo struct {
	ItemStruct FeedItem `json:"itemStruct"`
}

// FeedItem is one raw feed entry before normalization.
type FeedItem struct {
	ID         string        `json:"id"`
	Desc       string        `json:"desc"`
	CreateTime int64         `json:"createTime"` // unix seconds
	Author     FeedAuthor    `json:"author"`
	Video      FeedVideoMeta `json:"video"`
	Stats      FeedStats     `json:"stats"`
}

// FeedAuthor identifies the posting account.
type FeedAuthor struct {
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

// FeedVideoMeta carries the media-level fields of a feed entry.
type FeedVideoMeta struct {
	Duration    int    `json:"duration"`
	Cover       string `json:"cover"`
	DownloadURL string `json:"downloadAddr"`
}

// FeedStats carries raw engagement counters of a feed entry.
type FeedStats struct {
	PlayCount    int64 `json:"playCount"`
	DiggCount    int64 `json:"diggCount"`
	CommentCount int64 `json:"commentCount"`
	ShareCount   int64 `json:"shareCount"`
}

// Normalize converts a raw feed item into the domain Video shape.
func (it FeedItem) Normalize() Video {
	v := Video{
		ID:           it.ID,
		URL:          CanonicalVideoURL(it.Author.UniqueID, it.ID),
		Description:  it.Desc,
		Author:       it.Author.UniqueID,
		PublishedAt:  time.Unix(it.CreateTime, 0).UTC(),
		DownloadURL:  it.Video.DownloadURL,
		ThumbnailURL: it.Video.Cover,
		Duration:     it.Video.Duration,
	}
	if it.Stats != (FeedStats{}) {
		v.Stats = &VideoStats{
			Plays:    it.Stats.PlayCount,
			Likes:    it.Stats.DiggCount,
			Comments: it.Stats.CommentCount,
			Shares:   it.Stats.ShareCount,
		}
	}
	return v
}

// CanonicalVideoURL builds the public watch URL for a video.
func CanonicalVideoURL(author, videoID string) string {
	return "https://www.tiktok.com/@" + author + "/video/" + videoID
}
