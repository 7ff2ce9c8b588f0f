package twitter

import (
	"time"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

type tweet struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     time.Time     `json:"created_at"`
	PublicMetrics publicMetrics `json:"public_metrics"`
}

// publicMetrics mirrors the API's public_metrics object. Absent counters
// decode to zero; impression_count stays nil when the platform does not
// report it.
type publicMetrics struct {
	RetweetCount    int  `json:"retweet_count"`
	ReplyCount      int  `json:"reply_count"`
	LikeCount       int  `json:"like_count"`
	QuoteCount      int  `json:"quote_count"`
	BookmarkCount   int  `json:"bookmark_count"`
	ImpressionCount *int `json:"impression_count"`
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type searchResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []user `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

func (t tweet) toRawPost() domain.RawPost {
	return domain.RawPost{
		ID:        t.ID,
		Text:      t.Text,
		AuthorID:  t.AuthorID,
		CreatedAt: t.CreatedAt.UTC(),
		Metrics: domain.Metrics{
			Retweets:    t.PublicMetrics.RetweetCount,
			Replies:     t.PublicMetrics.ReplyCount,
			Likes:       t.PublicMetrics.LikeCount,
			Quotes:      t.PublicMetrics.QuoteCount,
			Bookmarks:   t.PublicMetrics.BookmarkCount,
			Impressions: t.PublicMetrics.ImpressionCount,
		},
	}
}
