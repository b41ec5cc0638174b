package dto

import (
	"time"

	"orbit/internal/app/services/posts"
)

type Post struct {
	ID         string      `json:"id"`
	Author     UserSnippet `json:"user"`
	Content    string      `json:"content"`
	ImageURLs  []string    `json:"image_urls"`
	Type       string      `json:"post_type"`
	LikesCount int         `json:"likes_count"`
	Hashtags   []string    `json:"hashtags,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type PostFeed struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"current_page"`
	TotalPages int64  `json:"total_pages"`
	TotalPosts int64  `json:"total_posts"`
}

type PostCollection struct {
	Items []Post `json:"items"`
}

type LikeResult struct {
	Liked      bool `json:"is_liked"`
	LikesCount int  `json:"likes_count"`
}

func MapPostView(view posts.View) Post {
	if view.Post == nil {
		return Post{}
	}
	return Post{
		ID:         string(view.Post.ID),
		Author:     MapSnippet(view.Author),
		Content:    view.Post.Content,
		ImageURLs:  append([]string(nil), view.Post.ImageURLs...),
		Type:       string(view.Post.Type),
		LikesCount: len(view.Post.Likes),
		Hashtags:   append([]string(nil), view.Post.Hashtags...),
		CreatedAt:  view.Post.CreatedAt,
	}
}

func MapFeedPage(page *posts.FeedPage) PostFeed {
	if page == nil {
		return PostFeed{}
	}
	items := make([]Post, 0, len(page.Posts))
	for _, view := range page.Posts {
		items = append(items, MapPostView(view))
	}
	return PostFeed{
		Posts:      items,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalPosts: page.TotalPosts,
	}
}

func MapPostViews(views []posts.View) PostCollection {
	items := make([]Post, 0, len(views))
	for _, view := range views {
		items = append(items, MapPostView(view))
	}
	return PostCollection{Items: items}
}
