package dto

import (
	"time"

	"orbit/internal/app/services/stories"
	domainstory "orbit/internal/domain/story"
)

type Story struct {
	ID              string      `json:"id"`
	Author          UserSnippet `json:"user"`
	Content         string      `json:"content"`
	MediaURL        string      `json:"media_url,omitempty"`
	MediaType       string      `json:"media_type"`
	BackgroundColor string      `json:"background_color"`
	CreatedAt       time.Time   `json:"created_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
}

type StoryReel struct {
	Author  UserSnippet `json:"user"`
	Stories []Story     `json:"stories"`
}

type StoryFeed struct {
	Items []StoryReel `json:"items"`
}

type StoryCollection struct {
	Items []Story `json:"items"`
}

func mapStory(story *domainstory.Story, author UserSnippet) Story {
	if story == nil {
		return Story{}
	}
	return Story{
		ID:              string(story.ID),
		Author:          author,
		Content:         story.Content,
		MediaURL:        story.MediaURL,
		MediaType:       string(story.MediaType),
		BackgroundColor: story.BackgroundColor,
		CreatedAt:       story.CreatedAt,
		ExpiresAt:       story.ExpiresAt,
	}
}

func MapStoryView(view stories.View) Story {
	return mapStory(view.Story, MapSnippet(view.Author))
}

func MapStoryViews(views []stories.View) StoryCollection {
	items := make([]Story, 0, len(views))
	for _, view := range views {
		items = append(items, MapStoryView(view))
	}
	return StoryCollection{Items: items}
}

func MapStoryFeed(reels []stories.Reel) StoryFeed {
	items := make([]StoryReel, 0, len(reels))
	for _, reel := range reels {
		author := MapSnippet(reel.Author)
		mapped := StoryReel{Author: author}
		for _, story := range reel.Stories {
			mapped.Stories = append(mapped.Stories, mapStory(story, author))
		}
		items = append(items, mapped)
	}
	return StoryFeed{Items: items}
}
