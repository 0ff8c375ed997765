package worker

import "gamedigest/internal/model"

// TopicSources lists where one topic's content comes from. Collectors fan
// fetched records out to topics based on these.
type TopicSources struct {
	Topic         model.Topic
	Subreddits    []string
	Keywords      []string          // search queries and outlet match terms; empty matches every outlet entry
	OfficialFeeds map[string]string // source name → feed URL
}

// DigestTopic configures one topic's digest output.
type DigestTopic struct {
	Topic       model.Topic
	Title       string // display name, e.g. "Battlefield 6"
	TopN        int
	MinItems    int
	Language    string
	Intro       string // optional opening text, supports {.CurrentDate}/{.Topic}
	Footer      string
	CoverPrompt string // optional cover art direction
}
