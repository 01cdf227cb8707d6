package classify

import (
	"context"
	"net/url"
	"strings"

	"github.com/ppiankov/questclaim/internal/llm"
	"github.com/ppiankov/questclaim/internal/model"
)

// TwitterTask is one intent link a twitter quest asks the user to complete
type TwitterTask struct {
	Task model.TwitterAction `json:"task"`
	Link string              `json:"link"`
}

// TwitterTasks derives the intent links for a twitter quest, one per requested action.
// A reply without a configured default text draws its text from phrases.
func TwitterTasks(ctx context.Context, quest model.Quest, phrases llm.PhraseProvider) []TwitterTask {
	data := quest.ValidationData
	var tasks []TwitterTask

	if data.HasAction(model.ActionFollow) {
		tasks = append(tasks, TwitterTask{
			Task: model.ActionFollow,
			Link: "https://twitter.com/intent/user?screen_name=" + url.QueryEscape(data.TwitterHandle),
		})
	}
	if data.HasAction(model.ActionLike) {
		tasks = append(tasks, TwitterTask{
			Task: model.ActionLike,
			Link: "https://twitter.com/intent/like?tweet_id=" + url.QueryEscape(data.TweetID),
		})
	}
	if data.HasAction(model.ActionRetweet) {
		tasks = append(tasks, TwitterTask{
			Task: model.ActionRetweet,
			Link: "https://twitter.com/intent/retweet?tweet_id=" + url.QueryEscape(data.TweetID),
		})
	}
	if data.HasAction(model.ActionReply) {
		text := data.DefaultReply
		if text == "" {
			text = phrases.Phrase(ctx, llm.PhraseReply)
		}
		tasks = append(tasks, TwitterTask{
			Task: model.ActionReply,
			Link: "https://twitter.com/intent/tweet?in_reply_to=" + url.QueryEscape(data.TweetID) + "&text=" + url.QueryEscape(text),
		})
	}
	if data.HasAction(model.ActionTweet) {
		text := strings.TrimSpace(data.DefaultTweet + " " + strings.Join(data.TweetWords, " "))
		tasks = append(tasks, TwitterTask{
			Task: model.ActionTweet,
			Link: "https://twitter.com/intent/tweet?text=" + url.QueryEscape(text),
		})
	}

	return dedupeTasks(tasks)
}

func dedupeTasks(tasks []TwitterTask) []TwitterTask {
	seen := make(map[TwitterTask]bool, len(tasks))
	out := tasks[:0]
	for _, t := range tasks {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
