// internal/service/result/twitter.go

package result

import (
	"regexp"
	"time"

	"github.com/g8rswimmer/go-twitter/v2"

	"iwitness/internal/domain/criteria"
	"iwitness/internal/domain/result"
)

var (
	instagramPattern = regexp.MustCompile(`instagr\.am/p/(\w+)/`)
	twitpicPattern   = regexp.MustCompile(`twitpic\.com/(\w+)`)
)

// FromTweets projects a Twitter API v2 payload into results. Authors are
// resolved from the payload's user expansions; tweets without a parseable
// creation time are skipped.
func FromTweets(raw *twitter.TweetRaw) []result.Result {
	if raw == nil {
		return nil
	}

	users := make(map[string]*twitter.UserObj)
	if raw.Includes != nil {
		for _, u := range raw.Includes.Users {
			if u != nil {
				users[u.ID] = u
			}
		}
	}

	results := make([]result.Result, 0, len(raw.Tweets))
	for _, tweet := range raw.Tweets {
		if tweet == nil {
			continue
		}
		r, ok := FromTweet(tweet, users[tweet.AuthorID])
		if !ok {
			continue
		}
		results = append(results, r)
	}

	return results
}

// FromTweet projects a single tweet and its author
func FromTweet(tweet *twitter.TweetObj, author *twitter.UserObj) (result.Result, bool) {
	postedAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
	if err != nil {
		return result.Result{}, false
	}

	r := result.Result{
		ResultID:      string(result.TypeTwitter) + "-" + tweet.ID,
		Type:          result.TypeTwitter,
		ID:            tweet.ID,
		ContentText:   tweet.Text,
		PermalinkText: string(result.TypeTwitter),
		PostedAt:      postedAt.UTC(),
		Coordinates:   tweetCoordinates(tweet),
		ContentSrc:    contentSrc(tweet),
	}

	handle := tweet.AuthorID
	if author != nil {
		handle = author.UserName
		r.UserNamePrimary = author.Name
		r.AvatarSrc = author.ProfileImageURL
	}
	r.UserNameSecondary = "@" + handle
	r.UserURL = "https://twitter.com/" + handle
	r.PermalinkURL = r.UserURL + "/status/" + tweet.ID

	return r, true
}

// tweetCoordinates converts the GeoJSON [lng, lat] point of a tweet
func tweetCoordinates(tweet *twitter.TweetObj) *criteria.LatLng {
	if tweet.Geo == nil {
		return nil
	}
	c := tweet.Geo.Coordinates.Coordinates
	if len(c) < 2 {
		return nil
	}
	return &criteria.LatLng{c[1], c[0]}
}

// contentSrc derives an embeddable image URL from the first linked URL
func contentSrc(tweet *twitter.TweetObj) string {
	if tweet.Entities == nil || len(tweet.Entities.URLs) == 0 {
		return ""
	}
	return MediaURL(tweet.Entities.URLs[0].ExpandedURL)
}

// MediaURL maps an Instagram or TwitPic link to its image URL
func MediaURL(link string) string {
	if m := instagramPattern.FindStringSubmatch(link); m != nil {
		return "http://instagr.am/p/" + m[1] + "/media/?size=m"
	}
	if m := twitpicPattern.FindStringSubmatch(link); m != nil {
		return "http://twitpic.com/show/large/" + m[1]
	}
	return ""
}
