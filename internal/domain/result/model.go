// internal/domain/result/model.go

package result

import (
	"time"

	"iwitness/internal/domain/criteria"
)

// Type names the service a result came from
type Type string

const (
	TypeTwitter Type = "twitter"
)

// Result is a social-media post normalized for display on the map and timeline
type Result struct {
	ResultID          string           `json:"resultId"`
	Type              Type             `json:"resultType"`
	ID                string           `json:"id"`
	UserNamePrimary   string           `json:"userNamePrimary"`
	UserNameSecondary string           `json:"userNameSecondary"`
	AvatarSrc         string           `json:"avatarSrc,omitempty"`
	ContentText       string           `json:"contentText"`
	ContentSrc        string           `json:"contentSrc,omitempty"`
	UserURL           string           `json:"userUrl"`
	PermalinkURL      string           `json:"permalinkUrl"`
	PermalinkText     string           `json:"permalinkText"`
	PostedAt          time.Time        `json:"postedAt"`
	Coordinates       *criteria.LatLng `json:"coordinates,omitempty"`
}

// Page is one batch of results plus the token for the next one
type Page struct {
	Results   []Result `json:"results"`
	NextToken string   `json:"nextToken,omitempty"`
}
