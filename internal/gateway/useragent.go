package gateway

import "regexp"

// link-preview crawlers that unfurl shared product links
var previewBotRe = regexp.MustCompile(`(?i)(slackbot|slack-imgproxy|facebookexternalhit|facebot|twitterbot|linkedinbot|whatsapp|skypeuripreview)`)

func isPreviewBot(userAgent string) bool {
	return userAgent != "" && previewBotRe.MatchString(userAgent)
}
