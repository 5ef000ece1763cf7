// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"net/url"
	"slices"
	"strings"
)

// Source-type labels assigned by SourceType.
const (
	Government            = "government"
	AcademicInstitution   = "academic_institution"
	Encyclopedia          = "encyclopedia"
	SocialChannelCreator  = "social_media_channel_creator"
	SocialVideo           = "social_media_platform_video"
	SocialBloggingUserPub = "social_blogging_platform_user_pub"
	SocialBlogging        = "social_blogging_platform"
	SocialPlatform        = "social_media_platform"
	ResearchPublication   = "research_publication"
	NewsMainstream        = "news_media_mainstream"
	NewsOpinion           = "news_opinion_blog_live"
	NGOPublication        = "ngo_nonprofit_publication"
	NGOOrganization       = "ngo_nonprofit_organization"
	NGOGeneral            = "ngo_nonprofit_general"
	CorporateInfo         = "corporate_blog_pr_info"
	NewsOtherOrBlog       = "news_media_other_or_blog"
	WebsiteGeneral        = "website_general"
	UnknownURL            = "unknown_url"
	UnknownOther          = "unknown_other"
	UnknownErrorParsing   = "unknown_error_parsing"
)

var sourceTypes = []string{
	Government, AcademicInstitution, Encyclopedia, SocialChannelCreator,
	SocialVideo, SocialBloggingUserPub, SocialBlogging, SocialPlatform,
	ResearchPublication, NewsMainstream, NewsOpinion, NGOPublication,
	NGOOrganization, NGOGeneral, CorporateInfo, NewsOtherOrBlog,
	WebsiteGeneral, UnknownURL, UnknownOther, UnknownErrorParsing,
}

// SourceTypes returns every source-type label.
func SourceTypes() []string {
	return slices.Clone(sourceTypes)
}

// IsSourceType reports whether label is a known source-type label.
func IsSourceType(label string) bool {
	return slices.Contains(sourceTypes, label)
}

var socialPlatforms = []string{
	"x.com", "twitter.com", "instagram.com", "tiktok.com", "youtube.com",
	"youtu.be", "facebook.com", "reddit.com", "linkedin.com", "pinterest.com",
	"tumblr.com", "medium.com", "quora.com", "threads.net",
}

var mainstreamNews = []string{
	"nytimes.com", "bbc.com", "cnn.com", "reuters.com", "apnews.com",
	"washingtonpost.com", "wsj.com", "theguardian.com", "npr.org",
	"abcnews.go.com", "cbsnews.com", "nbcnews.com", "foxnews.com",
	"usatoday.com", "bloomberg.com", "forbes.com", "news.google.com",
	"cnbc.com", "politico.com", "axios.com", "theatlantic.com",
	"newyorker.com", "time.com", "latimes.com", "chicagotribune.com", "chron.com",
}

var academicPublishers = []string{
	"arxiv.org", "pubmed.ncbi.nlm.nih.gov", "nature.com", "sciencemag.org",
	"jamanetwork.com", "thelancet.com", "ieee.org", "acm.org", "springer.com",
	"elsevier.com", "wiley.com", "sagepub.com", "jstor.org", "plos.org",
	"frontiersin.org", "bmj.com", "cell.com",
}

// mediumReserved are first path segments on medium.com that are site pages
// rather than publications.
var mediumReserved = map[string]bool{
	"search": true, "tag": true, "topic": true, "collections": true,
	"about": true, "jobs": true, "policy": true, "help": true,
	"settings": true, "explore": true, "me": true, "new-story": true,
}

var (
	opinionPaths   = []string{"/blog", "/opinion", "/contributor", "/live/"}
	ngoPubPaths    = []string{"/blog", "/news", "/press", "/report", "/briefing", "/article", "/story"}
	ngoOrgWords    = []string{"foundation", "institute", "society", "association", "charity", "trust", "fund", "council", "union"}
	corporatePaths = []string{"/blog", "/press-release", "/newsroom", "/insights", "/pr/", "/investors", "/company/about", "/about-us", "/corporate"}
	articlePaths   = []string{"/news/", "/article/", "/story/", "/post/", "/views/"}
	articleTLDs    = []string{".com", ".net", ".info", ".co", ".online", ".io", ".news", ".press", ".report", ".blog"}
	generalTLDs    = []string{".com", ".net", ".biz", ".info", ".org", ".co", ".io", ".app", ".site", ".online", ".me", ".tv", ".news", ".blog", ".press", ".report"}
)

// SourceType classifies a result link by the kind of publisher behind it.
// Rules are checked in order; the first match wins.
func SourceType(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return UnknownURL
	}
	u, err := url.Parse(link)
	if err != nil {
		return UnknownErrorParsing
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.Path)
	if host == "" {
		return UnknownOther
	}

	if hasAnySuffix(host, ".gov", ".mil") || strings.Contains(host, ".gov.") || strings.Contains(host, ".mil.") {
		return Government
	}
	if strings.HasSuffix(host, ".edu") {
		return AcademicInstitution
	}
	if strings.Contains(host, "wikipedia.org") {
		return Encyclopedia
	}
	if st, ok := social(host, path); ok {
		return st
	}
	for _, d := range academicPublishers {
		if strings.Contains(host, d) {
			return ResearchPublication
		}
	}
	for _, d := range mainstreamNews {
		if host == d || strings.HasSuffix(host, "."+d) {
			if containsAny(path, opinionPaths...) {
				return NewsOpinion
			}
			return NewsMainstream
		}
	}
	if strings.HasSuffix(host, ".org") {
		switch {
		case containsAny(path, ngoPubPaths...):
			return NGOPublication
		case containsAny(host, ngoOrgWords...):
			return NGOOrganization
		default:
			return NGOGeneral
		}
	}
	if containsAny(path, corporatePaths...) && !containsAny(host, mainstreamNews...) {
		return CorporateInfo
	}
	if containsAny(path, articlePaths...) && containsAny(host, articleTLDs...) {
		return NewsOtherOrBlog
	}
	if containsAny(host, generalTLDs...) {
		return WebsiteGeneral
	}
	return UnknownOther
}

func social(host, path string) (string, bool) {
	for _, d := range socialPlatforms {
		if host != d && !strings.HasSuffix(host, "."+d) {
			continue
		}
		if d == "youtube.com" || d == "youtu.be" {
			if containsAny(path, "/channel/", "/c/", "/user/") || strings.HasPrefix(path, "/@") {
				return SocialChannelCreator, true
			}
			return SocialVideo, true
		}
		if d == "medium.com" {
			first := firstSegment(path)
			if first != "" && (strings.HasPrefix(first, "@") || (!strings.Contains(first, ".") && !mediumReserved[first])) {
				return SocialBloggingUserPub, true
			}
			return SocialBlogging, true
		}
		return SocialPlatform, true
	}
	return "", false
}

func firstSegment(path string) string {
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			return p
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
